package model

import "time"

// RegistrationConfirmed is the only status the workflow produces.
const RegistrationConfirmed = "confirmed"

// Registration admits one user to one tournament. The pair
// (TournamentID, UserID) is unique. PaymentOrderID is nil for free entries.
type Registration struct {
	ID             string    `json:"registration_id"`
	TournamentID   string    `json:"tournament_id"`
	UserID         string    `json:"user_id"`
	PaymentOrderID *string   `json:"payment_order_id"`
	Status         string    `json:"status"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// PaidBy reports whether the registration was bought with orderID.
func (r Registration) PaidBy(orderID string) bool {
	return r.PaymentOrderID != nil && *r.PaymentOrderID == orderID
}

// UserTournament pairs a registration with its tournament for the
// caller's "my tournaments" view.
type UserTournament struct {
	Registration Registration `json:"registration"`
	Tournament   Tournament   `json:"tournament"`
}
