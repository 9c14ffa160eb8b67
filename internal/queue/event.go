// Package queue defines message payloads exchanged over the message broker.
package queue

// RegistrationConfirmedEvent is published when a user is admitted to a
// tournament, directly or after a successful payment. It carries enough
// for downstream consumers to log or notify without querying the database.
type RegistrationConfirmedEvent struct {
	RegistrationID string `json:"registration_id"`
	TournamentID   string `json:"tournament_id"`
	TournamentName string `json:"tournament_name"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	OrderID        string `json:"order_id,omitempty"`
	Amount         string `json:"amount"`
	StartsAt       string `json:"starts_at"`
	ConfirmedAt    string `json:"confirmed_at"`
}
