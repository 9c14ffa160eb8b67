package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status values. success and failed are terminal.
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Failure reasons recorded on settled orders. FailureExpired fails the
// order; the others keep it success and set RefundRequired.
const (
	FailureExpired            = "expired"
	FailureTournamentFull     = "tournament_full"
	FailureRegistrationClosed = "registration_closed"
	FailureTournamentRemoved  = "tournament_removed"
	FailureAlreadyRegistered  = "already_registered"
)

// Payment represents one order (payment attempt) in the `payments` table.
// RefundRequired is set when a paid order could not be turned into a
// registration: the tournament filled up, closed or vanished meanwhile, or
// the payer was already admitted through another order.
type Payment struct {
	OrderID        string          `json:"order_id"`
	UserID         string          `json:"user_id"`
	TournamentID   string          `json:"tournament_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	RefundRequired bool            `json:"refund_required"`
	ExpiresAt      time.Time       `json:"expires_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Terminal reports whether the status can no longer change.
func (p Payment) Terminal() bool {
	return p.Status == PaymentSuccess || p.Status == PaymentFailed
}

// Expired reports whether a pending order is past its expiry at now.
func (p Payment) Expired(now time.Time) bool {
	return p.Status == PaymentPending && now.After(p.ExpiresAt)
}

// ValidPaymentStatus reports whether s is a status an oracle may return.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return true
	}
	return false
}
