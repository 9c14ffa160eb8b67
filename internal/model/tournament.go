package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tournament status values. Transitions are driven by admins and the
// scheduler, never by the registration workflow.
const (
	TournamentUpcoming  = "upcoming"
	TournamentLive      = "live"
	TournamentCompleted = "completed"
	TournamentCancelled = "cancelled"
)

// GameFreeFire is the default game_type.
const GameFreeFire = "free_fire"

// Tournament represents a row in the `tournaments` table.
// CurrentParticipants only moves through an atomic conditional increment
// and stays within 0..MaxParticipants.
type Tournament struct {
	ID                   string          `json:"tournament_id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	GameType             string          `json:"game_type"`
	TournamentType       string          `json:"tournament_type"`
	Mode                 string          `json:"mode"`
	Country              string          `json:"country"`
	EntryFee             decimal.Decimal `json:"entry_fee"`
	PrizePool            decimal.Decimal `json:"prize_pool"`
	MaxParticipants      int             `json:"max_participants"`
	CurrentParticipants  int             `json:"current_participants"`
	StartTime            time.Time       `json:"start_time"`
	RegistrationDeadline time.Time       `json:"registration_deadline"`
	Status               string          `json:"status"`
	CreatedBy            string          `json:"created_by"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// IsFree reports whether entry requires no payment.
func (t Tournament) IsFree() bool { return !t.EntryFee.IsPositive() }

// IsFull reports whether every slot is taken.
func (t Tournament) IsFull() bool { return t.CurrentParticipants >= t.MaxParticipants }

// AcceptsEntries reports whether registration is still open at now.
// The deadline itself is inclusive.
func (t Tournament) AcceptsEntries(now time.Time) bool {
	return t.Status == TournamentUpcoming && !now.After(t.RegistrationDeadline)
}

// ValidStatus reports whether s is a known tournament status.
func ValidStatus(s string) bool {
	switch s {
	case TournamentUpcoming, TournamentLive, TournamentCompleted, TournamentCancelled:
		return true
	}
	return false
}
