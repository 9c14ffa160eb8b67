package service

import (
	"context"
	"time"

	"github.com/iliyamo/freefire-tournaments/internal/gateway"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/queue"
	"github.com/iliyamo/freefire-tournaments/internal/repository"
)

// UserStore is satisfied by repository.UserRepo and memstore.Users.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByFreeFireUID(ctx context.Context, uid string) (model.User, error)
	List(ctx context.Context, page, pageSize int) ([]model.User, int64, error)
	Update(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id string) error
}

// TournamentStore is satisfied by repository.TournamentRepo and
// memstore.Tournaments.
type TournamentStore interface {
	Create(ctx context.Context, t *model.Tournament) error
	GetByID(ctx context.Context, id string) (model.Tournament, error)
	List(ctx context.Context, q repository.TournamentQuery) ([]model.Tournament, int64, error)
	Update(ctx context.Context, t model.Tournament) error
	Delete(ctx context.Context, id string) error
	StartDue(ctx context.Context, now time.Time) (int64, error)
}

// Ledger owns registrations, payments and the participant counter.
type Ledger interface {
	AdmitFree(ctx context.Context, tournamentID, userID string, now time.Time) (model.Registration, error)
	HasRegistration(ctx context.Context, tournamentID, userID string) (bool, error)
	CreatePayment(ctx context.Context, p *model.Payment) error
	OpenPayment(ctx context.Context, tournamentID, userID string, now time.Time) (model.Payment, error)
	GetPayment(ctx context.Context, orderID string) (model.Payment, error)
	Settle(ctx context.Context, s repository.Settlement) (repository.SettlementResult, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserTournament, error)
}

// LeaderboardStore is satisfied by repository.LeaderboardRepo and
// memstore.Leaderboard.
type LeaderboardStore interface {
	Upsert(ctx context.Context, e model.LeaderboardEntry) error
	Get(ctx context.Context, userID, gameType string) (model.LeaderboardEntry, error)
	List(ctx context.Context, gameType string, limit int) ([]model.LeaderboardEntry, error)
}

// PlayerLookup resolves a Free Fire UID to a public profile.
type PlayerLookup interface {
	Lookup(ctx context.Context, uid, region string) (model.PlayerInfo, error)
}

// QRGenerator turns a payment payload into a QR image URL.
type QRGenerator interface {
	Generate(ctx context.Context, payload string) (string, error)
}

// PaymentOracle is the source of truth for an order's payment status.
type PaymentOracle interface {
	Check(ctx context.Context, orderID string) (gateway.PaymentStatus, error)
}

// EventPublisher delivers registration events to the broker.
type EventPublisher interface {
	PublishRegistrationConfirmed(ctx context.Context, ev queue.RegistrationConfirmedEvent) error
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
