package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/freefire-tournaments/internal/gateway"
	"github.com/iliyamo/freefire-tournaments/internal/memstore"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/queue"
)

const testSecret = "test-secret"

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by every service in a fixture.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeQR struct {
	mu       sync.Mutex
	err      error
	payloads []string
}

func (f *fakeQR) Generate(_ context.Context, payload string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, payload)
	return "https://qr.test/" + payload, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []queue.RegistrationConfirmedEvent
}

func (f *fakePublisher) PublishRegistrationConfirmed(_ context.Context, ev queue.RegistrationConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeLookup struct {
	players map[string]model.PlayerInfo
	err     error
}

func (f *fakeLookup) Lookup(_ context.Context, uid, region string) (model.PlayerInfo, error) {
	if f.err != nil {
		return model.PlayerInfo{}, f.err
	}
	p, ok := f.players[uid]
	if !ok {
		return model.PlayerInfo{}, gateway.ErrPlayerNotFound
	}
	p.UID, p.Region = uid, region
	return p, nil
}

type fixture struct {
	store   *memstore.Store
	clock   *testClock
	oracle  *gateway.StaticOracle
	qr      *fakeQR
	events  *fakePublisher
	lookup  *fakeLookup
	auth    *AuthService
	catalog *CatalogService
	reg     *RegistrationService
	players *PlayerService
	admin   *AdminService
	board   *LeaderboardService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, RegistrationConfig{OrderTTL: 15 * time.Minute, RevalidateOnConfirm: true, PayeeVPA: "pay@upi"})
}

func newFixtureWith(t *testing.T, cfg RegistrationConfig) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		clock:  &testClock{now: baseTime},
		oracle: gateway.NewStaticOracle(model.PaymentPending),
		qr:     &fakeQR{},
		events: &fakePublisher{},
		lookup: &fakeLookup{players: map[string]model.PlayerInfo{}},
	}
	clock := Clock(f.clock.Now)
	f.auth = NewAuthService(f.store.Users, AuthConfig{Secret: testSecret, AccessTTLMin: 60, BcryptCost: bcrypt.MinCost}, nil, nil).WithClock(clock)
	f.catalog = NewCatalogService(f.store.Tournaments, nil).WithClock(clock)
	f.reg = NewRegistrationService(RegistrationDeps{
		Tournaments: f.store.Tournaments,
		Users:       f.store.Users,
		Ledger:      f.store.Ledger,
		QR:          f.qr,
		Oracle:      f.oracle,
		Events:      f.events,
	}, cfg).WithClock(clock)
	f.players = NewPlayerService(f.store.Users, f.store.Tournaments, f.store.Ledger, f.store.Leaderboard,
		f.lookup, WeightedScorer{}, nil).WithClock(clock)
	f.admin = NewAdminService(f.store.Users, nil)
	f.board = NewLeaderboardService(f.store.Leaderboard)
	return f
}

func (f *fixture) user(t *testing.T, name string) model.User {
	t.Helper()
	sess, err := f.auth.Register(context.Background(), RegisterInput{
		Email: name + "@example.com", Password: "secret123", Username: name,
	})
	require.NoError(t, err)
	return sess.User
}

func (f *fixture) tournament(t *testing.T, fee int64, max int) model.Tournament {
	t.Helper()
	name := "Cup"
	entry := decimal.NewFromInt(fee)
	start := f.clock.Now().Add(2 * time.Hour)
	deadline := f.clock.Now().Add(time.Hour)
	tr, err := f.catalog.Create(context.Background(), "admin", TournamentInput{
		Name: &name, EntryFee: &entry, MaxParticipants: &max, StartTime: &start, RegistrationDeadline: &deadline,
	})
	require.NoError(t, err)
	return tr
}

func (f *fixture) participants(t *testing.T, id string) int {
	t.Helper()
	tr, err := f.catalog.Get(context.Background(), id)
	require.NoError(t, err)
	return tr.CurrentParticipants
}
