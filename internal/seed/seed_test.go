package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/freefire-tournaments/internal/gateway"
	"github.com/iliyamo/freefire-tournaments/internal/memstore"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/service"
)

type noQR struct{}

func (noQR) Generate(context.Context, string) (string, error) { return "", nil }

func newDeps(store *memstore.Store) (Deps, *service.CatalogService, *service.LeaderboardService) {
	auth := service.NewAuthService(store.Users, service.AuthConfig{Secret: "s", AccessTTLMin: 60, BcryptCost: bcrypt.MinCost}, nil, nil)
	catalog := service.NewCatalogService(store.Tournaments, nil)
	regs := service.NewRegistrationService(service.RegistrationDeps{
		Tournaments: store.Tournaments,
		Users:       store.Users,
		Ledger:      store.Ledger,
		QR:          noQR{},
		Oracle:      gateway.NewStaticOracle(model.PaymentPending),
	}, service.RegistrationConfig{})
	players := service.NewPlayerService(store.Users, store.Tournaments, store.Ledger, store.Leaderboard,
		gateway.StaticLookup{}, service.WeightedScorer{}, nil)
	return Deps{
		Auth: auth, Catalog: catalog, Registrations: regs, Players: players,
		Ledger: store.Ledger, Board: store.Leaderboard,
	}, catalog, service.NewLeaderboardService(store.Leaderboard)
}

func TestRunSeedsConsistentData(t *testing.T) {
	store := memstore.New()
	deps, catalog, board := newDeps(store)
	ctx := context.Background()

	sum, err := Run(ctx, deps, Options{Players: 8, Tournaments: 6, Seed: 7, Now: time.Now()})
	require.NoError(t, err)
	assert.False(t, sum.Skipped)
	assert.Equal(t, 9, sum.Players)
	assert.Equal(t, 6, sum.Tournaments)

	page, err := catalog.List(ctx, service.ListQuery{PageSize: 100})
	require.NoError(t, err)
	require.Len(t, page.Tournaments, 6)
	registered := 0
	for _, tr := range page.Tournaments {
		assert.Equal(t, model.TournamentUpcoming, tr.Status)
		assert.LessOrEqual(t, tr.CurrentParticipants, tr.MaxParticipants)
		assert.True(t, tr.RegistrationDeadline.After(time.Now()))
		registered += tr.CurrentParticipants
	}
	assert.Equal(t, sum.Registrations, registered)

	top, err := board.Top(ctx, "", 100)
	require.NoError(t, err)
	require.Len(t, top, 9)
	var demo *model.LeaderboardEntry
	for i := range top {
		if top[i].Username == "demo_player" {
			demo = &top[i]
		}
	}
	require.NotNil(t, demo)
	assert.Equal(t, "8500", demo.TotalEarnings.String())
	assert.Equal(t, 5, demo.TournamentsWon)

	admin, err := deps.Auth.Login(ctx, defaultAdminEmail, defaultAdminPassword)
	require.NoError(t, err)
	assert.True(t, admin.User.IsAdmin)
	_, err = deps.Auth.Login(ctx, DemoEmail, DemoPassword)
	assert.NoError(t, err)
}

func TestRunTwiceIsSkipped(t *testing.T) {
	store := memstore.New()
	deps, catalog, _ := newDeps(store)
	ctx := context.Background()

	_, err := Run(ctx, deps, Options{Players: 2, Tournaments: 1, AdminEmail: "ops@example.com", AdminPassword: "opsecret"})
	require.NoError(t, err)
	again, err := Run(ctx, deps, Options{Players: 2, Tournaments: 1})
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	page, err := catalog.List(ctx, service.ListQuery{PageSize: 100})
	require.NoError(t, err)
	assert.Len(t, page.Tournaments, 1)

	admin, err := deps.Auth.Login(ctx, "ops@example.com", "opsecret")
	require.NoError(t, err)
	assert.True(t, admin.User.IsAdmin)
}
