// Package seed fills an empty deployment with demo accounts, tournaments,
// registrations and leaderboard standings. Everything goes through the
// services and the ledger so the counters and payments stay consistent.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/repository"
	"github.com/iliyamo/freefire-tournaments/internal/service"
)

// Demo account created on every seeded deployment.
const (
	DemoEmail    = "demo@tournament.com"
	DemoPassword = "demo123"

	defaultAdminEmail    = "admin@tournament.com"
	defaultAdminPassword = "admin123"
	playerPassword       = "password123"
)

var (
	firstNames = []string{"Arjun", "Rahul", "Priya", "Ankit", "Sneha", "Vikash", "Pooja", "Rohit", "Kajal", "Amit",
		"Neha", "Suresh", "Kavya", "Deepak", "Riya", "Manish", "Divya", "Rajesh", "Swati", "Karan"}
	lastNames       = []string{"Kumar", "Singh", "Sharma", "Gupta", "Verma", "Yadav", "Mishra", "Tiwari", "Chauhan", "Jain"}
	ranks           = []string{"Bronze", "Silver", "Gold", "Platinum", "Diamond", "Heroic", "Grandmaster"}
	tournamentNames = []string{"Battle Royale Championship", "Elite Warriors Tournament", "Free Fire Clash Squad",
		"Ultimate Gaming Arena", "Pro Players Battle", "Weekend Warriors Cup", "Mobile Gaming Championship",
		"Fire Squad Tournament", "Champions League FF", "Free Fire Pro League"}
	tournamentTypes = []string{"battle_royale", "clash_squad", "single_elimination", "double_elimination"}
	modes           = []string{"solo", "duo", "squad"}
	countries       = []string{"India", "Global", "Asia", "SEA"}
	entryFees       = []int64{0, 50, 100, 250, 500, 1000}
	capacities      = []int{32, 64, 100, 128}
)

// Deps are the collaborators the seeder drives.
type Deps struct {
	Auth          *service.AuthService
	Catalog       *service.CatalogService
	Registrations *service.RegistrationService
	Players       *service.PlayerService
	Ledger        service.Ledger
	Board         service.LeaderboardStore
	Log           *zap.Logger
}

// Options sizes the data set. The same Seed produces the same names,
// stats and fees.
type Options struct {
	Players       int
	Tournaments   int
	Seed          uint64
	AdminEmail    string
	AdminPassword string
	Now           time.Time
}

// Summary counts what Run created. Skipped is set when the demo account
// already existed and nothing was written.
type Summary struct {
	Players       int
	Tournaments   int
	Registrations int
	Skipped       bool
}

type seeder struct {
	Deps
	opt Options
	rng *rand.Rand
}

// Run seeds the stores once. A second call finds the demo account and
// returns a skipped summary.
func Run(ctx context.Context, d Deps, opt Options) (Summary, error) {
	d.Log = logger.OrNop(d.Log)
	if opt.Now.IsZero() {
		opt.Now = time.Now()
	}
	if opt.AdminEmail == "" || opt.AdminPassword == "" {
		opt.AdminEmail, opt.AdminPassword = defaultAdminEmail, defaultAdminPassword
	}
	s := &seeder{Deps: d, opt: opt, rng: rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))}

	demo, err := d.Auth.Register(ctx, service.RegisterInput{
		Email: DemoEmail, Password: DemoPassword, Username: "demo_player", FullName: "Demo Player", FreeFireUID: "123456789",
	})
	if errors.Is(err, service.ErrConflict) {
		d.Log.Info("demo data already present")
		return Summary{Skipped: true}, nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("demo account: %w", err)
	}

	if err := d.Auth.EnsureAdmin(ctx, opt.AdminEmail, opt.AdminPassword); err != nil {
		return Summary{}, fmt.Errorf("admin account: %w", err)
	}
	admin, err := d.Auth.Login(ctx, opt.AdminEmail, opt.AdminPassword)
	if err != nil {
		return Summary{}, fmt.Errorf("admin login: %w", err)
	}

	demoStats := model.PlayerStats{Level: 65, Rank: "Heroic", TotalMatches: 1250, Wins: 342, Kills: 8750,
		SurvivalRate: 27.4, AvgDamage: 1847, HeadshotRate: 18.5}
	if err := s.standing(ctx, demo.User.ID, demoStats, decimal.NewFromInt(8500), 5); err != nil {
		return Summary{}, err
	}

	players := []string{demo.User.ID}
	for i := 0; i < opt.Players; i++ {
		id, err := s.player(ctx)
		if errors.Is(err, service.ErrConflict) {
			continue
		}
		if err != nil {
			return Summary{}, err
		}
		players = append(players, id)
	}

	sum := Summary{Players: len(players)}
	for i := 0; i < opt.Tournaments; i++ {
		t, err := s.tournament(ctx, admin.User.ID)
		if err != nil {
			return Summary{}, err
		}
		n, err := s.fill(ctx, t, players)
		if err != nil {
			return Summary{}, err
		}
		sum.Tournaments++
		sum.Registrations += n
	}

	d.Log.Info("demo data seeded",
		zap.Int("players", sum.Players), zap.Int("tournaments", sum.Tournaments), zap.Int("registrations", sum.Registrations))
	return sum, nil
}

func (s *seeder) player(ctx context.Context) (string, error) {
	first := pick(s.rng, firstNames)
	username := strings.ToLower(first) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	sess, err := s.Auth.Register(ctx, service.RegisterInput{
		Email:       username + "@example.com",
		Password:    playerPassword,
		Username:    username,
		FullName:    first + " " + pick(s.rng, lastNames),
		FreeFireUID: strconv.Itoa(100000000 + s.rng.IntN(900000000)),
		Region:      "ind",
	})
	if err != nil {
		return "", err
	}

	matches := 200 + s.rng.IntN(1801)
	st := model.PlayerStats{
		Level:        30 + s.rng.IntN(46),
		Rank:         pick(s.rng, ranks),
		TotalMatches: matches,
		Wins:         matches/10 + s.rng.IntN(matches*3/10+1),
		Kills:        matches*2 + s.rng.IntN(matches*6+1),
		SurvivalRate: round1(15 + s.rng.Float64()*20),
		AvgDamage:    800 + s.rng.IntN(1401),
		HeadshotRate: round1(10 + s.rng.Float64()*15),
	}
	earnings := decimal.NewFromFloat(s.rng.Float64() * 15000).Round(2)
	if err := s.standing(ctx, sess.User.ID, st, earnings, s.rng.IntN(9)); err != nil {
		return "", err
	}
	return sess.User.ID, nil
}

// standing stores self-reported stats, then the earnings and wins that
// only results would normally produce.
func (s *seeder) standing(ctx context.Context, userID string, st model.PlayerStats, earnings decimal.Decimal, won int) error {
	if _, err := s.Players.UpdateStats(ctx, userID, st); err != nil {
		return fmt.Errorf("stats for %s: %w", userID, err)
	}
	entry, err := s.Board.Get(ctx, userID, model.GameFreeFire)
	if err != nil {
		return err
	}
	entry.TotalEarnings, entry.TournamentsWon = earnings, won
	return s.Board.Upsert(ctx, entry)
}

func (s *seeder) tournament(ctx context.Context, adminID string) (model.Tournament, error) {
	fee := decimal.NewFromInt(pickInt64(s.rng, entryFees))
	capacity := capacities[s.rng.IntN(len(capacities))]
	prize := fee.Mul(decimal.NewFromInt(int64(capacity))).Mul(decimal.RequireFromString("0.9")).Round(2)
	start := s.opt.Now.Add(26*time.Hour + time.Duration(s.rng.IntN(14*24))*time.Hour).Truncate(time.Minute)
	deadline := start.Add(-time.Duration(1+s.rng.IntN(24)) * time.Hour)

	name := pick(s.rng, tournamentNames)
	desc := "Competitive Free Fire tournament with ₹" + prize.StringFixed(0) + " prize pool"
	kind, mode, country := pick(s.rng, tournamentTypes), pick(s.rng, modes), pick(s.rng, countries)
	return s.Catalog.Create(ctx, adminID, service.TournamentInput{
		Name: &name, Description: &desc, TournamentType: &kind, Mode: &mode, Country: &country,
		EntryFee: &fee, PrizePool: &prize, MaxParticipants: &capacity,
		StartTime: &start, RegistrationDeadline: &deadline,
	})
}

// fill registers a random share of players, up to 80% of capacity. Paid
// entries get a settled order so the payment history matches.
func (s *seeder) fill(ctx context.Context, t model.Tournament, players []string) (int, error) {
	limit := min(len(players), t.MaxParticipants*8/10)
	n := s.rng.IntN(limit + 1)
	for _, i := range s.rng.Perm(len(players))[:n] {
		if t.IsFree() {
			if _, err := s.Registrations.RegisterFree(ctx, players[i], t.ID); err != nil {
				return 0, err
			}
			continue
		}
		if err := s.paid(ctx, t, players[i]); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (s *seeder) paid(ctx context.Context, t model.Tournament, userID string) error {
	ref := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	p := model.Payment{
		OrderID:      "ORD_" + ref[:16],
		UserID:       userID,
		TournamentID: t.ID,
		Amount:       t.EntryFee,
		Status:       model.PaymentPending,
		ExpiresAt:    s.opt.Now.Add(15 * time.Minute),
		CreatedAt:    s.opt.Now,
		UpdatedAt:    s.opt.Now,
	}
	if err := s.Ledger.CreatePayment(ctx, &p); err != nil {
		return err
	}
	res, err := s.Ledger.Settle(ctx, repository.Settlement{
		OrderID:       p.OrderID,
		Status:        model.PaymentSuccess,
		TransactionID: "TXN_" + ref[16:],
		Revalidate:    true,
		Now:           s.opt.Now,
	})
	if err != nil {
		return err
	}
	if !res.Admitted {
		return fmt.Errorf("order %s not admitted: %s", p.OrderID, res.Payment.FailureReason)
	}
	return nil
}

func pick(r *rand.Rand, xs []string) string { return xs[r.IntN(len(xs))] }

func pickInt64(r *rand.Rand, xs []int64) int64 { return xs[r.IntN(len(xs))] }

func round1(f float64) float64 { return float64(int(f*10+0.5)) / 10 }
