package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/config"
	"github.com/iliyamo/freefire-tournaments/internal/database"
	"github.com/iliyamo/freefire-tournaments/internal/gateway"
	"github.com/iliyamo/freefire-tournaments/internal/handler"
	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/memstore"
	"github.com/iliyamo/freefire-tournaments/internal/metrics"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/queue"
	"github.com/iliyamo/freefire-tournaments/internal/repository"
	"github.com/iliyamo/freefire-tournaments/internal/router"
	"github.com/iliyamo/freefire-tournaments/internal/seed"
	"github.com/iliyamo/freefire-tournaments/internal/service"
)

const maintenanceInterval = time.Minute

// demoPlayers backs FREEFIRE_MODE=static.
var demoPlayers = map[string]model.PlayerInfo{
	"123456789":  {Nickname: "DemoSniper", Level: 62, Liked: 1500, ClanName: "Night Owls", ClanLevel: 5},
	"1234567890": {Nickname: "DemoRusher", Level: 45, Liked: 320, ClanName: "No Guild", ClanLevel: 1},
}

// stores is the persistence backend selected by STORAGE_DRIVER.
type stores struct {
	users       service.UserStore
	tournaments service.TournamentStore
	ledger      service.Ledger
	board       service.LeaderboardStore
	ping        func(ctx context.Context) error
	close       func() error
}

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		zl.Fatal("storage unavailable", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() { _ = st.close() }()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		zl.Warn("redis unavailable, rate limiting and caching disabled", zap.String("addr", cfg.Redis.Address()))
	} else {
		defer func() { _ = rdb.Close() }()
	}

	var events service.EventPublisher
	if cfg.RabbitMQ.Enabled {
		events = queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, zl)
		go queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, cfg.RabbitMQ.LogDir, zl).Run(ctx)
	}

	m := metrics.New()
	httpClient := gateway.NewHTTPClient(cfg.HTTP.Timeout)
	var lookup service.PlayerLookup = gateway.NewFreeFireClient(cfg.FreeFire.BaseURL, httpClient)
	if cfg.FreeFire.Mode == "static" {
		lookup = gateway.StaticLookup{Players: demoPlayers}
	}

	var qr service.QRGenerator = gateway.LinkQR{BaseURL: cfg.QR.BaseURL, Size: cfg.QR.Size}
	if cfg.QR.Mode == "monkey" {
		qr = gateway.MonkeyQR{BaseURL: cfg.QR.BaseURL, Size: cfg.QR.Size, Client: httpClient}
	}
	var oracle service.PaymentOracle = gateway.NewStaticOracle(cfg.Payment.MockStatus)
	if cfg.Payment.OracleMode == "http" {
		oracle = gateway.NewHTTPOracle(cfg.Payment.OracleURL, httpClient)
	}

	auth := service.NewAuthService(st.users, service.AuthConfig{
		Secret:       cfg.JWT.Secret,
		AccessTTLMin: cfg.JWT.AccessTTLMin,
		BcryptCost:   cfg.Auth.BcryptCost,
	}, m, zl)
	catalog := service.NewCatalogService(st.tournaments, zl)
	regs := service.NewRegistrationService(service.RegistrationDeps{
		Tournaments: st.tournaments,
		Users:       st.users,
		Ledger:      st.ledger,
		QR:          qr,
		Oracle:      oracle,
		Events:      events,
		Metrics:     m,
		Log:         zl,
	}, service.RegistrationConfig{
		OrderTTL:            cfg.Payment.OrderTTL,
		RevalidateOnConfirm: cfg.Payment.RevalidateOnConfirm,
		PayeeVPA:            cfg.UPI.PayeeVPA,
		PayeeName:           cfg.UPI.PayeeName,
	})
	players := service.NewPlayerService(st.users, st.tournaments, st.ledger, st.board, lookup, service.WeightedScorer{}, zl)
	admin := service.NewAdminService(st.users, zl)
	board := service.NewLeaderboardService(st.board)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			zl.Fatal("admin bootstrap failed", zap.Error(err))
		}
	}

	if cfg.Seed.DemoData {
		if _, err := seed.Run(ctx, seed.Deps{
			Auth: auth, Catalog: catalog, Registrations: regs, Players: players,
			Ledger: st.ledger, Board: st.board, Log: zl,
		}, seed.Options{
			Players:       cfg.Seed.Players,
			Tournaments:   cfg.Seed.Tournaments,
			Seed:          cfg.Seed.RandomSeed,
			AdminEmail:    cfg.Admin.Email,
			AdminPassword: cfg.Admin.Password,
		}); err != nil {
			zl.Fatal("demo data seeding failed", zap.Error(err))
		}
	}

	sched, err := service.NewScheduler(regs, st.tournaments, maintenanceInterval, m, zl).Start(ctx)
	if err != nil {
		zl.Fatal("scheduler start failed", zap.Error(err))
	}

	e := router.New(router.Handlers{
		Health:      &handler.HealthHandler{Ping: st.ping},
		Auth:        handler.NewAuthHandler(auth, players, zl),
		Tournaments: handler.NewTournamentHandler(catalog, regs, players, zl),
		Payments:    handler.NewPaymentHandler(regs, zl),
		Users:       handler.NewUserHandler(regs, players, zl),
		Admin:       handler.NewAdminUserHandler(admin, zl),
		Leaderboard: handler.NewLeaderboardHandler(board, zl),
	}, router.Options{
		Authenticator: auth,
		RateLimit:     cfg.RateLimit,
		Cache:         cfg.Cache,
		Redis:         rdb,
		Metrics:       m,
		Log:           zl,
	})

	addr := ":" + cfg.App.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.App.Env),
			zap.String("storage", cfg.Storage.Driver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown", zap.Error(err))
	}
	if err := sched.Shutdown(); err != nil {
		zl.Error("scheduler shutdown", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.Storage.Driver == "memory" {
		m := memstore.New()
		return stores{
			users: m.Users, tournaments: m.Tournaments, ledger: m.Ledger, board: m.Leaderboard,
			close: func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return stores{}, err
	}
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.Migrate(migrateCtx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return mysqlStores(db), nil
}

func mysqlStores(db *sql.DB) stores {
	return stores{
		users:       repository.NewUserRepo(db),
		tournaments: repository.NewTournamentRepo(db),
		ledger:      repository.NewLedgerRepo(db),
		board:       repository.NewLeaderboardRepo(db),
		ping:        db.PingContext,
		close:       db.Close,
	}
}
