package service

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/metrics"
)

// Scheduler runs the periodic maintenance: failing overdue payment orders
// and moving tournaments whose start time has passed to live. These are
// the only automatic status transitions in the system.
type Scheduler struct {
	registrations *RegistrationService
	tournaments   TournamentStore
	metrics       *metrics.Metrics
	log           *zap.Logger
	interval      time.Duration
	clock         Clock
}

func NewScheduler(registrations *RegistrationService, tournaments TournamentStore, interval time.Duration,
	m *metrics.Metrics, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		registrations: registrations,
		tournaments:   tournaments,
		metrics:       m,
		log:           logger.OrNop(log),
		interval:      interval,
	}
}

// WithClock overrides the time source.
func (s *Scheduler) WithClock(c Clock) *Scheduler {
	s.clock = c
	return s
}

// Start registers the maintenance job and starts the scheduler. The caller
// owns the returned scheduler and must shut it down.
func (s *Scheduler) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.RunOnce(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	return sched, nil
}

// RunOnce performs one maintenance pass. Failures are logged and the next
// tick tries again.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.timed("expire_payments", func() {
		n, err := s.registrations.ExpirePending(ctx)
		if err != nil {
			s.log.Error("expiring payment orders failed", zap.Error(err))
			return
		}
		if n > 0 {
			s.log.Info("expired payment orders", zap.Int64("count", n))
		}
	})
	s.timed("start_tournaments", func() {
		n, err := s.tournaments.StartDue(ctx, s.clock.now())
		if err != nil {
			s.log.Error("starting due tournaments failed", zap.Error(err))
			return
		}
		if n > 0 {
			s.log.Info("tournaments went live", zap.Int64("count", n))
		}
	})
}

func (s *Scheduler) timed(job string, fn func()) {
	start := time.Now()
	fn()
	if s.metrics != nil {
		s.metrics.SchedulerJobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
	}
}
