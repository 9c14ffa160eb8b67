package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatalogService manages tournaments. It never writes the participant
// counter; only the ledger does.
type CatalogService struct {
	tournaments TournamentStore
	log         *zap.Logger
	clock       Clock
}

func NewCatalogService(tournaments TournamentStore, log *zap.Logger) *CatalogService {
	if tournaments == nil {
		panic("nil tournament store passed to NewCatalogService")
	}
	return &CatalogService{tournaments: tournaments, log: logger.OrNop(log)}
}

// WithClock overrides the time source.
func (s *CatalogService) WithClock(c Clock) *CatalogService {
	s.clock = c
	return s
}

// TournamentInput is the admin payload for create and update. On update,
// nil fields keep their stored value.
type TournamentInput struct {
	Name                 *string          `json:"name"`
	Description          *string          `json:"description"`
	GameType             *string          `json:"game_type"`
	TournamentType       *string          `json:"tournament_type"`
	Mode                 *string          `json:"mode"`
	Country              *string          `json:"country"`
	EntryFee             *decimal.Decimal `json:"entry_fee"`
	PrizePool            *decimal.Decimal `json:"prize_pool"`
	MaxParticipants      *int             `json:"max_participants"`
	StartTime            *time.Time       `json:"start_time"`
	RegistrationDeadline *time.Time       `json:"registration_deadline"`
	Status               *string          `json:"status"`
}

// ListQuery filters the public catalog.
type ListQuery struct {
	GameType string
	Country  string
	Mode     string
	Status   string
	Page     int
	PageSize int
}

// TournamentPage is one page of the catalog.
type TournamentPage struct {
	Tournaments []model.Tournament `json:"tournaments"`
	Total       int64              `json:"total"`
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
}

func (s *CatalogService) List(ctx context.Context, q ListQuery) (TournamentPage, error) {
	page, size, err := pageBounds(q.Page, q.PageSize)
	if err != nil {
		return TournamentPage{}, err
	}
	status := strings.ToLower(strings.TrimSpace(q.Status))
	if status != "" && !model.ValidStatus(status) {
		return TournamentPage{}, invalid("unknown tournament status")
	}
	items, total, err := s.tournaments.List(ctx, repository.TournamentQuery{
		GameType: strings.ToLower(strings.TrimSpace(q.GameType)),
		Country:  strings.TrimSpace(q.Country),
		Mode:     strings.ToLower(strings.TrimSpace(q.Mode)),
		Status:   status,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return TournamentPage{}, err
	}
	return TournamentPage{Tournaments: items, Total: total, Page: page, PageSize: size}, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (model.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, id)
	return t, fromStore(err, "tournament")
}

// Create adds a tournament owned by adminID. Status defaults to upcoming
// and game type to free_fire.
func (s *CatalogService) Create(ctx context.Context, adminID string, in TournamentInput) (model.Tournament, error) {
	now := s.clock.now()
	t := model.Tournament{
		ID:        uuid.NewString(),
		GameType:  model.GameFreeFire,
		Status:    model.TournamentUpcoming,
		CreatedBy: adminID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.StartTime == nil || in.RegistrationDeadline == nil || in.MaxParticipants == nil {
		return model.Tournament{}, invalid("start_time, registration_deadline and max_participants are required")
	}
	apply(&t, in)
	if err := validateTournament(t); err != nil {
		return model.Tournament{}, err
	}
	if err := s.tournaments.Create(ctx, &t); err != nil {
		return model.Tournament{}, err
	}
	s.log.Info("tournament created", zap.String("tournament_id", t.ID), zap.String("created_by", adminID))
	return t, nil
}

// Update applies a partial change. Capacity cannot drop below the current
// participant count.
func (s *CatalogService) Update(ctx context.Context, id string, in TournamentInput) (model.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return model.Tournament{}, fromStore(err, "tournament")
	}
	apply(&t, in)
	if err := validateTournament(t); err != nil {
		return model.Tournament{}, err
	}
	if t.MaxParticipants < t.CurrentParticipants {
		return model.Tournament{}, newError(ErrConflict, "max_participants cannot be below current participants")
	}
	t.UpdatedAt = s.clock.now()
	if err := s.tournaments.Update(ctx, t); err != nil {
		return model.Tournament{}, fromStore(err, "tournament")
	}
	return s.Get(ctx, id)
}

// Delete removes a tournament unless it is live or completed.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	t, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return fromStore(err, "tournament")
	}
	if t.Status == model.TournamentLive || t.Status == model.TournamentCompleted {
		return newError(ErrConflict, "cannot delete a "+t.Status+" tournament")
	}
	if err := s.tournaments.Delete(ctx, id); err != nil {
		return fromStore(err, "tournament")
	}
	s.log.Info("tournament deleted", zap.String("tournament_id", id))
	return nil
}

func apply(t *model.Tournament, in TournamentInput) {
	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.GameType != nil {
		t.GameType = strings.ToLower(strings.TrimSpace(*in.GameType))
	}
	if in.TournamentType != nil {
		t.TournamentType = strings.TrimSpace(*in.TournamentType)
	}
	if in.Mode != nil {
		t.Mode = strings.ToLower(strings.TrimSpace(*in.Mode))
	}
	if in.Country != nil {
		t.Country = strings.TrimSpace(*in.Country)
	}
	if in.EntryFee != nil {
		t.EntryFee = *in.EntryFee
	}
	if in.PrizePool != nil {
		t.PrizePool = *in.PrizePool
	}
	if in.MaxParticipants != nil {
		t.MaxParticipants = *in.MaxParticipants
	}
	if in.StartTime != nil {
		t.StartTime = in.StartTime.UTC()
	}
	if in.RegistrationDeadline != nil {
		t.RegistrationDeadline = in.RegistrationDeadline.UTC()
	}
	if in.Status != nil {
		t.Status = strings.ToLower(strings.TrimSpace(*in.Status))
	}
}

func validateTournament(t model.Tournament) error {
	switch {
	case t.Name == "":
		return invalid("name is required")
	case t.GameType == "":
		return invalid("game_type is required")
	case t.EntryFee.IsNegative():
		return invalid("entry_fee must not be negative")
	case t.PrizePool.IsNegative():
		return invalid("prize_pool must not be negative")
	case t.MaxParticipants <= 0:
		return invalid("max_participants must be positive")
	case t.StartTime.IsZero() || t.RegistrationDeadline.IsZero():
		return invalid("start_time and registration_deadline are required")
	case !t.RegistrationDeadline.Before(t.StartTime):
		return invalid("registration_deadline must be before start_time")
	case !model.ValidStatus(t.Status):
		return invalid("unknown tournament status")
	}
	return nil
}

// pageBounds applies the shared pagination rules.
func pageBounds(page, size int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = defaultPageSize
	}
	if page < 1 {
		return 0, 0, invalid("page must be at least 1")
	}
	if size < 1 || size > maxPageSize {
		return 0, 0, invalid("page_size must be between 1 and 100")
	}
	return page, size, nil
}
