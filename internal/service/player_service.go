package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/repository"
)

const defaultRegion = "ind"

// feeCeiling is the highest entry fee recommended per tier. Elite players
// have no ceiling.
var feeCeiling = map[string]decimal.Decimal{
	TierBeginner:     decimal.NewFromInt(50),
	TierIntermediate: decimal.NewFromInt(200),
	TierAdvanced:     decimal.NewFromInt(500),
}

// PlayerService covers Free Fire account binding, self-reported stats,
// analytics and recommendations.
type PlayerService struct {
	users       UserStore
	tournaments TournamentStore
	ledger      Ledger
	board       LeaderboardStore
	lookup      PlayerLookup
	scorer      SkillScorer
	log         *zap.Logger
	clock       Clock
}

func NewPlayerService(users UserStore, tournaments TournamentStore, ledger Ledger, board LeaderboardStore,
	lookup PlayerLookup, scorer SkillScorer, log *zap.Logger) *PlayerService {
	if users == nil || tournaments == nil || ledger == nil || board == nil || lookup == nil {
		panic("nil dependency passed to NewPlayerService")
	}
	if scorer == nil {
		scorer = WeightedScorer{}
	}
	return &PlayerService{
		users: users, tournaments: tournaments, ledger: ledger, board: board,
		lookup: lookup, scorer: scorer, log: logger.OrNop(log),
	}
}

// WithClock overrides the time source.
func (s *PlayerService) WithClock(c Clock) *PlayerService {
	s.clock = c
	return s
}

// UIDValidation is the public lookup answer. Error is set when Valid is false.
type UIDValidation struct {
	Valid      bool              `json:"valid"`
	PlayerInfo *model.PlayerInfo `json:"player_info,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// ValidateUID checks a UID against the lookup service. A malformed or
// unknown UID is reported in the result; only collaborator failures are
// returned as errors.
func (s *PlayerService) ValidateUID(ctx context.Context, uid, region string) (UIDValidation, error) {
	uid, region = normalizeUID(uid, region)
	if !uidPattern.MatchString(uid) {
		return UIDValidation{Error: "Free Fire UID must be 8-12 digits"}, nil
	}
	info, err := s.lookup.Lookup(ctx, uid, region)
	if err != nil {
		mapped := fromUpstream(err, "player lookup")
		if errors.Is(mapped, ErrValidation) {
			return UIDValidation{Error: mapped.Error()}, nil
		}
		return UIDValidation{}, mapped
	}
	return UIDValidation{Valid: true, PlayerInfo: &info}, nil
}

// VerifyFreeFire binds a UID to userID and stores the looked-up profile.
func (s *PlayerService) VerifyFreeFire(ctx context.Context, userID, uid, region string) (model.User, error) {
	uid, region = normalizeUID(uid, region)
	if !uidPattern.MatchString(uid) {
		return model.User{}, invalid("Free Fire UID must be 8-12 digits")
	}
	owner, err := s.users.GetByFreeFireUID(ctx, uid)
	switch {
	case err == nil && owner.ID != userID:
		return model.User{}, wrapError(ErrConflict, repository.ErrUIDExists, repository.ErrUIDExists.Error())
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return model.User{}, err
	}

	info, err := s.lookup.Lookup(ctx, uid, region)
	if err != nil {
		return model.User{}, fromUpstream(err, "player lookup")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, fromStore(err, "user")
	}
	u.FreeFireUID, u.Region = uid, region
	u.FreeFire.Player = &info
	u.IsVerified = true
	u.UpdatedAt = s.clock.now()
	if err := s.users.Update(ctx, u); err != nil {
		return model.User{}, fromStore(err, "user")
	}
	s.log.Info("free fire account verified", zap.String("user_id", userID), zap.String("uid", uid))
	return u, nil
}

// PlayerAnalytics summarizes a player's performance.
type PlayerAnalytics struct {
	UserID            string             `json:"user_id"`
	Username          string             `json:"username"`
	Stats             *model.PlayerStats `json:"stats"`
	SkillScore        float64            `json:"skill_score"`
	SkillTier         string             `json:"skill_tier"`
	WinRate           float64            `json:"win_rate"`
	KDRatio           float64            `json:"kd_ratio"`
	TournamentsPlayed int                `json:"tournaments_played"`
}

// UpdateStats stores self-reported stats and refreshes the leaderboard.
func (s *PlayerService) UpdateStats(ctx context.Context, userID string, st model.PlayerStats) (PlayerAnalytics, error) {
	if err := validateStats(st); err != nil {
		return PlayerAnalytics{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return PlayerAnalytics{}, fromStore(err, "user")
	}
	u.FreeFire.Stats = &st
	u.UpdatedAt = s.clock.now()
	if err := s.users.Update(ctx, u); err != nil {
		return PlayerAnalytics{}, fromStore(err, "user")
	}

	a, err := s.analyze(ctx, u)
	if err != nil {
		return PlayerAnalytics{}, err
	}
	// earnings and wins are recorded elsewhere; keep them
	entry, err := s.board.Get(ctx, u.ID, model.GameFreeFire)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		entry = model.LeaderboardEntry{UserID: u.ID, GameType: model.GameFreeFire, TotalEarnings: decimal.Zero}
	case err != nil:
		return PlayerAnalytics{}, err
	}
	entry.SkillRating = a.SkillScore
	entry.TournamentsPlayed = a.TournamentsPlayed
	entry.UpdatedAt = u.UpdatedAt
	if err := s.board.Upsert(ctx, entry); err != nil {
		return PlayerAnalytics{}, err
	}
	return a, nil
}

// Analytics reports the stats and skill score of userID.
func (s *PlayerService) Analytics(ctx context.Context, userID string) (PlayerAnalytics, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return PlayerAnalytics{}, fromStore(err, "user")
	}
	return s.analyze(ctx, u)
}

func (s *PlayerService) analyze(ctx context.Context, u model.User) (PlayerAnalytics, error) {
	regs, err := s.ledger.ListByUser(ctx, u.ID)
	if err != nil {
		return PlayerAnalytics{}, err
	}
	a := PlayerAnalytics{
		UserID:            u.ID,
		Username:          u.Username,
		Stats:             u.FreeFire.Stats,
		SkillTier:         TierBeginner,
		TournamentsPlayed: len(regs),
	}
	if st := u.FreeFire.Stats; st != nil {
		a.SkillScore = s.scorer.Score(*st)
		a.SkillTier = tierFor(a.SkillScore)
		a.WinRate = round1(winRate(*st))
		a.KDRatio = round1(kdRatio(*st))
	}
	return a, nil
}

// Recommendation is a tournament matched to the caller's tier.
type Recommendation struct {
	Tournament model.Tournament `json:"tournament"`
	Match      string           `json:"skill_level_match"`
}

// Recommend lists open upcoming tournaments whose fee fits the caller's
// tier, best fit first.
func (s *PlayerService) Recommend(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	a, err := s.Analytics(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxPageSize {
		limit = 10
	}
	now := s.clock.now()
	open, _, err := s.tournaments.List(ctx, repository.TournamentQuery{
		Status: model.TournamentUpcoming, OpenAt: &now, Page: 1, PageSize: maxPageSize,
	})
	if err != nil {
		return nil, err
	}

	ceiling, capped := feeCeiling[a.SkillTier]
	out := []Recommendation{}
	for _, t := range open {
		if t.IsFull() || (capped && t.EntryFee.GreaterThan(ceiling)) {
			continue
		}
		out = append(out, Recommendation{Tournament: t, Match: matchLabel(t, ceiling, capped)})
	}
	rank := map[string]int{"Perfect Match": 0, "Great Match": 1, "Good Match": 2}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Match] < rank[out[j].Match]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// matchLabel grades how well the fee sits in the tier's band: the upper
// half is a perfect match, free entries are a good match.
func matchLabel(t model.Tournament, ceiling decimal.Decimal, capped bool) string {
	switch {
	case t.IsFree():
		return "Good Match"
	case !capped:
		return "Perfect Match"
	case t.EntryFee.GreaterThanOrEqual(ceiling.Div(decimal.NewFromInt(2))):
		return "Perfect Match"
	}
	return "Great Match"
}

func validateStats(st model.PlayerStats) error {
	switch {
	case st.TotalMatches < 0 || st.Wins < 0 || st.Kills < 0 || st.Level < 0 || st.AvgDamage < 0:
		return invalid("stats must not be negative")
	case st.Wins > st.TotalMatches:
		return invalid("wins cannot exceed total_matches")
	case st.HeadshotRate < 0 || st.HeadshotRate > 100 || st.SurvivalRate < 0 || st.SurvivalRate > 100:
		return invalid("rates must be between 0 and 100")
	}
	return nil
}

func normalizeUID(uid, region string) (string, string) {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		region = defaultRegion
	}
	return strings.TrimSpace(uid), region
}
