package service

import (
	"context"
	"strings"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 100
)

// LeaderboardService ranks players by skill rating.
type LeaderboardService struct {
	board LeaderboardStore
}

func NewLeaderboardService(board LeaderboardStore) *LeaderboardService {
	return &LeaderboardService{board: board}
}

// Top returns up to limit entries for gameType, ranked from 1.
func (s *LeaderboardService) Top(ctx context.Context, gameType string, limit int) ([]model.LeaderboardEntry, error) {
	gameType = strings.ToLower(strings.TrimSpace(gameType))
	if gameType == "" {
		gameType = model.GameFreeFire
	}
	switch {
	case limit == 0:
		limit = defaultLeaderboardLimit
	case limit < 0 || limit > maxLeaderboardLimit:
		return nil, invalid("limit must be between 1 and 100")
	}
	return s.board.List(ctx, gameType, limit)
}
