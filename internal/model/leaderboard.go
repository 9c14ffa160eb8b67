package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaderboardEntry is one player's standing for a game type.
// Rank is derived when listing and is not stored.
type LeaderboardEntry struct {
	Rank              int             `json:"rank"`
	UserID            string          `json:"user_id"`
	Username          string          `json:"username"`
	GameType          string          `json:"game_type"`
	SkillRating       float64         `json:"skill_rating"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	TournamentsPlayed int             `json:"tournaments_played"`
	TournamentsWon    int             `json:"tournaments_won"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
