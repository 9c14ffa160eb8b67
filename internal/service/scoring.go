package service

import (
	"math"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

// SkillScorer rates a player on a 0..100 scale.
type SkillScorer interface {
	Score(stats model.PlayerStats) float64
}

// WeightedScorer combines win rate, K/D, accuracy, survival and level.
type WeightedScorer struct{}

func (WeightedScorer) Score(st model.PlayerStats) float64 {
	score := winRate(st)*0.35 +
		math.Min(kdRatio(st)/5, 1)*25 +
		st.HeadshotRate*0.15 +
		st.SurvivalRate*0.15 +
		math.Min(float64(st.Level)/80, 1)*10
	return round1(math.Max(0, math.Min(100, score)))
}

// winRate is a percentage.
func winRate(st model.PlayerStats) float64 {
	if st.TotalMatches <= 0 {
		return 0
	}
	return float64(st.Wins) * 100 / float64(st.TotalMatches)
}

// kdRatio counts every match without a win as one death.
func kdRatio(st model.PlayerStats) float64 {
	deaths := st.TotalMatches - st.Wins
	if deaths < 1 {
		deaths = 1
	}
	return float64(st.Kills) / float64(deaths)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// Skill tiers by score.
const (
	TierBeginner     = "beginner"
	TierIntermediate = "intermediate"
	TierAdvanced     = "advanced"
	TierElite        = "elite"
)

func tierFor(score float64) string {
	switch {
	case score >= 80:
		return TierElite
	case score >= 60:
		return TierAdvanced
	case score >= 40:
		return TierIntermediate
	}
	return TierBeginner
}
