package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

// LeaderboardRepo reads and writes per-game player standings.
type LeaderboardRepo struct{ db *sql.DB }

func NewLeaderboardRepo(db *sql.DB) *LeaderboardRepo { return &LeaderboardRepo{db: db} }

// Upsert stores e, replacing any previous row for the same user and game.
func (r *LeaderboardRepo) Upsert(ctx context.Context, e model.LeaderboardEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leaderboard_entries
			(user_id, game_type, skill_rating, total_earnings, tournaments_played, tournaments_won, updated_at)
		VALUES (?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE skill_rating=VALUES(skill_rating), total_earnings=VALUES(total_earnings),
			tournaments_played=VALUES(tournaments_played), tournaments_won=VALUES(tournaments_won),
			updated_at=VALUES(updated_at)`,
		e.UserID, e.GameType, e.SkillRating, e.TotalEarnings, e.TournamentsPlayed, e.TournamentsWon, e.UpdatedAt)
	return err
}

// Get returns the stored entry for userID in gameType, or ErrNotFound.
func (r *LeaderboardRepo) Get(ctx context.Context, userID, gameType string) (model.LeaderboardEntry, error) {
	var e model.LeaderboardEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, game_type, skill_rating, total_earnings, tournaments_played, tournaments_won, updated_at
		FROM leaderboard_entries WHERE user_id=? AND game_type=?`, userID, gameType).
		Scan(&e.UserID, &e.GameType, &e.SkillRating, &e.TotalEarnings, &e.TournamentsPlayed, &e.TournamentsWon, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LeaderboardEntry{}, ErrNotFound
	}
	return e, err
}

// List returns the top limit entries for gameType by skill rating with
// ranks assigned from 1.
func (r *LeaderboardRepo) List(ctx context.Context, gameType string, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.user_id, u.username, l.game_type, l.skill_rating, l.total_earnings,
			l.tournaments_played, l.tournaments_won, l.updated_at
		FROM leaderboard_entries l
		JOIN users u ON u.id = l.user_id
		WHERE l.game_type = ?
		ORDER BY l.skill_rating DESC, l.total_earnings DESC, l.user_id ASC
		LIMIT ?`, gameType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.GameType, &e.SkillRating, &e.TotalEarnings,
			&e.TournamentsPlayed, &e.TournamentsWon, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, rows.Err()
}
