package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

// TournamentQuery defines filters and pagination for listing tournaments.
// Empty filters match everything. OpenAt, when set, keeps only upcoming
// tournaments whose registration deadline has not passed at that instant.
type TournamentQuery struct {
	GameType string
	Country  string
	Mode     string
	Status   string
	OpenAt   *time.Time
	Page     int
	PageSize int
}

// TournamentRepo persists the tournament catalog.
type TournamentRepo struct{ db *sql.DB }

func NewTournamentRepo(db *sql.DB) *TournamentRepo { return &TournamentRepo{db: db} }

const tournamentColumns = `id, name, description, game_type, tournament_type, mode, country,
	entry_fee, prize_pool, max_participants, current_participants, start_time,
	registration_deadline, status, created_by, created_at, updated_at`

// Create inserts t as given.
func (r *TournamentRepo) Create(ctx context.Context, t *model.Tournament) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tournaments (`+tournamentColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Name, t.Description, t.GameType, t.TournamentType, t.Mode, t.Country,
		t.EntryFee, t.PrizePool, t.MaxParticipants, t.CurrentParticipants, t.StartTime,
		t.RegistrationDeadline, t.Status, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

// GetByID fetches one tournament.
func (r *TournamentRepo) GetByID(ctx context.Context, id string) (model.Tournament, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id=? LIMIT 1`, id)
	return scanTournament(row)
}

// List returns one page of tournaments matching q ordered by start time,
// together with the total number of matches.
func (r *TournamentRepo) List(ctx context.Context, q TournamentQuery) ([]model.Tournament, int64, error) {
	where := []string{}
	args := []any{}

	if q.GameType != "" {
		where = append(where, "game_type = ?")
		args = append(args, q.GameType)
	}
	if q.Country != "" {
		where = append(where, "LOWER(country) = ?")
		args = append(args, strings.ToLower(q.Country))
	}
	if q.Mode != "" {
		where = append(where, "mode = ?")
		args = append(args, q.Mode)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.OpenAt != nil {
		where = append(where, "status = 'upcoming' AND registration_deadline >= ?")
		args = append(args, *q.OpenAt)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE ` + cond + `
		ORDER BY start_time ASC, id ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Tournament, 0, q.PageSize)
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update writes the editable columns of t. current_participants is never
// written here; the update is refused with ErrConflict when the new
// capacity would fall below it.
func (r *TournamentRepo) Update(ctx context.Context, t model.Tournament) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET name=?, description=?, game_type=?, tournament_type=?, mode=?, country=?,
			entry_fee=?, prize_pool=?, max_participants=?, start_time=?, registration_deadline=?,
			status=?, updated_at=?
		WHERE id=? AND current_participants <= ?`,
		t.Name, t.Description, t.GameType, t.TournamentType, t.Mode, t.Country,
		t.EntryFee, t.PrizePool, t.MaxParticipants, t.StartTime, t.RegistrationDeadline,
		t.Status, t.UpdatedAt, t.ID, t.MaxParticipants)
	if err != nil {
		return err
	}
	return r.explainMiss(ctx, res, t.ID)
}

// Delete removes a tournament unless it is live or completed.
func (r *TournamentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tournaments WHERE id=? AND status NOT IN ('live','completed')`, id)
	if err != nil {
		return err
	}
	return r.explainMiss(ctx, res, id)
}

// StartDue moves upcoming tournaments whose start time has passed to live.
func (r *TournamentRepo) StartDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET status='live', updated_at=? WHERE status='upcoming' AND start_time <= ?`,
		now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// explainMiss turns a guarded write that touched no row into ErrNotFound
// or ErrConflict depending on whether the row exists.
func (r *TournamentRepo) explainMiss(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM tournaments WHERE id=?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func scanTournament(s rowScanner) (model.Tournament, error) {
	var t model.Tournament
	err := s.Scan(&t.ID, &t.Name, &t.Description, &t.GameType, &t.TournamentType, &t.Mode, &t.Country,
		&t.EntryFee, &t.PrizePool, &t.MaxParticipants, &t.CurrentParticipants, &t.StartTime,
		&t.RegistrationDeadline, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tournament{}, ErrNotFound
	}
	return t, err
}
