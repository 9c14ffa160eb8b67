package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

// UserRepo persists users in the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, password_hash, username, full_name, free_fire_uid, region,
	wallet_balance, is_verified, is_admin, free_fire_data, created_at, updated_at`

// Create inserts u. A unique key violation is reported as ErrEmailExists,
// ErrUsernameExists or ErrUIDExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	ffData, err := json.Marshal(u.FreeFire)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.Username, u.FullName, nullString(u.FreeFireUID), u.Region,
		u.WalletBalance, u.IsVerified, u.IsAdmin, ffData, u.CreatedAt, u.UpdatedAt)
	return userWriteErr(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id)
	return scanUser(row)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=? LIMIT 1`, email)
	return scanUser(row)
}

// GetByFreeFireUID fetches the user bound to a game UID.
func (r *UserRepo) GetByFreeFireUID(ctx context.Context, uid string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE free_fire_uid=? LIMIT 1`, uid)
	return scanUser(row)
}

// List returns one page of users ordered by creation time and the total count.
func (r *UserRepo) List(ctx context.Context, page, pageSize int) ([]model.User, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.User, 0, pageSize)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// Update writes every mutable column of u. Email, password hash and
// creation time are left untouched.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	ffData, err := json.Marshal(u.FreeFire)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET username=?, full_name=?, free_fire_uid=?, region=?, wallet_balance=?,
			is_verified=?, is_admin=?, free_fire_data=?, updated_at=? WHERE id=?`,
		u.Username, u.FullName, nullString(u.FreeFireUID), u.Region, u.WalletBalance,
		u.IsVerified, u.IsAdmin, ffData, u.UpdatedAt, u.ID)
	if err != nil {
		return userWriteErr(err)
	}
	return expectOneRow(res)
}

// Delete removes the user. Registrations, payments and leaderboard rows
// go with it through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u      model.User
		ffUID  sql.NullString
		ffData []byte
	)
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Username, &u.FullName, &ffUID, &u.Region,
		&u.WalletBalance, &u.IsVerified, &u.IsAdmin, &ffData, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.FreeFireUID = ffUID.String
	if len(ffData) > 0 {
		if err := json.Unmarshal(ffData, &u.FreeFire); err != nil {
			return model.User{}, err
		}
	}
	return u, nil
}

func userWriteErr(err error) error {
	if !isDuplicate(err) {
		return err
	}
	switch duplicateKey(err) {
	case "uq_users_username":
		return ErrUsernameExists
	case "uq_users_ff_uid":
		return ErrUIDExists
	default:
		return ErrEmailExists
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
