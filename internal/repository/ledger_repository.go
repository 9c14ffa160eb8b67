package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

// Settlement asks the ledger to move a pending order to the status reported
// by the payment oracle. Revalidate re-checks the tournament status and
// registration deadline before admitting the payer; capacity is always
// re-checked because the participant counter can never exceed the maximum.
type Settlement struct {
	OrderID       string
	Status        string
	TransactionID string
	FailureReason string
	Revalidate    bool
	Now           time.Time
}

// SettlementResult reports the stored payment after settlement. Admitted is
// true only for the call that created the registration; Registration is
// set whenever the payer holds one for the tournament.
type SettlementResult struct {
	Payment      model.Payment
	Registration *model.Registration
	Admitted     bool
}

// LedgerRepo owns the registrations and payments tables and the
// participant counter on tournaments. Every state change runs in one
// transaction with the tournament row locked.
type LedgerRepo struct{ db *sql.DB }

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

const paymentColumns = `order_id, user_id, tournament_id, amount, status, transaction_id,
	failure_reason, refund_required, expires_at, created_at, updated_at`

// AdmitFree registers userID for a tournament without payment. It fails
// with ErrNotFound, ErrAlreadyRegistered, ErrRegistrationClosed or
// ErrTournamentFull and leaves the counter untouched on any failure.
func (r *LedgerRepo) AdmitFree(ctx context.Context, tournamentID, userID string, now time.Time) (model.Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Registration{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	t, err := lockTournament(ctx, tx, tournamentID)
	if err != nil {
		return model.Registration{}, err
	}
	if _, err := registrationTx(ctx, tx, tournamentID, userID); err == nil {
		return model.Registration{}, ErrAlreadyRegistered
	} else if !errors.Is(err, ErrNotFound) {
		return model.Registration{}, err
	}
	if !t.AcceptsEntries(now) {
		return model.Registration{}, ErrRegistrationClosed
	}
	if t.IsFull() {
		return model.Registration{}, ErrTournamentFull
	}

	reg, err := admitTx(ctx, tx, tournamentID, userID, nil, now)
	if err != nil {
		return model.Registration{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Registration{}, err
	}
	committed = true
	return reg, nil
}

// HasRegistration reports whether the pair already holds a registration.
func (r *LedgerRepo) HasRegistration(ctx context.Context, tournamentID, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM registrations WHERE tournament_id=? AND user_id=? LIMIT 1`,
		tournamentID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// CreatePayment inserts a new pending order.
func (r *LedgerRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.OrderID, p.UserID, p.TournamentID, p.Amount, p.Status, p.TransactionID,
		p.FailureReason, p.RefundRequired, p.ExpiresAt, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetPayment fetches one order.
func (r *LedgerRepo) GetPayment(ctx context.Context, orderID string) (model.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id=? LIMIT 1`, orderID)
	return scanPayment(row)
}

// OpenPayment returns the pair's pending order that is still payable at
// now, newest first, or ErrNotFound.
func (r *LedgerRepo) OpenPayment(ctx context.Context, tournamentID, userID string, now time.Time) (model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments
		WHERE tournament_id=? AND user_id=? AND status='pending' AND expires_at >= ?
		ORDER BY created_at DESC LIMIT 1`,
		tournamentID, userID, now)
	return scanPayment(row)
}

// Settle applies s to its order. Terminal orders are returned unchanged,
// so concurrent or repeated settlements of one order create at most one
// registration and one counter increment. A pending order that is past
// its expiry settles as failed whatever the oracle said.
func (r *LedgerRepo) Settle(ctx context.Context, s Settlement) (SettlementResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return SettlementResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id=? FOR UPDATE`, s.OrderID))
	if err != nil {
		return SettlementResult{}, err
	}

	status, reason := s.Status, s.FailureReason
	if p.Expired(s.Now) {
		status, reason = model.PaymentFailed, model.FailureExpired
	}
	if p.Terminal() || status == model.PaymentPending {
		res := SettlementResult{Payment: p}
		if reg, err := registrationTx(ctx, tx, p.TournamentID, p.UserID); err == nil {
			if reg.PaidBy(p.OrderID) {
				res.Registration = &reg
			}
		} else if !errors.Is(err, ErrNotFound) {
			return SettlementResult{}, err
		}
		return res, nil
	}

	p.Status = status
	p.TransactionID = s.TransactionID
	p.FailureReason = reason
	p.UpdatedAt = s.Now

	var res SettlementResult
	if status == model.PaymentSuccess {
		res, err = confirmTx(ctx, tx, &p, s)
		if err != nil {
			return SettlementResult{}, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET status=?, transaction_id=?, failure_reason=?, refund_required=?, updated_at=?
		WHERE order_id=? AND status='pending'`,
		p.Status, p.TransactionID, p.FailureReason, p.RefundRequired, p.UpdatedAt, p.OrderID); err != nil {
		return SettlementResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return SettlementResult{}, err
	}
	committed = true
	res.Payment = p
	return res, nil
}

// confirmTx admits the payer of a successful order. A payer already
// admitted through another order or the free path keeps that registration
// and this order is flagged for refund, as is an order the tournament can
// no longer take.
func confirmTx(ctx context.Context, tx *sql.Tx, p *model.Payment, s Settlement) (SettlementResult, error) {
	t, err := lockTournament(ctx, tx, p.TournamentID)
	if errors.Is(err, ErrNotFound) {
		refund(p, model.FailureTournamentRemoved)
		return SettlementResult{}, nil
	}
	if err != nil {
		return SettlementResult{}, err
	}

	if reg, err := registrationTx(ctx, tx, p.TournamentID, p.UserID); err == nil {
		return alreadyAdmitted(p, reg), nil
	} else if !errors.Is(err, ErrNotFound) {
		return SettlementResult{}, err
	}

	switch {
	case s.Revalidate && !t.AcceptsEntries(s.Now):
		refund(p, model.FailureRegistrationClosed)
		return SettlementResult{}, nil
	case t.IsFull():
		refund(p, model.FailureTournamentFull)
		return SettlementResult{}, nil
	}

	orderID := p.OrderID
	reg, err := admitTx(ctx, tx, p.TournamentID, p.UserID, &orderID, s.Now)
	switch {
	case errors.Is(err, ErrAlreadyRegistered):
		existing, lookupErr := registrationTx(ctx, tx, p.TournamentID, p.UserID)
		if lookupErr != nil {
			return SettlementResult{}, lookupErr
		}
		return alreadyAdmitted(p, existing), nil
	case errors.Is(err, ErrTournamentFull):
		refund(p, model.FailureTournamentFull)
		return SettlementResult{}, nil
	case err != nil:
		return SettlementResult{}, err
	}
	return SettlementResult{Registration: &reg, Admitted: true}, nil
}

// alreadyAdmitted settles p against the pair's existing registration.
func alreadyAdmitted(p *model.Payment, reg model.Registration) SettlementResult {
	if reg.PaidBy(p.OrderID) {
		return SettlementResult{Registration: &reg}
	}
	refund(p, model.FailureAlreadyRegistered)
	return SettlementResult{}
}

func refund(p *model.Payment, reason string) {
	p.RefundRequired = true
	p.FailureReason = reason
}

// ExpirePending fails every pending order whose expiry is before now.
func (r *LedgerRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status='failed', failure_reason=?, updated_at=?
		WHERE status='pending' AND expires_at < ?`,
		model.FailureExpired, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser returns the user's registrations with their tournaments,
// most recent first.
func (r *LedgerRepo) ListByUser(ctx context.Context, userID string) ([]model.UserTournament, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.tournament_id, r.user_id, r.payment_order_id, r.status, r.registered_at,
			t.id, t.name, t.description, t.game_type, t.tournament_type, t.mode, t.country,
			t.entry_fee, t.prize_pool, t.max_participants, t.current_participants, t.start_time,
			t.registration_deadline, t.status, t.created_by, t.created_at, t.updated_at
		FROM registrations r
		JOIN tournaments t ON t.id = r.tournament_id
		WHERE r.user_id = ?
		ORDER BY r.registered_at DESC, r.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserTournament{}
	for rows.Next() {
		var (
			ut    model.UserTournament
			order sql.NullString
		)
		reg, t := &ut.Registration, &ut.Tournament
		if err := rows.Scan(&reg.ID, &reg.TournamentID, &reg.UserID, &order, &reg.Status, &reg.RegisteredAt,
			&t.ID, &t.Name, &t.Description, &t.GameType, &t.TournamentType, &t.Mode, &t.Country,
			&t.EntryFee, &t.PrizePool, &t.MaxParticipants, &t.CurrentParticipants, &t.StartTime,
			&t.RegistrationDeadline, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if order.Valid {
			o := order.String
			reg.PaymentOrderID = &o
		}
		out = append(out, ut)
	}
	return out, rows.Err()
}

func lockTournament(ctx context.Context, tx *sql.Tx, id string) (model.Tournament, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id=? FOR UPDATE`, id)
	return scanTournament(row)
}

func registrationTx(ctx context.Context, tx *sql.Tx, tournamentID, userID string) (model.Registration, error) {
	var (
		reg   model.Registration
		order sql.NullString
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, tournament_id, user_id, payment_order_id, status, registered_at
		FROM registrations WHERE tournament_id=? AND user_id=? LIMIT 1`,
		tournamentID, userID).Scan(&reg.ID, &reg.TournamentID, &reg.UserID, &order, &reg.Status, &reg.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Registration{}, ErrNotFound
	}
	if err != nil {
		return model.Registration{}, err
	}
	if order.Valid {
		o := order.String
		reg.PaymentOrderID = &o
	}
	return reg, nil
}

// admitTx inserts the registration and bumps the counter with a guarded
// increment. The unique key on (tournament_id, user_id) turns a concurrent
// duplicate into ErrAlreadyRegistered; a lost race for the last slot
// surfaces as ErrTournamentFull.
func admitTx(ctx context.Context, tx *sql.Tx, tournamentID, userID string, orderID *string, now time.Time) (model.Registration, error) {
	reg := model.Registration{
		ID:             uuid.NewString(),
		TournamentID:   tournamentID,
		UserID:         userID,
		PaymentOrderID: orderID,
		Status:         model.RegistrationConfirmed,
		RegisteredAt:   now,
	}
	var order sql.NullString
	if orderID != nil {
		order = sql.NullString{String: *orderID, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO registrations (id, tournament_id, user_id, payment_order_id, status, registered_at)
		VALUES (?,?,?,?,?,?)`,
		reg.ID, reg.TournamentID, reg.UserID, order, reg.Status, reg.RegisteredAt); err != nil {
		if isDuplicate(err) {
			return model.Registration{}, ErrAlreadyRegistered
		}
		return model.Registration{}, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE tournaments SET current_participants = current_participants + 1, updated_at=?
		WHERE id=? AND current_participants < max_participants`,
		now, tournamentID)
	if err != nil {
		return model.Registration{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Registration{}, err
	}
	if n == 0 {
		// undo the insert; the caller may still commit the payment update
		if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE id=?`, reg.ID); err != nil {
			return model.Registration{}, err
		}
		return model.Registration{}, ErrTournamentFull
	}
	return reg, nil
}

func scanPayment(s rowScanner) (model.Payment, error) {
	var p model.Payment
	err := s.Scan(&p.OrderID, &p.UserID, &p.TournamentID, &p.Amount, &p.Status, &p.TransactionID,
		&p.FailureReason, &p.RefundRequired, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, ErrNotFound
	}
	return p, err
}
