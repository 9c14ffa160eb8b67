package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

var (
	testNow        = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tournamentCols = []string{"id", "name", "description", "game_type", "tournament_type", "mode", "country",
		"entry_fee", "prize_pool", "max_participants", "current_participants", "start_time",
		"registration_deadline", "status", "created_by", "created_at", "updated_at"}
	paymentCols = []string{"order_id", "user_id", "tournament_id", "amount", "status", "transaction_id",
		"failure_reason", "refund_required", "expires_at", "created_at", "updated_at"}
	registrationCols = []string{"id", "tournament_id", "user_id", "payment_order_id", "status", "registered_at"}
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func tournamentRow(current, max int, status string, deadline time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(tournamentCols).AddRow(
		"t1", "Cup", "", "free_fire", "battle_royale", "solo", "India",
		"0", "0", max, current, deadline.Add(time.Hour),
		deadline, status, "admin", testNow, testNow)
}

func paymentRow(status string, expires time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(paymentCols).AddRow(
		"ORD_1", "u1", "t1", "100.00", status, "", "", false, expires, testNow, testNow)
}

func TestAdmitFreeCommitsRegistrationAndIncrement(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tournaments WHERE id=\? FOR UPDATE`).WithArgs("t1").
		WillReturnRows(tournamentRow(0, 2, model.TournamentUpcoming, testNow.Add(time.Hour)))
	mock.ExpectQuery(`FROM registrations WHERE tournament_id=\? AND user_id=\?`).WithArgs("t1", "u1").
		WillReturnRows(sqlmock.NewRows(registrationCols))
	mock.ExpectExec(`INSERT INTO registrations`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE tournaments SET current_participants = current_participants \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reg, err := repo.AdmitFree(context.Background(), "t1", "u1", testNow)
	require.NoError(t, err)
	assert.Equal(t, "t1", reg.TournamentID)
	assert.Equal(t, model.RegistrationConfirmed, reg.Status)
	assert.Nil(t, reg.PaymentOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitFreeRejections(t *testing.T) {
	cases := []struct {
		name     string
		rows     *sqlmock.Rows
		existing bool
		want     error
	}{
		{"already registered", tournamentRow(0, 2, model.TournamentUpcoming, testNow.Add(time.Hour)), true, ErrAlreadyRegistered},
		{"deadline passed", tournamentRow(0, 2, model.TournamentUpcoming, testNow.Add(-time.Second)), false, ErrRegistrationClosed},
		{"not upcoming", tournamentRow(0, 2, model.TournamentLive, testNow.Add(time.Hour)), false, ErrRegistrationClosed},
		{"full", tournamentRow(2, 2, model.TournamentUpcoming, testNow.Add(time.Hour)), false, ErrTournamentFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewLedgerRepo(db)

			mock.ExpectBegin()
			mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(tc.rows)
			regRows := sqlmock.NewRows(registrationCols)
			if tc.existing {
				regRows.AddRow("r1", "t1", "u1", nil, "confirmed", testNow)
			}
			mock.ExpectQuery(`FROM registrations`).WillReturnRows(regRows)
			mock.ExpectRollback()

			_, err := repo.AdmitFree(context.Background(), "t1", "u1", testNow)
			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdmitFreeUnknownTournament(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(tournamentCols))
	mock.ExpectRollback()

	_, err := repo.AdmitFree(context.Background(), "missing", "u1", testNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdmitFreeDuplicateKeyIsAlreadyRegistered(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(tournamentRow(0, 2, model.TournamentUpcoming, testNow.Add(time.Hour)))
	mock.ExpectQuery(`FROM registrations`).WillReturnRows(sqlmock.NewRows(registrationCols))
	mock.ExpectExec(`INSERT INTO registrations`).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 't1-u1' for key 'registrations.uq_registrations_pair'"))
	mock.ExpectRollback()

	_, err := repo.AdmitFree(context.Background(), "t1", "u1", testNow)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleSuccessAdmitsPayer(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payments WHERE order_id=\? FOR UPDATE`).WithArgs("ORD_1").
		WillReturnRows(paymentRow(model.PaymentPending, testNow.Add(10*time.Minute)))
	mock.ExpectQuery(`FROM tournaments WHERE id=\? FOR UPDATE`).
		WillReturnRows(tournamentRow(0, 2, model.TournamentUpcoming, testNow.Add(time.Hour)))
	mock.ExpectQuery(`FROM registrations`).WillReturnRows(sqlmock.NewRows(registrationCols))
	mock.ExpectExec(`INSERT INTO registrations`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE tournaments SET current_participants`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments SET status=\?`).
		WithArgs(model.PaymentSuccess, "TXN_1", "", false, testNow, "ORD_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Settle(context.Background(), Settlement{
		OrderID: "ORD_1", Status: model.PaymentSuccess, TransactionID: "TXN_1", Revalidate: true, Now: testNow,
	})
	require.NoError(t, err)
	assert.True(t, res.Admitted)
	require.NotNil(t, res.Registration)
	require.NotNil(t, res.Registration.PaymentOrderID)
	assert.Equal(t, "ORD_1", *res.Registration.PaymentOrderID)
	assert.Equal(t, model.PaymentSuccess, res.Payment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleTerminalOrderIsNoOp(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payments WHERE order_id=\? FOR UPDATE`).
		WillReturnRows(paymentRow(model.PaymentSuccess, testNow.Add(10*time.Minute)))
	mock.ExpectQuery(`FROM registrations`).
		WillReturnRows(sqlmock.NewRows(registrationCols).AddRow("r1", "t1", "u1", "ORD_1", "confirmed", testNow))
	mock.ExpectRollback()

	res, err := repo.Settle(context.Background(), Settlement{OrderID: "ORD_1", Status: model.PaymentSuccess, Now: testNow})
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	require.NotNil(t, res.Registration)
	assert.Equal(t, "r1", res.Registration.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleExpiredOrderFails(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payments WHERE order_id=\? FOR UPDATE`).
		WillReturnRows(paymentRow(model.PaymentPending, testNow.Add(-time.Minute)))
	mock.ExpectExec(`UPDATE payments SET status=\?`).
		WithArgs(model.PaymentFailed, "TXN_1", model.FailureExpired, false, testNow, "ORD_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Settle(context.Background(), Settlement{
		OrderID: "ORD_1", Status: model.PaymentSuccess, TransactionID: "TXN_1", Now: testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, res.Payment.Status)
	assert.Equal(t, model.FailureExpired, res.Payment.FailureReason)
	assert.False(t, res.Admitted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleClosedTournamentFlagsRefund(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payments WHERE order_id=\? FOR UPDATE`).
		WillReturnRows(paymentRow(model.PaymentPending, testNow.Add(10*time.Minute)))
	mock.ExpectQuery(`FROM tournaments WHERE id=\? FOR UPDATE`).
		WillReturnRows(tournamentRow(0, 2, model.TournamentUpcoming, testNow.Add(-time.Minute)))
	mock.ExpectQuery(`FROM registrations`).WillReturnRows(sqlmock.NewRows(registrationCols))
	mock.ExpectExec(`UPDATE payments SET status=\?`).
		WithArgs(model.PaymentSuccess, "TXN_1", "registration_closed", true, testNow, "ORD_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Settle(context.Background(), Settlement{
		OrderID: "ORD_1", Status: model.PaymentSuccess, TransactionID: "TXN_1", Revalidate: true, Now: testNow,
	})
	require.NoError(t, err)
	assert.True(t, res.Payment.RefundRequired)
	assert.Nil(t, res.Registration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleRefundsPairAdmittedByAnotherOrder(t *testing.T) {
	cases := []struct {
		name  string
		order any
	}{
		{"earlier paid order", "ORD_0"},
		{"free admission", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewLedgerRepo(db)

			mock.ExpectBegin()
			mock.ExpectQuery(`FROM payments WHERE order_id=\? FOR UPDATE`).
				WillReturnRows(paymentRow(model.PaymentPending, testNow.Add(10*time.Minute)))
			mock.ExpectQuery(`FROM tournaments WHERE id=\? FOR UPDATE`).
				WillReturnRows(tournamentRow(1, 2, model.TournamentUpcoming, testNow.Add(time.Hour)))
			mock.ExpectQuery(`FROM registrations`).
				WillReturnRows(sqlmock.NewRows(registrationCols).AddRow("r0", "t1", "u1", tc.order, "confirmed", testNow))
			mock.ExpectExec(`UPDATE payments SET status=\?`).
				WithArgs(model.PaymentSuccess, "TXN_1", model.FailureAlreadyRegistered, true, testNow, "ORD_1").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			res, err := repo.Settle(context.Background(), Settlement{
				OrderID: "ORD_1", Status: model.PaymentSuccess, TransactionID: "TXN_1", Revalidate: true, Now: testNow,
			})
			require.NoError(t, err)
			assert.False(t, res.Admitted)
			assert.Nil(t, res.Registration)
			assert.Equal(t, model.PaymentSuccess, res.Payment.Status)
			assert.True(t, res.Payment.RefundRequired)
			assert.Equal(t, model.FailureAlreadyRegistered, res.Payment.FailureReason)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSettleDuplicateKeyResolvesAgainstWinner(t *testing.T) {
	duplicate := errors.New("Error 1062 (23000): Duplicate entry 't1-u1' for key 'registrations.uq_registrations_pair'")
	cases := []struct {
		name       string
		order      any
		refund     bool
		reason     string
		registered bool
	}{
		{"same order won", "ORD_1", false, "", true},
		{"other order won", "ORD_9", true, model.FailureAlreadyRegistered, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewLedgerRepo(db)

			mock.ExpectBegin()
			mock.ExpectQuery(`FROM payments WHERE order_id=\? FOR UPDATE`).
				WillReturnRows(paymentRow(model.PaymentPending, testNow.Add(10*time.Minute)))
			mock.ExpectQuery(`FROM tournaments WHERE id=\? FOR UPDATE`).
				WillReturnRows(tournamentRow(0, 2, model.TournamentUpcoming, testNow.Add(time.Hour)))
			mock.ExpectQuery(`FROM registrations`).WillReturnRows(sqlmock.NewRows(registrationCols))
			mock.ExpectExec(`INSERT INTO registrations`).WillReturnError(duplicate)
			mock.ExpectQuery(`FROM registrations WHERE tournament_id=\? AND user_id=\?`).WithArgs("t1", "u1").
				WillReturnRows(sqlmock.NewRows(registrationCols).AddRow("r1", "t1", "u1", tc.order, "confirmed", testNow))
			mock.ExpectExec(`UPDATE payments SET status=\?`).
				WithArgs(model.PaymentSuccess, "TXN_1", tc.reason, tc.refund, testNow, "ORD_1").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			res, err := repo.Settle(context.Background(), Settlement{
				OrderID: "ORD_1", Status: model.PaymentSuccess, TransactionID: "TXN_1", Revalidate: true, Now: testNow,
			})
			require.NoError(t, err)
			assert.False(t, res.Admitted)
			assert.Equal(t, tc.registered, res.Registration != nil)
			assert.Equal(t, tc.refund, res.Payment.RefundRequired)
			assert.Equal(t, tc.reason, res.Payment.FailureReason)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSettleLostLastSlotUndoesInsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payments WHERE order_id=\? FOR UPDATE`).
		WillReturnRows(paymentRow(model.PaymentPending, testNow.Add(10*time.Minute)))
	mock.ExpectQuery(`FROM tournaments WHERE id=\? FOR UPDATE`).
		WillReturnRows(tournamentRow(1, 2, model.TournamentUpcoming, testNow.Add(time.Hour)))
	mock.ExpectQuery(`FROM registrations`).WillReturnRows(sqlmock.NewRows(registrationCols))
	mock.ExpectExec(`INSERT INTO registrations`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE tournaments SET current_participants = current_participants \+ 1`).
		WithArgs(testNow, "t1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM registrations WHERE id=\?`).WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments SET status=\?`).
		WithArgs(model.PaymentSuccess, "TXN_1", model.FailureTournamentFull, true, testNow, "ORD_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Settle(context.Background(), Settlement{
		OrderID: "ORD_1", Status: model.PaymentSuccess, TransactionID: "TXN_1", Revalidate: true, Now: testNow,
	})
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	assert.Nil(t, res.Registration)
	assert.True(t, res.Payment.RefundRequired)
	assert.Equal(t, model.FailureTournamentFull, res.Payment.FailureReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenPayment(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectQuery(`FROM payments\s+WHERE tournament_id=\? AND user_id=\? AND status='pending' AND expires_at >= \?`).
		WithArgs("t1", "u1", testNow).
		WillReturnRows(paymentRow(model.PaymentPending, testNow.Add(10*time.Minute)))
	mock.ExpectQuery(`FROM payments`).WithArgs("t1", "u2", testNow).WillReturnRows(sqlmock.NewRows(paymentCols))

	p, err := repo.OpenPayment(context.Background(), "t1", "u1", testNow)
	require.NoError(t, err)
	assert.Equal(t, "ORD_1", p.OrderID)

	_, err = repo.OpenPayment(context.Background(), "t1", "u2", testNow)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleUnknownOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payments`).WillReturnRows(sqlmock.NewRows(paymentCols))
	mock.ExpectRollback()

	_, err := repo.Settle(context.Background(), Settlement{OrderID: "nope", Status: model.PaymentSuccess, Now: testNow})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpirePending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectExec(`UPDATE payments SET status='failed'`).
		WithArgs(model.FailureExpired, testNow, testNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpirePending(context.Background(), testNow)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
