package payment

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func setupPaymentMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func paymentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "client_id", "coach_id", "rate_id", "gateway_payment_id", "gateway_customer_id",
		"amount_cents", "platform_fee_cents", "coach_earnings_cents", "currency", "status",
		"failure_reason", "paid_at", "created_at", "updated_at",
	})
}

func TestCreatePayment(t *testing.T) {
	repo, mock, close := setupPaymentMock(t)
	defer close()

	rateID := int64(7)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs(int64(1), int64(2), &rateID, "pay_abc", "cust_abc",
			int64(10000), int64(1500), int64(8500), "USD", StatusAuthorized).
		WillReturnRows(paymentRows().AddRow(
			11, 1, 2, 7, "pay_abc", "cust_abc",
			10000, 1500, 8500, "USD", "authorized",
			nil, nil, time.Now(), time.Now()))

	p, err := repo.CreatePayment(context.Background(), &Payment{
		ClientID:           1,
		CoachID:            2,
		RateID:             &rateID,
		GatewayPaymentID:   "pay_abc",
		GatewayCustomerID:  "cust_abc",
		AmountCents:        10000,
		PlatformFeeCents:   1500,
		CoachEarningsCents: 8500,
		Currency:           "USD",
		Status:             StatusAuthorized,
	})
	require.NoError(t, err)
	require.Equal(t, int64(11), p.ID)
	require.Equal(t, StatusAuthorized, p.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaymentByID_NotFound(t *testing.T) {
	repo, mock, close := setupPaymentMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetPaymentByID(context.Background(), 99)
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestUpdatePaymentStatus_Optimistic(t *testing.T) {
	repo, mock, close := setupPaymentMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments")).
		WithArgs(StatusSucceeded, sqlmock.AnyArg(), nil, int64(11), pq.Array([]string{"pending", "authorized"})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	err := repo.UpdatePaymentStatus(context.Background(), 11,
		[]Status{StatusPending, StatusAuthorized}, StatusSucceeded, &now, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentStatus_ConflictOnZeroRows(t *testing.T) {
	repo, mock, close := setupPaymentMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments")).
		WithArgs(StatusSucceeded, nil, nil, int64(11), pq.Array([]string{"authorized"})).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePaymentStatus(context.Background(), 11,
		[]Status{StatusAuthorized}, StatusSucceeded, nil, nil)
	require.ErrorIs(t, err, ErrStateConflict)
}

func TestSumActiveRefunds_CountsInFlight(t *testing.T) {
	repo, mock, close := setupPaymentMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount_cents), 0)")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7500))

	total, err := repo.SumActiveRefunds(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, int64(7500), total)
}

func refundRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "payment_id", "gateway_refund_id", "amount_cents", "reason",
		"coach_penalty_cents", "platform_refund_cents", "status", "created_at", "updated_at",
	})
}

func TestCreateRefund_GuardedInsert(t *testing.T) {
	repo, mock, close := setupPaymentMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO refunds")).
		WithArgs(int64(11), int64(5000), ReasonClientRequested, int64(4250), int64(750), RefundPending).
		WillReturnRows(refundRows().AddRow(
			31, 11, nil, 5000, "client_requested", 4250, 750, "pending", time.Now(), time.Now()))

	refund, err := repo.CreateRefund(context.Background(), &Refund{
		PaymentID:           11,
		AmountCents:         5000,
		Reason:              ReasonClientRequested,
		CoachPenaltyCents:   4250,
		PlatformRefundCents: 750,
		Status:              RefundPending,
	})
	require.NoError(t, err)
	require.Equal(t, int64(31), refund.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefund_GuardRejectsOverRefund(t *testing.T) {
	repo, mock, close := setupPaymentMock(t)
	defer close()

	// The bound re-check inside the insert matched no row: a concurrent
	// refund already consumed the balance.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO refunds")).
		WithArgs(int64(11), int64(5000), ReasonClientRequested, int64(4250), int64(750), RefundPending).
		WillReturnRows(refundRows())

	_, err := repo.CreateRefund(context.Background(), &Refund{
		PaymentID:           11,
		AmountCents:         5000,
		Reason:              ReasonClientRequested,
		CoachPenaltyCents:   4250,
		PlatformRefundCents: 750,
		Status:              RefundPending,
	})
	require.ErrorIs(t, err, ErrRefundExceedsBalance)
}

func TestSumSucceededRefunds_IgnoresInFlight(t *testing.T) {
	repo, mock, close := setupPaymentMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("status = 'succeeded'")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2500))

	total, err := repo.SumSucceededRefunds(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, int64(2500), total)
}

func TestUpdateRefundStatus_NotFound(t *testing.T) {
	repo, mock, close := setupPaymentMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refunds")).
		WithArgs(RefundFailed, nil, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRefundStatus(context.Background(), 99, nil, RefundFailed)
	require.ErrorIs(t, err, ErrRefundNotFound)
}
