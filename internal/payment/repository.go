package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, client_id, coach_id, rate_id, gateway_payment_id, gateway_customer_id,
	amount_cents, platform_fee_cents, coach_earnings_cents, currency, status,
	failure_reason, paid_at, created_at, updated_at`

func (r *repository) CreatePayment(ctx context.Context, p *Payment) (*Payment, error) {
	query := `
		INSERT INTO payments
			(client_id, coach_id, rate_id, gateway_payment_id, gateway_customer_id,
			 amount_cents, platform_fee_cents, coach_earnings_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + paymentColumns

	var created Payment
	err := r.db.GetContext(ctx, &created, query,
		p.ClientID, p.CoachID, p.RateID, p.GatewayPaymentID, p.GatewayCustomerID,
		p.AmountCents, p.PlatformFeeCents, p.CoachEarningsCents, p.Currency, p.Status,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetPaymentByID(ctx context.Context, id int64) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var p Payment
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *repository) GetPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_payment_id = $1`

	var p Payment
	err := r.db.GetContext(ctx, &p, query, gatewayPaymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *repository) ListPaymentsByClient(ctx context.Context, clientID int64, limit, offset int) ([]Payment, error) {
	return r.listPayments(ctx, `client_id`, clientID, limit, offset)
}

func (r *repository) ListPaymentsByCoach(ctx context.Context, coachID int64, limit, offset int) ([]Payment, error) {
	return r.listPayments(ctx, `coach_id`, coachID, limit, offset)
}

func (r *repository) listPayments(ctx context.Context, column string, userID int64, limit, offset int) ([]Payment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + column + ` = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	var payments []Payment
	err := r.db.SelectContext(ctx, &payments, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id int64, from []Status, to Status, paidAt *time.Time, failureReason *string) error {
	query := `
		UPDATE payments
		SET status = $1,
		    paid_at = COALESCE($2, paid_at),
		    failure_reason = COALESCE($3, failure_reason),
		    updated_at = NOW()
		WHERE id = $4 AND status = ANY($5)
	`

	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	result, err := r.db.ExecContext(ctx, query, to, paidAt, failureReason, id, pq.Array(fromStrs))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrStateConflict
	}

	return nil
}

func (r *repository) CreateRefund(ctx context.Context, refund *Refund) (*Refund, error) {
	// The WHERE clause re-checks the bound inside the insert, so concurrent
	// refunds cannot both pass a stale read and overdraw the payment.
	query := `
		INSERT INTO refunds
			(payment_id, amount_cents, reason, coach_penalty_cents, platform_refund_cents, status)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE (
			SELECT COALESCE(SUM(amount_cents), 0)
			FROM refunds
			WHERE payment_id = $1 AND status IN ('pending', 'processing', 'succeeded')
		) + $2 <= (SELECT amount_cents FROM payments WHERE id = $1)
		RETURNING id, payment_id, gateway_refund_id, amount_cents, reason, coach_penalty_cents, platform_refund_cents, status, created_at, updated_at
	`

	var created Refund
	err := r.db.GetContext(ctx, &created, query,
		refund.PaymentID, refund.AmountCents, refund.Reason,
		refund.CoachPenaltyCents, refund.PlatformRefundCents, refund.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefundExceedsBalance
		}
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetRefundByID(ctx context.Context, id int64) (*Refund, error) {
	query := `
		SELECT id, payment_id, gateway_refund_id, amount_cents, reason, coach_penalty_cents, platform_refund_cents, status, created_at, updated_at
		FROM refunds
		WHERE id = $1
	`

	var refund Refund
	err := r.db.GetContext(ctx, &refund, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefundNotFound
		}
		return nil, err
	}

	return &refund, nil
}

func (r *repository) GetRefundByGatewayID(ctx context.Context, gatewayRefundID string) (*Refund, error) {
	query := `
		SELECT id, payment_id, gateway_refund_id, amount_cents, reason, coach_penalty_cents, platform_refund_cents, status, created_at, updated_at
		FROM refunds
		WHERE gateway_refund_id = $1
	`

	var refund Refund
	err := r.db.GetContext(ctx, &refund, query, gatewayRefundID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefundNotFound
		}
		return nil, err
	}

	return &refund, nil
}

func (r *repository) ListRefundsByPayment(ctx context.Context, paymentID int64) ([]Refund, error) {
	query := `
		SELECT id, payment_id, gateway_refund_id, amount_cents, reason, coach_penalty_cents, platform_refund_cents, status, created_at, updated_at
		FROM refunds
		WHERE payment_id = $1
		ORDER BY created_at ASC
	`

	var refunds []Refund
	err := r.db.SelectContext(ctx, &refunds, query, paymentID)
	if err != nil {
		return nil, err
	}

	return refunds, nil
}

func (r *repository) UpdateRefundStatus(ctx context.Context, id int64, gatewayRefundID *string, to RefundStatus) error {
	query := `
		UPDATE refunds
		SET status = $1,
		    gateway_refund_id = COALESCE($2, gateway_refund_id),
		    updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, to, gatewayRefundID, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRefundNotFound
	}

	return nil
}

func (r *repository) SumActiveRefunds(ctx context.Context, paymentID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM refunds
		WHERE payment_id = $1 AND status IN ('pending', 'processing', 'succeeded')
	`

	var total int64
	err := r.db.GetContext(ctx, &total, query, paymentID)
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *repository) SumSucceededRefunds(ctx context.Context, paymentID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM refunds
		WHERE payment_id = $1 AND status = 'succeeded'
	`

	var total int64
	err := r.db.GetContext(ctx, &total, query, paymentID)
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *repository) SumCoachPenalties(ctx context.Context, paymentID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(coach_penalty_cents), 0)
		FROM refunds
		WHERE payment_id = $1 AND status IN ('pending', 'processing', 'succeeded')
	`

	var total int64
	err := r.db.GetContext(ctx, &total, query, paymentID)
	if err != nil {
		return 0, err
	}

	return total, nil
}
