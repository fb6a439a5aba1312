package payout

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"coachpay/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrPayoutNotFound = errors.New("payout not found")
	ErrStateConflict  = errors.New("payout state changed concurrently")
)

const payoutColumns = `id, coach_id, bank_account_id, payment_id, amount_cents, fee_cents, net_amount_cents, status, reject_reason, created_at, processed_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Payout) (*Payout, error) {
	query := `
		INSERT INTO payouts (coach_id, bank_account_id, payment_id, amount_cents, fee_cents, net_amount_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + payoutColumns

	var created Payout
	err := r.db.GetContext(ctx, &created, query,
		p.CoachID, p.BankAccountID, p.PaymentID,
		p.AmountCents, p.FeeCents, p.NetAmountCents, p.Status)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	var p Payout
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *repository) ListByCoach(ctx context.Context, coachID int64, limit, offset int) ([]Payout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE coach_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	payouts := []Payout{}
	if err := r.db.SelectContext(ctx, &payouts, query, coachID, limit, offset); err != nil {
		return nil, err
	}

	return payouts, nil
}

func (r *repository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Payout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`

	payouts := []Payout{}
	if err := r.db.SelectContext(ctx, &payouts, query, status, limit, offset); err != nil {
		return nil, err
	}

	return payouts, nil
}

func (r *repository) ExistsForPayment(ctx context.Context, paymentID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM payouts WHERE payment_id = $1 AND status != 'rejected')`
	return db.Exists(ctx, r.db, query, paymentID)
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from []Status, to Status, rejectReason *string, processedAt *time.Time) error {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	query := `
		UPDATE payouts
		SET status = $1,
		    reject_reason = COALESCE($2, reject_reason),
		    processed_at = COALESCE($3, processed_at)
		WHERE id = $4 AND status = ANY($5)`

	result, err := r.db.ExecContext(ctx, query, to, rejectReason, processedAt, id, pq.Array(fromStrs))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStateConflict
	}

	return nil
}
