package billing

import (
	"context"
	"database/sql"
	"errors"

	"coachpay/internal/metrics"

	"github.com/jmoiron/sqlx"
)

var ErrNoTransactions = errors.New("no transactions for reference")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tx *Transaction) (*Transaction, error) {
	query := `
		INSERT INTO billing_transactions
			(user_id, user_type, transaction_type, amount_cents, currency, status, description, reference_id, reference_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, '{}'::jsonb))
		RETURNING id, user_id, user_type, transaction_type, amount_cents, currency, status, description, reference_id, reference_type, metadata, created_at
	`

	var created Transaction
	err := r.db.GetContext(ctx, &created, query,
		tx.UserID, tx.UserType, tx.TransactionType, tx.AmountCents, tx.Currency,
		tx.Status, tx.Description, tx.ReferenceID, tx.ReferenceType, tx.Metadata,
	)
	if err != nil {
		return nil, err
	}

	metrics.RecordLedgerRow(created.TransactionType)
	return &created, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, user_type, transaction_type, amount_cents, currency, status, description, reference_id, reference_type, metadata, created_at
		FROM billing_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *repository) ListByReference(ctx context.Context, referenceType string, referenceID int64) ([]Transaction, error) {
	query := `
		SELECT id, user_id, user_type, transaction_type, amount_cents, currency, status, description, reference_id, reference_type, metadata, created_at
		FROM billing_transactions
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at ASC, id ASC
	`

	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, query, referenceType, referenceID)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *repository) Supersede(ctx context.Context, referenceType string, referenceID int64, status, description string) error {
	query := `
		INSERT INTO billing_transactions
			(user_id, user_type, transaction_type, amount_cents, currency, status, description, reference_id, reference_type, metadata)
		SELECT user_id, user_type, transaction_type, amount_cents, currency, $3, $4, reference_id, reference_type, metadata
		FROM billing_transactions
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY id DESC
		LIMIT 1
		RETURNING transaction_type
	`

	var transactionType string
	err := r.db.GetContext(ctx, &transactionType, query, referenceType, referenceID, status, description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoTransactions
		}
		return err
	}

	metrics.RecordLedgerRow(transactionType)
	return nil
}

func (r *repository) CoachEarnings(ctx context.Context, coachID int64) (*CoachEarningsSummary, error) {
	query := `
		SELECT
			$1::bigint AS coach_id,
			COALESCE(SUM(amount_cents) FILTER (WHERE transaction_type = 'payment' AND status = 'completed'), 0) AS gross_earnings_cents,
			COALESCE(SUM(amount_cents) FILTER (WHERE transaction_type = 'refund'), 0) AS refunded_cents,
			COALESCE(SUM(amount_cents) FILTER (WHERE transaction_type = 'payout' AND status = 'completed'), 0) AS paid_out_cents
		FROM billing_transactions
		WHERE user_id = $1 AND user_type = 'coach'
	`

	var summary CoachEarningsSummary
	err := r.db.GetContext(ctx, &summary, query, coachID)
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

func (r *repository) PlatformRevenue(ctx context.Context) (*RevenueSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE transaction_type = 'fee' AND status = 'completed'), 0) AS fee_cents,
			COALESCE(SUM(amount_cents) FILTER (WHERE transaction_type = 'refund'), 0) AS refunded_cents,
			COUNT(*) FILTER (WHERE transaction_type = 'fee') AS payment_count
		FROM billing_transactions
		WHERE user_type = 'platform'
	`

	var summary RevenueSummary
	err := r.db.GetContext(ctx, &summary, query)
	if err != nil {
		return nil, err
	}

	return &summary, nil
}
