package bankaccount

import (
	"context"
	"database/sql"
	"errors"

	"coachpay/internal/db"

	"github.com/jmoiron/sqlx"
)

var (
	ErrAccountNotFound   = errors.New("bank account not found")
	ErrHasPendingPayouts = errors.New("bank account has pending payouts")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const accountColumns = `id, coach_id, account_holder, bank_name, routing_number, account_number_enc, account_last4, is_verified, is_default, created_at`

func (r *repository) Create(ctx context.Context, a *BankAccount) (*BankAccount, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if a.IsDefault {
		_, err = tx.ExecContext(ctx,
			`UPDATE bank_accounts SET is_default = false WHERE coach_id = $1`, a.CoachID)
		if err != nil {
			return nil, err
		}
	}

	var created BankAccount
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO bank_accounts
			(coach_id, account_holder, bank_name, routing_number, account_number_enc, account_last4, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+accountColumns,
		a.CoachID, a.AccountHolder, a.BankName, a.RoutingNumber, a.AccountNumberEnc, a.AccountLast4, a.IsDefault,
	).StructScan(&created)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*BankAccount, error) {
	var a BankAccount
	err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM bank_accounts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *repository) ListByCoach(ctx context.Context, coachID int64) ([]BankAccount, error) {
	var accounts []BankAccount
	err := r.db.SelectContext(ctx, &accounts,
		`SELECT `+accountColumns+` FROM bank_accounts WHERE coach_id = $1 ORDER BY created_at DESC`, coachID)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// SetDefault clears the previous default in the same transaction so at most
// one default exists per coach.
func (r *repository) SetDefault(ctx context.Context, id, coachID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE bank_accounts SET is_default = false WHERE coach_id = $1`, coachID)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bank_accounts SET is_default = true WHERE id = $1 AND coach_id = $2`, id, coachID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return tx.Commit()
}

func (r *repository) MarkVerified(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bank_accounts SET is_verified = true WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id, coachID int64) error {
	blocked, err := db.Exists(ctx, r.db, `
		SELECT EXISTS(
			SELECT 1 FROM payouts
			WHERE bank_account_id = $1 AND status IN ('pending', 'processing')
		)
	`, id)
	if err != nil {
		return err
	}
	if blocked {
		return ErrHasPendingPayouts
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bank_accounts WHERE id = $1 AND coach_id = $2`, id, coachID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}
