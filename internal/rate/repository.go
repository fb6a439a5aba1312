package rate

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrRateNotFound = errors.New("rate not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rate *Rate) (*Rate, error) {
	query := `
		INSERT INTO rates (coach_id, session_type, duration_minutes, rate_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, coach_id, session_type, duration_minutes, rate_cents, catalog_item_id, is_active, created_at, updated_at
	`

	var created Rate
	err := r.db.GetContext(ctx, &created, query, rate.CoachID, rate.SessionType, rate.DurationMinutes, rate.RateCents)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Rate, error) {
	query := `
		SELECT id, coach_id, session_type, duration_minutes, rate_cents, catalog_item_id, is_active, created_at, updated_at
		FROM rates
		WHERE id = $1
	`

	var rate Rate
	err := r.db.GetContext(ctx, &rate, query, id)
	if err != nil {
		return nil, err
	}

	return &rate, nil
}

func (r *repository) ListByCoach(ctx context.Context, coachID int64, activeOnly bool) ([]Rate, error) {
	query := `
		SELECT id, coach_id, session_type, duration_minutes, rate_cents, catalog_item_id, is_active, created_at, updated_at
		FROM rates
		WHERE coach_id = $1
	`
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY created_at DESC`

	var rates []Rate
	err := r.db.SelectContext(ctx, &rates, query, coachID)
	if err != nil {
		return nil, err
	}

	return rates, nil
}

// Deactivate soft-disables a rate. Rates referenced by payments are never
// hard-deleted.
func (r *repository) Deactivate(ctx context.Context, id, coachID int64) error {
	query := `
		UPDATE rates
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND coach_id = $2 AND is_active = true
	`

	result, err := r.db.ExecContext(ctx, query, id, coachID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRateNotFound
	}

	return nil
}

func (r *repository) SetCatalogItemID(ctx context.Context, id int64, catalogItemID string) error {
	query := `
		UPDATE rates
		SET catalog_item_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, catalogItemID, id)
	return err
}
