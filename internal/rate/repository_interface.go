package rate

import "context"

type Repository interface {
	Create(ctx context.Context, r *Rate) (*Rate, error)
	GetByID(ctx context.Context, id int64) (*Rate, error)
	ListByCoach(ctx context.Context, coachID int64, activeOnly bool) ([]Rate, error)
	Deactivate(ctx context.Context, id, coachID int64) error
	SetCatalogItemID(ctx context.Context, id int64, catalogItemID string) error
}
