package billing

import "context"

type Repository interface {
	Create(ctx context.Context, tx *Transaction) (*Transaction, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Transaction, error)
	ListByReference(ctx context.Context, referenceType string, referenceID int64) ([]Transaction, error)
	// Supersede appends a new row mirroring the latest row for the reference
	// with the given status. The original row is left untouched.
	Supersede(ctx context.Context, referenceType string, referenceID int64, status, description string) error
	CoachEarnings(ctx context.Context, coachID int64) (*CoachEarningsSummary, error)
	PlatformRevenue(ctx context.Context) (*RevenueSummary, error)
}
