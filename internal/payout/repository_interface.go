package payout

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p *Payout) (*Payout, error)
	GetByID(ctx context.Context, id int64) (*Payout, error)
	ListByCoach(ctx context.Context, coachID int64, limit, offset int) ([]Payout, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Payout, error)
	ExistsForPayment(ctx context.Context, paymentID int64) (bool, error)
	// UpdateStatus is optimistic: the row is only updated while its stored
	// status is one of from.
	UpdateStatus(ctx context.Context, id int64, from []Status, to Status, rejectReason *string, processedAt *time.Time) error
}
