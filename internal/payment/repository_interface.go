package payment

import (
	"context"
	"time"
)

type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) (*Payment, error)
	GetPaymentByID(ctx context.Context, id int64) (*Payment, error)
	GetPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (*Payment, error)
	ListPaymentsByClient(ctx context.Context, clientID int64, limit, offset int) ([]Payment, error)
	ListPaymentsByCoach(ctx context.Context, coachID int64, limit, offset int) ([]Payment, error)
	// UpdatePaymentStatus performs an optimistic read-check-write: the row is
	// only updated while its stored status is one of from. Zero rows matched
	// returns ErrStateConflict.
	UpdatePaymentStatus(ctx context.Context, id int64, from []Status, to Status, paidAt *time.Time, failureReason *string) error

	// CreateRefund inserts the refund only while the cumulative active refund
	// total plus this amount stays within the payment's amount. A guarded
	// insert, so two concurrent refunds cannot both slip past the bound.
	// Returns ErrRefundExceedsBalance when the guard rejects the row.
	CreateRefund(ctx context.Context, r *Refund) (*Refund, error)
	GetRefundByID(ctx context.Context, id int64) (*Refund, error)
	GetRefundByGatewayID(ctx context.Context, gatewayRefundID string) (*Refund, error)
	ListRefundsByPayment(ctx context.Context, paymentID int64) ([]Refund, error)
	UpdateRefundStatus(ctx context.Context, id int64, gatewayRefundID *string, to RefundStatus) error
	// SumActiveRefunds totals refunds in pending/processing/succeeded so an
	// in-flight refund already counts against the remaining balance.
	SumActiveRefunds(ctx context.Context, paymentID int64) (int64, error)
	// SumSucceededRefunds totals only gateway-confirmed refunds. The payment's
	// refunded/partially_refunded status is derived from this figure, never
	// from refunds that are still settling.
	SumSucceededRefunds(ctx context.Context, paymentID int64) (int64, error)
	// SumCoachPenalties totals coach penalties on non-failed refunds; payouts
	// net this against the coach earnings of the same payment.
	SumCoachPenalties(ctx context.Context, paymentID int64) (int64, error)
}
