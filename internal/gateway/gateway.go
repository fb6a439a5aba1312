package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Processor-side status vocabulary. The webhook reconciler maps these onto
// the local payment state machine.
const (
	PaymentPending   = "PENDING"
	PaymentApproved  = "APPROVED"
	PaymentCompleted = "COMPLETED"
	PaymentCanceled  = "CANCELED"
	PaymentFailed    = "FAILED"

	RefundPending   = "PENDING"
	RefundCompleted = "COMPLETED"
	RefundRejected  = "REJECTED"
	RefundFailed    = "FAILED"
)

var ErrNotFound = errors.New("gateway: object not found")

// Error wraps a processor rejection so callers can surface the processor's
// human-readable reason.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

type AuthorizeRequest struct {
	CustomerID     string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
	// CaptureLater issues a hold instead of an immediate charge.
	CaptureLater bool
	Note         string
}

type AuthorizeResult struct {
	PaymentID string
	Status    string
}

type CaptureResult struct {
	Status string
}

type CancelResult struct {
	Status string
}

type RefundRequest struct {
	PaymentID      string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
	Reason         string
}

type RefundResult struct {
	RefundID string
	Status   string
}

// Port is the boundary to an external card processor. Implementations carry
// no business logic; every mutating call takes a caller-supplied idempotency
// key so a retried request produces at most one processor-side effect.
type Port interface {
	CreateCustomer(ctx context.Context, email, givenName, familyName string) (string, error)
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error)
	Capture(ctx context.Context, gatewayPaymentID string) (*CaptureResult, error)
	Cancel(ctx context.Context, gatewayPaymentID string) (*CancelResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// NewIdempotencyKey returns a fresh operation-scoped idempotency key.
func NewIdempotencyKey() string {
	return uuid.NewString()
}
