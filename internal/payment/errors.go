package payment

import (
	"errors"
	"fmt"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrRefundNotFound  = errors.New("refund not found")

	// ErrInvalidRate covers unknown, inactive and wrongly-owned rates.
	ErrInvalidRate           = errors.New("rate is not available")
	ErrRateOwnershipMismatch = errors.New("rate does not belong to the given coach")

	// ErrStateConflict is returned when a status precondition no longer
	// holds, including optimistic writes that matched zero rows.
	ErrStateConflict = errors.New("payment is not in a valid state for this operation")

	ErrRefundExceedsBalance = errors.New("refund amount exceeds remaining balance")
	ErrInvalidRefundReason  = errors.New("invalid refund reason")
	ErrInvalidRefundAmount  = errors.New("refund amount must be positive")

	// ErrUnknownOutcome marks a gateway call that timed out after being
	// sent. The local record is left untouched for webhook reconciliation;
	// blind retry could double-charge.
	ErrUnknownOutcome = errors.New("gateway outcome unknown, awaiting reconciliation")
)

// GatewayError wraps a processor rejection so the caller can surface the
// processor's human-readable reason.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// LedgerWriteError marks a local persistence failure that happened after a
// gateway side effect. Where the gateway operation is compensable the
// compensation has already been attempted.
type LedgerWriteError struct {
	Op  string
	Err error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("local write after gateway %s failed: %v", e.Op, e.Err)
}

func (e *LedgerWriteError) Unwrap() error {
	return e.Err
}
