package payout

import "context"

type TransferRequest struct {
	PayoutID       int64
	RoutingNumber  string
	AccountNumber  string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
}

// Transferer moves approved funds to a coach's bank account. Kept behind an
// interface so the engine does not depend on any particular transfer rail.
type Transferer interface {
	Transfer(ctx context.Context, req TransferRequest) error
}

// NoopTransferer accepts every transfer without an external call. Used until
// a real transfer rail is wired, and in tests.
type NoopTransferer struct{}

func (NoopTransferer) Transfer(ctx context.Context, req TransferRequest) error {
	return nil
}
