package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Fake is an in-memory Port used in tests and local development. It replays
// results for repeated idempotency keys and can be programmed to fail
// specific operations.
type Fake struct {
	mu        sync.Mutex
	customers map[string]string // email -> customer id
	payments  map[string]*fakePayment
	refunds   map[string]*fakeRefund
	seenKeys  map[string]interface{} // idempotency key -> first result

	FailAuthorize bool
	FailCapture   bool
	FailCancel    bool
	FailRefund    bool

	// AsyncRefunds makes Refund accept as PENDING instead of settling
	// immediately, mimicking a processor that confirms via webhook.
	AsyncRefunds bool
}

type fakePayment struct {
	ID          string
	CustomerID  string
	AmountCents int64
	Currency    string
	Status      string
}

type fakeRefund struct {
	ID          string
	PaymentID   string
	AmountCents int64
	Status      string
}

func NewFake() *Fake {
	return &Fake{
		customers: make(map[string]string),
		payments:  make(map[string]*fakePayment),
		refunds:   make(map[string]*fakeRefund),
		seenKeys:  make(map[string]interface{}),
	}
}

func (f *Fake) CreateCustomer(ctx context.Context, email, givenName, familyName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id, ok := f.customers[email]; ok {
		return id, nil
	}

	id := "cust_" + uuid.NewString()
	f.customers[email] = id
	return id, nil
}

func (f *Fake) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if prior, ok := f.seenKeys[req.IdempotencyKey]; ok {
		return prior.(*AuthorizeResult), nil
	}

	if f.FailAuthorize {
		return nil, &Error{Code: "CARD_DECLINED", Message: "card was declined"}
	}
	if req.AmountCents <= 0 {
		return nil, &Error{Code: "INVALID_AMOUNT", Message: "amount must be positive"}
	}

	p := &fakePayment{
		ID:          "pay_" + uuid.NewString(),
		CustomerID:  req.CustomerID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Status:      PaymentApproved,
	}
	if !req.CaptureLater {
		p.Status = PaymentCompleted
	}
	f.payments[p.ID] = p

	result := &AuthorizeResult{PaymentID: p.ID, Status: p.Status}
	f.seenKeys[req.IdempotencyKey] = result
	return result, nil
}

func (f *Fake) Capture(ctx context.Context, gatewayPaymentID string) (*CaptureResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[gatewayPaymentID]
	if !ok {
		return nil, ErrNotFound
	}

	if f.FailCapture {
		return nil, &Error{Code: "CAPTURE_FAILED", Message: "capture was rejected by the processor"}
	}

	// Capturing an already completed payment is a no-op on the processor
	// side; returning the current state keeps the call idempotent.
	if p.Status == PaymentCompleted {
		return &CaptureResult{Status: p.Status}, nil
	}
	if p.Status != PaymentApproved && p.Status != PaymentPending {
		return nil, &Error{Code: "INVALID_STATE", Message: fmt.Sprintf("cannot capture payment in state %s", p.Status)}
	}

	p.Status = PaymentCompleted
	return &CaptureResult{Status: p.Status}, nil
}

func (f *Fake) Cancel(ctx context.Context, gatewayPaymentID string) (*CancelResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[gatewayPaymentID]
	if !ok {
		return nil, ErrNotFound
	}

	if f.FailCancel {
		return nil, &Error{Code: "CANCEL_FAILED", Message: "void was rejected by the processor"}
	}
	if p.Status == PaymentCompleted {
		return nil, &Error{Code: "INVALID_STATE", Message: "cannot void a captured payment"}
	}

	p.Status = PaymentCanceled
	return &CancelResult{Status: p.Status}, nil
}

func (f *Fake) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if prior, ok := f.seenKeys[req.IdempotencyKey]; ok {
		return prior.(*RefundResult), nil
	}

	p, ok := f.payments[req.PaymentID]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Status != PaymentCompleted {
		return nil, &Error{Code: "INVALID_STATE", Message: "can only refund a captured payment"}
	}

	if f.FailRefund {
		return nil, &Error{Code: "REFUND_FAILED", Message: "refund was rejected by the processor"}
	}

	status := RefundCompleted
	if f.AsyncRefunds {
		status = RefundPending
	}

	r := &fakeRefund{
		ID:          "ref_" + uuid.NewString(),
		PaymentID:   req.PaymentID,
		AmountCents: req.AmountCents,
		Status:      status,
	}
	f.refunds[r.ID] = r

	result := &RefundResult{RefundID: r.ID, Status: r.Status}
	f.seenKeys[req.IdempotencyKey] = result
	return result, nil
}

// PaymentStatus reports the fake processor's view of a payment. Tests use it
// to assert gateway-side effects.
func (f *Fake) PaymentStatus(gatewayPaymentID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[gatewayPaymentID]
	if !ok {
		return "", false
	}
	return p.Status, true
}
