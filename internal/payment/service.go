package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coachpay/internal/billing"
	"coachpay/internal/gateway"
	"coachpay/internal/logger"
	"coachpay/internal/metrics"
	"coachpay/internal/rate"
	"coachpay/internal/user"
)

// PayoutInitiator starts a payout for a freshly captured payment. Wired to
// the payout service; failures are logged, never propagated, so a broken
// payout path cannot fail a capture.
type PayoutInitiator interface {
	InitiateForPayment(ctx context.Context, paymentID int64) error
}

// Notifier delivers receipts and refund notices. Best-effort.
type Notifier interface {
	PaymentReceipt(ctx context.Context, email, name string, amountCents int64, currency string) error
	RefundNotice(ctx context.Context, email, name string, amountCents int64, currency string) error
}

type Service interface {
	Authorize(ctx context.Context, clientID int64, req AuthorizeRequest) (*Payment, error)
	Capture(ctx context.Context, paymentID int64) (*Payment, error)
	Cancel(ctx context.Context, paymentID int64, reason string) (*Payment, error)
	Refund(ctx context.Context, paymentID int64, req RefundRequest) (*Refund, error)
	GetByID(ctx context.Context, paymentID int64) (*Payment, error)
	ListForUser(ctx context.Context, userID int64, role string, limit, offset int) ([]Payment, error)
	ListRefunds(ctx context.Context, paymentID int64) ([]Refund, error)

	// ReconcilePayment applies a gateway-reported status if and only if it is
	// a legal forward transition. Returns whether a change was applied.
	ReconcilePayment(ctx context.Context, gatewayPaymentID string, target Status) (bool, error)
	ReconcileRefund(ctx context.Context, gatewayRefundID string, target RefundStatus) (bool, error)
}

type service struct {
	repo        Repository
	rateRepo    rate.Repository
	userRepo    user.Repository
	billingRepo billing.Repository
	gw          gateway.Port
	payouts     PayoutInitiator
	notifier    Notifier

	platformFeeBps int64
	currency       string
	gatewayTimeout time.Duration
}

type Config struct {
	PlatformFeeBps int64
	Currency       string
	GatewayTimeout time.Duration
}

func NewService(
	repo Repository,
	rateRepo rate.Repository,
	userRepo user.Repository,
	billingRepo billing.Repository,
	gw gateway.Port,
	payouts PayoutInitiator,
	notifier Notifier,
	cfg Config,
) Service {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 15 * time.Second
	}
	return &service{
		repo:           repo,
		rateRepo:       rateRepo,
		userRepo:       userRepo,
		billingRepo:    billingRepo,
		gw:             gw,
		payouts:        payouts,
		notifier:       notifier,
		platformFeeBps: cfg.PlatformFeeBps,
		currency:       cfg.Currency,
		gatewayTimeout: cfg.GatewayTimeout,
	}
}

func (s *service) gatewayCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.gatewayTimeout)
}

func (s *service) Authorize(ctx context.Context, clientID int64, req AuthorizeRequest) (*Payment, error) {
	r, err := s.rateRepo.GetByID(ctx, req.RateID)
	if err != nil {
		return nil, ErrInvalidRate
	}
	if !r.IsActive {
		return nil, ErrInvalidRate
	}
	if r.CoachID != req.CoachID {
		return nil, ErrRateOwnershipMismatch
	}

	client, err := s.userRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.resolveGatewayCustomer(ctx, client)
	if err != nil {
		return nil, &GatewayError{Op: "create customer", Err: err}
	}

	platformFee, coachEarnings := SplitAmount(r.RateCents, s.platformFeeBps)

	gwCtx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	authRes, err := s.gw.Authorize(gwCtx, gateway.AuthorizeRequest{
		CustomerID:     customerID,
		AmountCents:    r.RateCents,
		Currency:       s.currency,
		IdempotencyKey: gateway.NewIdempotencyKey(),
		CaptureLater:   true,
		Note:           req.Note,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: authorize timed out", ErrUnknownOutcome)
		}
		return nil, &GatewayError{Op: "authorize", Err: err}
	}

	created, err := s.repo.CreatePayment(ctx, &Payment{
		ClientID:           clientID,
		CoachID:            req.CoachID,
		RateID:             &r.ID,
		GatewayPaymentID:   authRes.PaymentID,
		GatewayCustomerID:  customerID,
		AmountCents:        r.RateCents,
		PlatformFeeCents:   platformFee,
		CoachEarningsCents: coachEarnings,
		Currency:           s.currency,
		Status:             StatusAuthorized,
	})
	if err != nil {
		// The hold exists at the gateway but has no local record. Void it
		// so no ghost hold survives the failure.
		s.voidOrphanHold(authRes.PaymentID)
		return nil, &LedgerWriteError{Op: "authorize", Err: err}
	}

	metrics.RecordPayment(string(StatusAuthorized))
	logger.Info("payment authorized",
		"payment_id", created.ID,
		"gateway_payment_id", created.GatewayPaymentID,
		"client_id", clientID,
		"coach_id", req.CoachID,
		"amount_cents", created.AmountCents,
	)

	return created, nil
}

func (s *service) resolveGatewayCustomer(ctx context.Context, client *user.User) (string, error) {
	if client.GatewayCustomerID != nil && *client.GatewayCustomerID != "" {
		return *client.GatewayCustomerID, nil
	}

	gwCtx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	customerID, err := s.gw.CreateCustomer(gwCtx, client.Email, client.Name, "")
	if err != nil {
		return "", err
	}

	if err := s.userRepo.SetGatewayCustomerID(ctx, client.ID, customerID); err != nil {
		logger.Error("failed to store gateway customer id", "user_id", client.ID, "error", err)
	}

	return customerID, nil
}

func (s *service) voidOrphanHold(gatewayPaymentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.gatewayTimeout)
	defer cancel()

	if _, err := s.gw.Cancel(ctx, gatewayPaymentID); err != nil {
		logger.Error("failed to void orphan hold after local write failure",
			"gateway_payment_id", gatewayPaymentID,
			"error", err,
		)
		return
	}
	logger.Warn("voided orphan hold after local write failure", "gateway_payment_id", gatewayPaymentID)
}

func (s *service) Capture(ctx context.Context, paymentID int64) (*Payment, error) {
	p, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if !p.Status.Capturable() {
		return nil, ErrStateConflict
	}

	gwCtx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	if _, err := s.gw.Capture(gwCtx, p.GatewayPaymentID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// The capture may have landed; leave the local record alone and
			// let the webhook settle it.
			return nil, fmt.Errorf("%w: capture timed out", ErrUnknownOutcome)
		}

		reason := err.Error()
		if stErr := s.repo.UpdatePaymentStatus(ctx, p.ID, []Status{StatusPending, StatusAuthorized}, StatusFailed, nil, &reason); stErr != nil {
			logger.Error("failed to mark payment failed after capture rejection", "payment_id", p.ID, "error", stErr)
		}
		metrics.RecordPayment(string(StatusFailed))
		return nil, &GatewayError{Op: "capture", Err: err}
	}

	now := time.Now()
	if err := s.repo.UpdatePaymentStatus(ctx, p.ID, []Status{StatusPending, StatusAuthorized}, StatusSucceeded, &now, nil); err != nil {
		// A concurrent capture or webhook won the race. The gateway call
		// was idempotent, so nothing was double-charged.
		return nil, err
	}

	p.Status = StatusSucceeded
	p.PaidAt = &now

	s.afterCapture(ctx, p)

	return p, nil
}

// afterCapture records the ledger rows for a captured payment and kicks off
// the best-effort side effects. Called from both the local capture path and
// webhook reconciliation, so an externally confirmed capture books the same
// rows.
func (s *service) afterCapture(ctx context.Context, p *Payment) {
	metrics.RecordPayment(string(StatusSucceeded))
	logger.Info("payment captured", "payment_id", p.ID, "amount_cents", p.AmountCents)

	s.writeCaptureLedger(ctx, p)

	if s.payouts != nil {
		if err := s.payouts.InitiateForPayment(ctx, p.ID); err != nil {
			logger.Error("payout initiation failed after capture", "payment_id", p.ID, "error", err)
		}
	}

	if s.notifier != nil {
		client, err := s.userRepo.FindByID(ctx, p.ClientID)
		if err == nil {
			if err := s.notifier.PaymentReceipt(ctx, client.Email, client.Name, p.AmountCents, p.Currency); err != nil {
				logger.Error("failed to queue payment receipt", "payment_id", p.ID, "error", err)
			}
		}
	}
}

func (s *service) writeCaptureLedger(ctx context.Context, p *Payment) {
	meta := []byte(fmt.Sprintf(`{"gateway_payment_id": %q}`, p.GatewayPaymentID))

	rows := []*billing.Transaction{
		{
			UserID:          p.ClientID,
			UserType:        billing.UserTypeClient,
			TransactionType: billing.TypePayment,
			AmountCents:     p.AmountCents,
			Currency:        p.Currency,
			Status:          billing.StatusCompleted,
			Description:     "Payment for coaching session",
			ReferenceID:     p.ID,
			ReferenceType:   billing.RefPayment,
			Metadata:        meta,
		},
		{
			UserID:          p.CoachID,
			UserType:        billing.UserTypeCoach,
			TransactionType: billing.TypePayment,
			AmountCents:     p.CoachEarningsCents,
			Currency:        p.Currency,
			Status:          billing.StatusCompleted,
			Description:     "Session earnings",
			ReferenceID:     p.ID,
			ReferenceType:   billing.RefPayment,
			Metadata:        meta,
		},
	}

	if p.PlatformFeeCents > 0 {
		rows = append(rows, &billing.Transaction{
			UserType:        billing.UserTypePlatform,
			TransactionType: billing.TypeFee,
			AmountCents:     p.PlatformFeeCents,
			Currency:        p.Currency,
			Status:          billing.StatusCompleted,
			Description:     "Platform fee",
			ReferenceID:     p.ID,
			ReferenceType:   billing.RefPayment,
			Metadata:        meta,
		})
	}

	for _, row := range rows {
		if _, err := s.billingRepo.Create(ctx, row); err != nil {
			logger.Error("ledger write failed after capture",
				"payment_id", p.ID,
				"user_type", row.UserType,
				"transaction_type", row.TransactionType,
				"error", err,
			)
		}
	}
}

func (s *service) Cancel(ctx context.Context, paymentID int64, reason string) (*Payment, error) {
	p, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if !p.Status.Capturable() {
		return nil, ErrStateConflict
	}

	gwCtx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	if _, err := s.gw.Cancel(gwCtx, p.GatewayPaymentID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: void timed out", ErrUnknownOutcome)
		}
		return nil, &GatewayError{Op: "cancel", Err: err}
	}

	if err := s.repo.UpdatePaymentStatus(ctx, p.ID, []Status{StatusPending, StatusAuthorized}, StatusCanceled, nil, &reason); err != nil {
		return nil, err
	}

	p.Status = StatusCanceled
	metrics.RecordPayment(string(StatusCanceled))
	logger.Info("payment canceled", "payment_id", p.ID, "reason", reason)

	return p, nil
}

func (s *service) Refund(ctx context.Context, paymentID int64, req RefundRequest) (*Refund, error) {
	if !ValidRefundReason(req.Reason) {
		return nil, ErrInvalidRefundReason
	}

	p, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if !p.Status.Refundable() {
		return nil, ErrStateConflict
	}

	refunded, err := s.repo.SumActiveRefunds(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	amount := req.AmountCents
	if amount == 0 {
		amount = p.AmountCents - refunded
	}
	if amount <= 0 {
		return nil, ErrInvalidRefundAmount
	}
	if refunded+amount > p.AmountCents {
		return nil, ErrRefundExceedsBalance
	}

	coachPenalty, platformRefund := SplitRefund(req.Reason, amount, p.CoachEarningsCents, p.PlatformFeeCents)

	refund, err := s.repo.CreateRefund(ctx, &Refund{
		PaymentID:           p.ID,
		AmountCents:         amount,
		Reason:              req.Reason,
		CoachPenaltyCents:   coachPenalty,
		PlatformRefundCents: platformRefund,
		Status:              RefundPending,
	})
	if err != nil {
		return nil, err
	}

	gwCtx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	gwRes, err := s.gw.Refund(gwCtx, gateway.RefundRequest{
		PaymentID:      p.GatewayPaymentID,
		AmountCents:    amount,
		Currency:       p.Currency,
		IdempotencyKey: gateway.NewIdempotencyKey(),
		Reason:         req.Reason,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// The refund may exist at the gateway. Leave the pending row for
			// the webhook to settle.
			return nil, fmt.Errorf("%w: refund timed out", ErrUnknownOutcome)
		}

		if stErr := s.repo.UpdateRefundStatus(ctx, refund.ID, nil, RefundFailed); stErr != nil {
			logger.Error("failed to mark refund failed", "refund_id", refund.ID, "error", stErr)
		}
		metrics.RecordRefund(req.Reason, string(RefundFailed))
		return nil, &GatewayError{Op: "refund", Err: err}
	}

	status := RefundProcessing
	if gwRes.Status == gateway.RefundCompleted {
		status = RefundSucceeded
	}
	if err := s.repo.UpdateRefundStatus(ctx, refund.ID, &gwRes.RefundID, status); err != nil {
		return nil, &LedgerWriteError{Op: "refund", Err: err}
	}
	refund.GatewayRefundID = &gwRes.RefundID
	refund.Status = status

	s.recomputeRefundedStatus(ctx, p)
	s.writeRefundLedger(ctx, p, refund)

	metrics.RecordRefund(req.Reason, string(status))
	logger.Info("refund issued",
		"refund_id", refund.ID,
		"payment_id", p.ID,
		"amount_cents", amount,
		"reason", req.Reason,
		"coach_penalty_cents", coachPenalty,
	)

	if s.notifier != nil {
		client, err := s.userRepo.FindByID(ctx, p.ClientID)
		if err == nil {
			if err := s.notifier.RefundNotice(ctx, client.Email, client.Name, amount, p.Currency); err != nil {
				logger.Error("failed to queue refund notice", "refund_id", refund.ID, "error", err)
			}
		}
	}

	return refund, nil
}

// recomputeRefundedStatus moves the payment to refunded or partially_refunded
// based on the gateway-confirmed refund total. Refunds still settling do not
// count: refunded is terminal, so the payment must not enter it until the
// money has actually moved.
func (s *service) recomputeRefundedStatus(ctx context.Context, p *Payment) {
	refunded, err := s.repo.SumSucceededRefunds(ctx, p.ID)
	if err != nil {
		logger.Error("failed to sum refunds", "payment_id", p.ID, "error", err)
		return
	}
	if refunded == 0 {
		// Nothing confirmed yet, or every refund failed; the payment stays
		// succeeded.
		return
	}

	target := StatusPartiallyRefunded
	if refunded >= p.AmountCents {
		target = StatusRefunded
	}

	err = s.repo.UpdatePaymentStatus(ctx, p.ID, []Status{StatusSucceeded, StatusPartiallyRefunded}, target, nil, nil)
	if err != nil && !errors.Is(err, ErrStateConflict) {
		logger.Error("failed to update payment refund status", "payment_id", p.ID, "error", err)
	}
	metrics.RecordPayment(string(target))
}

func (s *service) writeRefundLedger(ctx context.Context, p *Payment, refund *Refund) {
	meta := []byte(fmt.Sprintf(`{"payment_id": %d, "reason": %q}`, p.ID, refund.Reason))

	rows := []*billing.Transaction{
		{
			UserID:          p.ClientID,
			UserType:        billing.UserTypeClient,
			TransactionType: billing.TypeRefund,
			AmountCents:     refund.AmountCents,
			Currency:        p.Currency,
			Status:          billing.StatusCompleted,
			Description:     "Refund for coaching session",
			ReferenceID:     refund.ID,
			ReferenceType:   billing.RefRefund,
			Metadata:        meta,
		},
	}

	if refund.CoachPenaltyCents > 0 {
		// Informational deduction: it is netted against the payout for this
		// payment, not clawed back immediately.
		rows = append(rows, &billing.Transaction{
			UserID:          p.CoachID,
			UserType:        billing.UserTypeCoach,
			TransactionType: billing.TypeRefund,
			AmountCents:     refund.CoachPenaltyCents,
			Currency:        p.Currency,
			Status:          billing.StatusCompleted,
			Description:     "Earnings adjustment for refund",
			ReferenceID:     refund.ID,
			ReferenceType:   billing.RefRefund,
			Metadata:        meta,
		})
	}

	if refund.PlatformRefundCents > 0 {
		// The platform's share of the refund, so revenue reports net it
		// against collected fees.
		rows = append(rows, &billing.Transaction{
			UserType:        billing.UserTypePlatform,
			TransactionType: billing.TypeRefund,
			AmountCents:     refund.PlatformRefundCents,
			Currency:        p.Currency,
			Status:          billing.StatusCompleted,
			Description:     "Platform fee refund",
			ReferenceID:     refund.ID,
			ReferenceType:   billing.RefRefund,
			Metadata:        meta,
		})
	}

	for _, row := range rows {
		if _, err := s.billingRepo.Create(ctx, row); err != nil {
			logger.Error("ledger write failed after refund",
				"refund_id", refund.ID,
				"user_type", row.UserType,
				"error", err,
			)
		}
	}
}

func (s *service) GetByID(ctx context.Context, paymentID int64) (*Payment, error) {
	return s.repo.GetPaymentByID(ctx, paymentID)
}

func (s *service) ListForUser(ctx context.Context, userID int64, role string, limit, offset int) ([]Payment, error) {
	if role == "coach" {
		return s.repo.ListPaymentsByCoach(ctx, userID, limit, offset)
	}
	return s.repo.ListPaymentsByClient(ctx, userID, limit, offset)
}

func (s *service) ListRefunds(ctx context.Context, paymentID int64) ([]Refund, error) {
	return s.repo.ListRefundsByPayment(ctx, paymentID)
}

func (s *service) ReconcilePayment(ctx context.Context, gatewayPaymentID string, target Status) (bool, error) {
	p, err := s.repo.GetPaymentByGatewayID(ctx, gatewayPaymentID)
	if err != nil {
		return false, err
	}

	if p.Status == target {
		return false, nil
	}
	if !p.Status.CanTransitionTo(target) {
		logger.Info("webhook transition skipped",
			"payment_id", p.ID,
			"old_status", p.Status,
			"reported_status", target,
		)
		return false, nil
	}

	var paidAt *time.Time
	if target == StatusSucceeded {
		now := time.Now()
		paidAt = &now
	}

	if err := s.repo.UpdatePaymentStatus(ctx, p.ID, []Status{p.Status}, target, paidAt, nil); err != nil {
		if errors.Is(err, ErrStateConflict) {
			// Lost a race against a local operation; the next webhook
			// delivery will converge.
			return false, nil
		}
		return false, err
	}

	logger.Info("webhook transition applied",
		"payment_id", p.ID,
		"old_status", p.Status,
		"new_status", target,
	)

	if target == StatusSucceeded {
		p.Status = StatusSucceeded
		p.PaidAt = paidAt
		s.afterCapture(ctx, p)
	} else {
		metrics.RecordPayment(string(target))
	}

	return true, nil
}

func (s *service) ReconcileRefund(ctx context.Context, gatewayRefundID string, target RefundStatus) (bool, error) {
	refund, err := s.repo.GetRefundByGatewayID(ctx, gatewayRefundID)
	if err != nil {
		return false, err
	}

	if refund.Status == target {
		return false, nil
	}
	if refund.Status == RefundSucceeded || refund.Status == RefundFailed {
		logger.Info("webhook refund transition skipped",
			"refund_id", refund.ID,
			"old_status", refund.Status,
			"reported_status", target,
		)
		return false, nil
	}

	if err := s.repo.UpdateRefundStatus(ctx, refund.ID, nil, target); err != nil {
		return false, err
	}

	logger.Info("webhook refund transition applied",
		"refund_id", refund.ID,
		"old_status", refund.Status,
		"new_status", target,
	)

	if target == RefundFailed {
		if err := s.billingRepo.Supersede(ctx, billing.RefRefund, refund.ID, billing.StatusFailed, "Refund failed at gateway"); err != nil {
			logger.Error("failed to supersede refund ledger rows", "refund_id", refund.ID, "error", err)
		}
	}

	if target == RefundSucceeded || target == RefundFailed {
		if p, err := s.repo.GetPaymentByID(ctx, refund.PaymentID); err == nil {
			s.recomputeRefundedStatus(ctx, p)
		}
	}

	metrics.RecordRefund(refund.Reason, string(target))
	return true, nil
}
