package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coachpay/internal/bankaccount"
	"coachpay/internal/billing"
	"coachpay/internal/gateway"
	"coachpay/internal/logger"
	"coachpay/internal/metrics"
	"coachpay/internal/payment"
	"coachpay/internal/user"
)

var (
	ErrAccountNotVerified = errors.New("bank account is not verified")
	ErrNotOwner           = errors.New("resource does not belong to this coach")
	ErrPaymentNotCaptured = errors.New("payment has not been captured")
	ErrPayoutExists       = errors.New("payout already exists for this payment")
	ErrNothingToPayOut    = errors.New("no positive earnings remain for this payment")
	ErrNoDefaultAccount   = errors.New("coach has no verified default bank account")
	ErrNotPending         = errors.New("payout is not pending")
)

// Notifier delivers payout status mail. Best-effort.
type Notifier interface {
	PayoutNotice(ctx context.Context, email, name, status string, amountCents int64, currency string) error
}

type Service interface {
	Create(ctx context.Context, coachID int64, req CreateRequest) (*Payout, error)
	GetByID(ctx context.Context, id int64) (*Payout, error)
	ListByCoach(ctx context.Context, coachID int64, limit, offset int) ([]Payout, error)
	ListPending(ctx context.Context, limit, offset int) ([]Payout, error)
	Approve(ctx context.Context, id int64) (*Payout, error)
	Reject(ctx context.Context, id int64, reason string) (*Payout, error)

	// InitiateForPayment creates a payout for a captured payment against the
	// coach's verified default bank account. Called from the capture path.
	InitiateForPayment(ctx context.Context, paymentID int64) error
}

type service struct {
	repo        Repository
	accountRepo bankaccount.Repository
	paymentRepo payment.Repository
	billingRepo billing.Repository
	userRepo    user.Repository
	transferer  Transferer
	cipher      *bankaccount.Cipher
	notifier    Notifier
	currency    string
}

func NewService(
	repo Repository,
	accountRepo bankaccount.Repository,
	paymentRepo payment.Repository,
	billingRepo billing.Repository,
	userRepo user.Repository,
	transferer Transferer,
	cipher *bankaccount.Cipher,
	notifier Notifier,
	currency string,
) Service {
	return &service{
		repo:        repo,
		accountRepo: accountRepo,
		paymentRepo: paymentRepo,
		billingRepo: billingRepo,
		userRepo:    userRepo,
		transferer:  transferer,
		cipher:      cipher,
		notifier:    notifier,
		currency:    currency,
	}
}

func (s *service) Create(ctx context.Context, coachID int64, req CreateRequest) (*Payout, error) {
	account, err := s.accountRepo.GetByID(ctx, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	if account.CoachID != coachID {
		return nil, ErrNotOwner
	}
	if !account.IsVerified {
		return nil, ErrAccountNotVerified
	}

	return s.create(ctx, coachID, account.ID, req.PaymentID)
}

func (s *service) create(ctx context.Context, coachID, accountID, paymentID int64) (*Payout, error) {
	p, err := s.paymentRepo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.CoachID != coachID {
		return nil, ErrNotOwner
	}
	if p.Status != payment.StatusSucceeded && p.Status != payment.StatusPartiallyRefunded {
		return nil, ErrPaymentNotCaptured
	}

	exists, err := s.repo.ExistsForPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPayoutExists
	}

	penalties, err := s.paymentRepo.SumCoachPenalties(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	amount := p.CoachEarningsCents - penalties
	if amount <= 0 {
		return nil, ErrNothingToPayOut
	}

	created, err := s.repo.Create(ctx, &Payout{
		CoachID:        coachID,
		BankAccountID:  accountID,
		PaymentID:      paymentID,
		AmountCents:    amount,
		FeeCents:       0,
		NetAmountCents: amount,
		Status:         StatusPending,
	})
	if err != nil {
		return nil, err
	}

	s.writeLedgerRow(ctx, created, billing.StatusPending, "Payout requested")

	metrics.RecordPayout(string(StatusPending))
	logger.Info("payout created",
		"payout_id", created.ID,
		"coach_id", coachID,
		"payment_id", paymentID,
		"net_amount_cents", created.NetAmountCents,
	)

	return created, nil
}

func (s *service) InitiateForPayment(ctx context.Context, paymentID int64) error {
	p, err := s.paymentRepo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return err
	}

	accounts, err := s.accountRepo.ListByCoach(ctx, p.CoachID)
	if err != nil {
		return err
	}

	var target *bankaccount.BankAccount
	for i := range accounts {
		if accounts[i].IsDefault && accounts[i].IsVerified {
			target = &accounts[i]
			break
		}
	}
	if target == nil {
		return ErrNoDefaultAccount
	}

	_, err = s.create(ctx, p.CoachID, target.ID, paymentID)
	if errors.Is(err, ErrPayoutExists) {
		return nil
	}
	return err
}

func (s *service) GetByID(ctx context.Context, id int64) (*Payout, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByCoach(ctx context.Context, coachID int64, limit, offset int) ([]Payout, error) {
	return s.repo.ListByCoach(ctx, coachID, limit, offset)
}

func (s *service) ListPending(ctx context.Context, limit, offset int) ([]Payout, error) {
	return s.repo.ListByStatus(ctx, StatusPending, limit, offset)
}

func (s *service) Approve(ctx context.Context, id int64) (*Payout, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, ErrNotPending
	}

	account, err := s.accountRepo.GetByID(ctx, p.BankAccountID)
	if err != nil {
		return nil, err
	}

	accountNumber, err := s.cipher.Decrypt(account.AccountNumberEnc)
	if err != nil {
		return nil, fmt.Errorf("decrypt account number: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, p.ID, []Status{StatusPending}, StatusProcessing, nil, nil); err != nil {
		return nil, err
	}

	transferErr := s.transferer.Transfer(ctx, TransferRequest{
		PayoutID:       p.ID,
		RoutingNumber:  account.RoutingNumber,
		AccountNumber:  accountNumber,
		AmountCents:    p.NetAmountCents,
		Currency:       s.currency,
		IdempotencyKey: gateway.NewIdempotencyKey(),
	})

	now := time.Now()
	if transferErr != nil {
		if err := s.repo.UpdateStatus(ctx, p.ID, []Status{StatusProcessing}, StatusFailed, nil, &now); err != nil {
			logger.Error("failed to mark payout failed after transfer error", "payout_id", p.ID, "error", err)
		}
		p.Status = StatusFailed
		p.ProcessedAt = &now

		s.supersedeLedgerRow(ctx, p, billing.StatusFailed, "Payout transfer failed")
		metrics.RecordPayout(string(StatusFailed))
		logger.Error("payout transfer failed", "payout_id", p.ID, "error", transferErr)
		s.notify(ctx, p)

		return p, nil
	}

	if err := s.repo.UpdateStatus(ctx, p.ID, []Status{StatusProcessing}, StatusCompleted, nil, &now); err != nil {
		return nil, err
	}
	p.Status = StatusCompleted
	p.ProcessedAt = &now

	s.supersedeLedgerRow(ctx, p, billing.StatusCompleted, "Payout completed")
	metrics.RecordPayout(string(StatusCompleted))
	logger.Info("payout completed", "payout_id", p.ID, "net_amount_cents", p.NetAmountCents)
	s.notify(ctx, p)

	return p, nil
}

func (s *service) Reject(ctx context.Context, id int64, reason string) (*Payout, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, ErrNotPending
	}

	if err := s.repo.UpdateStatus(ctx, p.ID, []Status{StatusPending}, StatusRejected, &reason, nil); err != nil {
		return nil, err
	}
	p.Status = StatusRejected
	p.RejectReason = &reason

	s.supersedeLedgerRow(ctx, p, billing.StatusFailed, "Payout rejected: "+reason)
	metrics.RecordPayout(string(StatusRejected))
	logger.Info("payout rejected", "payout_id", p.ID, "reason", reason)
	s.notify(ctx, p)

	return p, nil
}

func (s *service) writeLedgerRow(ctx context.Context, p *Payout, status, description string) {
	meta := []byte(fmt.Sprintf(`{"payment_id": %d, "bank_account_id": %d}`, p.PaymentID, p.BankAccountID))

	_, err := s.billingRepo.Create(ctx, &billing.Transaction{
		UserID:          p.CoachID,
		UserType:        billing.UserTypeCoach,
		TransactionType: billing.TypePayout,
		AmountCents:     p.NetAmountCents,
		Currency:        s.currency,
		Status:          status,
		Description:     description,
		ReferenceID:     p.ID,
		ReferenceType:   billing.RefPayout,
		Metadata:        meta,
	})
	if err != nil {
		logger.Error("ledger write failed for payout", "payout_id", p.ID, "error", err)
	}
}

func (s *service) supersedeLedgerRow(ctx context.Context, p *Payout, status, description string) {
	if err := s.billingRepo.Supersede(ctx, billing.RefPayout, p.ID, status, description); err != nil {
		logger.Error("failed to supersede payout ledger row", "payout_id", p.ID, "error", err)
	}
}

func (s *service) notify(ctx context.Context, p *Payout) {
	if s.notifier == nil {
		return
	}

	coach, err := s.userRepo.FindByID(ctx, p.CoachID)
	if err != nil {
		return
	}

	if err := s.notifier.PayoutNotice(ctx, coach.Email, coach.Name, string(p.Status), p.NetAmountCents, s.currency); err != nil {
		logger.Error("failed to queue payout notice", "payout_id", p.ID, "error", err)
	}
}
