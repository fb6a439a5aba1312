package bankaccount

import (
	"context"
	"errors"

	"coachpay/internal/logger"
)

var (
	ErrInvalidRoutingNumber = errors.New("invalid routing number")
	ErrNotOwner             = errors.New("bank account does not belong to this coach")
)

type Service interface {
	Create(ctx context.Context, coachID int64, req CreateRequest) (*Masked, error)
	ListByCoach(ctx context.Context, coachID int64) ([]Masked, error)
	SetDefault(ctx context.Context, id, coachID int64) error
	Verify(ctx context.Context, id int64) error
	Delete(ctx context.Context, id, coachID int64) error
}

type service struct {
	repo   Repository
	cipher *Cipher
}

func NewService(repo Repository, cipher *Cipher) Service {
	return &service{
		repo:   repo,
		cipher: cipher,
	}
}

func (s *service) Create(ctx context.Context, coachID int64, req CreateRequest) (*Masked, error) {
	if !ValidRoutingNumber(req.RoutingNumber) {
		return nil, ErrInvalidRoutingNumber
	}

	enc, err := s.cipher.Encrypt(req.AccountNumber)
	if err != nil {
		return nil, err
	}

	last4 := req.AccountNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}

	created, err := s.repo.Create(ctx, &BankAccount{
		CoachID:          coachID,
		AccountHolder:    req.AccountHolder,
		BankName:         req.BankName,
		RoutingNumber:    req.RoutingNumber,
		AccountNumberEnc: enc,
		AccountLast4:     last4,
		IsDefault:        req.SetDefault,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("bank account added", "bank_account_id", created.ID, "coach_id", coachID)

	masked := created.Mask()
	return &masked, nil
}

func (s *service) ListByCoach(ctx context.Context, coachID int64) ([]Masked, error) {
	accounts, err := s.repo.ListByCoach(ctx, coachID)
	if err != nil {
		return nil, err
	}

	masked := make([]Masked, len(accounts))
	for i := range accounts {
		masked[i] = accounts[i].Mask()
	}

	return masked, nil
}

func (s *service) SetDefault(ctx context.Context, id, coachID int64) error {
	return s.repo.SetDefault(ctx, id, coachID)
}

func (s *service) Verify(ctx context.Context, id int64) error {
	if err := s.repo.MarkVerified(ctx, id); err != nil {
		return err
	}
	logger.Info("bank account verified", "bank_account_id", id)
	return nil
}

func (s *service) Delete(ctx context.Context, id, coachID int64) error {
	return s.repo.Delete(ctx, id, coachID)
}
