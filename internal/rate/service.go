package rate

import (
	"context"
	"errors"

	"coachpay/internal/logger"
)

var (
	ErrInvalidSessionType = errors.New("invalid session type")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrInvalidRateAmount  = errors.New("rate must be positive")
)

type Service interface {
	Create(ctx context.Context, coachID int64, req CreateRateRequest) (*Rate, error)
	GetByID(ctx context.Context, id int64) (*Rate, error)
	ListByCoach(ctx context.Context, coachID int64, activeOnly bool) ([]Rate, error)
	Deactivate(ctx context.Context, id, coachID int64) error
}

type service struct {
	repo    Repository
	catalog CatalogAdapter
}

func NewService(repo Repository, catalog CatalogAdapter) Service {
	return &service{
		repo:    repo,
		catalog: catalog,
	}
}

func (s *service) Create(ctx context.Context, coachID int64, req CreateRateRequest) (*Rate, error) {
	if !ValidSessionType(req.SessionType) {
		return nil, ErrInvalidSessionType
	}
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.RateCents <= 0 {
		return nil, ErrInvalidRateAmount
	}

	rate, err := s.repo.Create(ctx, &Rate{
		CoachID:         coachID,
		SessionType:     req.SessionType,
		DurationMinutes: req.DurationMinutes,
		RateCents:       req.RateCents,
	})
	if err != nil {
		return nil, err
	}

	// Mirroring into the processor catalog is best-effort; the rate is
	// usable without it.
	itemID, err := s.catalog.UpsertItem(ctx, rate)
	if err != nil {
		logger.Error("failed to mirror rate into processor catalog", "rate_id", rate.ID, "error", err)
		return rate, nil
	}
	if err := s.repo.SetCatalogItemID(ctx, rate.ID, itemID); err != nil {
		logger.Error("failed to store catalog item id", "rate_id", rate.ID, "error", err)
		return rate, nil
	}
	rate.CatalogItemID = &itemID

	return rate, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Rate, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByCoach(ctx context.Context, coachID int64, activeOnly bool) ([]Rate, error) {
	return s.repo.ListByCoach(ctx, coachID, activeOnly)
}

func (s *service) Deactivate(ctx context.Context, id, coachID int64) error {
	return s.repo.Deactivate(ctx, id, coachID)
}
