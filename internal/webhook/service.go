package webhook

import (
	"context"
	"errors"

	"coachpay/internal/logger"
	"coachpay/internal/metrics"
	"coachpay/internal/payment"
)

const (
	resultApplied = "applied"
	resultSkipped = "skipped"
	resultIgnored = "ignored"
	resultError   = "error"
)

type Service interface {
	// Process applies one processor event to local state. Deliveries are
	// at-least-once and unordered; processing is idempotent and only ever
	// moves records forward.
	Process(ctx context.Context, event Event) error
}

type service struct {
	payments payment.Service
}

func NewService(payments payment.Service) Service {
	return &service{payments: payments}
}

func (s *service) Process(ctx context.Context, event Event) error {
	switch event.Type {
	case TypePaymentCreated, TypePaymentUpdated:
		return s.processPayment(ctx, event)
	case TypeRefundCreated, TypeRefundUpdated:
		return s.processRefund(ctx, event)
	default:
		logger.Info("ignoring unknown webhook event type", "event_id", event.EventID, "type", event.Type)
		metrics.RecordWebhookEvent(event.Type, resultIgnored)
		return nil
	}
}

func (s *service) processPayment(ctx context.Context, event Event) error {
	target, ok := PaymentStatusFor(event.Object.Status)
	if !ok {
		metrics.RecordWebhookEvent(event.Type, resultIgnored)
		return nil
	}

	applied, err := s.payments.ReconcilePayment(ctx, event.Object.PaymentID, target)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			// Processor knows a payment we never recorded, most likely a
			// delivery that raced the authorize response. Let the retry find it.
			logger.Warn("webhook for unknown payment",
				"event_id", event.EventID,
				"gateway_payment_id", event.Object.PaymentID,
			)
		}
		metrics.RecordWebhookEvent(event.Type, resultError)
		return err
	}

	if applied {
		metrics.RecordWebhookEvent(event.Type, resultApplied)
	} else {
		metrics.RecordWebhookEvent(event.Type, resultSkipped)
	}
	return nil
}

func (s *service) processRefund(ctx context.Context, event Event) error {
	target, ok := RefundStatusFor(event.Object.Status)
	if !ok {
		metrics.RecordWebhookEvent(event.Type, resultIgnored)
		return nil
	}

	applied, err := s.payments.ReconcileRefund(ctx, event.Object.RefundID, target)
	if err != nil {
		if errors.Is(err, payment.ErrRefundNotFound) {
			logger.Warn("webhook for unknown refund",
				"event_id", event.EventID,
				"gateway_refund_id", event.Object.RefundID,
			)
		}
		metrics.RecordWebhookEvent(event.Type, resultError)
		return err
	}

	if applied {
		metrics.RecordWebhookEvent(event.Type, resultApplied)
	} else {
		metrics.RecordWebhookEvent(event.Type, resultSkipped)
	}
	return nil
}
