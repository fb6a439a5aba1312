package webhook

import (
	"coachpay/internal/gateway"
	"coachpay/internal/payment"
)

const (
	TypePaymentCreated = "payment.created"
	TypePaymentUpdated = "payment.updated"
	TypeRefundCreated  = "refund.created"
	TypeRefundUpdated  = "refund.updated"
)

// Event is the processor's webhook envelope. Object carries the processor's
// identifiers and status in its own vocabulary.
type Event struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Object  Object `json:"object"`
}

type Object struct {
	PaymentID string `json:"payment_id"`
	RefundID  string `json:"refund_id,omitempty"`
	Status    string `json:"status"`
}

// PaymentStatusFor maps a processor payment status onto the local state
// machine. The second return is false for statuses with no local equivalent.
func PaymentStatusFor(gatewayStatus string) (payment.Status, bool) {
	switch gatewayStatus {
	case gateway.PaymentApproved:
		return payment.StatusAuthorized, true
	case gateway.PaymentCompleted:
		return payment.StatusSucceeded, true
	case gateway.PaymentCanceled:
		return payment.StatusCanceled, true
	case gateway.PaymentFailed:
		return payment.StatusFailed, true
	default:
		return "", false
	}
}

func RefundStatusFor(gatewayStatus string) (payment.RefundStatus, bool) {
	switch gatewayStatus {
	case gateway.RefundPending:
		return payment.RefundProcessing, true
	case gateway.RefundCompleted:
		return payment.RefundSucceeded, true
	case gateway.RefundRejected, gateway.RefundFailed:
		return payment.RefundFailed, true
	default:
		return "", false
	}
}
