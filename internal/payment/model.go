package payment

import "time"

type Status string

const (
	StatusPending           Status = "pending"
	StatusAuthorized        Status = "authorized"
	StatusSucceeded         Status = "succeeded"
	StatusFailed            Status = "failed"
	StatusCanceled          Status = "canceled"
	StatusPartiallyRefunded Status = "partially_refunded"
	StatusRefunded          Status = "refunded"
)

// transitions is the closed transition table for the payment state machine.
// failed, canceled and refunded are terminal. Every status write goes through
// this table; illegal transitions are unreachable by construction.
var transitions = map[Status][]Status{
	StatusPending:           {StatusAuthorized, StatusSucceeded, StatusFailed, StatusCanceled},
	StatusAuthorized:        {StatusSucceeded, StatusFailed, StatusCanceled},
	StatusSucceeded:         {StatusPartiallyRefunded, StatusRefunded},
	StatusPartiallyRefunded: {StatusPartiallyRefunded, StatusRefunded},
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Capturable reports whether the payment still holds an uncaptured
// authorization.
func (s Status) Capturable() bool {
	return s == StatusPending || s == StatusAuthorized
}

func (s Status) Refundable() bool {
	return s == StatusSucceeded || s == StatusPartiallyRefunded
}

type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundSucceeded  RefundStatus = "succeeded"
	RefundFailed     RefundStatus = "failed"
)

const (
	ReasonClientRequested  = "client_requested"
	ReasonCoachRequested   = "coach_requested"
	ReasonAdminInitiated   = "admin_initiated"
	ReasonAutoCancellation = "auto_cancellation"
	ReasonDuplicate        = "duplicate"
	ReasonFraudulent       = "fraudulent"
)

func ValidRefundReason(reason string) bool {
	switch reason {
	case ReasonClientRequested, ReasonCoachRequested, ReasonAdminInitiated,
		ReasonAutoCancellation, ReasonDuplicate, ReasonFraudulent:
		return true
	}
	return false
}

// Payment is one authorization/charge. Rows are never deleted; terminal
// payments stay for audit.
type Payment struct {
	ID                 int64      `db:"id" json:"id"`
	ClientID           int64      `db:"client_id" json:"client_id"`
	CoachID            int64      `db:"coach_id" json:"coach_id"`
	RateID             *int64     `db:"rate_id" json:"rate_id,omitempty"`
	GatewayPaymentID   string     `db:"gateway_payment_id" json:"gateway_payment_id"`
	GatewayCustomerID  string     `db:"gateway_customer_id" json:"gateway_customer_id"`
	AmountCents        int64      `db:"amount_cents" json:"amount_cents"`
	PlatformFeeCents   int64      `db:"platform_fee_cents" json:"platform_fee_cents"`
	CoachEarningsCents int64      `db:"coach_earnings_cents" json:"coach_earnings_cents"`
	Currency           string     `db:"currency" json:"currency"`
	Status             Status     `db:"status" json:"status"`
	FailureReason      *string    `db:"failure_reason" json:"failure_reason,omitempty"`
	PaidAt             *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

type Refund struct {
	ID                  int64        `db:"id" json:"id"`
	PaymentID           int64        `db:"payment_id" json:"payment_id"`
	GatewayRefundID     *string      `db:"gateway_refund_id" json:"gateway_refund_id,omitempty"`
	AmountCents         int64        `db:"amount_cents" json:"amount_cents"`
	Reason              string       `db:"reason" json:"reason"`
	CoachPenaltyCents   int64        `db:"coach_penalty_cents" json:"coach_penalty_cents"`
	PlatformRefundCents int64        `db:"platform_refund_cents" json:"platform_refund_cents"`
	Status              RefundStatus `db:"status" json:"status"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updated_at"`
}

type AuthorizeRequest struct {
	CoachID     int64  `json:"coach_id" binding:"required"`
	RateID      int64  `json:"rate_id" binding:"required"`
	SourceToken string `json:"source_token"`
	Note        string `json:"note"`
}

type RefundRequest struct {
	// AmountCents defaults to the full remaining balance when zero.
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason" binding:"required"`
}

// SplitAmount divides a payment between platform fee and coach earnings. The
// fee is floored so the two parts always sum back to the amount.
func SplitAmount(amountCents, feeBps int64) (platformFeeCents, coachEarningsCents int64) {
	platformFeeCents = amountCents * feeBps / 10000
	coachEarningsCents = amountCents - platformFeeCents
	return platformFeeCents, coachEarningsCents
}

// SplitRefund computes how a refund is absorbed between coach and platform.
//
//   - coach_requested: the coach absorbs the penalty up to their earnings,
//     the platform covers the remainder.
//   - admin_initiated / auto_cancellation: the platform absorbs everything.
//   - anything else (client_requested is the default): proportional to the
//     original earnings split, floored toward the coach.
func SplitRefund(reason string, amountCents, coachEarningsCents, platformFeeCents int64) (coachPenaltyCents, platformRefundCents int64) {
	switch reason {
	case ReasonCoachRequested:
		coachPenaltyCents = amountCents
		if coachEarningsCents < coachPenaltyCents {
			coachPenaltyCents = coachEarningsCents
		}
	case ReasonAdminInitiated, ReasonAutoCancellation:
		coachPenaltyCents = 0
	default:
		total := coachEarningsCents + platformFeeCents
		if total > 0 {
			coachPenaltyCents = amountCents * coachEarningsCents / total
		}
	}
	platformRefundCents = amountCents - coachPenaltyCents
	return coachPenaltyCents, platformRefundCents
}
