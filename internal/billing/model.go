package billing

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

const (
	UserTypeClient   = "client"
	UserTypeCoach    = "coach"
	UserTypePlatform = "platform"
)

const (
	TypePayment = "payment"
	TypeRefund  = "refund"
	TypeFee     = "fee"
	TypePayout  = "payout"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	RefPayment = "payment"
	RefRefund  = "refund"
	RefPayout  = "payout"
)

// Transaction is one immutable ledger line. Rows are never updated; a status
// change is recorded by inserting a superseding row for the same reference.
type Transaction struct {
	ID              int64          `db:"id" json:"id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	UserType        string         `db:"user_type" json:"user_type"`
	TransactionType string         `db:"transaction_type" json:"transaction_type"`
	AmountCents     int64          `db:"amount_cents" json:"amount_cents"`
	Currency        string         `db:"currency" json:"currency"`
	Status          string         `db:"status" json:"status"`
	Description     string         `db:"description" json:"description"`
	ReferenceID     int64          `db:"reference_id" json:"reference_id"`
	ReferenceType   string         `db:"reference_type" json:"reference_type"`
	Metadata        types.JSONText `db:"metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

type CoachEarningsSummary struct {
	CoachID            int64 `db:"coach_id" json:"coach_id"`
	GrossEarningsCents int64 `db:"gross_earnings_cents" json:"gross_earnings_cents"`
	RefundedCents      int64 `db:"refunded_cents" json:"refunded_cents"`
	PaidOutCents       int64 `db:"paid_out_cents" json:"paid_out_cents"`
}

type RevenueSummary struct {
	FeeCents      int64 `db:"fee_cents" json:"fee_cents"`
	RefundedCents int64 `db:"refunded_cents" json:"refunded_cents"`
	PaymentCount  int64 `db:"payment_count" json:"payment_count"`
}
