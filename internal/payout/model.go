package payout

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRejected   Status = "rejected"
)

// Payout is one transfer of a coach's earnings from a specific captured
// payment, never a pooled balance.
type Payout struct {
	ID             int64      `db:"id" json:"id"`
	CoachID        int64      `db:"coach_id" json:"coach_id"`
	BankAccountID  int64      `db:"bank_account_id" json:"bank_account_id"`
	PaymentID      int64      `db:"payment_id" json:"payment_id"`
	AmountCents    int64      `db:"amount_cents" json:"amount_cents"`
	FeeCents       int64      `db:"fee_cents" json:"fee_cents"`
	NetAmountCents int64      `db:"net_amount_cents" json:"net_amount_cents"`
	Status         Status     `db:"status" json:"status"`
	RejectReason   *string    `db:"reject_reason" json:"reject_reason,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt    *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

type CreateRequest struct {
	BankAccountID int64 `json:"bank_account_id" binding:"required"`
	PaymentID     int64 `json:"payment_id" binding:"required"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}
