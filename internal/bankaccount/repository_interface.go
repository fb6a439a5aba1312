package bankaccount

import "context"

type Repository interface {
	Create(ctx context.Context, a *BankAccount) (*BankAccount, error)
	GetByID(ctx context.Context, id int64) (*BankAccount, error)
	ListByCoach(ctx context.Context, coachID int64) ([]BankAccount, error)
	SetDefault(ctx context.Context, id, coachID int64) error
	MarkVerified(ctx context.Context, id int64) error
	// Delete refuses while any payout against the account is pending or
	// processing.
	Delete(ctx context.Context, id, coachID int64) error
}
