package payout

import (
	"context"
	"errors"
	"testing"
	"time"

	"coachpay/internal/bankaccount"
	"coachpay/internal/billing"
	"coachpay/internal/payment"
	"coachpay/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "6368616e676520746869732064657620656e6372797074696f6e206b65792121"

// Mock repositories
type MockPayoutRepo struct{ mock.Mock }
type MockAccountRepo struct{ mock.Mock }
type MockPaymentRepo struct{ mock.Mock }
type MockBillingRepo struct{ mock.Mock }
type MockUserRepo struct{ mock.Mock }

func (m *MockPayoutRepo) Create(ctx context.Context, p *Payout) (*Payout, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payout), args.Error(1)
}

func (m *MockPayoutRepo) GetByID(ctx context.Context, id int64) (*Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payout), args.Error(1)
}

func (m *MockPayoutRepo) ListByCoach(ctx context.Context, coachID int64, limit, offset int) ([]Payout, error) {
	args := m.Called(ctx, coachID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Payout), args.Error(1)
}

func (m *MockPayoutRepo) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Payout, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Payout), args.Error(1)
}

func (m *MockPayoutRepo) ExistsForPayment(ctx context.Context, paymentID int64) (bool, error) {
	args := m.Called(ctx, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayoutRepo) UpdateStatus(ctx context.Context, id int64, from []Status, to Status, rejectReason *string, processedAt *time.Time) error {
	return m.Called(ctx, id, from, to, rejectReason, processedAt).Error(0)
}

func (m *MockAccountRepo) Create(ctx context.Context, a *bankaccount.BankAccount) (*bankaccount.BankAccount, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bankaccount.BankAccount), args.Error(1)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int64) (*bankaccount.BankAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bankaccount.BankAccount), args.Error(1)
}

func (m *MockAccountRepo) ListByCoach(ctx context.Context, coachID int64) ([]bankaccount.BankAccount, error) {
	args := m.Called(ctx, coachID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bankaccount.BankAccount), args.Error(1)
}

func (m *MockAccountRepo) SetDefault(ctx context.Context, id, coachID int64) error {
	return m.Called(ctx, id, coachID).Error(0)
}

func (m *MockAccountRepo) MarkVerified(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAccountRepo) Delete(ctx context.Context, id, coachID int64) error {
	return m.Called(ctx, id, coachID).Error(0)
}

func (m *MockPaymentRepo) CreatePayment(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetPaymentByID(ctx context.Context, id int64) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (*payment.Payment, error) {
	args := m.Called(ctx, gatewayPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) ListPaymentsByClient(ctx context.Context, clientID int64, limit, offset int) ([]payment.Payment, error) {
	args := m.Called(ctx, clientID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) ListPaymentsByCoach(ctx context.Context, coachID int64, limit, offset int) ([]payment.Payment, error) {
	args := m.Called(ctx, coachID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) UpdatePaymentStatus(ctx context.Context, id int64, from []payment.Status, to payment.Status, paidAt *time.Time, failureReason *string) error {
	return m.Called(ctx, id, from, to, paidAt, failureReason).Error(0)
}

func (m *MockPaymentRepo) CreateRefund(ctx context.Context, r *payment.Refund) (*payment.Refund, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockPaymentRepo) GetRefundByID(ctx context.Context, id int64) (*payment.Refund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockPaymentRepo) GetRefundByGatewayID(ctx context.Context, gatewayRefundID string) (*payment.Refund, error) {
	args := m.Called(ctx, gatewayRefundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockPaymentRepo) ListRefundsByPayment(ctx context.Context, paymentID int64) ([]payment.Refund, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Refund), args.Error(1)
}

func (m *MockPaymentRepo) UpdateRefundStatus(ctx context.Context, id int64, gatewayRefundID *string, to payment.RefundStatus) error {
	return m.Called(ctx, id, gatewayRefundID, to).Error(0)
}

func (m *MockPaymentRepo) SumActiveRefunds(ctx context.Context, paymentID int64) (int64, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepo) SumSucceededRefunds(ctx context.Context, paymentID int64) (int64, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepo) SumCoachPenalties(ctx context.Context, paymentID int64) (int64, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBillingRepo) Create(ctx context.Context, tx *billing.Transaction) (*billing.Transaction, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Transaction), args.Error(1)
}

func (m *MockBillingRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]billing.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Transaction), args.Error(1)
}

func (m *MockBillingRepo) ListByReference(ctx context.Context, referenceType string, referenceID int64) ([]billing.Transaction, error) {
	args := m.Called(ctx, referenceType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Transaction), args.Error(1)
}

func (m *MockBillingRepo) Supersede(ctx context.Context, referenceType string, referenceID int64, status, description string) error {
	return m.Called(ctx, referenceType, referenceID, status, description).Error(0)
}

func (m *MockBillingRepo) CoachEarnings(ctx context.Context, coachID int64) (*billing.CoachEarningsSummary, error) {
	args := m.Called(ctx, coachID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CoachEarningsSummary), args.Error(1)
}

func (m *MockBillingRepo) PlatformRevenue(ctx context.Context) (*billing.RevenueSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.RevenueSummary), args.Error(1)
}

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) SetGatewayCustomerID(ctx context.Context, id int64, customerID string) error {
	return m.Called(ctx, id, customerID).Error(0)
}

type failingTransferer struct{}

func (failingTransferer) Transfer(ctx context.Context, req TransferRequest) error {
	return errors.New("bank rejected the transfer")
}

type payoutMocks struct {
	repo        *MockPayoutRepo
	accountRepo *MockAccountRepo
	paymentRepo *MockPaymentRepo
	billingRepo *MockBillingRepo
	userRepo    *MockUserRepo
}

func newPayoutService(t *testing.T, transferer Transferer) (Service, payoutMocks) {
	t.Helper()
	m := payoutMocks{
		repo:        new(MockPayoutRepo),
		accountRepo: new(MockAccountRepo),
		paymentRepo: new(MockPaymentRepo),
		billingRepo: new(MockBillingRepo),
		userRepo:    new(MockUserRepo),
	}

	cipher, err := bankaccount.NewCipher(testEncryptionKey)
	require.NoError(t, err)

	svc := NewService(m.repo, m.accountRepo, m.paymentRepo, m.billingRepo, m.userRepo, transferer, cipher, nil, "USD")
	return svc, m
}

func verifiedAccount(t *testing.T) *bankaccount.BankAccount {
	t.Helper()
	cipher, err := bankaccount.NewCipher(testEncryptionKey)
	require.NoError(t, err)
	enc, err := cipher.Encrypt("000123456789")
	require.NoError(t, err)

	return &bankaccount.BankAccount{
		ID:               3,
		CoachID:          2,
		AccountHolder:    "Coach Smith",
		BankName:         "Test Bank",
		RoutingNumber:    "021000021",
		AccountNumberEnc: enc,
		AccountLast4:     "6789",
		IsVerified:       true,
		IsDefault:        true,
	}
}

func succeededPayment() *payment.Payment {
	return &payment.Payment{
		ID:                 11,
		ClientID:           1,
		CoachID:            2,
		AmountCents:        10000,
		PlatformFeeCents:   1500,
		CoachEarningsCents: 8500,
		Currency:           "USD",
		Status:             payment.StatusSucceeded,
	}
}

func TestService_Create(t *testing.T) {
	t.Run("nets refund penalties against earnings", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		m.accountRepo.On("GetByID", mock.Anything, int64(3)).Return(verifiedAccount(t), nil)
		m.paymentRepo.On("GetPaymentByID", mock.Anything, int64(11)).Return(succeededPayment(), nil)
		m.repo.On("ExistsForPayment", mock.Anything, int64(11)).Return(false, nil)
		m.paymentRepo.On("SumCoachPenalties", mock.Anything, int64(11)).Return(int64(2000), nil)
		m.repo.On("Create", mock.Anything, mock.AnythingOfType("*payout.Payout")).
			Run(func(args mock.Arguments) {
				p := args.Get(1).(*Payout)
				assert.Equal(t, int64(6500), p.AmountCents)
				assert.Equal(t, int64(6500), p.NetAmountCents)
				assert.Equal(t, StatusPending, p.Status)
			}).
			Return(&Payout{ID: 21, CoachID: 2, PaymentID: 11, NetAmountCents: 6500, Status: StatusPending}, nil)
		m.billingRepo.On("Create", mock.Anything, mock.Anything).Return(&billing.Transaction{}, nil)

		created, err := svc.Create(context.Background(), 2, CreateRequest{BankAccountID: 3, PaymentID: 11})

		require.NoError(t, err)
		assert.Equal(t, int64(21), created.ID)
		m.repo.AssertExpectations(t)
	})

	t.Run("unverified account is refused", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		account := verifiedAccount(t)
		account.IsVerified = false
		m.accountRepo.On("GetByID", mock.Anything, int64(3)).Return(account, nil)

		_, err := svc.Create(context.Background(), 2, CreateRequest{BankAccountID: 3, PaymentID: 11})

		assert.ErrorIs(t, err, ErrAccountNotVerified)
		m.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("someone else's account is refused", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		m.accountRepo.On("GetByID", mock.Anything, int64(3)).Return(verifiedAccount(t), nil)

		_, err := svc.Create(context.Background(), 99, CreateRequest{BankAccountID: 3, PaymentID: 11})

		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("uncaptured payment is refused", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		p := succeededPayment()
		p.Status = payment.StatusAuthorized
		m.accountRepo.On("GetByID", mock.Anything, int64(3)).Return(verifiedAccount(t), nil)
		m.paymentRepo.On("GetPaymentByID", mock.Anything, int64(11)).Return(p, nil)

		_, err := svc.Create(context.Background(), 2, CreateRequest{BankAccountID: 3, PaymentID: 11})

		assert.ErrorIs(t, err, ErrPaymentNotCaptured)
	})

	t.Run("second payout for the same payment is refused", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		m.accountRepo.On("GetByID", mock.Anything, int64(3)).Return(verifiedAccount(t), nil)
		m.paymentRepo.On("GetPaymentByID", mock.Anything, int64(11)).Return(succeededPayment(), nil)
		m.repo.On("ExistsForPayment", mock.Anything, int64(11)).Return(true, nil)

		_, err := svc.Create(context.Background(), 2, CreateRequest{BankAccountID: 3, PaymentID: 11})

		assert.ErrorIs(t, err, ErrPayoutExists)
		m.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("fully penalized earnings leave nothing to pay", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		m.accountRepo.On("GetByID", mock.Anything, int64(3)).Return(verifiedAccount(t), nil)
		m.paymentRepo.On("GetPaymentByID", mock.Anything, int64(11)).Return(succeededPayment(), nil)
		m.repo.On("ExistsForPayment", mock.Anything, int64(11)).Return(false, nil)
		m.paymentRepo.On("SumCoachPenalties", mock.Anything, int64(11)).Return(int64(8500), nil)

		_, err := svc.Create(context.Background(), 2, CreateRequest{BankAccountID: 3, PaymentID: 11})

		assert.ErrorIs(t, err, ErrNothingToPayOut)
	})
}

func TestService_Approve(t *testing.T) {
	pendingPayout := func() *Payout {
		return &Payout{
			ID:             21,
			CoachID:        2,
			BankAccountID:  3,
			PaymentID:      11,
			AmountCents:    6500,
			NetAmountCents: 6500,
			Status:         StatusPending,
		}
	}

	t.Run("successful transfer completes the payout", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		m.repo.On("GetByID", mock.Anything, int64(21)).Return(pendingPayout(), nil)
		m.accountRepo.On("GetByID", mock.Anything, int64(3)).Return(verifiedAccount(t), nil)
		m.repo.On("UpdateStatus", mock.Anything, int64(21),
			[]Status{StatusPending}, StatusProcessing, (*string)(nil), (*time.Time)(nil)).Return(nil)
		m.repo.On("UpdateStatus", mock.Anything, int64(21),
			[]Status{StatusProcessing}, StatusCompleted, (*string)(nil), mock.AnythingOfType("*time.Time")).Return(nil)
		m.billingRepo.On("Supersede", mock.Anything, billing.RefPayout, int64(21),
			billing.StatusCompleted, "Payout completed").Return(nil)

		p, err := svc.Approve(context.Background(), 21)

		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, p.Status)
		require.NotNil(t, p.ProcessedAt)
		m.repo.AssertExpectations(t)
		m.billingRepo.AssertExpectations(t)
	})

	t.Run("transfer failure marks the payout failed", func(t *testing.T) {
		svc, m := newPayoutService(t, failingTransferer{})

		m.repo.On("GetByID", mock.Anything, int64(21)).Return(pendingPayout(), nil)
		m.accountRepo.On("GetByID", mock.Anything, int64(3)).Return(verifiedAccount(t), nil)
		m.repo.On("UpdateStatus", mock.Anything, int64(21),
			[]Status{StatusPending}, StatusProcessing, (*string)(nil), (*time.Time)(nil)).Return(nil)
		m.repo.On("UpdateStatus", mock.Anything, int64(21),
			[]Status{StatusProcessing}, StatusFailed, (*string)(nil), mock.AnythingOfType("*time.Time")).Return(nil)
		m.billingRepo.On("Supersede", mock.Anything, billing.RefPayout, int64(21),
			billing.StatusFailed, "Payout transfer failed").Return(nil)

		p, err := svc.Approve(context.Background(), 21)

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, p.Status)
		m.billingRepo.AssertExpectations(t)
	})

	t.Run("only pending payouts can be approved", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		done := pendingPayout()
		done.Status = StatusCompleted
		m.repo.On("GetByID", mock.Anything, int64(21)).Return(done, nil)

		_, err := svc.Approve(context.Background(), 21)

		assert.ErrorIs(t, err, ErrNotPending)
		m.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Reject(t *testing.T) {
	svc, m := newPayoutService(t, NoopTransferer{})

	m.repo.On("GetByID", mock.Anything, int64(21)).Return(&Payout{
		ID: 21, CoachID: 2, PaymentID: 11, NetAmountCents: 6500, Status: StatusPending,
	}, nil)
	m.repo.On("UpdateStatus", mock.Anything, int64(21),
		[]Status{StatusPending}, StatusRejected, mock.AnythingOfType("*string"), (*time.Time)(nil)).Return(nil)
	m.billingRepo.On("Supersede", mock.Anything, billing.RefPayout, int64(21),
		billing.StatusFailed, "Payout rejected: suspicious account").Return(nil)

	p, err := svc.Reject(context.Background(), 21, "suspicious account")

	require.NoError(t, err)
	assert.Equal(t, StatusRejected, p.Status)
	require.NotNil(t, p.RejectReason)
	assert.Equal(t, "suspicious account", *p.RejectReason)
	m.billingRepo.AssertExpectations(t)
}

func TestService_InitiateForPayment(t *testing.T) {
	t.Run("uses the verified default account", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		unverified := *verifiedAccount(t)
		unverified.ID = 4
		unverified.IsVerified = false
		unverified.IsDefault = false

		m.paymentRepo.On("GetPaymentByID", mock.Anything, int64(11)).Return(succeededPayment(), nil)
		m.accountRepo.On("ListByCoach", mock.Anything, int64(2)).
			Return([]bankaccount.BankAccount{unverified, *verifiedAccount(t)}, nil)
		m.repo.On("ExistsForPayment", mock.Anything, int64(11)).Return(false, nil)
		m.paymentRepo.On("SumCoachPenalties", mock.Anything, int64(11)).Return(int64(0), nil)
		m.repo.On("Create", mock.Anything, mock.AnythingOfType("*payout.Payout")).
			Run(func(args mock.Arguments) {
				assert.Equal(t, int64(3), args.Get(1).(*Payout).BankAccountID)
			}).
			Return(&Payout{ID: 22, BankAccountID: 3, Status: StatusPending}, nil)
		m.billingRepo.On("Create", mock.Anything, mock.Anything).Return(&billing.Transaction{}, nil)

		err := svc.InitiateForPayment(context.Background(), 11)
		require.NoError(t, err)
		m.repo.AssertExpectations(t)
	})

	t.Run("no verified default account", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		m.paymentRepo.On("GetPaymentByID", mock.Anything, int64(11)).Return(succeededPayment(), nil)
		m.accountRepo.On("ListByCoach", mock.Anything, int64(2)).Return([]bankaccount.BankAccount{}, nil)

		err := svc.InitiateForPayment(context.Background(), 11)
		assert.ErrorIs(t, err, ErrNoDefaultAccount)
	})

	t.Run("existing payout is not an error", func(t *testing.T) {
		svc, m := newPayoutService(t, NoopTransferer{})

		m.paymentRepo.On("GetPaymentByID", mock.Anything, int64(11)).Return(succeededPayment(), nil)
		m.accountRepo.On("ListByCoach", mock.Anything, int64(2)).
			Return([]bankaccount.BankAccount{*verifiedAccount(t)}, nil)
		m.repo.On("ExistsForPayment", mock.Anything, int64(11)).Return(true, nil)

		err := svc.InitiateForPayment(context.Background(), 11)
		require.NoError(t, err)
		m.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
