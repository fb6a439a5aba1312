package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coachpay/internal/auth"
)

type MockUserRepo struct{ mock.Mock }

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) SetGatewayCustomerID(ctx context.Context, id int64, customerID string) error {
	return m.Called(ctx, id, customerID).Error(0)
}

func TestService_Register(t *testing.T) {
	t.Run("registers a coach and issues tokens", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("EmailExists", mock.Anything, "coach@example.com").Return(false, nil)
		repo.On("Create", mock.Anything, "Coach Smith", "coach@example.com", mock.AnythingOfType("string"), auth.RoleCoach).
			Run(func(args mock.Arguments) {
				hash := args.String(3)
				assert.True(t, auth.CheckPassword(hash, "strongpassword"))
			}).
			Return(&User{ID: 5, Name: "Coach Smith", Email: "coach@example.com", Role: auth.RoleCoach}, nil)

		svc := NewService(repo, "test-secret")
		user, access, refresh, err := svc.Register(context.Background(), RegisterRequest{
			Name:     "Coach Smith",
			Email:    "coach@example.com",
			Password: "strongpassword",
			Role:     auth.RoleCoach,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(5), user.ID)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)

		claims, err := auth.ValidateToken(access, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, int64(5), claims.UserID)
		assert.Equal(t, auth.RoleCoach, claims.Role)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("EmailExists", mock.Anything, "taken@example.com").Return(true, nil)

		svc := NewService(repo, "test-secret")
		_, _, _, err := svc.Register(context.Background(), RegisterRequest{
			Name:     "Someone",
			Email:    "taken@example.com",
			Password: "strongpassword",
			Role:     auth.RoleClient,
		})

		assert.ErrorIs(t, err, ErrEmailExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Login(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	stored := &User{ID: 9, Name: "Client", Email: "client@example.com", PasswordHash: hash, Role: auth.RoleClient}

	t.Run("valid credentials", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("FindByEmail", mock.Anything, "client@example.com").Return(stored, nil)

		svc := NewService(repo, "test-secret")
		user, access, _, err := svc.Login(context.Background(), LoginRequest{
			Email:    "client@example.com",
			Password: "correct-horse",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(9), user.ID)
		assert.NotEmpty(t, access)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("FindByEmail", mock.Anything, "client@example.com").Return(stored, nil)

		svc := NewService(repo, "test-secret")
		_, _, _, err := svc.Login(context.Background(), LoginRequest{
			Email:    "client@example.com",
			Password: "wrong-horse",
		})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, errors.New("sql: no rows in result set"))

		svc := NewService(repo, "test-secret")
		_, _, _, err := svc.Login(context.Background(), LoginRequest{
			Email:    "ghost@example.com",
			Password: "whatever1",
		})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
