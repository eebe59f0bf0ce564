package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kagomalabs/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSucccessfulLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newActiveUser(t *testing.T, password string) *identity.User {
	t.Helper()

	hash, err := identity.HashPassword(password)
	require.NoError(t, err)

	return &identity.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: hash,
		Role:         identity.RoleUser,
		IsActive:     true,
	}
}

func TestUserProviderVerifyIdentity(t *testing.T) {
	identity.SetBcryptCost(bcrypt.MinCost)
	defer identity.SetBcryptCost(identity.DefaultBcryptCost)

	ctx := context.Background()
	mockTracker := new(MockUserTracker)

	provider := identity.NewUserProvider(mockTracker)

	t.Run("successful verification", func(t *testing.T) {
		user := newActiveUser(t, "password123")

		mockTracker.On("GetByIdentifier", ctx, user.Email).Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		ident, err := provider.VerifyIdentity(ctx, user.Email, "password123")

		require.NoError(t, err)
		require.NotNil(t, ident)
		assert.Equal(t, user.ID.String(), ident.ID())
		assert.Equal(t, user.Name, ident.Name())
		assert.Equal(t, user.Email, ident.Email())
		assert.Equal(t, identity.RoleUser, ident.Role())
		assert.True(t, ident.Active())

		mockTracker.AssertExpectations(t)
	})

	t.Run("invalid password tracks the attempt", func(t *testing.T) {
		user := newActiveUser(t, "correct_password")

		mockTracker.On("GetByIdentifier", ctx, user.Email).Return(user, nil).Once()
		mockTracker.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		ident, err := provider.VerifyIdentity(ctx, user.Email, "wrong_password")

		assert.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
		assert.Nil(t, ident)

		mockTracker.AssertExpectations(t)
	})

	t.Run("unknown identifier yields the same error as a bad password", func(t *testing.T) {
		mockTracker.On("GetByIdentifier", ctx, "nonexistent@example.com").
			Return(nil, notFoundErr()).Once()

		ident, err := provider.VerifyIdentity(ctx, "nonexistent@example.com", "password123")

		assert.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
		assert.Nil(t, ident)

		mockTracker.AssertExpectations(t)
	})

	t.Run("storage error is not masked", func(t *testing.T) {
		mockTracker.On("GetByIdentifier", ctx, "test@example.com").
			Return(nil, errors.New("storage offline")).Once()

		ident, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
		assert.Nil(t, ident)

		mockTracker.AssertExpectations(t)
	})

	t.Run("inactive account", func(t *testing.T) {
		user := newActiveUser(t, "password123")
		user.IsActive = false

		mockTracker.On("GetByIdentifier", ctx, user.Email).Return(user, nil).Once()

		ident, err := provider.VerifyIdentity(ctx, user.Email, "password123")

		assert.ErrorIs(t, err, identity.ErrAccountInactive)
		assert.Nil(t, ident)

		mockTracker.AssertExpectations(t)
	})

	t.Run("too many login attempts", func(t *testing.T) {
		user := newActiveUser(t, "password123")
		now := time.Now()
		user.LoginAttempts = identity.MaxLoginAttempts + 1
		user.LoginAttemptAt = &now

		mockTracker.On("GetByIdentifier", ctx, user.Email).Return(user, nil).Once()

		ident, err := provider.VerifyIdentity(ctx, user.Email, "password123")

		assert.ErrorIs(t, err, identity.ErrTooManyLoginAttempts)
		assert.Nil(t, ident)

		mockTracker.AssertExpectations(t)
	})

	t.Run("cooldown expiry resets the attempt counter", func(t *testing.T) {
		user := newActiveUser(t, "password123")
		oldAttempt := time.Now().Add(-48 * time.Hour)
		user.LoginAttempts = identity.MaxLoginAttempts + 1
		user.LoginAttemptAt = &oldAttempt

		mockTracker.On("GetByIdentifier", ctx, user.Email).Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, mock.MatchedBy(func(u *identity.User) bool {
			return u.ID == user.ID && u.LoginAttempts == 0
		})).Return(nil).Once()

		ident, err := provider.VerifyIdentity(ctx, user.Email, "password123")

		require.NoError(t, err)
		require.NotNil(t, ident)
		assert.Equal(t, user.ID.String(), ident.ID())

		mockTracker.AssertExpectations(t)
	})
}

func TestUserProviderFindIdentityByIdentifier(t *testing.T) {
	identity.SetBcryptCost(bcrypt.MinCost)
	defer identity.SetBcryptCost(identity.DefaultBcryptCost)

	ctx := context.Background()
	mockTracker := new(MockUserTracker)

	provider := identity.NewUserProvider(mockTracker)

	t.Run("user found", func(t *testing.T) {
		user := newActiveUser(t, "password123")

		mockTracker.On("GetByIdentifier", ctx, user.Email).Return(user, nil).Once()

		ident, err := provider.FindIdentityByIdentifier(ctx, user.Email)

		require.NoError(t, err)
		require.NotNil(t, ident)
		assert.Equal(t, user.ID.String(), ident.ID())
		assert.Equal(t, user.Email, ident.Email())

		mockTracker.AssertExpectations(t)
	})

	t.Run("user not found", func(t *testing.T) {
		mockTracker.On("GetByIdentifier", ctx, "nonexistent@example.com").
			Return(nil, notFoundErr()).Once()

		ident, err := provider.FindIdentityByIdentifier(ctx, "nonexistent@example.com")

		assert.Error(t, err)
		assert.Nil(t, ident)

		mockTracker.AssertExpectations(t)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		user := newActiveUser(t, "password123")
		user.Role = "superuser"

		mockTracker.On("GetByIdentifier", ctx, user.Email).Return(user, nil).Once()

		ident, err := provider.FindIdentityByIdentifier(ctx, user.Email)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "role")
		assert.Nil(t, ident)

		mockTracker.AssertExpectations(t)
	})

	t.Run("custom validator", func(t *testing.T) {
		user := newActiveUser(t, "password123")

		custom := identity.NewUserProvider(mockTracker)
		custom.Validator = func(u *identity.User) error {
			return errors.New("blocked by validator")
		}

		mockTracker.On("GetByIdentifier", ctx, user.Email).Return(user, nil).Once()

		ident, err := custom.FindIdentityByIdentifier(ctx, user.Email)

		assert.ErrorContains(t, err, "blocked by validator")
		assert.Nil(t, ident)

		mockTracker.AssertExpectations(t)
	})
}
