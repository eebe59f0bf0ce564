package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kagomalabs/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestChangePasswordHandler(t *testing.T) {
	identity.SetBcryptCost(bcrypt.MinCost)
	defer identity.SetBcryptCost(identity.DefaultBcryptCost)

	ctx := context.Background()

	newUserWithPassword := func(t *testing.T, password string) *identity.User {
		t.Helper()
		hash, err := identity.HashPassword(password)
		require.NoError(t, err)
		return &identity.User{
			ID:           uuid.New(),
			Email:        "test@example.com",
			PasswordHash: hash,
			IsActive:     true,
		}
	}

	t.Run("successful change", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		user := newUserWithPassword(t, "current-pass-1")

		repo.On("Users").Return(users).Twice()
		users.On("GetByIdentifierTx", mock.Anything, mock.Anything, user.ID.String()).
			Return(user, nil).Once()
		users.On("UpdatePasswordTx", mock.Anything, mock.Anything, user.ID, mock.MatchedBy(func(hash string) bool {
			return identity.ComparePasswordAndHash("new-password-2", hash) == nil
		})).Return(nil).Once()

		handler := identity.NewChangePasswordHandler(repo)
		err := handler.Execute(ctx, identity.ChangePasswordMessage{
			UserID:          user.ID,
			CurrentPassword: "current-pass-1",
			NewPassword:     "new-password-2",
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("wrong current password leaves the hash untouched", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		user := newUserWithPassword(t, "current-pass-1")

		repo.On("Users").Return(users).Once()
		users.On("GetByIdentifierTx", mock.Anything, mock.Anything, user.ID.String()).
			Return(user, nil).Once()

		handler := identity.NewChangePasswordHandler(repo)
		err := handler.Execute(ctx, identity.ChangePasswordMessage{
			UserID:          user.ID,
			CurrentPassword: "wrong-pass-9",
			NewPassword:     "new-password-2",
		})

		assert.ErrorIs(t, err, identity.ErrIncorrectPassword)
		users.AssertNotCalled(t, "UpdatePasswordTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		users.AssertExpectations(t)
	})

	t.Run("weak new password rejected before hashing", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		user := newUserWithPassword(t, "current-pass-1")

		repo.On("Users").Return(users).Once()
		users.On("GetByIdentifierTx", mock.Anything, mock.Anything, user.ID.String()).
			Return(user, nil).Once()

		handler := identity.NewChangePasswordHandler(repo)
		err := handler.Execute(ctx, identity.ChangePasswordMessage{
			UserID:          user.ID,
			CurrentPassword: "current-pass-1",
			NewPassword:     "short",
		})

		require.Error(t, err)
		users.AssertNotCalled(t, "UpdatePasswordTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		userID := uuid.New()

		repo.On("Users").Return(users).Once()
		users.On("GetByIdentifierTx", mock.Anything, mock.Anything, userID.String()).
			Return(nil, notFoundErr()).Once()

		handler := identity.NewChangePasswordHandler(repo)
		err := handler.Execute(ctx, identity.ChangePasswordMessage{
			UserID:          userID,
			CurrentPassword: "current-pass-1",
			NewPassword:     "new-password-2",
		})

		assert.ErrorIs(t, err, identity.ErrIdentityNotFound)
	})

	t.Run("missing user id", func(t *testing.T) {
		handler := identity.NewChangePasswordHandler(&MockRepositoryManager{})
		err := handler.Execute(ctx, identity.ChangePasswordMessage{
			CurrentPassword: "current-pass-1",
			NewPassword:     "new-password-2",
		})

		assert.Error(t, err)
	})
}
