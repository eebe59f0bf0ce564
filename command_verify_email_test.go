package identity_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kagomalabs/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRequestEmailVerificationHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("unverified account gets a link", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		tokens := identity.NewSingleUseTokens(newMemoryTokenStore())
		deliverer := &capturingDeliverer{}

		user := &identity.User{
			ID:       uuid.New(),
			Email:    "test@example.com",
			IsActive: true,
		}

		repo.On("Users").Return(users).Once()
		users.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil).Once()

		var resp *identity.RequestEmailVerificationResponse
		handler := identity.NewRequestEmailVerificationHandler(repo, tokens).
			WithDeliverer(deliverer)

		err := handler.Execute(ctx, identity.RequestEmailVerificationMessage{
			Email:   user.Email,
			BaseURL: "https://app.example.com",
			OnResponse: func(r *identity.RequestEmailVerificationResponse) {
				resp = r
			},
		})

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)

		require.Len(t, deliverer.links, 1)
		assert.True(t, strings.HasPrefix(deliverer.links[0], "https://app.example.com/verify-email?token="))

		secret := secretFromLink(t, deliverer.links[0])
		userID, err := tokens.Consume(ctx, secret, identity.PurposeVerifyEmail)
		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)
	})

	t.Run("already verified", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		tokens := identity.NewSingleUseTokens(newMemoryTokenStore())

		verifiedAt := time.Now()
		user := &identity.User{
			ID:              uuid.New(),
			Email:           "test@example.com",
			IsActive:        true,
			EmailVerifiedAt: &verifiedAt,
		}

		repo.On("Users").Return(users).Once()
		users.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil).Once()

		handler := identity.NewRequestEmailVerificationHandler(repo, tokens)
		err := handler.Execute(ctx, identity.RequestEmailVerificationMessage{Email: user.Email})

		assert.ErrorIs(t, err, identity.ErrEmailAlreadyVerified)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		tokens := identity.NewSingleUseTokens(newMemoryTokenStore())

		repo.On("Users").Return(users).Once()
		users.On("GetByIdentifier", mock.Anything, "nobody@example.com").
			Return(nil, notFoundErr()).Once()

		handler := identity.NewRequestEmailVerificationHandler(repo, tokens)
		err := handler.Execute(ctx, identity.RequestEmailVerificationMessage{Email: "nobody@example.com"})

		assert.ErrorIs(t, err, identity.ErrIdentityNotFound)
	})
}

func TestVerifyEmailHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("redeems and marks verified", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		tokens := identity.NewSingleUseTokens(newMemoryTokenStore())

		userID := uuid.New()
		secret, err := tokens.Issue(ctx, userID, identity.PurposeVerifyEmail, identity.DefaultVerifyEmailTTL)
		require.NoError(t, err)

		repo.On("Users").Return(users).Once()
		users.On("MarkEmailVerified", mock.Anything, userID).Return(nil).Once()

		var resp *identity.VerifyEmailResponse
		handler := identity.NewVerifyEmailHandler(repo, tokens)
		err = handler.Execute(ctx, identity.VerifyEmailMessage{
			Secret: secret,
			OnResponse: func(r *identity.VerifyEmailResponse) {
				resp = r
			},
		})

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.Equal(t, userID.String(), resp.UserID)

		users.AssertExpectations(t)

		// one shot only
		_, err = tokens.Consume(ctx, secret, identity.PurposeVerifyEmail)
		assert.ErrorIs(t, err, identity.ErrSingleUseInvalid)
	})

	t.Run("missing secret", func(t *testing.T) {
		tokens := identity.NewSingleUseTokens(newMemoryTokenStore())
		handler := identity.NewVerifyEmailHandler(&MockRepositoryManager{}, tokens)

		err := handler.Execute(ctx, identity.VerifyEmailMessage{})
		assert.ErrorIs(t, err, identity.ErrSingleUseInvalid)
	})

	t.Run("reset secret cannot verify an email", func(t *testing.T) {
		tokens := identity.NewSingleUseTokens(newMemoryTokenStore())

		secret, err := tokens.Issue(ctx, uuid.New(), identity.PurposeReset, identity.DefaultResetTTL)
		require.NoError(t, err)

		handler := identity.NewVerifyEmailHandler(&MockRepositoryManager{}, tokens)
		err = handler.Execute(ctx, identity.VerifyEmailMessage{Secret: secret})

		assert.ErrorIs(t, err, identity.ErrSingleUseInvalid)
	})
}
