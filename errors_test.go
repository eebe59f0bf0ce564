package identity_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/kagomalabs/go-identity"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network timeout", timeoutErr{}, true},
		{"wrapped network timeout", fmt.Errorf("fetch profile: %w", timeoutErr{}), true},
		{"operation failure", goerrors.New("upstream hiccup", goerrors.CategoryOperation), true},
		{"conflict is terminal", identity.ErrDuplicateEmail, false},
		{"validation is terminal", identity.ErrWeakPassword, false},
		{"not found is terminal", identity.ErrIdentityNotFound, false},
		{"auth failure is terminal", identity.ErrTokenExpired, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.IsRetryable(tt.err))
		})
	}
}

func TestIsAuthenticationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"expired token", identity.ErrTokenExpired, true},
		{"signature mismatch", identity.ErrTokenSignatureMismatch, true},
		{"invalid format", identity.ErrTokenInvalidFormat, true},
		{"missing session", identity.ErrUnableToFindSession, true},
		{"invalid credentials", identity.ErrMismatchedHashAndPassword, true},
		{"not found is not auth", identity.ErrIdentityNotFound, false},
		{"weak password is not auth", identity.ErrWeakPassword, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.IsAuthenticationError(tt.err))
		})
	}
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.False(t, identity.IsTokenExpiredError(nil))
	assert.False(t, identity.IsTokenExpiredError(identity.ErrTokenInvalidFormat))
	assert.True(t, identity.IsTokenExpiredError(identity.ErrTokenExpired))

	wrapped := fmt.Errorf("validate at %s: %w", time.Now().Format(time.RFC3339), identity.ErrTokenExpired)
	assert.True(t, identity.IsTokenExpiredError(wrapped))
}

func TestSentinelShapes(t *testing.T) {
	tests := []struct {
		err      *goerrors.Error
		textCode string
		code     int
	}{
		{identity.ErrTokenInvalidFormat, identity.TextCodeTokenInvalidFormat, goerrors.CodeUnauthorized},
		{identity.ErrTokenExpired, identity.TextCodeTokenExpired, goerrors.CodeUnauthorized},
		{identity.ErrIncorrectPassword, identity.TextCodeIncorrectPassword, goerrors.CodeUnauthorized},
		{identity.ErrDuplicateEmail, identity.TextCodeDuplicateEmail, goerrors.CodeConflict},
		{identity.ErrSingleUseInvalid, identity.TextCodeSingleUseInvalid, goerrors.CodeNotFound},
		{identity.ErrSingleUseExpired, identity.TextCodeSingleUseExpired, goerrors.CodeBadRequest},
		{identity.ErrAccountInactive, identity.TextCodeAccountInactive, goerrors.CodeForbidden},
		{identity.ErrEmailAlreadyVerified, identity.TextCodeEmailAlreadyVerified, goerrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.textCode, func(t *testing.T) {
			assert.Equal(t, tt.textCode, tt.err.TextCode)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}
