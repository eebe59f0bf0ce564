package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kagomalabs/go-identity/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token returns the profile", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"sub": "1098765",
				"email": "user@gmail.com",
				"email_verified": true,
				"name": "Test User",
				"picture": "https://lh3.googleusercontent.com/photo.jpg"
			}`))
		}))
		defer server.Close()

		provider := New(Config{UserInfoURL: server.URL})

		ident, err := provider.VerifyAccessToken(ctx, "ya29.access-token")
		require.NoError(t, err)

		assert.Equal(t, "Bearer ya29.access-token", gotAuth)
		assert.Equal(t, "google", ident.Provider)
		assert.Equal(t, "1098765", ident.ProviderUserID)
		assert.Equal(t, "user@gmail.com", ident.Email)
		assert.True(t, ident.EmailVerified)
		assert.Equal(t, "Test User", ident.Name)
		assert.Equal(t, "https://lh3.googleusercontent.com/photo.jpg", ident.AvatarURL)
	})

	t.Run("rejected token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "invalid_token", "error_description": "Invalid Credentials"}`))
		}))
		defer server.Close()

		provider := New(Config{UserInfoURL: server.URL})

		_, err := provider.VerifyAccessToken(ctx, "expired-token")
		require.Error(t, err)

		var perr *social.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "google", perr.Provider)
		assert.Equal(t, "user_info", perr.Operation)
		assert.Equal(t, http.StatusUnauthorized, perr.Status)
		assert.Equal(t, "invalid_token", perr.Code)
		assert.Equal(t, "Invalid Credentials", perr.Description)
	})

	t.Run("api style error shape", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"code": 401, "message": "Request had invalid authentication credentials.", "status": "UNAUTHENTICATED"}}`))
		}))
		defer server.Close()

		provider := New(Config{UserInfoURL: server.URL})

		_, err := provider.VerifyAccessToken(ctx, "expired-token")
		require.Error(t, err)

		var perr *social.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "UNAUTHENTICATED", perr.Code)
		assert.Equal(t, "Request had invalid authentication credentials.", perr.Description)
	})

	t.Run("malformed success body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`this is not json`))
		}))
		defer server.Close()

		provider := New(Config{UserInfoURL: server.URL})

		_, err := provider.VerifyAccessToken(ctx, "token")
		require.Error(t, err)

		var perr *social.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "invalid_response", perr.Code)
	})

	t.Run("profile without subject", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"email": "user@gmail.com"}`))
		}))
		defer server.Close()

		provider := New(Config{UserInfoURL: server.URL})

		_, err := provider.VerifyAccessToken(ctx, "token")
		require.Error(t, err)

		var perr *social.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "missing_subject", perr.Code)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		provider := New(Config{UserInfoURL: server.URL})

		_, err := provider.VerifyAccessToken(ctx, "token")
		require.Error(t, err)

		var perr *social.ProviderError
		assert.False(t, errors.As(err, &perr), "transport errors stay raw")
	})
}

func TestProviderName(t *testing.T) {
	assert.Equal(t, "google", New(Config{}).Name())
}
