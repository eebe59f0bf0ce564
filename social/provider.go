package social

import "context"

// AccessTokenVerifier validates a provider-issued access token and returns
// the external identity it belongs to. Clients obtain the token themselves;
// the server only ever sees the finished credential.
type AccessTokenVerifier interface {
	// Name returns the provider identifier (e.g., "google", "facebook").
	Name() string

	// VerifyAccessToken checks the token against the provider and fetches
	// the profile it grants access to.
	VerifyAccessToken(ctx context.Context, accessToken string) (*ExternalIdentity, error)
}

// ExternalIdentity is the normalized profile a provider vouches for.
type ExternalIdentity struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
	Raw            map[string]any
}
