package identity

import (
	"context"
	"net/http"
	"strings"
)

const bearerScheme = "Bearer"

// HeaderResolver extracts a bearer token from request headers, validates it,
// and loads the live identity record. It fails closed: a missing header, any
// token validation failure, a missing record, or an inactive account all
// resolve to "no identity" with no error surfaced to the caller. The reason
// is logged at debug level only, never leaked to clients.
type HeaderResolver struct {
	validator TokenValidator
	provider  IdentityProvider
	logger    Logger
}

// NewHeaderResolver builds a resolver from a validator and identity store.
func NewHeaderResolver(validator TokenValidator, provider IdentityProvider) *HeaderResolver {
	return &HeaderResolver{
		validator: validator,
		provider:  provider,
		logger:    defLogger{},
	}
}

func (r *HeaderResolver) WithLogger(logger Logger) *HeaderResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// CurrentIdentity resolves the identity attached to the request headers.
// Pure function of (headers, storage state, current time); no mutation.
func (r *HeaderResolver) CurrentIdentity(ctx context.Context, headers http.Header) (Identity, bool) {
	raw, ok := ExtractBearerToken(headers)
	if !ok {
		return nil, false
	}

	claims, err := r.validator.Validate(raw)
	if err != nil {
		r.logger.Debug("resolver rejected token", "error", err)
		return nil, false
	}

	identity, err := r.provider.FindIdentityByIdentifier(ctx, claims.UserID())
	if err != nil {
		r.logger.Debug("resolver could not load identity", "subject", claims.UserID(), "error", err)
		return nil, false
	}

	if identity == nil || !identity.Active() {
		return nil, false
	}

	return identity, true
}

var _ IdentityResolver = (*HeaderResolver)(nil)

// ExtractBearerToken reads the Authorization header case-insensitively and
// strips the Bearer scheme. Returns false when no usable token is present.
func ExtractBearerToken(headers http.Header) (string, bool) {
	raw := headers.Get("Authorization")
	if raw == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(raw, " ")
	if !found {
		return "", false
	}

	if !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
