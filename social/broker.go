package social

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/kagomalabs/go-identity"
	"github.com/uptrace/bun"
)

// Broker exchanges a provider access token for a local account, creating the
// account on first login. Matching is by email: an existing account keeps its
// role and credentials, only the profile fields are refreshed.
type Broker struct {
	providers   map[string]AccessTokenVerifier
	repo        identity.RepositoryManager
	logger      identity.Logger
	defaultRole identity.UserRole
	now         func() time.Time
}

// BrokerOption configures the broker.
type BrokerOption func(*Broker)

// WithLogger sets the broker logger.
func WithLogger(logger identity.Logger) BrokerOption {
	return func(b *Broker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithDefaultRole sets the role new accounts are created with.
func WithDefaultRole(role identity.UserRole) BrokerOption {
	return func(b *Broker) {
		if identity.IsValidRole(string(role)) {
			b.defaultRole = role
		}
	}
}

// WithClock injects a custom time source.
func WithClock(clock func() time.Time) BrokerOption {
	return func(b *Broker) {
		if clock != nil {
			b.now = clock
		}
	}
}

// NewBroker creates a broker over a repository manager and a set of
// providers.
func NewBroker(repo identity.RepositoryManager, providers []AccessTokenVerifier, opts ...BrokerOption) *Broker {
	b := &Broker{
		providers:   map[string]AccessTokenVerifier{},
		repo:        repo,
		logger:      identity.NewDefaultLogger(),
		defaultRole: identity.RoleUser,
		now:         time.Now,
	}

	for _, p := range providers {
		if p != nil {
			b.providers[strings.ToLower(p.Name())] = p
		}
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Register adds or replaces a provider.
func (b *Broker) Register(p AccessTokenVerifier) {
	if p != nil {
		b.providers[strings.ToLower(p.Name())] = p
	}
}

// Authenticate verifies the access token with the named provider and
// resolves the local account it maps to.
func (b *Broker) Authenticate(ctx context.Context, providerName, accessToken string) (*identity.User, error) {
	provider, ok := b.providers[strings.ToLower(providerName)]
	if !ok {
		return nil, ErrProviderNotFound
	}

	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrProviderTokenInvalid
	}

	external, err := provider.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		b.logger.Debug("provider token verification failed",
			"provider", provider.Name(),
			"error", err,
		)
		return nil, classifyVerifyError(provider.Name(), err)
	}

	if external == nil || external.Email == "" {
		return nil, wrapProviderError(ErrEmailMissing, provider.Name(), "verify", nil)
	}

	return b.resolveOrCreate(ctx, external)
}

// classifyVerifyError buckets raw provider failures into the sentinel
// errors: rejected tokens, unreachable providers, and undecodable replies.
func classifyVerifyError(provider string, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return err
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr != nil {
		switch {
		case perr.Status == 0 || perr.Status >= http.StatusInternalServerError:
			return wrapProviderError(ErrProviderUnreachable, provider, perr.Operation, err)
		case perr.Status == http.StatusBadRequest ||
			perr.Status == http.StatusUnauthorized ||
			perr.Status == http.StatusForbidden:
			return wrapProviderError(ErrProviderTokenInvalid, provider, perr.Operation, err)
		default:
			return wrapProviderError(ErrProviderResponseMalformed, provider, perr.Operation, err)
		}
	}

	return wrapProviderError(ErrProviderUnreachable, provider, "verify", err)
}

func (b *Broker) resolveOrCreate(ctx context.Context, external *ExternalIdentity) (*identity.User, error) {
	var resolved *identity.User

	err := b.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := b.repo.Users()

		existing, err := users.GetByIdentifierTx(ctx, tx, external.Email)
		if err != nil && !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
		}

		if existing != nil {
			if !existing.IsActive {
				return ErrAccountInactive
			}
			resolved, err = b.refreshProfile(ctx, tx, existing, external)
			return err
		}

		resolved, err = b.createAccount(ctx, tx, external)
		return err
	})
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

func (b *Broker) refreshProfile(ctx context.Context, tx bun.Tx, user *identity.User, external *ExternalIdentity) (*identity.User, error) {
	changed := false

	if user.Provider == "" {
		user.Provider = external.Provider
		user.ProviderID = external.ProviderUserID
		changed = true
	}

	if external.Name != "" && user.Name != external.Name {
		user.Name = external.Name
		changed = true
	}

	if external.AvatarURL != "" && user.AvatarURL != external.AvatarURL {
		user.AvatarURL = external.AvatarURL
		changed = true
	}

	if external.EmailVerified && !user.EmailVerified() {
		now := b.now()
		user.EmailVerifiedAt = &now
		changed = true
	}

	if !changed {
		return user, nil
	}

	updated, err := b.repo.Users().UpdateTx(ctx, tx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to refresh account profile")
	}

	return updated, nil
}

func (b *Broker) createAccount(ctx context.Context, tx bun.Tx, external *ExternalIdentity) (*identity.User, error) {
	user := &identity.User{
		Name:         external.Name,
		Email:        external.Email,
		Role:         b.defaultRole,
		PasswordHash: identity.RandomPasswordHash(),
		AvatarURL:    external.AvatarURL,
		Provider:     external.Provider,
		ProviderID:   external.ProviderUserID,
		IsActive:     true,
	}

	if external.EmailVerified {
		now := b.now()
		user.EmailVerifiedAt = &now
	}

	created, err := b.repo.Users().CreateTx(ctx, tx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create account")
	}

	b.logger.Info("created account from social login",
		"provider", external.Provider,
		"email", external.Email,
	)

	return created, nil
}
