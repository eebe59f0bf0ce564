package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type RequestEmailVerificationMessage struct {
	Email   string `json:"email"`
	BaseURL string `json:"-"`

	OnResponse func(resp *RequestEmailVerificationResponse)
}

func (p RequestEmailVerificationMessage) Type() string { return "user.verification_request" }

type RequestEmailVerificationResponse struct {
	Success bool
}

// RequestEmailVerificationHandler issues a verification secret for an
// unverified account and hands the link to the Deliverer.
type RequestEmailVerificationHandler struct {
	repo      RepositoryManager
	tokens    *SingleUseTokens
	deliverer Deliverer
	logger    Logger
	ttl       time.Duration
}

func NewRequestEmailVerificationHandler(repo RepositoryManager, tokens *SingleUseTokens) *RequestEmailVerificationHandler {
	return &RequestEmailVerificationHandler{
		repo:      repo,
		tokens:    tokens,
		deliverer: logDeliverer{},
		logger:    defLogger{},
		ttl:       DefaultVerifyEmailTTL,
	}
}

func (h *RequestEmailVerificationHandler) WithDeliverer(d Deliverer) *RequestEmailVerificationHandler {
	if d != nil {
		h.deliverer = d
	}
	return h
}

func (h *RequestEmailVerificationHandler) WithLogger(logger Logger) *RequestEmailVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestEmailVerificationHandler) WithTTL(ttl time.Duration) *RequestEmailVerificationHandler {
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

func (h *RequestEmailVerificationHandler) Execute(ctx context.Context, event RequestEmailVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestEmailVerificationHandler) execute(ctx context.Context, event RequestEmailVerificationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification")
	}

	if user.EmailVerified() {
		return ErrEmailAlreadyVerified
	}

	secret, err := h.tokens.Issue(ctx, user.ID, PurposeVerifyEmail, h.ttl)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}

	link := buildSecretLink(event.BaseURL, "verify-email", secret)
	if err := h.deliverer.Deliver(ctx, user.Email, link); err != nil {
		h.logger.Error("failed to deliver verification link", "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&RequestEmailVerificationResponse{Success: true})
	}

	return nil
}
