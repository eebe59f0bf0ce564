package identity

import (
	"context"
	"fmt"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// PasswordResetRequestedMsg is the uniform message returned to callers
// whether or not the email maps to an account, to prevent enumeration.
const PasswordResetRequestedMsg = "If an account exists with this email, a password reset link will be sent."

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
	// BaseURL is the public prefix the reset link is built on.
	BaseURL string `json:"-"`

	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	// Message is always PasswordResetRequestedMsg.
	Message string
	Success bool
}

// InitializePasswordResetHandler issues a recovery secret and hands the link
// to the Deliverer. The response never reveals whether the email exists.
type InitializePasswordResetHandler struct {
	repo      RepositoryManager
	tokens    *SingleUseTokens
	deliverer Deliverer
	logger    Logger
	ttl       time.Duration
}

func NewInitializePasswordResetHandler(repo RepositoryManager, tokens *SingleUseTokens) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:      repo,
		tokens:    tokens,
		deliverer: logDeliverer{},
		logger:    defLogger{},
		ttl:       DefaultResetTTL,
	}
}

// WithDeliverer sets the out-of-band transport for the reset link.
func (h *InitializePasswordResetHandler) WithDeliverer(d Deliverer) *InitializePasswordResetHandler {
	if d != nil {
		h.deliverer = d
	}
	return h
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithTTL overrides the reset secret validity window.
func (h *InitializePasswordResetHandler) WithTTL(ttl time.Duration) *InitializePasswordResetHandler {
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{
		Message: PasswordResetRequestedMsg,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// Do not reveal whether the account exists.
			resp.Success = true
			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	secret, err := h.tokens.Issue(ctx, user.ID, PurposeReset, h.ttl)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue password reset token")
	}

	link := buildSecretLink(event.BaseURL, "password-reset", secret)
	if err := h.deliverer.Deliver(ctx, user.Email, link); err != nil {
		h.logger.Error("failed to deliver password reset link", "error", err)
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func buildSecretLink(baseURL, path, secret string) string {
	if baseURL == "" {
		baseURL = "/"
	}
	return fmt.Sprintf("%s%s?token=%s", ensureTrailingSlash(baseURL), path, url.QueryEscape(secret))
}

func ensureTrailingSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] != '/' {
		return s + "/"
	}
	return s
}

// logDeliverer is the default Deliverer; it only logs, mirroring how the
// platform behaves without a configured mailer.
type logDeliverer struct{}

func (logDeliverer) Deliver(_ context.Context, recipient, link string) error {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", recipient)
	fmt.Printf("link: %s\n", link)
	return nil
}
