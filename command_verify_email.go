package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyEmailMessage struct {
	Secret string `json:"token"`

	OnResponse func(resp *VerifyEmailResponse)
}

func (p VerifyEmailMessage) Type() string { return "user.verify_email" }

type VerifyEmailResponse struct {
	UserID  string
	Success bool
}

// VerifyEmailHandler redeems a verification secret, stamping the account's
// email_verified_at and activating it.
type VerifyEmailHandler struct {
	repo   RepositoryManager
	tokens *SingleUseTokens
	logger Logger
}

func NewVerifyEmailHandler(repo RepositoryManager, tokens *SingleUseTokens) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	if event.Secret == "" {
		return ErrSingleUseInvalid
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	userID, err := h.tokens.Consume(ctx, event.Secret, PurposeVerifyEmail)
	if err != nil {
		return err
	}

	if err := h.repo.Users().MarkEmailVerified(ctx, userID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
	}

	if event.OnResponse != nil {
		event.OnResponse(&VerifyEmailResponse{
			UserID:  userID.String(),
			Success: true,
		})
	}

	return nil
}
