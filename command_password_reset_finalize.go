package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	Secret   string `json:"token"`
	Password string `json:"password"`

	OnResponse func(resp *FinalizePasswordResetResponse)
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

func (p FinalizePasswordResetMessage) Validate() error {
	if p.Secret == "" {
		return ErrSingleUseInvalid
	}
	return ValidatePasswordStrength(p.Password)
}

type FinalizePasswordResetResponse struct {
	UserID  string
	Success bool
}

// FinalizePasswordResetHandler redeems a recovery secret and replaces the
// account's password hash. Redeeming also marks the email verified, since
// completing the flow proves mailbox ownership.
type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	tokens *SingleUseTokens
	logger Logger
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, tokens *SingleUseTokens) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	userID, err := h.tokens.Consume(ctx, event.Secret, PurposeReset)
	if err != nil {
		return err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	if err := h.repo.Users().ResetPassword(ctx, userID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	if event.OnResponse != nil {
		event.OnResponse(&FinalizePasswordResetResponse{
			UserID:  userID.String(),
			Success: true,
		})
	}

	return nil
}
