package social

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeProviderNotFound    = "social_provider_not_found"
	TextCodeProviderUnreachable = "social_provider_unreachable"
	TextCodeTokenInvalid        = "social_token_invalid"
	TextCodeResponseMalformed   = "social_response_malformed"
	TextCodeEmailMissing        = "social_email_missing"
	TextCodeAccountInactive     = "social_account_inactive"
)

// ErrProviderNotFound is returned when a requested provider is not configured.
var ErrProviderNotFound = goerrors.New("social provider not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrProviderUnreachable is returned when the provider cannot be reached or
// answers with a server error. Callers may retry.
var ErrProviderUnreachable = goerrors.New("social provider unreachable", goerrors.CategoryOperation).
	WithTextCode(TextCodeProviderUnreachable).
	WithCode(goerrors.CodeInternal)

// ErrProviderTokenInvalid is returned when the provider rejects the token.
var ErrProviderTokenInvalid = goerrors.New("provider rejected access token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrProviderResponseMalformed is returned when the provider answers with a
// payload missing required fields.
var ErrProviderResponseMalformed = goerrors.New("provider response malformed", goerrors.CategoryOperation).
	WithTextCode(TextCodeResponseMalformed).
	WithCode(goerrors.CodeInternal)

// ErrEmailMissing is returned when the verified profile carries no email, so
// no local account can be resolved.
var ErrEmailMissing = goerrors.New("provider profile has no email", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailMissing).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountInactive is returned when the resolved local account is disabled.
var ErrAccountInactive = goerrors.New("account is inactive", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(goerrors.CodeUnauthorized)

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// ProviderError captures normalized provider response details.
type ProviderError struct {
	Provider    string
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
	Raw         map[string]any
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}

	scope := "provider"
	if e.Provider != "" && e.Operation != "" {
		scope = fmt.Sprintf("%s %s", e.Provider, e.Operation)
	} else if e.Provider != "" {
		scope = e.Provider
	} else if e.Operation != "" {
		scope = e.Operation
	}

	if e.Description != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Description)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", scope, e.Err)
	}

	return fmt.Sprintf("%s failed", scope)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ProviderError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Provider != "" {
		meta["provider"] = e.Provider
	}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}
	if e.Description != "" {
		meta["description"] = e.Description
	}
	if len(e.Raw) > 0 {
		meta["raw"] = e.Raw
	}

	return meta
}

func wrapProviderError(base *goerrors.Error, provider, operation string, err error) error {
	if base == nil {
		return err
	}

	meta := map[string]any{}
	if provider != "" {
		meta["provider"] = provider
	}
	if operation != "" {
		meta["operation"] = operation
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr != nil {
		for k, v := range perr.Metadata() {
			meta[k] = v
		}
	} else if err != nil {
		meta["error"] = err.Error()
	}

	clone := base.Clone()
	if clone == nil {
		clone = base
	}
	if err != nil {
		clone.Source = err
	}
	if len(meta) > 0 {
		clone.WithMetadata(meta)
	}

	return clone
}
