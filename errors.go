package identity

import (
	"errors"
	"net"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeTokenInvalidFormat    = "TOKEN_INVALID_FORMAT"
	TextCodeTokenSignature        = "TOKEN_SIGNATURE_MISMATCH"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeTokenMalformedPayload = "TOKEN_MALFORMED_PAYLOAD"
	TextCodeIncorrectPassword     = "INCORRECT_PASSWORD"
	TextCodeWeakPassword          = "WEAK_PASSWORD"
	TextCodeDuplicateEmail        = "DUPLICATE_EMAIL"
	TextCodeSingleUseInvalid      = "SINGLE_USE_TOKEN_INVALID"
	TextCodeSingleUseExpired      = "SINGLE_USE_TOKEN_EXPIRED"
	TextCodeTooManyAttempts       = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeAccountInactive       = "ACCOUNT_INACTIVE"
	TextCodeEmailAlreadyVerified  = "EMAIL_ALREADY_VERIFIED"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUnableToFindSession is the error when our request carries no credential
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT into a session
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalidFormat is returned when a token does not have exactly three
// non-empty dot-separated segments.
var ErrTokenInvalidFormat = goerrors.New("token has invalid format", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalidFormat).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenSignatureMismatch is returned when the recomputed signature does not
// match the one supplied with the token.
var ErrTokenSignatureMismatch = goerrors.New("token signature mismatch", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a token's validity window has passed.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformedPayload is returned when the token payload cannot be
// decoded into claims.
var ErrTokenMalformedPayload = goerrors.New("token payload is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformedPayload).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty password input before hashing
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the uniform invalid-credentials error. We
// return the same value for unknown identifiers and wrong passwords so the
// caller cannot distinguish the two.
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrIncorrectPassword is returned by password changes when the current
// password does not verify. The stored hash is never mutated in that case.
var ErrIncorrectPassword = goerrors.New("current password is incorrect", goerrors.CategoryAuth).
	WithTextCode(TextCodeIncorrectPassword).
	WithCode(goerrors.CodeUnauthorized)

// ErrWeakPassword is returned when a new password fails the strength policy.
var ErrWeakPassword = goerrors.New("password does not meet the strength policy", goerrors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateEmail is returned when registering an email that already exists.
var ErrDuplicateEmail = goerrors.New("email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrSingleUseInvalid is returned when a presented secret matches no
// outstanding record.
var ErrSingleUseInvalid = goerrors.New("invalid or already used token", goerrors.CategoryNotFound).
	WithTextCode(TextCodeSingleUseInvalid).
	WithCode(goerrors.CodeNotFound)

// ErrSingleUseExpired is returned when a presented secret matched a record
// whose validity window has passed.
var ErrSingleUseExpired = goerrors.New("token has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeSingleUseExpired).
	WithCode(goerrors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned when the cool-down window is active.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountInactive is returned when a deactivated account authenticates.
var ErrAccountInactive = goerrors.New("account has been deactivated", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(goerrors.CodeForbidden)

// ErrEmailAlreadyVerified rejects verification requests for verified emails.
var ErrEmailAlreadyVerified = goerrors.New("email already verified", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailAlreadyVerified).
	WithCode(goerrors.CodeConflict)

// IsRetryable classifies storage and provider failures: transient network
// errors and timeouts may be retried by the boundary layer, while malformed
// responses, conflicts, and validation errors are terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryOperation:
			return true
		case goerrors.CategoryConflict,
			goerrors.CategoryValidation,
			goerrors.CategoryBadInput,
			goerrors.CategoryNotFound,
			goerrors.CategoryAuth:
			return false
		}
	}

	return false
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired)
}

// IsAuthenticationError reports whether err belongs to the family of
// failures that is surfaced to clients uniformly as "not authenticated".
// Format errors, signature mismatches, expiry, and simple absence of a
// credential are deliberately indistinguishable at the boundary.
func IsAuthenticationError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryAuth
	}

	return false
}
