package identity

import (
	stderrors "errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// PasswordMinLength is the platform's minimum password length.
const PasswordMinLength = 8

// PasswordMaxLength guards against pathological bcrypt input (bcrypt only
// considers the first 72 bytes).
const PasswordMaxLength = 72

// ValidatePasswordStrength enforces the password policy before any hashing
// happens: bounded length plus at least one letter and one digit.
func ValidatePasswordStrength(password string) error {
	err := validation.Validate(password,
		validation.Required,
		validation.Length(PasswordMinLength, PasswordMaxLength),
		validation.By(requireLetterAndDigit),
	)
	if err != nil {
		return goerrors.Wrap(err, ErrWeakPassword.Category, ErrWeakPassword.Message).
			WithTextCode(TextCodeWeakPassword).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func requireLetterAndDigit(value any) error {
	s, _ := value.(string)

	hasLetter := strings.ContainsFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})
	hasDigit := strings.ContainsFunc(s, func(r rune) bool {
		return r >= '0' && r <= '9'
	})

	if !hasLetter || !hasDigit {
		return stderrors.New("must contain at least one letter and one digit")
	}
	return nil
}
