package identity

import (
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// placeholderSigningKeys are values shipped in sample configuration files.
// Booting with one of them outside development is refused.
var placeholderSigningKeys = []string{
	"change-in-production",
	"changeme",
	"secret",
	"your-signing-key",
}

// SimpleConfig is a plain-struct Config implementation for callers that do
// not carry their own configuration layer.
type SimpleConfig struct {
	SigningKey            string
	SigningMethod         string
	ContextKey            string
	TokenExpiration       int
	ExtendedTokenDuration int
	TokenLookup           string
	AuthScheme            string
	Issuer                string
	Audience              []string
	// Environment gates the placeholder signing key check. Anything other
	// than "development" or "test" is treated as production.
	Environment string
}

var _ Config = &SimpleConfig{}

func (c *SimpleConfig) GetSigningKey() string    { return c.SigningKey }
func (c *SimpleConfig) GetContextKey() string    { return withDefault(c.ContextKey, "user") }
func (c *SimpleConfig) GetTokenLookup() string   { return withDefault(c.TokenLookup, "header:Authorization") }
func (c *SimpleConfig) GetAuthScheme() string    { return withDefault(c.AuthScheme, "Bearer") }
func (c *SimpleConfig) GetIssuer() string        { return c.Issuer }
func (c *SimpleConfig) GetAudience() []string    { return c.Audience }
func (c *SimpleConfig) GetSigningMethod() string { return withDefault(c.SigningMethod, "HS256") }

func (c *SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return c.TokenExpiration
}

func (c *SimpleConfig) GetExtendedTokenDuration() int {
	if c.ExtendedTokenDuration <= 0 {
		return int((30 * 24 * time.Hour).Hours())
	}
	return c.ExtendedTokenDuration
}

// Validate refuses configurations that would silently issue forgeable
// tokens: an empty signing key, or a known sample value outside development.
func (c *SimpleConfig) Validate() error {
	if strings.TrimSpace(c.SigningKey) == "" {
		return goerrors.New("signing key is required", goerrors.CategoryBadInput).
			WithTextCode("CONFIG_MISSING_SIGNING_KEY")
	}

	if c.isDevelopment() {
		return nil
	}

	for _, placeholder := range placeholderSigningKeys {
		if strings.EqualFold(strings.TrimSpace(c.SigningKey), placeholder) {
			return goerrors.New("signing key is a placeholder value, set a real secret", goerrors.CategoryBadInput).
				WithTextCode("CONFIG_PLACEHOLDER_SIGNING_KEY")
		}
	}

	return nil
}

func (c *SimpleConfig) isDevelopment() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "development" || env == "dev" || env == "test"
}

func withDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}
