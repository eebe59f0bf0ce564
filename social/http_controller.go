package social

import (
	"time"

	"github.com/goliatone/go-router"
	"github.com/kagomalabs/go-identity"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes token-based social login over HTTP. The client
// completes the provider flow itself and posts the resulting access token.
type HTTPController struct {
	broker *Broker
	tokens identity.TokenService
	config HTTPConfig
	logger identity.Logger
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// PathPrefix for routes (default: "/auth/social")
	PathPrefix string

	// CookieName for storing the JWT. Empty disables the cookie; the token
	// is always returned in the response body.
	CookieName string

	// CookieDuration bounds the session cookie (default: 24h)
	CookieDuration time.Duration

	// CookieSecure sets the Secure flag on cookies
	CookieSecure bool

	// CookieSameSite sets the SameSite attribute (e.g. "Lax", "Strict")
	CookieSameSite string
}

// NewHTTPController creates a social login HTTP controller.
func NewHTTPController(broker *Broker, tokens identity.TokenService, cfg HTTPConfig) *HTTPController {
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/auth/social"
	}
	if cfg.CookieSameSite == "" {
		cfg.CookieSameSite = "Lax"
	}
	if cfg.CookieDuration <= 0 {
		cfg.CookieDuration = 24 * time.Hour
	}

	return &HTTPController{
		broker: broker,
		tokens: tokens,
		config: cfg,
		logger: identity.NewDefaultLogger(),
	}
}

// WithLogger sets the controller logger.
func (c *HTTPController) WithLogger(logger identity.Logger) *HTTPController {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// RegisterRoutes registers social login routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/providers", c.ListProviders)
	group.Post("/:provider", c.Login)
}

// ListProviders returns the configured social providers.
func (c *HTTPController) ListProviders(ctx router.Context) error {
	names := make([]string, 0, len(c.broker.providers))
	for name := range c.broker.providers {
		names = append(names, name)
	}
	return ctx.JSON(router.StatusOK, map[string]any{
		"providers": names,
	})
}

// SocialLoginPayload is the request body for a social login.
type SocialLoginPayload struct {
	AccessToken string `json:"access_token" form:"access_token"`
}

// Login verifies the posted provider token and answers with a session token.
func (c *HTTPController) Login(ctx router.Context) error {
	providerName := ctx.Param("provider")

	payload := new(SocialLoginPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse request body",
		})
	}

	user, err := c.broker.Authenticate(ctx.Context(), providerName, payload.AccessToken)
	if err != nil {
		return c.loginError(ctx, err)
	}

	token, err := c.tokens.Generate(identity.NewIdentityFromUser(user))
	if err != nil {
		c.logger.Error("failed to issue session token", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "failed to issue session token",
		})
	}

	if c.config.CookieName != "" {
		ctx.Cookie(&router.Cookie{
			Name:     c.config.CookieName,
			Value:    token,
			Expires:  time.Now().Add(c.config.CookieDuration),
			HTTPOnly: true,
			Secure:   c.config.CookieSecure,
			SameSite: c.config.CookieSameSite,
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":    user.ID.String(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (c *HTTPController) loginError(ctx router.Context, err error) error {
	switch {
	case hasTextCode(err, TextCodeProviderNotFound):
		return ctx.JSON(router.StatusNotFound, map[string]string{
			"error": "unknown provider",
		})
	case hasTextCode(err, TextCodeTokenInvalid),
		hasTextCode(err, TextCodeEmailMissing),
		hasTextCode(err, TextCodeAccountInactive):
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "social authentication failed",
		})
	default:
		c.logger.Error("social login failed", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "social authentication unavailable",
		})
	}
}
