package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kagomalabs/go-identity/social"
)

const defaultGraphURL = "https://graph.facebook.com/v19.0"

// Config holds Facebook verification configuration.
type Config struct {
	AppID     string
	AppSecret string

	// GraphURL overrides the Graph API base (useful for tests).
	GraphURL string

	HTTPClient *http.Client
}

// Provider implements social.AccessTokenVerifier for Facebook. The token is
// first introspected through /debug_token with the app credential, then the
// profile is fetched with the user token itself.
type Provider struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Facebook provider.
func New(cfg Config) *Provider {
	if cfg.GraphURL == "" {
		cfg.GraphURL = defaultGraphURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
	}
}

// Name implements social.AccessTokenVerifier.
func (p *Provider) Name() string {
	return "facebook"
}

// VerifyAccessToken implements social.AccessTokenVerifier.
func (p *Provider) VerifyAccessToken(ctx context.Context, accessToken string) (*social.ExternalIdentity, error) {
	debug, err := p.debugToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if !debug.IsValid {
		return nil, providerError("debug_token", http.StatusUnauthorized, "token_invalid", "token failed introspection", nil, nil)
	}

	if p.config.AppID != "" && debug.AppID != p.config.AppID {
		return nil, providerError("debug_token", http.StatusUnauthorized, "app_mismatch", "token was issued for another application", nil, map[string]any{
			"app_id": debug.AppID,
		})
	}

	return p.fetchProfile(ctx, accessToken)
}

// appAccessToken is the app_id|app_secret credential the Graph API accepts
// for introspection calls.
func (p *Provider) appAccessToken() string {
	return fmt.Sprintf("%s|%s", p.config.AppID, p.config.AppSecret)
}

type debugTokenData struct {
	AppID   string `json:"app_id"`
	UserID  string `json:"user_id"`
	IsValid bool   `json:"is_valid"`
	Expires int64  `json:"expires_at"`
}

func (p *Provider) debugToken(ctx context.Context, accessToken string) (*debugTokenData, error) {
	params := url.Values{
		"input_token":  {accessToken},
		"access_token": {p.appAccessToken()},
	}

	body, status, err := p.get(ctx, "/debug_token?"+params.Encode())
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		code, description, raw := parseGraphError(body)
		return nil, providerError("debug_token", status, code, description, nil, raw)
	}

	var payload struct {
		Data debugTokenData `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, providerError("debug_token", status, "invalid_response", "failed to decode debug_token response", err, nil)
	}

	return &payload.Data, nil
}

func (p *Provider) fetchProfile(ctx context.Context, accessToken string) (*social.ExternalIdentity, error) {
	params := url.Values{
		"fields":       {"id,name,email,picture.type(large)"},
		"access_token": {accessToken},
	}

	body, status, err := p.get(ctx, "/me?"+params.Encode())
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		code, description, raw := parseGraphError(body)
		return nil, providerError("profile", status, code, description, nil, raw)
	}

	var profile facebookProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, providerError("profile", status, "invalid_response", "failed to decode profile response", err, nil)
	}

	if profile.ID == "" {
		return nil, providerError("profile", status, "missing_id", "profile response has no id", nil, nil)
	}

	return mapIdentity(&profile), nil
}

func (p *Provider) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.GraphURL+path, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return body, resp.StatusCode, nil
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func parseGraphError(body []byte) (string, string, map[string]any) {
	var ge graphError
	if err := json.Unmarshal(body, &ge); err == nil && (ge.Error.Message != "" || ge.Error.Type != "") {
		code := ge.Error.Type
		if code == "" && ge.Error.Code != 0 {
			code = fmt.Sprintf("%d", ge.Error.Code)
		}
		return code, ge.Error.Message, map[string]any{
			"type":    ge.Error.Type,
			"message": ge.Error.Message,
			"code":    ge.Error.Code,
		}
	}
	return "", "", nil
}

func providerError(operation string, status int, code, description string, err error, raw map[string]any) *social.ProviderError {
	return &social.ProviderError{
		Provider:    "facebook",
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
		Raw:         raw,
	}
}
