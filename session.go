package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// GetRole returns the role carried in the session data, if any.
func (s *SessionObject) GetRole() (UserRole, bool) {
	if s.Data == nil {
		return "", false
	}

	if role, ok := s.Data["role"].(string); ok && role != "" {
		return UserRole(role), true
	}

	return "", false
}

// sessionFromAuthClaims converts structured claims into a SessionObject.
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToMapClaims
	}

	session := &SessionObject{
		UserID: claims.UserID(),
		Data:   map[string]any{},
	}

	if role := claims.Role(); role != "" {
		session.Data["role"] = string(role)
	}

	if issuedAt := claims.IssuedAt(); !issuedAt.IsZero() {
		session.IssuedAt = &issuedAt
	}

	if expires := claims.Expires(); !expires.IsZero() {
		session.ExpirationDate = &expires
	}

	if jwtClaims, ok := claims.(*JWTClaims); ok {
		session.Issuer = jwtClaims.RegisteredClaims.Issuer
		session.Audience = jwtClaims.RegisteredClaims.Audience
		for k, v := range jwtClaims.Metadata {
			session.Data[k] = v
		}
	}

	if session.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnableToMapClaims)
	}

	return session, nil
}

// GetRouterSession recovers the session the token middleware stored in the
// request locals under key.
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	local := c.Locals(key)
	if local == nil {
		return nil, ErrUnableToFindSession
	}

	token, ok := local.(*jwt.Token)
	if token == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToMapClaims
	}

	return sessionFromMapClaims(claims)
}

// sessionFromMapClaims rebuilds a SessionObject from the untyped claims the
// middleware parser produces.
func sessionFromMapClaims(claims jwt.MapClaims) (*SessionObject, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnableToMapClaims)
	}

	session := &SessionObject{
		UserID: sub,
		Data:   map[string]any{},
	}

	if aud, err := claims.GetAudience(); err == nil {
		session.Audience = aud
	}
	if iss, err := claims.GetIssuer(); err == nil {
		session.Issuer = iss
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		session.IssuedAt = &iat.Time
	}
	if eat, err := claims.GetExpirationTime(); err == nil && eat != nil {
		session.ExpirationDate = &eat.Time
	}

	if role, ok := claims["role"].(string); ok && role != "" {
		session.Data["role"] = role
	}
	if meta, ok := claims["metadata"].(map[string]any); ok {
		for k, v := range meta {
			session.Data[k] = v
		}
	}

	return session, nil
}

// HasUserUUID reports whether Session.GetUserUUID will succeed.
func HasUserUUID(session Session) bool {
	if session == nil {
		return false
	}
	_, err := session.GetUserUUID()
	return err == nil
}
