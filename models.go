package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a standard viewer account
	RoleUser UserRole = "user"
	// RoleCreator publishes their own content
	RoleCreator UserRole = "creator"
	// RoleUploader ingests catalog content on behalf of others
	RoleUploader UserRole = "uploader"
	// RoleCompany is a company/studio account
	RoleCompany UserRole = "company"
	// RoleAdmin manages the platform
	RoleAdmin UserRole = "admin"
)

// User is the user model
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role            UserRole   `bun:"role,notnull" json:"role,omitempty"`
	Name            string     `bun:"name,notnull" json:"name,omitempty"`
	Email           string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone           string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash    string     `bun:"password_hash" json:"-"`
	AvatarURL       string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	Provider        string     `bun:"provider" json:"provider,omitempty"`
	ProviderID      string     `bun:"provider_id" json:"provider_id,omitempty"`
	IsActive        bool       `bun:"is_active,notnull,default:true" json:"is_active,omitempty"`
	EmailVerifiedAt *time.Time `bun:"email_verified_at,nullzero" json:"email_verified_at,omitempty"`
	LoginAttempts   int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt  *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt      *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EmailVerified reports whether the user's email has been confirmed.
func (u *User) EmailVerified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}

// TokenPurpose scopes a single-use token to the flow that issued it.
type TokenPurpose = string

const (
	// PurposeReset is a password recovery secret
	PurposeReset TokenPurpose = "reset"
	// PurposeVerifyEmail is an email ownership confirmation secret
	PurposeVerifyEmail TokenPurpose = "verify_email"
)

// UserToken is a hashed, expiring, purpose-scoped single-use secret. Only the
// SHA-256 digest of the secret is stored, never the plaintext. At most one
// unconsumed row exists per (user, purpose); issuing supersedes any prior one.
type UserToken struct {
	bun.BaseModel `bun:"table:user_tokens,alias:utk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Purpose       string     `bun:"purpose,notnull" json:"purpose,omitempty"`
	TokenHash     string     `bun:"token_hash,notnull" json:"-"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the token's validity window has passed.
func (t *UserToken) Expired(now time.Time) bool {
	return t != nil && t.ExpiresAt.Before(now)
}
