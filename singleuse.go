package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// secretByteLen gives 256 bits of entropy per secret.
const secretByteLen = 32

const (
	// DefaultResetTTL bounds password recovery secrets.
	DefaultResetTTL = time.Hour
	// DefaultVerifyEmailTTL bounds email verification secrets.
	DefaultVerifyEmailTTL = 24 * time.Hour
)

// UserTokenStore is the persistence contract for single-use tokens. Both
// operations must be atomic: Supersede removes any outstanding row for the
// same (user, purpose) in the same step that inserts the new one, and
// Consume is a find-and-delete that at most one caller can win.
type UserTokenStore interface {
	Supersede(ctx context.Context, token *UserToken) (*UserToken, error)
	Consume(ctx context.Context, tokenHash string, purpose TokenPurpose, userID *uuid.UUID) (*UserToken, error)
}

// SingleUseTokens issues and consumes hashed, expiring, purpose-scoped
// secrets. The plaintext secret exists only in the return value of Issue;
// storage only ever sees its SHA-256 digest.
type SingleUseTokens struct {
	store  UserTokenStore
	logger Logger
	now    func() time.Time
}

// NewSingleUseTokens creates the token service on top of a store.
func NewSingleUseTokens(store UserTokenStore) *SingleUseTokens {
	return &SingleUseTokens{
		store:  store,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *SingleUseTokens) WithLogger(logger Logger) *SingleUseTokens {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock injects a custom time source (useful for tests).
func (s *SingleUseTokens) WithClock(clock func() time.Time) *SingleUseTokens {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Issue generates a fresh secret for (userID, purpose), superseding any
// outstanding one, and returns the plaintext for out-of-band delivery.
func (s *SingleUseTokens) Issue(ctx context.Context, userID uuid.UUID, purpose TokenPurpose, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", goerrors.New("user id is required", goerrors.CategoryBadInput)
	}
	if ttl <= 0 {
		ttl = defaultTTLFor(purpose)
	}

	secret, err := generateSecret()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate token secret")
	}

	now := s.now()
	record := &UserToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: HashSecret(secret),
		ExpiresAt: now.Add(ttl),
		CreatedAt: &now,
	}

	if _, err := s.store.Supersede(ctx, record); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store token")
	}

	return secret, nil
}

// Consume redeems a presented secret. On match the record is removed in the
// same atomic step, so two racing calls with the same secret yield exactly
// one success. Expired records report expiry; anything else that does not
// match reports invalid. Optionally scoped to a specific user.
func (s *SingleUseTokens) Consume(ctx context.Context, presented string, purpose TokenPurpose, userID ...uuid.UUID) (uuid.UUID, error) {
	if presented == "" {
		return uuid.Nil, ErrSingleUseInvalid
	}

	var scope *uuid.UUID
	if len(userID) > 0 && userID[0] != uuid.Nil {
		scope = &userID[0]
	}

	hash := HashSecret(presented)

	record, err := s.store.Consume(ctx, hash, purpose, scope)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return uuid.Nil, ErrSingleUseInvalid
		}
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume token")
	}

	if record == nil || !secureHashEqual(record.TokenHash, hash) {
		return uuid.Nil, ErrSingleUseInvalid
	}

	if record.Expired(s.now()) {
		return uuid.Nil, ErrSingleUseExpired
	}

	return record.UserID, nil
}

// HashSecret returns the hex SHA-256 digest under which a secret is stored.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func generateSecret() (string, error) {
	buf := make([]byte, secretByteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func secureHashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func defaultTTLFor(purpose TokenPurpose) time.Duration {
	if purpose == PurposeVerifyEmail {
		return DefaultVerifyEmailTTL
	}
	return DefaultResetTTL
}
