package identity

import (
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the adaptive work factor used when none is set.
// Hashing is deliberately CPU-expensive; tune with SetBcryptCost.
const DefaultBcryptCost = 14

var bcryptCost atomic.Int32

func init() {
	bcryptCost.Store(DefaultBcryptCost)
}

// SetBcryptCost overrides the bcrypt work factor for subsequent hashes.
// Values outside bcrypt's supported range fall back to the default.
func SetBcryptCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	bcryptCost.Store(int32(cost))
}

// BcryptCost returns the work factor currently in use.
func BcryptCost() int {
	return int(bcryptCost.Load())
}

// HashPassword will generate a password hash. The salt is embedded in the
// output, so verification needs only the hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash returns the hash of an unguessable password. Users
// created through social login carry one of these, so no local password can
// ever verify against their account.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
