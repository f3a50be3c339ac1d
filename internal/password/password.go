// Package password provides one-way, salted password digesting.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher digests plaintext passwords and verifies candidates against a digest.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher hashes with bcrypt. Each call salts independently, so two
// hashes of the same plaintext differ.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher with the given work factor.
// A cost outside bcrypt's valid range falls back to the default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest yields
// false, never an error. bcrypt's comparison does not short-circuit on the
// first differing byte.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
