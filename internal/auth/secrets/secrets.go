// Package secrets provides one-way password hashing for registration and
// login. It is never used per-request; verified identity travels in tokens.
package secrets

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "tradepost/pkg/domain-errors"
)

// Hasher hashes and verifies passwords with bcrypt. Comparison timing is
// handled by the primitive itself.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. A cost of 0 falls back to bcrypt.DefaultCost;
// tests pass bcrypt.MinCost to stay fast.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash creates a salted bcrypt hash of the plaintext. Never reversible.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch is a
// normal false, not an error; errors indicate a corrupt or foreign hash.
func (h *Hasher) Verify(hash, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("could not verify password: %w", err)
}
