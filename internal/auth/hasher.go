package auth

import (
	"errors"
	"fmt"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes; longer input is refused instead of truncated.
const maxPasswordBytes = 72

// PasswordHasher produces self-describing salted hashes and checks plaintext against them.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports false on mismatch. It errors only when the stored hash is unusable.
	Verify(plaintext, stored string) (bool, error)
}

var _ PasswordHasher = (*BcryptHasher)(nil)

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", domainauth.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plaintext, stored string) (bool, error) {
	if _, err := bcrypt.Cost([]byte(stored)); err != nil {
		return false, fmt.Errorf("%w: %v", domainauth.ErrCorruptCredential, err)
	}
	if len(plaintext) > maxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", domainauth.ErrCorruptCredential, err)
	}
}
