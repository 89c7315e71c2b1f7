package crypto

import (
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hides the credential comparison scheme behind a
// hash/verify pair, so the stored form can change without touching
// the authentication contract.
type PasswordHasher struct {
	cost   int
	logger *slog.Logger
}

func NewPasswordHasher(cost int, logger *slog.Logger) *PasswordHasher {
	if logger == nil {
		logger = slog.Default()
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{
		cost:   cost,
		logger: logger,
	}
}

func (h *PasswordHasher) Hash(credential string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), h.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing credential: %w", err)
	}
	return hash, nil
}

func (h *PasswordHasher) Verify(hash []byte, credential string) bool {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(credential)); err != nil {
		h.logger.Debug("Credential verification failed")
		return false
	}
	return true
}
