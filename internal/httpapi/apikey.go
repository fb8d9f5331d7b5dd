package httpapi

import (
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost matches the teacher's password-hashing cost.
const BcryptCost = 12

// APIKeyVerifier checks a static, bcrypt-hashed service API key used as a
// machine-to-machine fallback credential when no JWT is presented.
type APIKeyVerifier struct {
	hash   []byte
	logger *slog.Logger
}

// NewAPIKeyVerifier builds an APIKeyVerifier over a bcrypt hash produced by
// HashAPIKey. A nil logger falls back to slog.Default.
func NewAPIKeyVerifier(hash string, logger *slog.Logger) *APIKeyVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyVerifier{hash: []byte(hash), logger: logger}
}

// HashAPIKey produces the bcrypt hash an operator stores in configuration.
func HashAPIKey(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether candidate matches the configured API key hash.
func (v *APIKeyVerifier) Verify(candidate string) bool {
	if len(v.hash) == 0 || candidate == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword(v.hash, []byte(candidate))
	return err == nil
}
