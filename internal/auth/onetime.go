package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"accessible-backend/internal/model"
)

const oneTimeTokenBytes = 32

// NewOneTimeToken returns a URL-safe random token for emailing and the
// record to store for it, expiring ttl after now.
func NewOneTimeToken(now time.Time, ttl time.Duration) (string, *model.OneTimeToken, error) {
	buf := make([]byte, oneTimeTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	plain := base64.RawURLEncoding.EncodeToString(buf)
	return plain, &model.OneTimeToken{
		Hash:      HashToken(plain),
		ExpiresAt: now.Add(ttl).UTC(),
	}, nil
}

// HashToken is the lookup key stored for a one-time token.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
