package hasher

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Hash returns the hex SHA-256 of s. Used for opaque tokens stored server side.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Verify compares a token with its stored hash.
func Verify(token, hash string) bool {
	return Hash(token) == hash
}

// NewToken returns n random bytes encoded as URL-safe base64.
func NewToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
