package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret returns a random 32-byte secret, hex encoded, suitable for
// CSRF signing.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
