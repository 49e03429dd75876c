package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const linkTokenBytes = 32 // 256 bits

// GenerateLinkToken returns a URL-safe opaque token for magic links.
// Uniqueness is enforced by the magic_links.token unique constraint,
// not by the generator.
func GenerateLinkToken() (string, error) {
	buf := make([]byte, linkTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
