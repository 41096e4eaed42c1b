// Package randid provides unguessable identifiers for staged files and
// object store keys.
package randid

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultBytes is the entropy, in bytes, of identifiers built by Generate.
const DefaultBytes = 32

// Generate returns DefaultBytes of crypto-random data encoded as unpadded
// URL-safe base64.
// Example: 3q2-7wAAAAB6dGh4eXpfX19fX19fX19fX19fX19fX18
func Generate() (string, error) {
	return GenerateN(DefaultBytes)
}

// GenerateN returns n bytes of crypto-random data encoded as unpadded
// URL-safe base64.
func GenerateN(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
