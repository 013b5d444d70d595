package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SessionIDBytes is the number of random bytes in a session identifier.
// 32 bytes gives 256 bits of entropy, well beyond guessing range.
const SessionIDBytes = 32

// GenerateSessionID returns a cryptographically random session identifier.
// The ID is URL-safe base64 without padding, suitable for cookie values.
func GenerateSessionID() (string, error) {
	buf := make([]byte, SessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("core: generating session ID: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
