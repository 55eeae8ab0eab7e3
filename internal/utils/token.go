package utils

import (
	"crypto/rand" // secure random number generation
	"encoding/hex"
)

// NewSessionToken returns a hex-encoded anonymous session token.
// Guests obtain one from GET /v1/session and present it as their hold
// holder key; the server never stores it, so possession of the token
// is the only proof of hold ownership.  32 random bytes give a 64
// character hex string, far beyond guessing range for a value that
// lives minutes.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
