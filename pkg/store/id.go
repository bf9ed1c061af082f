package store

import (
	"crypto/rand"
	"encoding/hex"
)

// newToken returns a random hex string suitable as an opaque session token.
func newToken() string {
	var b [24]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "token-unknown"
	}
	return hex.EncodeToString(b[:])
}
