// Package nonce generates the unpredictable URL-safe tokens used for
// interaction nonces and references.
package nonce

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenBytes yields 22 base64url characters, comfortably past the collision
// resistance needed for capability tokens.
const tokenBytes = 16

// New returns a fixed-length, URL-safe random token.
func New() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; a broken
		// entropy source is not something we can limp past.
		panic("nonce: entropy source unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
