// Package proof computes the hash that binds a finish redirect to the flow
// the client started. The client recomputes the same digest from its own
// nonce plus the ref carried in the redirect; a forger without server-side
// knowledge of the interaction nonce cannot produce it.
package proof

import (
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/sha3"

	"grantor/pkg/domain"
)

// InteractionURL returns the server's canonical URL for an interaction id.
// The base is the auth server's public URL, passed in explicitly so the
// digest never depends on ambient state.
func InteractionURL(authServerURL string, id domain.InteractionID) string {
	return strings.TrimSuffix(authServerURL, "/") + "/interact/" + id.String()
}

// FinishHash computes the base64 sha3-512 digest over the documented
// newline-joined canonical string. Deterministic: fixed inputs always yield
// the identical string.
func FinishHash(clientNonce, interactNonce, interactRef, interactionURL string) string {
	data := clientNonce + "\n" + interactNonce + "\n" + interactRef + "\n" + interactionURL
	digest := sha3.Sum512([]byte(data))
	return base64.StdEncoding.EncodeToString(digest[:])
}
