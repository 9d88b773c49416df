package proof

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"grantor/pkg/domain"
)

func TestInteractionURL(t *testing.T) {
	id := domain.NewInteractionID()

	assert.Equal(t,
		"https://auth.example.com/interact/"+id.String(),
		InteractionURL("https://auth.example.com", id))

	assert.Equal(t,
		"https://auth.example.com/interact/"+id.String(),
		InteractionURL("https://auth.example.com/", id),
		"trailing slash must not double up")
}

func TestFinishHash(t *testing.T) {
	const (
		clientNonce   = "client-nonce"
		interactNonce = "interact-nonce"
		ref           = "interact-ref"
		url           = "https://auth.example.com/interact/abc"
	)

	got := FinishHash(clientNonce, interactNonce, ref, url)

	// Recompute from the documented canonical form.
	digest := sha3.Sum512([]byte(clientNonce + "\n" + interactNonce + "\n" + ref + "\n" + url))
	want := base64.StdEncoding.EncodeToString(digest[:])
	assert.Equal(t, want, got)

	raw, err := base64.StdEncoding.DecodeString(got)
	require.NoError(t, err)
	assert.Len(t, raw, 64)
}

func TestFinishHashSensitivity(t *testing.T) {
	base := FinishHash("a", "b", "c", "d")

	assert.Equal(t, base, FinishHash("a", "b", "c", "d"), "must be deterministic")
	assert.NotEqual(t, base, FinishHash("x", "b", "c", "d"))
	assert.NotEqual(t, base, FinishHash("a", "x", "c", "d"))
	assert.NotEqual(t, base, FinishHash("a", "b", "x", "d"))
	assert.NotEqual(t, base, FinishHash("a", "b", "c", "x"))

	// The join must be positional: shifting a separator into a field
	// changes the digest.
	assert.NotEqual(t, FinishHash("a\nb", "c", "d", "e"), FinishHash("a", "b\nc", "d", "e"))
}

func TestFinishHashRandomInputs(t *testing.T) {
	nonce := func() string {
		buf := make([]byte, 16)
		_, err := rand.Read(buf)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(buf)
	}

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		h := FinishHash(nonce(), nonce(), nonce(), "https://auth.example.com/interact/x")
		_, dup := seen[h]
		assert.False(t, dup, "distinct inputs must not collide")
		seen[h] = struct{}{}
	}
}
