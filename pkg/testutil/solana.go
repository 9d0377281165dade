package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// GenerateSolanaKeypair returns a new signing key for a ledger account
func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return private
}

// GenerateSolanaKeys returns n new addresses nobody is expected to sign for
func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	var keys []ed25519.PublicKey
	for len(keys) < n {
		keys = append(keys, GenerateSolanaKeypair(t).Public().(ed25519.PublicKey))
	}
	return keys
}
