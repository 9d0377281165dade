package solana

import (
	"crypto/ed25519"

	"filippo.io/edwards25519"
)

// IsOnCurve reports whether the key decompresses to a point on the ed25519
// curve. Program derived addresses are never on the curve, so they can only
// sign through the program that owns their seeds.
func IsOnCurve(key ed25519.PublicKey) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}

	_, err := new(edwards25519.Point).SetBytes(key)
	return err == nil
}
