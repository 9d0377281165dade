package solana

import "crypto/ed25519"

// AccountInfo is the view of a ledger account returned to clients.
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}
