package bank

import (
	"github.com/code-payments/code-vault/pkg/solana"
)

// SignatureStatus is the outcome of a processed transaction.
type SignatureStatus struct {
	Slot uint64

	// Err is nil when the transaction succeeded
	Err error

	// Logs are the messages programs emitted while processing the transaction
	Logs []string
}

func (s *SignatureStatus) Clone() *SignatureStatus {
	logs := make([]string, len(s.Logs))
	copy(logs, s.Logs)

	return &SignatureStatus{
		Slot: s.Slot,
		Err:  s.Err,
		Logs: logs,
	}
}

type statusEntry struct {
	blockhash solana.Blockhash
	status    *SignatureStatus
}

// statusCache remembers processed signatures for as long as the blockhash
// they reference is still valid, which is what makes duplicate detection
// complete.
type statusCache struct {
	bySignature map[solana.Signature]*statusEntry
	byBlockhash map[solana.Blockhash][]solana.Signature
}

func newStatusCache() *statusCache {
	return &statusCache{
		bySignature: make(map[solana.Signature]*statusEntry),
		byBlockhash: make(map[solana.Blockhash][]solana.Signature),
	}
}

func (c *statusCache) get(sig solana.Signature) (*SignatureStatus, bool) {
	entry, ok := c.bySignature[sig]
	if !ok {
		return nil, false
	}
	return entry.status, true
}

func (c *statusCache) insert(sig solana.Signature, blockhash solana.Blockhash, status *SignatureStatus) {
	c.bySignature[sig] = &statusEntry{
		blockhash: blockhash,
		status:    status,
	}
	c.byBlockhash[blockhash] = append(c.byBlockhash[blockhash], sig)
}

func (c *statusCache) purge(blockhash solana.Blockhash) {
	for _, sig := range c.byBlockhash[blockhash] {
		delete(c.bySignature, sig)
	}
	delete(c.byBlockhash, blockhash)
}
