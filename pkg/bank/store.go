package bank

import (
	"context"
	"crypto/ed25519"
	"errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

type Store interface {
	// Get gets the account at an address. ErrAccountNotFound is returned if
	// the account doesn't exist.
	Get(ctx context.Context, address ed25519.PublicKey) (*Account, error)

	// GetMany gets the accounts at each address. The result is index aligned
	// with addresses and holds nil for accounts that don't exist.
	GetMany(ctx context.Context, addresses []ed25519.PublicKey) ([]*Account, error)

	// Commit writes every account in changes in a single atomic operation.
	// Accounts with zero lamports are deleted.
	Commit(ctx context.Context, changes []*Account) error

	// Count returns the number of accounts that exist
	Count(ctx context.Context) (uint64, error)
}
