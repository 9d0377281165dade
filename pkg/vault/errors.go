package vault

import (
	"github.com/pkg/errors"

	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

var (
	ErrVaultNotFound = errors.New("vault not found")
)

// IsAlreadyInitialized reports whether err is the vault program rejecting an
// initialize for an owner whose vault already exists. It is the only benign
// program error.
func IsAlreadyInitialized(err error) bool {
	programErr, ok := vault_program.ErrorFromTransactionError(err)
	return ok && programErr == vault_program.ErrAlreadyInitialized
}
