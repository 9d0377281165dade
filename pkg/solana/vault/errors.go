package vault

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
)

// ProgramError is a custom error code returned by the vault program.
type ProgramError uint32

const (
	// Supplied address does not match the derived address
	ErrAddressMismatch ProgramError = iota + 0x1770

	// Vault state is already initialized
	ErrAlreadyInitialized

	// Signer is not the owner of the vault
	ErrUnauthorized

	// Amount must be greater than zero
	ErrInvalidAmount

	// Signer cannot cover the requested amount
	ErrInsufficientFunds

	// Vault balance is lower than the requested amount
	ErrInsufficientVaultBalance

	// Vault state account is missing or malformed
	ErrStateNotInitialized

	// Instruction data could not be decoded
	ErrInvalidInstruction

	// Instruction was invoked with an unexpected account list
	ErrInvalidAccounts
)

func (e ProgramError) Error() string {
	switch e {
	case ErrAddressMismatch:
		return "address mismatch"
	case ErrAlreadyInitialized:
		return "already initialized"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrInvalidAmount:
		return "invalid amount"
	case ErrInsufficientFunds:
		return "insufficient funds"
	case ErrInsufficientVaultBalance:
		return "insufficient vault balance"
	case ErrStateNotInitialized:
		return "state not initialized"
	case ErrInvalidInstruction:
		return "invalid instruction"
	case ErrInvalidAccounts:
		return "invalid accounts"
	}

	return "unknown vault program error"
}

// ToCustomError converts the error into the code carried in an instruction error.
func (e ProgramError) ToCustomError() solana.CustomError {
	return solana.CustomError(e)
}

// ErrorFromTransactionError recovers the program error carried by a failed
// transaction. False is returned when the failure did not originate from a
// vault program error code.
func ErrorFromTransactionError(err error) (ProgramError, bool) {
	var ce solana.CustomError
	if !errors.As(err, &ce) {
		return 0, false
	}

	pe := ProgramError(ce)
	if pe < ErrAddressMismatch || pe > ErrInvalidAccounts {
		return 0, false
	}

	return pe, true
}
