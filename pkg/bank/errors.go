package bank

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
)

// Transaction level failures. The bank returns them wrapped in a
// *solana.TransactionError, so callers compare with errors.Is.
var (
	ErrSanitizeFailure          = solana.TransactionErrorSanitizeFailure
	ErrBlockhashNotFound        = solana.TransactionErrorBlockhashNotFound
	ErrAlreadyProcessed         = solana.TransactionErrorAlreadyProcessed
	ErrSignatureFailure         = solana.TransactionErrorSignatureFailure
	ErrAccountInUse             = solana.TransactionErrorAccountInUse
	ErrAccountNotFoundForFee    = solana.TransactionErrorAccountNotFound
	ErrInvalidAccountForFee     = solana.TransactionErrorInvalidAccountForFee
	ErrInsufficientFundsForFee  = solana.TransactionErrorInsufficientFundsForFee
	ErrInsufficientFundsForRent = solana.TransactionErrorInsufficientFundsForRent
)

var (
	ErrSignatureNotFound = errors.New("signature not found")
	ErrAirdropTooLarge   = errors.New("airdrop exceeds the configured maximum")
	ErrProgramRegistered = errors.New("program already registered")
)

func newTransactionError(key solana.TransactionErrorKey, reason string) error {
	txErr := solana.NewTransactionError(key)
	if len(reason) == 0 {
		return txErr
	}
	return errors.Wrap(txErr, reason)
}

func newInstructionError(index int, err error) error {
	return solana.TransactionErrorFromInstructionError(&solana.InstructionError{
		Index: index,
		Err:   err,
	})
}
