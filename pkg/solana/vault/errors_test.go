package vault

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/solana"
)

func TestProgramError_Codes(t *testing.T) {
	assert.EqualValues(t, 6000, ErrAddressMismatch)
	assert.EqualValues(t, 6001, ErrAlreadyInitialized)
	assert.EqualValues(t, 6002, ErrUnauthorized)
	assert.EqualValues(t, 6003, ErrInvalidAmount)
	assert.EqualValues(t, 6004, ErrInsufficientFunds)
	assert.EqualValues(t, 6005, ErrInsufficientVaultBalance)
	assert.Equal(t, "insufficient vault balance", ErrInsufficientVaultBalance.Error())
}

func TestErrorFromTransactionError(t *testing.T) {
	txErr := solana.TransactionErrorFromInstructionError(&solana.InstructionError{
		Index: 0,
		Err:   ErrAlreadyInitialized.ToCustomError(),
	})

	actual, ok := ErrorFromTransactionError(errors.Wrap(txErr, "failed to submit"))
	require.True(t, ok)
	assert.Equal(t, ErrAlreadyInitialized, actual)

	txErr = solana.TransactionErrorFromInstructionError(&solana.InstructionError{
		Index: 0,
		Err:   solana.CustomError(1),
	})
	_, ok = ErrorFromTransactionError(txErr)
	assert.False(t, ok)

	_, ok = ErrorFromTransactionError(solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound))
	assert.False(t, ok)

	_, ok = ErrorFromTransactionError(nil)
	assert.False(t, ok)
}
