package testutil

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/bank"
	"github.com/code-payments/code-vault/pkg/bank/memory"
	"github.com/code-payments/code-vault/pkg/solana"
)

// NewTestBank returns a bank backed by an in memory store with default
// ledger parameters and the provided programs registered.
func NewTestBank(t *testing.T, overrides *bank.TestOverrides, programs ...bank.Program) *bank.Bank {
	if overrides == nil {
		overrides = &bank.TestOverrides{}
	}

	opts := []bank.Option{bank.WithConfig(bank.WithTestOverrides(overrides))}
	for _, program := range programs {
		opts = append(opts, bank.WithProgram(program))
	}

	b := bank.New(memory.New(), opts...)
	require.NotNil(t, b)
	return b
}

// NewFundedKeypair returns a new keypair whose account holds lamports
func NewFundedKeypair(t *testing.T, b *bank.Bank, lamports uint64) ed25519.PrivateKey {
	key := GenerateSolanaKeypair(t)
	_, err := b.RequestAirdrop(context.Background(), key.Public().(ed25519.PublicKey), lamports)
	require.NoError(t, err)
	return key
}

// SubmitTransaction signs instructions with the latest blockhash, paid for by
// the first signer, and executes them.
func SubmitTransaction(t *testing.T, b *bank.Bank, signers []ed25519.PrivateKey, instructions ...solana.Instruction) (solana.Signature, error) {
	ctx := context.Background()

	blockhash, err := b.GetLatestBlockhash(ctx)
	require.NoError(t, err)

	tx := solana.NewTransaction(signers[0].Public().(ed25519.PublicKey), instructions...)
	tx.SetBlockhash(blockhash)
	require.NoError(t, tx.Sign(signers...))

	return b.ExecuteTransaction(ctx, tx)
}

// GetBalance returns the lamports held at address
func GetBalance(t *testing.T, b *bank.Bank, address ed25519.PublicKey) uint64 {
	balance, err := b.GetBalance(context.Background(), address)
	require.NoError(t, err)
	return balance
}
