package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/solana"
)

func TestStatusCache(t *testing.T) {
	c := newStatusCache()

	first := solana.Signature{1}
	second := solana.Signature{2}
	third := solana.Signature{3}

	_, ok := c.get(first)
	assert.False(t, ok)

	c.insert(first, solana.Blockhash{1}, &SignatureStatus{Slot: 1, Logs: []string{"log"}})
	c.insert(second, solana.Blockhash{1}, &SignatureStatus{Slot: 2, Err: solana.NewTransactionError(solana.TransactionErrorAccountInUse)})
	c.insert(third, solana.Blockhash{2}, &SignatureStatus{Slot: 3})

	status, ok := c.get(first)
	require.True(t, ok)
	assert.EqualValues(t, 1, status.Slot)
	assert.NoError(t, status.Err)

	status, ok = c.get(second)
	require.True(t, ok)
	assert.Error(t, status.Err)

	c.purge(solana.Blockhash{1})

	_, ok = c.get(first)
	assert.False(t, ok)
	_, ok = c.get(second)
	assert.False(t, ok)
	_, ok = c.get(third)
	assert.True(t, ok)
}

func TestSignatureStatus_Clone(t *testing.T) {
	original := &SignatureStatus{Slot: 7, Logs: []string{"a", "b"}}

	cloned := original.Clone()
	assert.Equal(t, original, cloned)

	cloned.Logs[0] = "c"
	assert.Equal(t, "a", original.Logs[0])
}
