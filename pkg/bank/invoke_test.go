package bank

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/solana"
)

func newTestKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}

func TestFrame_FindUnionsPrivileges(t *testing.T) {
	account := &Account{Address: newTestKey(t), Owner: SystemProgramID, Lamports: 10}

	f := newFrame(newTestKey(t), []*InstructionAccount{
		{Account: account, IsSigner: true},
		{Account: account, IsWritable: true},
	})

	found := f.find(account.Address)
	require.NotNil(t, found)
	assert.True(t, found.IsSigner)
	assert.True(t, found.IsWritable)
	assert.Equal(t, account, found.Account)

	assert.Nil(t, f.find(newTestKey(t)))
}

func TestFrame_Verify(t *testing.T) {
	program := newTestKey(t)

	for _, tc := range []struct {
		name     string
		modify   func(owned, external, readonly *Account)
		expected error
	}{
		{
			name:   "no changes",
			modify: func(_, _, _ *Account) {},
		},
		{
			name: "owner debits its account",
			modify: func(owned, external, _ *Account) {
				owned.Lamports -= 5
				external.Lamports += 5
			},
		},
		{
			name: "owner writes its data",
			modify: func(owned, _, _ *Account) {
				owned.Data[0] = 1
			},
		},
		{
			name: "owner releases zeroed account",
			modify: func(owned, _, _ *Account) {
				owned.Data = nil
				owned.Owner = SystemProgramID
			},
		},
		{
			name: "owner releases account with data",
			modify: func(owned, _, _ *Account) {
				owned.Data[0] = 1
				owned.Owner = SystemProgramID
			},
			expected: solana.InstructionErrorModifiedProgramID,
		},
		{
			name: "external debit",
			modify: func(owned, external, _ *Account) {
				external.Lamports -= 5
				owned.Lamports += 5
			},
			expected: solana.InstructionErrorExternalAccountLamportSpend,
		},
		{
			name: "external data",
			modify: func(_, external, _ *Account) {
				external.Data = []byte{1}
			},
			expected: solana.InstructionErrorExternalAccountDataModified,
		},
		{
			name: "readonly data",
			modify: func(_, _, readonly *Account) {
				readonly.Data[0] = 1
			},
			expected: solana.InstructionErrorReadonlyDataModified,
		},
		{
			name: "readonly lamports",
			modify: func(owned, _, readonly *Account) {
				owned.Lamports--
				readonly.Lamports++
			},
			expected: solana.InstructionErrorReadonlyLamportChange,
		},
		{
			name: "minted lamports",
			modify: func(owned, _, _ *Account) {
				owned.Lamports++
			},
			expected: solana.InstructionErrorUnbalancedInstruction,
		},
		{
			name: "executable",
			modify: func(owned, _, _ *Account) {
				owned.Executable = true
			},
			expected: solana.InstructionErrorExecutableModified,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			owned := &Account{Address: newTestKey(t), Owner: program, Lamports: 100, Data: make([]byte, 4)}
			external := &Account{Address: newTestKey(t), Owner: SystemProgramID, Lamports: 100}
			readonly := &Account{Address: newTestKey(t), Owner: program, Lamports: 100, Data: make([]byte, 4)}

			f := newFrame(program, []*InstructionAccount{
				{Account: owned, IsWritable: true},
				{Account: external, IsWritable: true},
				{Account: readonly},
			})

			tc.modify(owned, external, readonly)

			err := f.verify()
			if tc.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tc.expected, err)
			}
		})
	}
}

func TestFrame_SnapshotResetsBaseline(t *testing.T) {
	program := newTestKey(t)
	external := &Account{Address: newTestKey(t), Owner: SystemProgramID, Lamports: 100}
	owned := &Account{Address: newTestKey(t), Owner: program, Lamports: 100}

	f := newFrame(program, []*InstructionAccount{
		{Account: owned, IsWritable: true},
		{Account: external, IsWritable: true},
	})

	// Changes made by a callee on the caller's behalf
	external.Lamports -= 10
	owned.Lamports += 10
	f.snapshot()

	assert.NoError(t, f.verify())
}

func TestIsZeroed(t *testing.T) {
	assert.True(t, isZeroed(nil))
	assert.True(t, isZeroed(make([]byte, 8)))
	assert.False(t, isZeroed([]byte{0, 0, 1}))
}
