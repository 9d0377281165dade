package tests

import (
	"context"
	"crypto/ed25519"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/bank"
)

func RunTests(t *testing.T, s bank.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s bank.Store){
		testHappyPath,
		testGetMany,
		testCommitDeletesEmptyAccounts,
		testCommitValidation,
		testLargeBalances,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s bank.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		address := generateKey(t)
		owner := generateKey(t)

		_, err := s.Get(ctx, address)
		assert.Equal(t, bank.ErrAccountNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		expected := &bank.Account{
			Address:  address,
			Lamports: 1_000_000_000,
			Owner:    bank.SystemProgramID,
		}
		require.NoError(t, s.Commit(ctx, []*bank.Account{expected}))

		actual, err := s.Get(ctx, address)
		require.NoError(t, err)
		assertEquivalentAccounts(t, expected, actual)

		expected.Lamports = 960_480
		expected.Owner = owner
		expected.Data = []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		require.NoError(t, s.Commit(ctx, []*bank.Account{expected}))

		actual, err = s.Get(ctx, address)
		require.NoError(t, err)
		assertEquivalentAccounts(t, expected, actual)

		// Mutating a returned record must not leak into the store
		actual.Data[0] = 0xff
		actual, err = s.Get(ctx, address)
		require.NoError(t, err)
		assertEquivalentAccounts(t, expected, actual)

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testGetMany(t *testing.T, s bank.Store) {
	t.Run("testGetMany", func(t *testing.T) {
		ctx := context.Background()

		var expected []*bank.Account
		for i := 0; i < 5; i++ {
			expected = append(expected, &bank.Account{
				Address:  generateKey(t),
				Lamports: uint64(i + 1),
				Owner:    bank.SystemProgramID,
			})
		}
		require.NoError(t, s.Commit(ctx, expected))

		missing := generateKey(t)
		addresses := []ed25519.PublicKey{
			expected[3].Address,
			missing,
			expected[0].Address,
			expected[4].Address,
		}

		actual, err := s.GetMany(ctx, addresses)
		require.NoError(t, err)
		require.Len(t, actual, len(addresses))

		assertEquivalentAccounts(t, expected[3], actual[0])
		assert.Nil(t, actual[1])
		assertEquivalentAccounts(t, expected[0], actual[2])
		assertEquivalentAccounts(t, expected[4], actual[3])

		actual, err = s.GetMany(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, actual)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 5, count)
	})
}

func testCommitDeletesEmptyAccounts(t *testing.T, s bank.Store) {
	t.Run("testCommitDeletesEmptyAccounts", func(t *testing.T) {
		ctx := context.Background()

		funded := &bank.Account{
			Address:  generateKey(t),
			Lamports: 100,
			Owner:    bank.SystemProgramID,
		}
		drained := &bank.Account{
			Address:  generateKey(t),
			Lamports: 50,
			Owner:    generateKey(t),
			Data:     []byte{1, 2, 3},
		}
		require.NoError(t, s.Commit(ctx, []*bank.Account{funded, drained}))

		funded.Lamports += drained.Lamports
		drained.Lamports = 0
		drained.Data = nil
		require.NoError(t, s.Commit(ctx, []*bank.Account{funded, drained}))

		actual, err := s.Get(ctx, funded.Address)
		require.NoError(t, err)
		assertEquivalentAccounts(t, funded, actual)

		_, err = s.Get(ctx, drained.Address)
		assert.Equal(t, bank.ErrAccountNotFound, err)

		// Deleting an account that never existed is a no-op
		require.NoError(t, s.Commit(ctx, []*bank.Account{
			{
				Address: generateKey(t),
				Owner:   bank.SystemProgramID,
			},
		}))

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testCommitValidation(t *testing.T, s bank.Store) {
	t.Run("testCommitValidation", func(t *testing.T) {
		ctx := context.Background()

		valid := &bank.Account{
			Address:  generateKey(t),
			Lamports: 1,
			Owner:    bank.SystemProgramID,
		}
		invalid := &bank.Account{
			Address:  generateKey(t)[:16],
			Lamports: 1,
			Owner:    bank.SystemProgramID,
		}
		assert.Error(t, s.Commit(ctx, []*bank.Account{valid, invalid}))

		_, err := s.Get(ctx, valid.Address)
		assert.Equal(t, bank.ErrAccountNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})
}

func testLargeBalances(t *testing.T, s bank.Store) {
	t.Run("testLargeBalances", func(t *testing.T) {
		ctx := context.Background()

		var expected []*bank.Account
		for _, lamports := range []uint64{math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64} {
			expected = append(expected, &bank.Account{
				Address:  generateKey(t),
				Lamports: lamports,
				Owner:    bank.SystemProgramID,
			})
		}
		require.NoError(t, s.Commit(ctx, expected))

		for _, account := range expected {
			actual, err := s.Get(ctx, account.Address)
			require.NoError(t, err)
			assertEquivalentAccounts(t, account, actual)
		}

		expected[2].Lamports = math.MaxUint64 - 1
		require.NoError(t, s.Commit(ctx, expected[2:]))

		actual, err := s.Get(ctx, expected[2].Address)
		require.NoError(t, err)
		assert.EqualValues(t, uint64(math.MaxUint64-1), actual.Lamports)
	})
}

func generateKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

func assertEquivalentAccounts(t *testing.T, obj1, obj2 *bank.Account) {
	require.NotNil(t, obj1)
	require.NotNil(t, obj2)

	assert.EqualValues(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Lamports, obj2.Lamports)
	assert.EqualValues(t, obj1.Owner, obj2.Owner)
	assert.EqualValues(t, obj1.Data, obj2.Data)
	assert.Equal(t, obj1.Executable, obj2.Executable)
}
