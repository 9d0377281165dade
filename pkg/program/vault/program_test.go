package vault

import (
	"context"
	"crypto/ed25519"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/bank"
	"github.com/code-payments/code-vault/pkg/solana"
	"github.com/code-payments/code-vault/pkg/solana/system"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
	"github.com/code-payments/code-vault/pkg/testutil"
)

const (
	lamportsPerSol = 1_000_000_000
	fee            = 5000
	reservation    = 960_480 // (128 + 10) * 3480 * 2
)

type testEnv struct {
	bank *bank.Bank
}

func setup(t *testing.T) *testEnv {
	return &testEnv{
		bank: testutil.NewTestBank(t, nil, New()),
	}
}

type testOwner struct {
	key       ed25519.PrivateKey
	public    ed25519.PublicKey
	addresses *vault_program.Addresses
}

func (e *testEnv) newOwner(t *testing.T, lamports uint64) *testOwner {
	key := testutil.NewFundedKeypair(t, e.bank, lamports)
	public := key.Public().(ed25519.PublicKey)

	addresses, err := vault_program.GetAddresses(public)
	require.NoError(t, err)

	return &testOwner{
		key:       key,
		public:    public,
		addresses: addresses,
	}
}

func (e *testEnv) initialize(t *testing.T, owner *testOwner) error {
	ix := vault_program.NewInitializeInstruction(&vault_program.InitializeInstructionAccounts{
		Signer:     owner.public,
		Vault:      owner.addresses.Vault,
		VaultState: owner.addresses.State,
	}, &vault_program.InitializeInstructionArgs{})

	_, err := testutil.SubmitTransaction(t, e.bank, []ed25519.PrivateKey{owner.key}, ix.ToLegacyInstruction())
	return err
}

func (e *testEnv) deposit(t *testing.T, owner *testOwner, amount uint64) error {
	ix := vault_program.NewDepositInstruction(&vault_program.DepositInstructionAccounts{
		Signer:     owner.public,
		Vault:      owner.addresses.Vault,
		VaultState: owner.addresses.State,
	}, &vault_program.DepositInstructionArgs{Amount: amount})

	_, err := testutil.SubmitTransaction(t, e.bank, []ed25519.PrivateKey{owner.key}, ix.ToLegacyInstruction())
	return err
}

func (e *testEnv) withdraw(t *testing.T, owner *testOwner, amount uint64) error {
	ix := vault_program.NewWithdrawInstruction(&vault_program.WithdrawInstructionAccounts{
		Signer:     owner.public,
		Vault:      owner.addresses.Vault,
		VaultState: owner.addresses.State,
	}, &vault_program.WithdrawInstructionArgs{Amount: amount})

	_, err := testutil.SubmitTransaction(t, e.bank, []ed25519.PrivateKey{owner.key}, ix.ToLegacyInstruction())
	return err
}

func (e *testEnv) close(t *testing.T, owner *testOwner) error {
	ix := vault_program.NewCloseInstruction(&vault_program.CloseInstructionAccounts{
		Signer:     owner.public,
		Vault:      owner.addresses.Vault,
		VaultState: owner.addresses.State,
	}, &vault_program.CloseInstructionArgs{})

	_, err := testutil.SubmitTransaction(t, e.bank, []ed25519.PrivateKey{owner.key}, ix.ToLegacyInstruction())
	return err
}

func (e *testEnv) transfer(t *testing.T, from *testOwner, to ed25519.PublicKey, lamports uint64) {
	_, err := testutil.SubmitTransaction(t, e.bank, []ed25519.PrivateKey{from.key}, system.Transfer(from.public, to, lamports))
	require.NoError(t, err)
}

func (e *testEnv) balance(t *testing.T, address ed25519.PublicKey) uint64 {
	return testutil.GetBalance(t, e.bank, address)
}

func (e *testEnv) assertAbsent(t *testing.T, address ed25519.PublicKey) {
	_, err := e.bank.GetAccountInfo(context.Background(), address)
	assert.Equal(t, bank.ErrAccountNotFound, err)
}

func (e *testEnv) getState(t *testing.T, owner *testOwner) *vault_program.VaultStateAccount {
	info, err := e.bank.GetAccountInfo(context.Background(), owner.addresses.State)
	require.NoError(t, err)
	assert.EqualValues(t, vault_program.PROGRAM_ID, info.Owner)

	var state vault_program.VaultStateAccount
	require.NoError(t, state.Unmarshal(info.Data))
	return &state
}

func assertProgramError(t *testing.T, expected vault_program.ProgramError, err error) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.ErrorAs(t, err, &txErr)
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 0, txErr.InstructionError().Index)

	actual, ok := vault_program.ErrorFromTransactionError(err)
	require.True(t, ok, "not a vault program error: %v", err)
	assert.Equal(t, expected, actual)
}

func TestInitialize_HappyPath(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)

	require.NoError(t, env.initialize(t, owner))

	state := env.getState(t, owner)
	assert.Equal(t, owner.addresses.StateBump, state.StateBump)
	assert.Equal(t, owner.addresses.VaultBump, state.VaultBump)

	info, err := env.bank.GetAccountInfo(context.Background(), owner.addresses.State)
	require.NoError(t, err)
	assert.EqualValues(t, reservation, info.Lamports)
	assert.Len(t, info.Data, vault_program.VaultStateAccountSize)

	assert.EqualValues(t, 10*lamportsPerSol-reservation-fee, env.balance(t, owner.public))
	env.assertAbsent(t, owner.addresses.Vault)
}

func TestInitialize_AlreadyInitialized(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)

	require.NoError(t, env.initialize(t, owner))
	balance := env.balance(t, owner.public)
	state := env.getState(t, owner)

	assertProgramError(t, vault_program.ErrAlreadyInitialized, env.initialize(t, owner))

	// Failed transactions are not charged and change nothing
	assert.Equal(t, balance, env.balance(t, owner.public))
	assert.Equal(t, state, env.getState(t, owner))
	assert.EqualValues(t, reservation, env.balance(t, owner.addresses.State))
}

func TestInitialize_PrefundedState(t *testing.T) {
	for _, tc := range []struct {
		name     string
		prefund  uint64
		expected uint64
		charged  uint64
	}{
		{"dust", 1, reservation, reservation - 1},
		{"partially funded", reservation / 2, reservation, reservation - reservation/2},
		{"fully funded", reservation, reservation, 0},
		{"overfunded", 2 * reservation, 2 * reservation, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t)
			owner := env.newOwner(t, 10*lamportsPerSol)
			other := env.newOwner(t, 10*lamportsPerSol)

			env.transfer(t, other, owner.addresses.State, tc.prefund)

			require.NoError(t, env.initialize(t, owner))

			state := env.getState(t, owner)
			assert.Equal(t, owner.addresses.StateBump, state.StateBump)
			assert.Equal(t, owner.addresses.VaultBump, state.VaultBump)
			assert.EqualValues(t, tc.expected, env.balance(t, owner.addresses.State))
			assert.EqualValues(t, 10*lamportsPerSol-tc.charged-fee, env.balance(t, owner.public))

			require.NoError(t, env.deposit(t, owner, lamportsPerSol))
			require.NoError(t, env.withdraw(t, owner, lamportsPerSol))
			require.NoError(t, env.close(t, owner))
			env.assertAbsent(t, owner.addresses.State)
		})
	}
}

func TestInitialize_PrefundedAfterClose(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	other := env.newOwner(t, 10*lamportsPerSol)

	require.NoError(t, env.initialize(t, owner))
	require.NoError(t, env.close(t, owner))
	env.assertAbsent(t, owner.addresses.State)

	env.transfer(t, other, owner.addresses.State, 1)

	require.NoError(t, env.initialize(t, owner))
	env.getState(t, owner)
	assert.EqualValues(t, reservation, env.balance(t, owner.addresses.State))
}

func TestInitialize_PrefundedInsufficientFunds(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, fee+reservation/2-1)
	other := env.newOwner(t, 10*lamportsPerSol)

	env.transfer(t, other, owner.addresses.State, reservation/2)

	assertProgramError(t, vault_program.ErrInsufficientFunds, env.initialize(t, owner))

	info, err := env.bank.GetAccountInfo(context.Background(), owner.addresses.State)
	require.NoError(t, err)
	assert.EqualValues(t, bank.SystemProgramID, info.Owner)
	assert.Empty(t, info.Data)
	assert.EqualValues(t, reservation/2, info.Lamports)
}

func TestInitialize_AddressMismatch(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	other := env.newOwner(t, 10*lamportsPerSol)

	for _, addresses := range []*vault_program.Addresses{
		{State: other.addresses.State, Vault: owner.addresses.Vault},
		{State: owner.addresses.State, Vault: other.addresses.Vault},
		{State: testutil.GenerateSolanaKeys(t, 1)[0], Vault: owner.addresses.Vault},
	} {
		ix := vault_program.NewInitializeInstruction(&vault_program.InitializeInstructionAccounts{
			Signer:     owner.public,
			Vault:      addresses.Vault,
			VaultState: addresses.State,
		}, &vault_program.InitializeInstructionArgs{})

		_, err := testutil.SubmitTransaction(t, env.bank, []ed25519.PrivateKey{owner.key}, ix.ToLegacyInstruction())
		assertProgramError(t, vault_program.ErrAddressMismatch, err)
	}

	assert.EqualValues(t, 10*lamportsPerSol, env.balance(t, owner.public))
	env.assertAbsent(t, owner.addresses.State)
}

func TestInitialize_Unauthorized(t *testing.T) {
	env := setup(t)
	payer := env.newOwner(t, 10*lamportsPerSol)
	owner := env.newOwner(t, 10*lamportsPerSol)

	ix := vault_program.NewInitializeInstruction(&vault_program.InitializeInstructionAccounts{
		Signer:     owner.public,
		Vault:      owner.addresses.Vault,
		VaultState: owner.addresses.State,
	}, &vault_program.InitializeInstructionArgs{})
	ix.Accounts[vault_program.AccountIndexSigner].IsSigner = false

	_, err := testutil.SubmitTransaction(t, env.bank, []ed25519.PrivateKey{payer.key}, ix.ToLegacyInstruction())
	assertProgramError(t, vault_program.ErrUnauthorized, err)

	env.assertAbsent(t, owner.addresses.State)
}

func TestInitialize_InsufficientFunds(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, fee+reservation-1)

	assertProgramError(t, vault_program.ErrInsufficientFunds, env.initialize(t, owner))

	assert.EqualValues(t, fee+reservation-1, env.balance(t, owner.public))
	env.assertAbsent(t, owner.addresses.State)
}

func TestDeposit_HappyPath(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	require.NoError(t, env.initialize(t, owner))

	before := env.balance(t, owner.public)
	require.NoError(t, env.deposit(t, owner, lamportsPerSol))
	assert.EqualValues(t, lamportsPerSol, env.balance(t, owner.addresses.Vault))
	assert.EqualValues(t, before-lamportsPerSol-fee, env.balance(t, owner.public))

	require.NoError(t, env.deposit(t, owner, 1))
	assert.EqualValues(t, lamportsPerSol+1, env.balance(t, owner.addresses.Vault))

	// The vault stays a plain system account
	info, err := env.bank.GetAccountInfo(context.Background(), owner.addresses.Vault)
	require.NoError(t, err)
	assert.EqualValues(t, bank.SystemProgramID, info.Owner)
	assert.Empty(t, info.Data)
}

func TestDeposit_InvalidAmount(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	require.NoError(t, env.initialize(t, owner))

	assertProgramError(t, vault_program.ErrInvalidAmount, env.deposit(t, owner, 0))
	env.assertAbsent(t, owner.addresses.Vault)
}

func TestDeposit_InsufficientFunds(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, lamportsPerSol)
	require.NoError(t, env.initialize(t, owner))

	balance := env.balance(t, owner.public)
	assertProgramError(t, vault_program.ErrInsufficientFunds, env.deposit(t, owner, balance))
	assert.Equal(t, balance, env.balance(t, owner.public))
	env.assertAbsent(t, owner.addresses.Vault)

	// Everything left after the fee can be deposited
	require.NoError(t, env.deposit(t, owner, balance-fee))
	assert.Equal(t, balance-fee, env.balance(t, owner.addresses.Vault))
	env.assertAbsent(t, owner.public)
}

func TestDeposit_StateNotInitialized(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)

	assertProgramError(t, vault_program.ErrStateNotInitialized, env.deposit(t, owner, lamportsPerSol))
	assertProgramError(t, vault_program.ErrStateNotInitialized, env.withdraw(t, owner, lamportsPerSol))
	assertProgramError(t, vault_program.ErrStateNotInitialized, env.close(t, owner))

	assert.EqualValues(t, 10*lamportsPerSol, env.balance(t, owner.public))
}

func TestDeposit_OtherOwnersVault(t *testing.T) {
	env := setup(t)
	victim := env.newOwner(t, 10*lamportsPerSol)
	attacker := env.newOwner(t, 10*lamportsPerSol)

	require.NoError(t, env.initialize(t, victim))
	require.NoError(t, env.deposit(t, victim, lamportsPerSol))

	impersonated := &testOwner{
		key:       attacker.key,
		public:    attacker.public,
		addresses: victim.addresses,
	}

	assertProgramError(t, vault_program.ErrUnauthorized, env.deposit(t, impersonated, 1))
	assertProgramError(t, vault_program.ErrUnauthorized, env.withdraw(t, impersonated, lamportsPerSol))
	assertProgramError(t, vault_program.ErrUnauthorized, env.close(t, impersonated))

	assert.EqualValues(t, lamportsPerSol, env.balance(t, victim.addresses.Vault))
	assert.EqualValues(t, reservation, env.balance(t, victim.addresses.State))
	assert.EqualValues(t, 10*lamportsPerSol, env.balance(t, attacker.public))
}

func TestDeposit_VaultMismatch(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	require.NoError(t, env.initialize(t, owner))

	redirected := &testOwner{
		key:    owner.key,
		public: owner.public,
		addresses: &vault_program.Addresses{
			State: owner.addresses.State,
			Vault: testutil.GenerateSolanaKeys(t, 1)[0],
		},
	}

	assertProgramError(t, vault_program.ErrAddressMismatch, env.deposit(t, redirected, lamportsPerSol))
	assertProgramError(t, vault_program.ErrAddressMismatch, env.withdraw(t, redirected, 1))
	assertProgramError(t, vault_program.ErrAddressMismatch, env.close(t, redirected))
	env.assertAbsent(t, redirected.addresses.Vault)
}

func TestWithdraw_HappyPath(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	require.NoError(t, env.initialize(t, owner))
	require.NoError(t, env.deposit(t, owner, 2*lamportsPerSol))

	before := env.balance(t, owner.public)
	require.NoError(t, env.withdraw(t, owner, lamportsPerSol/4))
	assert.EqualValues(t, 2*lamportsPerSol-lamportsPerSol/4, env.balance(t, owner.addresses.Vault))
	assert.EqualValues(t, before+lamportsPerSol/4-fee, env.balance(t, owner.public))

	// Draining the vault removes it from the ledger
	require.NoError(t, env.withdraw(t, owner, 2*lamportsPerSol-lamportsPerSol/4))
	env.assertAbsent(t, owner.addresses.Vault)

	// The state survives an empty vault
	assert.EqualValues(t, reservation, env.balance(t, owner.addresses.State))
}

func TestWithdraw_InsufficientVaultBalance(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	require.NoError(t, env.initialize(t, owner))

	assertProgramError(t, vault_program.ErrInsufficientVaultBalance, env.withdraw(t, owner, 1))

	require.NoError(t, env.deposit(t, owner, lamportsPerSol))
	assertProgramError(t, vault_program.ErrInsufficientVaultBalance, env.withdraw(t, owner, lamportsPerSol+1))
	assert.EqualValues(t, lamportsPerSol, env.balance(t, owner.addresses.Vault))

	assertProgramError(t, vault_program.ErrInvalidAmount, env.withdraw(t, owner, 0))
}

func TestClose_HappyPath(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	require.NoError(t, env.initialize(t, owner))
	require.NoError(t, env.deposit(t, owner, 3*lamportsPerSol))

	before := env.balance(t, owner.public)
	require.NoError(t, env.close(t, owner))

	env.assertAbsent(t, owner.addresses.Vault)
	env.assertAbsent(t, owner.addresses.State)
	assert.EqualValues(t, before+3*lamportsPerSol+reservation-fee, env.balance(t, owner.public))

	// Closed is indistinguishable from uninitialized
	require.NoError(t, env.initialize(t, owner))
	assert.Equal(t, owner.addresses.StateBump, env.getState(t, owner).StateBump)
}

func TestClose_EmptyVault(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	require.NoError(t, env.initialize(t, owner))

	require.NoError(t, env.close(t, owner))
	env.assertAbsent(t, owner.addresses.State)
	assert.EqualValues(t, 10*lamportsPerSol-2*fee, env.balance(t, owner.public))
}

func TestScenario_DepositWithdrawClose(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)

	require.NoError(t, env.initialize(t, owner))
	require.NoError(t, env.deposit(t, owner, lamportsPerSol))
	assert.EqualValues(t, lamportsPerSol, env.balance(t, owner.addresses.Vault))

	require.NoError(t, env.withdraw(t, owner, lamportsPerSol/2))
	assert.EqualValues(t, lamportsPerSol/2, env.balance(t, owner.addresses.Vault))

	require.NoError(t, env.close(t, owner))
	env.assertAbsent(t, owner.addresses.Vault)
	env.assertAbsent(t, owner.addresses.State)

	// Only the four transaction fees are lost
	assert.EqualValues(t, 10*lamportsPerSol-4*fee, env.balance(t, owner.public))
}

func TestRandomSequences(t *testing.T) {
	env := setup(t)
	rng := rand.New(rand.NewSource(1234))

	for i := 0; i < 5; i++ {
		owner := env.newOwner(t, 10*lamportsPerSol)
		require.NoError(t, env.initialize(t, owner))

		var expected uint64
		for j := 0; j < 25; j++ {
			amount := uint64(rng.Int63n(lamportsPerSol/10)) + 1

			if rng.Intn(2) == 0 {
				require.NoError(t, env.deposit(t, owner, amount))
				expected += amount
			} else {
				err := env.withdraw(t, owner, amount)
				if amount > expected {
					assertProgramError(t, vault_program.ErrInsufficientVaultBalance, err)
				} else {
					require.NoError(t, err)
					expected -= amount
				}
			}

			assert.Equal(t, expected, env.balance(t, owner.addresses.Vault))
		}

		before := env.balance(t, owner.public)
		require.NoError(t, env.close(t, owner))
		assert.Equal(t, before+expected+reservation-fee, env.balance(t, owner.public))
	}
}

func TestProcess_InvalidInstruction(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)

	ix := vault_program.NewDepositInstruction(&vault_program.DepositInstructionAccounts{
		Signer:     owner.public,
		Vault:      owner.addresses.Vault,
		VaultState: owner.addresses.State,
	}, &vault_program.DepositInstructionArgs{Amount: 1})

	unknown := ix
	unknown.Data = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	_, err := testutil.SubmitTransaction(t, env.bank, []ed25519.PrivateKey{owner.key}, unknown.ToLegacyInstruction())
	assertProgramError(t, vault_program.ErrInvalidInstruction, err)

	truncated := ix
	truncated.Data = ix.Data[:10]
	_, err = testutil.SubmitTransaction(t, env.bank, []ed25519.PrivateKey{owner.key}, truncated.ToLegacyInstruction())
	assertProgramError(t, vault_program.ErrInvalidInstruction, err)

	missingAccounts := ix
	missingAccounts.Accounts = ix.Accounts[:3]
	_, err = testutil.SubmitTransaction(t, env.bank, []ed25519.PrivateKey{owner.key}, missingAccounts.ToLegacyInstruction())
	assertProgramError(t, vault_program.ErrInvalidAccounts, err)
}

func TestTransaction_Atomic(t *testing.T) {
	env := setup(t)
	owner := env.newOwner(t, 10*lamportsPerSol)
	require.NoError(t, env.initialize(t, owner))
	require.NoError(t, env.deposit(t, owner, lamportsPerSol))

	deposit := vault_program.NewDepositInstruction(&vault_program.DepositInstructionAccounts{
		Signer:     owner.public,
		Vault:      owner.addresses.Vault,
		VaultState: owner.addresses.State,
	}, &vault_program.DepositInstructionArgs{Amount: lamportsPerSol})
	withdraw := vault_program.NewWithdrawInstruction(&vault_program.WithdrawInstructionAccounts{
		Signer:     owner.public,
		Vault:      owner.addresses.Vault,
		VaultState: owner.addresses.State,
	}, &vault_program.WithdrawInstructionArgs{Amount: 3 * lamportsPerSol})

	before := env.balance(t, owner.public)
	_, err := testutil.SubmitTransaction(
		t,
		env.bank,
		[]ed25519.PrivateKey{owner.key},
		deposit.ToLegacyInstruction(),
		withdraw.ToLegacyInstruction(),
	)
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 1, txErr.InstructionError().Index)

	code, ok := vault_program.ErrorFromTransactionError(err)
	require.True(t, ok)
	assert.Equal(t, vault_program.ErrInsufficientVaultBalance, code)

	// The successful deposit in the same transaction is rolled back
	assert.Equal(t, before, env.balance(t, owner.public))
	assert.EqualValues(t, lamportsPerSol, env.balance(t, owner.addresses.Vault))
}
