package vault

import (
	"crypto/ed25519"

	"github.com/code-payments/code-vault/pkg/solana"
)

var (
	StatePrefix = []byte("state")
	VaultPrefix = []byte("vault")
)

// GetStateAddress derives the address of the owner's VaultState account.
func GetStateAddress(owner ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		StatePrefix,
		owner,
	)
}

// GetVaultAddress derives the address of the lamport holding vault that
// belongs to a VaultState account.
func GetVaultAddress(state ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		VaultPrefix,
		state,
	)
}

// GetStateAddressWithBump recreates the VaultState address from a persisted bump.
func GetStateAddressWithBump(owner ed25519.PublicKey, bump uint8) (ed25519.PublicKey, error) {
	return solana.CreateProgramAddressWithBump(PROGRAM_ID, bump, StatePrefix, owner)
}

// GetVaultAddressWithBump recreates the vault address from a persisted bump.
func GetVaultAddressWithBump(state ed25519.PublicKey, bump uint8) (ed25519.PublicKey, error) {
	return solana.CreateProgramAddressWithBump(PROGRAM_ID, bump, VaultPrefix, state)
}

// StateSignerSeeds are the seeds the program signs with on behalf of a VaultState.
func StateSignerSeeds(owner ed25519.PublicKey, bump uint8) [][]byte {
	return [][]byte{StatePrefix, owner, {bump}}
}

// VaultSignerSeeds are the seeds the program signs with on behalf of a vault.
func VaultSignerSeeds(state ed25519.PublicKey, bump uint8) [][]byte {
	return [][]byte{VaultPrefix, state, {bump}}
}

// Addresses groups every derived address for a single owner.
type Addresses struct {
	Owner     ed25519.PublicKey
	State     ed25519.PublicKey
	StateBump uint8
	Vault     ed25519.PublicKey
	VaultBump uint8
}

// GetAddresses derives both the VaultState and vault addresses for an owner.
func GetAddresses(owner ed25519.PublicKey) (*Addresses, error) {
	state, stateBump, err := GetStateAddress(owner)
	if err != nil {
		return nil, err
	}

	vault, vaultBump, err := GetVaultAddress(state)
	if err != nil {
		return nil, err
	}

	return &Addresses{
		Owner:     owner,
		State:     state,
		StateBump: stateBump,
		Vault:     vault,
		VaultBump: vaultBump,
	}, nil
}
