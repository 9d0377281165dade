package vault

import (
	"bytes"

	"github.com/code-payments/code-vault/pkg/bank"
	"github.com/code-payments/code-vault/pkg/solana"
	"github.com/code-payments/code-vault/pkg/solana/system"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

func (p *program) initialize(ctx *bank.InvokeContext, accounts *instructionAccounts) error {
	if !accounts.signer.IsSigner {
		return fail(vault_program.ErrUnauthorized)
	}

	addresses, err := vault_program.GetAddresses(accounts.signer.Address)
	if err != nil {
		return fail(vault_program.ErrAddressMismatch)
	}

	if !bytes.Equal(addresses.State, accounts.state.Address) || !bytes.Equal(addresses.Vault, accounts.vault.Address) {
		return fail(vault_program.ErrAddressMismatch)
	}

	// Lamports alone don't make a vault. Anyone can transfer to the state
	// address, so only program ownership or allocated data count.
	if accounts.state.IsOwnedBy(vault_program.PROGRAM_ID) || len(accounts.state.Data) > 0 {
		return fail(vault_program.ErrAlreadyInitialized)
	}

	reservation := ctx.Rent().MinimumBalance(vault_program.VaultStateAccountSize)

	var topUp uint64
	if accounts.state.Lamports < reservation {
		topUp = reservation - accounts.state.Lamports
	}
	if accounts.signer.Lamports < topUp {
		ctx.Log("Signer holds %d lamports, needs %d", accounts.signer.Lamports, topUp)
		return fail(vault_program.ErrInsufficientFunds)
	}

	signerSeeds := vault_program.StateSignerSeeds(accounts.signer.Address, addresses.StateBump)

	if accounts.state.Lamports == 0 {
		err = ctx.Invoke(
			system.CreateAccount(
				accounts.signer.Address,
				addresses.State,
				vault_program.PROGRAM_ID,
				reservation,
				vault_program.VaultStateAccountSize,
			),
			signerSeeds,
		)
	} else {
		err = p.claimPrefundedState(ctx, accounts, topUp, signerSeeds)
	}
	if err != nil {
		return err
	}

	state := &vault_program.VaultStateAccount{
		VaultBump: addresses.VaultBump,
		StateBump: addresses.StateBump,
	}
	copy(accounts.state.Data, state.Marshal())

	ctx.Log("Initialized %s", state.String())
	return nil
}

// claimPrefundedState takes over a state address that already holds
// lamports, since CreateAccount rejects funded accounts.
func (p *program) claimPrefundedState(ctx *bank.InvokeContext, accounts *instructionAccounts, topUp uint64, signerSeeds [][]byte) error {
	steps := []solana.Instruction{
		system.Allocate(accounts.state.Address, vault_program.VaultStateAccountSize),
		system.Assign(accounts.state.Address, vault_program.PROGRAM_ID),
	}
	if topUp > 0 {
		steps = append([]solana.Instruction{
			system.Transfer(accounts.signer.Address, accounts.state.Address, topUp),
		}, steps...)
	}

	for _, ix := range steps {
		if err := ctx.Invoke(ix, signerSeeds); err != nil {
			return err
		}
	}

	return nil
}
