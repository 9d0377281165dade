package vault

import (
	"github.com/code-payments/code-vault/pkg/bank"
	"github.com/code-payments/code-vault/pkg/solana/system"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

func (p *program) withdraw(ctx *bank.InvokeContext, accounts *instructionAccounts, amount uint64) error {
	if amount == 0 {
		return fail(vault_program.ErrInvalidAmount)
	}

	state, err := loadState(accounts)
	if err != nil {
		return err
	}

	if accounts.vault.Lamports < amount {
		ctx.Log("Vault holds %d lamports, requested %d", accounts.vault.Lamports, amount)
		return fail(vault_program.ErrInsufficientVaultBalance)
	}

	return ctx.Invoke(
		system.Transfer(
			accounts.vault.Address,
			accounts.signer.Address,
			amount,
		),
		vault_program.VaultSignerSeeds(accounts.state.Address, state.VaultBump),
	)
}
