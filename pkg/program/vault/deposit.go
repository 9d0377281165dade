package vault

import (
	"github.com/code-payments/code-vault/pkg/bank"
	"github.com/code-payments/code-vault/pkg/solana/system"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

func (p *program) deposit(ctx *bank.InvokeContext, accounts *instructionAccounts, amount uint64) error {
	if amount == 0 {
		return fail(vault_program.ErrInvalidAmount)
	}

	if _, err := loadState(accounts); err != nil {
		return err
	}

	if accounts.signer.Lamports < amount {
		ctx.Log("Signer holds %d lamports, needs %d", accounts.signer.Lamports, amount)
		return fail(vault_program.ErrInsufficientFunds)
	}

	return ctx.Invoke(system.Transfer(
		accounts.signer.Address,
		accounts.vault.Address,
		amount,
	))
}
