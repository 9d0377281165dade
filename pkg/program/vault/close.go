package vault

import (
	"math"

	"github.com/code-payments/code-vault/pkg/bank"
	"github.com/code-payments/code-vault/pkg/solana"
	"github.com/code-payments/code-vault/pkg/solana/system"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

func (p *program) close(ctx *bank.InvokeContext, accounts *instructionAccounts) error {
	state, err := loadState(accounts)
	if err != nil {
		return err
	}

	if balance := accounts.vault.Lamports; balance > 0 {
		err = ctx.Invoke(
			system.Transfer(
				accounts.vault.Address,
				accounts.signer.Address,
				balance,
			),
			vault_program.VaultSignerSeeds(accounts.state.Address, state.VaultBump),
		)
		if err != nil {
			return err
		}
	}

	reservation := accounts.state.Lamports
	if accounts.signer.Lamports > math.MaxUint64-reservation {
		return solana.InstructionErrorArithmeticOverflow
	}

	accounts.signer.Lamports += reservation
	accounts.state.Lamports = 0
	accounts.state.Data = nil
	accounts.state.Owner = bank.SystemProgramID

	ctx.Log("Closed vault, returned %d lamports of reservation", reservation)
	return nil
}
