package vault

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault/pkg/bank"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

type program struct {
	log *logrus.Entry
}

// New returns the vault program for registration with a bank.Bank
func New() bank.Program {
	return &program{
		log: logrus.StandardLogger().WithField("type", "program/vault"),
	}
}

// ID implements bank.Program.ID
func (p *program) ID() ed25519.PublicKey {
	return vault_program.PROGRAM_ID
}

// Process implements bank.Program.Process
func (p *program) Process(ctx *bank.InvokeContext, accounts []*bank.InstructionAccount, data []byte) error {
	instructionType, err := vault_program.GetInstructionType(data)
	if err != nil {
		return fail(vault_program.ErrInvalidInstruction)
	}

	instructionAccounts, err := getInstructionAccounts(accounts)
	if err != nil {
		return err
	}

	log := p.log.WithFields(logrus.Fields{
		"instruction": instructionType.String(),
		"signer":      base58.Encode(instructionAccounts.signer.Address),
	})

	switch instructionType {
	case vault_program.InstructionTypeInitialize:
		if _, decodeErr := vault_program.InitializeInstructionArgsFromBinary(data); decodeErr != nil {
			return fail(vault_program.ErrInvalidInstruction)
		}

		ctx.Log("Instruction: Initialize")
		err = p.initialize(ctx, instructionAccounts)
	case vault_program.InstructionTypeDeposit:
		args, decodeErr := vault_program.DepositInstructionArgsFromBinary(data)
		if decodeErr != nil {
			return fail(vault_program.ErrInvalidInstruction)
		}

		ctx.Log("Instruction: Deposit")
		err = p.deposit(ctx, instructionAccounts, args.Amount)
	case vault_program.InstructionTypeWithdraw:
		args, decodeErr := vault_program.WithdrawInstructionArgsFromBinary(data)
		if decodeErr != nil {
			return fail(vault_program.ErrInvalidInstruction)
		}

		ctx.Log("Instruction: Withdraw")
		err = p.withdraw(ctx, instructionAccounts, args.Amount)
	case vault_program.InstructionTypeClose:
		if _, decodeErr := vault_program.CloseInstructionArgsFromBinary(data); decodeErr != nil {
			return fail(vault_program.ErrInvalidInstruction)
		}

		ctx.Log("Instruction: Close")
		err = p.close(ctx, instructionAccounts)
	default:
		return fail(vault_program.ErrInvalidInstruction)
	}

	if err != nil {
		log.WithError(err).Debug("instruction failed")
	}
	return err
}

type instructionAccounts struct {
	signer *bank.InstructionAccount
	vault  *bank.InstructionAccount
	state  *bank.InstructionAccount
}

func getInstructionAccounts(accounts []*bank.InstructionAccount) (*instructionAccounts, error) {
	if len(accounts) < vault_program.NumInstructionAccounts {
		return nil, fail(vault_program.ErrInvalidAccounts)
	}

	if !bytes.Equal(accounts[vault_program.AccountIndexSystemProgram].Address, bank.SystemProgramID) {
		return nil, fail(vault_program.ErrInvalidAccounts)
	}

	return &instructionAccounts{
		signer: accounts[vault_program.AccountIndexSigner],
		vault:  accounts[vault_program.AccountIndexVault],
		state:  accounts[vault_program.AccountIndexVaultState],
	}, nil
}

// loadState validates the state and vault accounts of an initialized vault
// against the signer, using the bumps pinned in the state record.
func loadState(accounts *instructionAccounts) (*vault_program.VaultStateAccount, error) {
	if !accounts.signer.IsSigner {
		return nil, fail(vault_program.ErrUnauthorized)
	}

	if !accounts.state.IsOwnedBy(vault_program.PROGRAM_ID) {
		return nil, fail(vault_program.ErrStateNotInitialized)
	}

	var state vault_program.VaultStateAccount
	if err := state.Unmarshal(accounts.state.Data); err != nil {
		return nil, fail(vault_program.ErrStateNotInitialized)
	}

	// The state of another owner never derives from this signer
	expectedState, err := vault_program.GetStateAddressWithBump(accounts.signer.Address, state.StateBump)
	if err != nil || !bytes.Equal(expectedState, accounts.state.Address) {
		return nil, fail(vault_program.ErrUnauthorized)
	}

	expectedVault, err := vault_program.GetVaultAddressWithBump(accounts.state.Address, state.VaultBump)
	if err != nil || !bytes.Equal(expectedVault, accounts.vault.Address) {
		return nil, fail(vault_program.ErrAddressMismatch)
	}

	return &state, nil
}

// fail converts a program error into the code the bank reports
func fail(err vault_program.ProgramError) error {
	return err.ToCustomError()
}
