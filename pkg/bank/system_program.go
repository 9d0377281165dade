package bank

import (
	"crypto/ed25519"
	"math"

	"github.com/code-payments/code-vault/pkg/solana"
	"github.com/code-payments/code-vault/pkg/solana/system"
)

// Errors returned by the native system program.
//
// Reference: https://github.com/solana-labs/solana/blob/v1.17.0/sdk/program/src/system_instruction.rs#L51
const (
	SystemErrAccountAlreadyInUse        solana.CustomError = 0
	SystemErrResultWithNegativeLamports solana.CustomError = 1
	SystemErrInvalidAccountDataLength   solana.CustomError = 3
)

// MaxPermittedDataLength is the largest account the system program allocates
const MaxPermittedDataLength = 10 * 1024 * 1024

type systemProgram struct{}

func (p *systemProgram) ID() ed25519.PublicKey {
	return SystemProgramID
}

func (p *systemProgram) Process(ctx *InvokeContext, accounts []*InstructionAccount, data []byte) error {
	command, err := system.GetCommand(data)
	if err != nil {
		return solana.InstructionErrorInvalidInstructionData
	}

	switch command {
	case system.CommandCreateAccount:
		var args system.CreateAccountArgs
		if err := args.Unmarshal(data); err != nil {
			return solana.InstructionErrorInvalidInstructionData
		}
		if len(accounts) < 2 {
			return solana.InstructionErrorNotEnoughAccountKeys
		}
		return p.createAccount(ctx, accounts[0], accounts[1], &args)
	case system.CommandAssign:
		var args system.AssignArgs
		if err := args.Unmarshal(data); err != nil {
			return solana.InstructionErrorInvalidInstructionData
		}
		if len(accounts) < 1 {
			return solana.InstructionErrorNotEnoughAccountKeys
		}
		return p.assign(ctx, accounts[0], args.Owner)
	case system.CommandTransfer:
		var args system.TransferArgs
		if err := args.Unmarshal(data); err != nil {
			return solana.InstructionErrorInvalidInstructionData
		}
		if len(accounts) < 2 {
			return solana.InstructionErrorNotEnoughAccountKeys
		}
		return p.transfer(ctx, accounts[0], accounts[1], args.Lamports)
	case system.CommandAllocate:
		var args system.AllocateArgs
		if err := args.Unmarshal(data); err != nil {
			return solana.InstructionErrorInvalidInstructionData
		}
		if len(accounts) < 1 {
			return solana.InstructionErrorNotEnoughAccountKeys
		}
		return p.allocate(ctx, accounts[0], args.Size)
	default:
		return solana.InstructionErrorInvalidInstructionData
	}
}

func (p *systemProgram) createAccount(ctx *InvokeContext, funder, to *InstructionAccount, args *system.CreateAccountArgs) error {
	if to.Lamports > 0 {
		ctx.Log("Create Account: account already in use")
		return SystemErrAccountAlreadyInUse
	}

	if err := p.allocate(ctx, to, args.Size); err != nil {
		return err
	}

	if err := p.assign(ctx, to, args.Owner); err != nil {
		return err
	}

	return p.transfer(ctx, funder, to, args.Lamports)
}

func (p *systemProgram) allocate(ctx *InvokeContext, account *InstructionAccount, size uint64) error {
	if !account.IsSigner {
		ctx.Log("Allocate: account must sign")
		return solana.InstructionErrorMissingRequiredSignature
	}

	if len(account.Data) > 0 || !account.IsOwnedBy(SystemProgramID) {
		ctx.Log("Allocate: account already in use")
		return SystemErrAccountAlreadyInUse
	}

	if size > MaxPermittedDataLength {
		ctx.Log("Allocate: requested %d, max allowed %d", size, MaxPermittedDataLength)
		return SystemErrInvalidAccountDataLength
	}

	account.Data = make([]byte, size)
	return nil
}

func (p *systemProgram) assign(ctx *InvokeContext, account *InstructionAccount, owner ed25519.PublicKey) error {
	if account.IsOwnedBy(owner) {
		return nil
	}

	if !account.IsSigner {
		ctx.Log("Assign: account must sign")
		return solana.InstructionErrorMissingRequiredSignature
	}

	account.Owner = append(ed25519.PublicKey{}, owner...)
	return nil
}

func (p *systemProgram) transfer(ctx *InvokeContext, from, to *InstructionAccount, lamports uint64) error {
	if !from.IsSigner {
		ctx.Log("Transfer: from must sign")
		return solana.InstructionErrorMissingRequiredSignature
	}

	if len(from.Data) > 0 || !from.IsOwnedBy(SystemProgramID) {
		ctx.Log("Transfer: from must not carry data")
		return solana.InstructionErrorInvalidArgument
	}

	if lamports > from.Lamports {
		ctx.Log("Transfer: insufficient lamports %d, need %d", from.Lamports, lamports)
		return SystemErrResultWithNegativeLamports
	}

	if to.Lamports > math.MaxUint64-lamports {
		return solana.InstructionErrorArithmeticOverflow
	}

	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}
