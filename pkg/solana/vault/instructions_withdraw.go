package vault

import (
	"crypto/ed25519"

)

var WithdrawInstructionDiscriminator = []byte{
	183, 18, 70, 156, 148, 109, 161, 34,
}

const (
	WithdrawInstructionArgsSize = (8) // amount
)

type WithdrawInstructionArgs struct {
	Amount uint64
}

type WithdrawInstructionAccounts struct {
	Signer     ed25519.PublicKey
	Vault      ed25519.PublicKey
	VaultState ed25519.PublicKey
}

func NewWithdrawInstruction(
	accounts *WithdrawInstructionAccounts,
	args *WithdrawInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(WithdrawInstructionDiscriminator)+
			WithdrawInstructionArgsSize)

	putDiscriminator(data, WithdrawInstructionDiscriminator, &offset)
	putUint64(data, args.Amount, &offset)

	return Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.Signer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.VaultState,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func WithdrawInstructionArgsFromBinary(data []byte) (*WithdrawInstructionArgs, error) {
	if len(data) < len(WithdrawInstructionDiscriminator)+WithdrawInstructionArgsSize {
		return nil, ErrInvalidInstructionData
	}

	offset := len(WithdrawInstructionDiscriminator)

	var args WithdrawInstructionArgs
	getUint64(data, &args.Amount, &offset)

	return &args, nil
}
