package vault

import (
	"crypto/ed25519"

)

var DepositInstructionDiscriminator = []byte{
	242, 35, 198, 137, 82, 225, 242, 182,
}

const (
	DepositInstructionArgsSize = (8) // amount
)

type DepositInstructionArgs struct {
	Amount uint64
}

type DepositInstructionAccounts struct {
	Signer     ed25519.PublicKey
	Vault      ed25519.PublicKey
	VaultState ed25519.PublicKey
}

func NewDepositInstruction(
	accounts *DepositInstructionAccounts,
	args *DepositInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(DepositInstructionDiscriminator)+
			DepositInstructionArgsSize)

	putDiscriminator(data, DepositInstructionDiscriminator, &offset)
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

func DepositInstructionArgsFromBinary(data []byte) (*DepositInstructionArgs, error) {
	if len(data) < len(DepositInstructionDiscriminator)+DepositInstructionArgsSize {
		return nil, ErrInvalidInstructionData
	}

	offset := len(DepositInstructionDiscriminator)

	var args DepositInstructionArgs
	getUint64(data, &args.Amount, &offset)

	return &args, nil
}
