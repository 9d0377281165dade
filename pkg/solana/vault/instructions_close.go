package vault

import (
	"crypto/ed25519"

)

var CloseInstructionDiscriminator = []byte{
	98, 165, 201, 177, 108, 65, 206, 96,
}

const (
	CloseInstructionArgsSize = 0
)

type CloseInstructionArgs struct {
}

type CloseInstructionAccounts struct {
	Signer     ed25519.PublicKey
	Vault      ed25519.PublicKey
	VaultState ed25519.PublicKey
}

func NewCloseInstruction(
	accounts *CloseInstructionAccounts,
	args *CloseInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(CloseInstructionDiscriminator)+
			CloseInstructionArgsSize)

	putDiscriminator(data, CloseInstructionDiscriminator, &offset)

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
				IsWritable: true,
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

func CloseInstructionArgsFromBinary(data []byte) (*CloseInstructionArgs, error) {
	if len(data) < len(CloseInstructionDiscriminator)+CloseInstructionArgsSize {
		return nil, ErrInvalidInstructionData
	}

	return &CloseInstructionArgs{}, nil
}
