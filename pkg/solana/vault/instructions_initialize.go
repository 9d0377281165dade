package vault

import (
	"crypto/ed25519"

)

var InitializeInstructionDiscriminator = []byte{
	175, 175, 109, 31, 13, 152, 155, 237,
}

const (
	InitializeInstructionArgsSize = 0
)

type InitializeInstructionArgs struct {
}

type InitializeInstructionAccounts struct {
	Signer     ed25519.PublicKey
	Vault      ed25519.PublicKey
	VaultState ed25519.PublicKey
}

func NewInitializeInstruction(
	accounts *InitializeInstructionAccounts,
	args *InitializeInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(InitializeInstructionDiscriminator)+
			InitializeInstructionArgsSize)

	putDiscriminator(data, InitializeInstructionDiscriminator, &offset)

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
				IsWritable: false,
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

func InitializeInstructionArgsFromBinary(data []byte) (*InitializeInstructionArgs, error) {
	if len(data) < len(InitializeInstructionDiscriminator)+InitializeInstructionArgsSize {
		return nil, ErrInvalidInstructionData
	}

	return &InitializeInstructionArgs{}, nil
}
