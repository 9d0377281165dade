package vault

import (
	"bytes"
)

type InstructionType uint8

const (
	InstructionTypeUnknown InstructionType = iota
	InstructionTypeInitialize
	InstructionTypeDeposit
	InstructionTypeWithdraw
	InstructionTypeClose
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeInitialize:
		return "initialize"
	case InstructionTypeDeposit:
		return "deposit"
	case InstructionTypeWithdraw:
		return "withdraw"
	case InstructionTypeClose:
		return "close"
	}

	return "unknown"
}

// GetInstructionType reads the 8 byte discriminator that prefixes instruction data.
func GetInstructionType(data []byte) (InstructionType, error) {
	if len(data) < 8 {
		return InstructionTypeUnknown, ErrInvalidInstructionData
	}

	var offset int
	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)

	switch {
	case bytes.Equal(discriminator, InitializeInstructionDiscriminator):
		return InstructionTypeInitialize, nil
	case bytes.Equal(discriminator, DepositInstructionDiscriminator):
		return InstructionTypeDeposit, nil
	case bytes.Equal(discriminator, WithdrawInstructionDiscriminator):
		return InstructionTypeWithdraw, nil
	case bytes.Equal(discriminator, CloseInstructionDiscriminator):
		return InstructionTypeClose, nil
	}

	return InstructionTypeUnknown, ErrInvalidInstructionData
}

// Every vault instruction takes the same four accounts in the same order.
const (
	AccountIndexSigner = iota
	AccountIndexVault
	AccountIndexVaultState
	AccountIndexSystemProgram

	NumInstructionAccounts
)
