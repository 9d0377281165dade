package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"sort"
)

var (
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta is an account referenced by an instruction, along with the
// privileges the instruction requires of it.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	isPayer    bool
	isProgram  bool
}

// NewAccountMeta returns a writable AccountMeta
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta returns a readonly AccountMeta
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey: pub,
		IsSigner:  isSigner,
	}
}

// rank orders accounts within a message: the payer, then writable signers,
// readonly signers, writable accounts, readonly accounts and finally programs.
func (m AccountMeta) rank() int {
	switch {
	case m.isPayer:
		return 0
	case m.isProgram:
		return 5
	case m.IsSigner && m.IsWritable:
		return 1
	case m.IsSigner:
		return 2
	case m.IsWritable:
		return 3
	default:
		return 4
	}
}

// sortAccountMetas sorts accounts into message order. Ties are broken by
// public key so compilation is deterministic.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func sortAccountMetas(accounts []AccountMeta) {
	sort.Slice(accounts, func(i, j int) bool {
		ri, rj := accounts[i].rank(), accounts[j].rank()
		if ri != rj {
			return ri < rj
		}
		return bytes.Compare(accounts[i].PublicKey, accounts[j].PublicKey) < 0
	})
}

// mergeAccountMetas collapses repeated accounts into a single entry carrying
// the union of their privileges. First occurrence order is preserved.
func mergeAccountMetas(accounts []AccountMeta) []AccountMeta {
	merged := make([]AccountMeta, 0, len(accounts))
	positions := make(map[string]int, len(accounts))

	for _, account := range accounts {
		pos, ok := positions[string(account.PublicKey)]
		if !ok {
			positions[string(account.PublicKey)] = len(merged)
			merged = append(merged, account)
			continue
		}

		existing := &merged[pos]
		existing.IsSigner = existing.IsSigner || account.IsSigner
		existing.IsWritable = existing.IsWritable || account.IsWritable
		existing.isPayer = existing.isPayer || account.isPayer
	}

	return merged
}

// Instruction is a single program invocation before it is compiled into a
// message.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction is an Instruction whose program and accounts are
// indexes into the message's account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
