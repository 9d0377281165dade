package system

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
)

// ProgramKey is the address of the native system program, 11111111111111111111111111111111.
var ProgramKey [32]byte

// Command is the bincode enum discriminant that prefixes every system
// instruction.
type Command uint32

const (
	CommandCreateAccount Command = iota
	CommandAssign
	CommandTransfer
	// nolint:varcheck,deadcode,unused
	commandCreateAccountWithSeed
	// nolint:varcheck,deadcode,unused
	commandAdvanceNonceAccount
	// nolint:varcheck,deadcode,unused
	commandWithdrawNonceAccount
	// nolint:varcheck,deadcode,unused
	commandInitializeNonceAccount
	// nolint:varcheck,deadcode,unused
	commandAuthorizeNonceAccount
	CommandAllocate
)

const (
	createAccountDataSize = 4 + 2*8 + ed25519.PublicKeySize
	assignDataSize        = 4 + ed25519.PublicKeySize
	transferDataSize      = 4 + 8
	allocateDataSize      = 4 + 8
)

var (
	ErrInvalidCommand = errors.New("invalid system program command")
)

func (c Command) String() string {
	switch c {
	case CommandCreateAccount:
		return "create_account"
	case CommandAssign:
		return "assign"
	case CommandTransfer:
		return "transfer"
	case CommandAllocate:
		return "allocate"
	}
	return "unknown"
}

// GetCommand reads the command discriminant from raw instruction data.
func GetCommand(data []byte) (Command, error) {
	if len(data) < 4 {
		return 0, ErrInvalidCommand
	}

	return Command(binary.LittleEndian.Uint32(data)), nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   // Number of lamports to transfer to the new account
	//   lamports: u64,
	//   // Number of bytes of memory to allocate
	//   space: u64,
	//
	//   //Address of program that will own the new account
	//   owner: Pubkey,
	// }
	//
	return solana.NewInstruction(
		ProgramKey[:],
		CreateAccountArgs{Lamports: lamports, Size: size, Owner: owner}.Marshal(),
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type CreateAccountArgs struct {
	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func (a CreateAccountArgs) Marshal() []byte {
	data := make([]byte, createAccountDataSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandCreateAccount))
	binary.LittleEndian.PutUint64(data[4:], a.Lamports)
	binary.LittleEndian.PutUint64(data[4+8:], a.Size)
	copy(data[4+2*8:], a.Owner)
	return data
}

func (a *CreateAccountArgs) Unmarshal(data []byte) error {
	if err := checkData(data, CommandCreateAccount, createAccountDataSize); err != nil {
		return err
	}

	a.Lamports = binary.LittleEndian.Uint64(data[4:])
	a.Size = binary.LittleEndian.Uint64(data[4+8:])
	a.Owner = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(a.Owner, data[4+2*8:])
	return nil
}

// Assign returns an instruction that changes the owner of an account.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L74-L79
func Assign(address, owner ed25519.PublicKey) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Assigned account public key
	return solana.NewInstruction(
		ProgramKey[:],
		AssignArgs{Owner: owner}.Marshal(),
		solana.NewAccountMeta(address, true),
	)
}

type AssignArgs struct {
	Owner ed25519.PublicKey
}

func (a AssignArgs) Marshal() []byte {
	data := make([]byte, assignDataSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandAssign))
	copy(data[4:], a.Owner)
	return data
}

func (a *AssignArgs) Unmarshal(data []byte) error {
	if err := checkData(data, CommandAssign, assignDataSize); err != nil {
		return err
	}

	a.Owner = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(a.Owner, data[4:])
	return nil
}

// Transfer returns an instruction that moves lamports from a system owned
// account to any other account.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L81-L86
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	return solana.NewInstruction(
		ProgramKey[:],
		TransferArgs{Lamports: lamports}.Marshal(),
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type TransferArgs struct {
	Lamports uint64
}

func (a TransferArgs) Marshal() []byte {
	data := make([]byte, transferDataSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandTransfer))
	binary.LittleEndian.PutUint64(data[4:], a.Lamports)
	return data
}

func (a *TransferArgs) Unmarshal(data []byte) error {
	if err := checkData(data, CommandTransfer, transferDataSize); err != nil {
		return err
	}

	a.Lamports = binary.LittleEndian.Uint64(data[4:])
	return nil
}

// Allocate returns an instruction that sets the data size of an empty account.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L176-L182
func Allocate(address ed25519.PublicKey, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] New account
	return solana.NewInstruction(
		ProgramKey[:],
		AllocateArgs{Size: size}.Marshal(),
		solana.NewAccountMeta(address, true),
	)
}

type AllocateArgs struct {
	Size uint64
}

func (a AllocateArgs) Marshal() []byte {
	data := make([]byte, allocateDataSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandAllocate))
	binary.LittleEndian.PutUint64(data[4:], a.Size)
	return data
}

func (a *AllocateArgs) Unmarshal(data []byte) error {
	if err := checkData(data, CommandAllocate, allocateDataSize); err != nil {
		return err
	}

	a.Size = binary.LittleEndian.Uint64(data[4:])
	return nil
}

func checkData(data []byte, command Command, size int) error {
	actual, err := GetCommand(data)
	if err != nil {
		return err
	}
	if actual != command {
		return solana.ErrIncorrectInstruction
	}
	if len(data) != size {
		return errors.Errorf("invalid instruction data size: %d", len(data))
	}
	return nil
}
