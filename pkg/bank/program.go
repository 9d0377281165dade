package bank

import (
	"crypto/ed25519"
)

// Program is a native program the bank dispatches instructions to.
type Program interface {
	// ID is the address instructions use to invoke the program
	ID() ed25519.PublicKey

	// Process executes a single instruction. Accounts are in the order the
	// instruction references them and may be mutated in place, subject to the
	// ledger rules the bank verifies once the program returns.
	Process(ctx *InvokeContext, accounts []*InstructionAccount, data []byte) error
}

// InstructionAccount is an account as seen by the program processing an
// instruction.
type InstructionAccount struct {
	*Account

	IsSigner   bool
	IsWritable bool
}
