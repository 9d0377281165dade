package bank

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault/pkg/solana"
)

// frame is one level of the invocation stack
type frame struct {
	program  ed25519.PublicKey
	accounts []*InstructionAccount
	pre      map[string]*Account
}

func newFrame(program ed25519.PublicKey, accounts []*InstructionAccount) *frame {
	f := &frame{
		program:  program,
		accounts: accounts,
	}
	f.snapshot()
	return f
}

func (f *frame) snapshot() {
	f.pre = make(map[string]*Account, len(f.accounts))
	for _, account := range f.accounts {
		f.pre[string(account.Address)] = account.Account.Clone()
	}
}

func (f *frame) find(address ed25519.PublicKey) *InstructionAccount {
	var res *InstructionAccount
	for _, account := range f.accounts {
		if !bytes.Equal(account.Address, address) {
			continue
		}

		// An account referenced twice carries the union of its privileges
		if res == nil {
			res = &InstructionAccount{Account: account.Account}
		}
		res.IsSigner = res.IsSigner || account.IsSigner
		res.IsWritable = res.IsWritable || account.IsWritable
	}
	return res
}

// verify checks the changes the frame's program made against the ledger
// rules.
func (f *frame) verify() error {
	var preTotal, postTotal uint64

	seen := make(map[string]struct{}, len(f.accounts))
	for _, account := range f.accounts {
		key := string(account.Address)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		pre := f.pre[key]
		post := account.Account

		preTotal += pre.Lamports
		postTotal += post.Lamports

		writable := f.find(account.Address).IsWritable
		isOwner := pre.IsOwnedBy(f.program)

		if pre.Executable != post.Executable {
			return solana.InstructionErrorExecutableModified
		}

		if !bytes.Equal(pre.Owner, post.Owner) {
			if !writable || !isOwner || !isZeroed(post.Data) {
				return solana.InstructionErrorModifiedProgramID
			}
		}

		if pre.Lamports != post.Lamports {
			if !writable {
				return solana.InstructionErrorReadonlyLamportChange
			}
			if post.Lamports < pre.Lamports && !isOwner {
				return solana.InstructionErrorExternalAccountLamportSpend
			}
		}

		if !bytes.Equal(pre.Data, post.Data) {
			if !writable {
				return solana.InstructionErrorReadonlyDataModified
			}
			if !isOwner {
				return solana.InstructionErrorExternalAccountDataModified
			}
		}
	}

	if preTotal != postTotal {
		return solana.InstructionErrorUnbalancedInstruction
	}

	return nil
}

// InvokeContext is the environment a program runs in. It gives access to the
// ledger parameters and allows invoking other programs.
type InvokeContext struct {
	ctx   context.Context
	bank  *Bank
	rent  Rent
	depth uint64
	stack []*frame
	logs  []string
	log   *logrus.Entry
}

func (c *InvokeContext) Context() context.Context {
	return c.ctx
}

// ProgramID is the program currently executing
func (c *InvokeContext) ProgramID() ed25519.PublicKey {
	return c.current().program
}

func (c *InvokeContext) Rent() Rent {
	return c.rent
}

// Log records a program log message on the transaction status
func (c *InvokeContext) Log(format string, args ...interface{}) {
	msg := fmt.Sprintf("Program log: "+format, args...)
	c.logs = append(c.logs, msg)
	c.log.Trace(msg)
}

func (c *InvokeContext) current() *frame {
	return c.stack[len(c.stack)-1]
}

func (c *InvokeContext) push(f *frame) error {
	if uint64(len(c.stack)) >= c.depth {
		return solana.InstructionErrorCallDepth
	}

	for _, existing := range c.stack {
		if bytes.Equal(existing.program, f.program) {
			return solana.InstructionErrorReentrancyNotAllowed
		}
	}

	c.stack = append(c.stack, f)
	c.logs = append(c.logs, fmt.Sprintf("Program %s invoke [%d]", base58.Encode(f.program), len(c.stack)))
	return nil
}

func (c *InvokeContext) pop(err error) {
	f := c.current()
	c.stack = c.stack[:len(c.stack)-1]

	if err != nil {
		c.logs = append(c.logs, fmt.Sprintf("Program %s failed: %v", base58.Encode(f.program), err))
		return
	}
	c.logs = append(c.logs, fmt.Sprintf("Program %s success", base58.Encode(f.program)))
}

// process runs a program against a new frame and verifies its changes
func (c *InvokeContext) process(program Program, accounts []*InstructionAccount, data []byte) error {
	f := newFrame(program.ID(), accounts)
	if err := c.push(f); err != nil {
		return err
	}

	err := program.Process(c, accounts, data)
	if err == nil {
		err = f.verify()
	}

	c.pop(err)
	return err
}

// Invoke processes ix as a cross program invocation from the current
// program. Every account ix references must be available to the caller with
// at least the requested privileges. Signatures for program derived addresses
// are granted when one of signerSeeds, combined with the calling program,
// derives to the account's address.
func (c *InvokeContext) Invoke(ix solana.Instruction, signerSeeds ...[][]byte) error {
	caller := c.current()

	var pdaSigners []ed25519.PublicKey
	for _, seeds := range signerSeeds {
		signer, err := solana.CreateProgramAddress(caller.program, seeds...)
		if err != nil {
			return solana.InstructionErrorInvalidSeeds
		}
		pdaSigners = append(pdaSigners, signer)
	}

	if caller.find(ix.Program) == nil {
		return solana.InstructionErrorMissingAccount
	}

	program, ok := c.bank.getProgram(ix.Program)
	if !ok {
		return solana.InstructionErrorUnsupportedProgramID
	}

	accounts := make([]*InstructionAccount, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		available := caller.find(meta.PublicKey)
		if available == nil {
			return solana.InstructionErrorMissingAccount
		}

		if meta.IsWritable && !available.IsWritable {
			c.log.WithField("account", base58.Encode(meta.PublicKey)).Debug("writable privilege escalated")
			return solana.InstructionErrorPrivilegeEscalation
		}

		if meta.IsSigner && !available.IsSigner && !containsKey(pdaSigners, meta.PublicKey) {
			c.log.WithField("account", base58.Encode(meta.PublicKey)).Debug("signer privilege escalated")
			return solana.InstructionErrorPrivilegeEscalation
		}

		accounts[i] = &InstructionAccount{
			Account:    available.Account,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}

	// The caller's changes so far are checked before the callee runs, then
	// the caller continues from the state the callee left behind.
	if err := caller.verify(); err != nil {
		return err
	}

	if err := c.process(program, accounts, ix.Data); err != nil {
		return err
	}

	caller.snapshot()
	return nil
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, k := range keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}
