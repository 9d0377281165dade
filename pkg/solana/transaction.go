package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

var (
	ErrSanitizeFailure = errors.New("transaction failed to sanitize")
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (b Blockhash) String() string {
	return base58.Encode(b[:])
}

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into a legacy transaction paid
// for by payer. Signatures are left empty until Sign is called.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	accounts := []AccountMeta{
		{
			PublicKey:  payer,
			IsSigner:   true,
			IsWritable: true,
			isPayer:    true,
		},
	}

	// Every program and account the instructions reference
	for _, i := range instructions {
		accounts = append(accounts, AccountMeta{
			PublicKey: i.Program,
			isProgram: true,
		})
		accounts = append(accounts, i.Accounts...)
	}

	accounts = mergeAccountMetas(accounts)
	sortAccountMetas(accounts)

	var m Message
	for _, account := range accounts {
		m.Accounts = append(m.Accounts, account.PublicKey)

		if account.IsSigner {
			m.Header.NumSignatures++

			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		} else if !account.IsWritable {
			m.Header.NumReadOnly++
		}
	}

	// Generate the compiled instruction, which uses indices instead
	// of raw account keys.
	for _, i := range instructions {
		c := CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, i.Program)),
			Data:         i.Data,
		}

		for _, a := range i.Accounts {
			c.Accounts = append(c.Accounts, byte(indexOf(m.Accounts, a.PublicKey)))
		}

		m.Instructions = append(m.Instructions, c)
	}

	for i := range m.Accounts {
		if len(m.Accounts[i]) == 0 {
			m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		}
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, base58.Encode(s[:])))
	}
	sb.WriteString("Message:\n")
	sb.WriteString("  Header:\n")
	sb.WriteString(fmt.Sprintf("    NumSignatures: %d\n", t.Message.Header.NumSignatures))
	sb.WriteString(fmt.Sprintf("    NumReadOnly: %d\n", t.Message.Header.NumReadOnly))
	sb.WriteString(fmt.Sprintf("    NumReadOnlySigned: %d\n", t.Message.Header.NumReadonlySigned))
	sb.WriteString("  Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d:\n", i))
		sb.WriteString(fmt.Sprintf("      ProgramIndex: %d\n", t.Message.Instructions[i].ProgramIndex))
		sb.WriteString(fmt.Sprintf("      Accounts: %v\n", t.Message.Instructions[i].Accounts))
		sb.WriteString(fmt.Sprintf("      Data: %v\n", t.Message.Instructions[i].Data))
	}
	return sb.String()
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(s, messageBytes))
	}

	return nil
}

// VerifySignatures checks every signature against the account at the same
// index. It returns the index of the first failing signature, or -1.
func (t *Transaction) VerifySignatures() int {
	messageBytes := t.Message.Marshal()

	for i, s := range t.Signatures {
		if !ed25519.Verify(t.Message.Accounts[i], messageBytes, s[:]) {
			return i
		}
	}

	return -1
}

// Sanitize performs the structural checks a validator runs before loading any
// accounts.
func (t *Transaction) Sanitize() error {
	m := t.Message

	if m.Header.NumSignatures == 0 {
		return errors.Wrap(ErrSanitizeFailure, "no signatures")
	}
	if int(m.Header.NumSignatures) != len(t.Signatures) {
		return errors.Wrapf(ErrSanitizeFailure, "signature count mismatch: %d:%d", m.Header.NumSignatures, len(t.Signatures))
	}
	if m.Header.NumReadonlySigned >= m.Header.NumSignatures {
		return errors.Wrap(ErrSanitizeFailure, "fee payer must be writable")
	}
	if int(m.Header.NumSignatures)+int(m.Header.NumReadOnly) > len(m.Accounts) {
		return errors.Wrap(ErrSanitizeFailure, "header exceeds account list")
	}

	for i, a := range m.Accounts {
		if len(a) != ed25519.PublicKeySize {
			return errors.Wrapf(ErrSanitizeFailure, "invalid account at %d", i)
		}
		for j := i + 1; j < len(m.Accounts); j++ {
			if bytes.Equal(a, m.Accounts[j]) {
				return errors.Wrapf(ErrSanitizeFailure, "account loaded twice at %d", j)
			}
		}
	}

	for i, instruction := range m.Instructions {
		// The fee payer can never be invoked as a program
		if instruction.ProgramIndex == 0 || int(instruction.ProgramIndex) >= len(m.Accounts) {
			return errors.Wrapf(ErrSanitizeFailure, "invalid program index for instruction %d", i)
		}
		for _, index := range instruction.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Wrapf(ErrSanitizeFailure, "invalid account index for instruction %d", i)
			}
		}
	}

	if len(t.Marshal()) > MaxTransactionSize {
		return errors.Wrap(ErrSanitizeFailure, "transaction too large")
	}

	return nil
}

// IsSigner reports whether the account at index signed the message.
func (m *Message) IsSigner(index int) bool {
	return index < int(m.Header.NumSignatures)
}

// IsWritable reports whether the account at index is locked for writing.
func (m *Message) IsWritable(index int) bool {
	if index < int(m.Header.NumSignatures) {
		return index < int(m.Header.NumSignatures-m.Header.NumReadonlySigned)
	}

	return index < len(m.Accounts)-int(m.Header.NumReadOnly)
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}
