package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana/shortvec"
)

// Wire format of legacy transactions.
//
// Reference: https://docs.solana.com/developing/programming-model/transactions#anatomy-of-a-transaction

// messageVersionPrefix marks versioned messages, which the ledger doesn't accept
const messageVersionPrefix = 0x80

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		b.Write(s[:])
	}

	b.Write(t.Message.Marshal())
	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	count, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature count")
	}

	t.Signatures = make([]Signature, count)
	for i := range t.Signatures {
		if _, err := io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature %d", i)
		}
	}

	return t.Message.Unmarshal(buf.Bytes())
}

func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	b.Write([]byte{m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly})

	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, account := range m.Accounts {
		b.Write(account)
	}

	b.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, instruction := range m.Instructions {
		b.WriteByte(instruction.ProgramIndex)
		writeCompactBytes(b, instruction.Accounts)
		writeCompactBytes(b, instruction.Data)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0]&messageVersionPrefix != 0 {
		return errors.New("versioned messages not supported")
	}

	buf := bytes.NewBuffer(b)

	var header [3]byte
	if _, err := io.ReadFull(buf, header[:]); err != nil {
		return errors.Wrap(err, "failed to read header")
	}
	m.Header = Header{
		NumSignatures:     header[0],
		NumReadonlySigned: header[1],
		NumReadOnly:       header[2],
	}

	count, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account count")
	}
	m.Accounts = make([]ed25519.PublicKey, count)
	for i := range m.Accounts {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		if _, err := io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account %d", i)
		}
	}

	if _, err := io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent blockhash")
	}

	count, err = shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction count")
	}
	m.Instructions = make([]CompiledInstruction, count)
	for i := range m.Instructions {
		instruction, err := readCompiledInstruction(buf, len(m.Accounts))
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction %d", i)
		}
		m.Instructions[i] = instruction
	}

	return nil
}

func readCompiledInstruction(buf *bytes.Buffer, numAccounts int) (c CompiledInstruction, err error) {
	if c.ProgramIndex, err = buf.ReadByte(); err != nil {
		return c, errors.Wrap(err, "failed to read program index")
	}
	if int(c.ProgramIndex) >= numAccounts {
		return c, errors.Errorf("program index out of range: %d", c.ProgramIndex)
	}

	if c.Accounts, err = readCompactBytes(buf); err != nil {
		return c, errors.Wrap(err, "failed to read account indexes")
	}
	for _, index := range c.Accounts {
		if int(index) >= numAccounts {
			return c, errors.Errorf("account index out of range: %d", index)
		}
	}

	if c.Data, err = readCompactBytes(buf); err != nil {
		return c, errors.Wrap(err, "failed to read data")
	}

	return c, nil
}

func writeCompactBytes(b *bytes.Buffer, value []byte) {
	_, _ = shortvec.EncodeLen(b, len(value))
	b.Write(value)
}

func readCompactBytes(buf *bytes.Buffer) ([]byte, error) {
	length, err := shortvec.DecodeLen(buf)
	if err != nil {
		return nil, err
	}

	value := make([]byte, length)
	if _, err := io.ReadFull(buf, value); err != nil {
		return nil, err
	}
	return value, nil
}
