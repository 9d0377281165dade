package bank

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
	"github.com/code-payments/code-vault/pkg/solana/system"
)

var (
	// SystemProgramID is the owner of every account that no program has claimed
	SystemProgramID = ed25519.PublicKey(system.ProgramKey[:])

	// NativeLoaderID owns the executable accounts of native programs
	NativeLoaderID = ed25519.PublicKey(mustBase58Decode("NativeLoader1111111111111111111111111111111"))
)

// Account is a ledger account. An account with zero lamports does not exist.
type Account struct {
	Address    ed25519.PublicKey
	Lamports   uint64
	Owner      ed25519.PublicKey
	Data       []byte
	Executable bool
}

// newEmptyAccount returns the view of an address nothing has funded yet
func newEmptyAccount(address ed25519.PublicKey) *Account {
	return &Account{
		Address: address,
		Owner:   SystemProgramID,
	}
}

func (a *Account) Validate() error {
	if len(a.Address) != ed25519.PublicKeySize {
		return errors.New("address is invalid")
	}

	if len(a.Owner) != ed25519.PublicKeySize {
		return errors.New("owner is invalid")
	}

	return nil
}

func (a *Account) Clone() *Account {
	address := make([]byte, len(a.Address))
	copy(address, a.Address)

	owner := make([]byte, len(a.Owner))
	copy(owner, a.Owner)

	var data []byte
	if len(a.Data) > 0 {
		data = make([]byte, len(a.Data))
		copy(data, a.Data)
	}

	return &Account{
		Address:    address,
		Lamports:   a.Lamports,
		Owner:      owner,
		Data:       data,
		Executable: a.Executable,
	}
}

// Equals reports whether both accounts hold the same ledger state
func (a *Account) Equals(other *Account) bool {
	return bytes.Equal(a.Address, other.Address) &&
		a.Lamports == other.Lamports &&
		bytes.Equal(a.Owner, other.Owner) &&
		bytes.Equal(a.Data, other.Data) &&
		a.Executable == other.Executable
}

// IsOwnedBy reports whether program owns the account
func (a *Account) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

func (a *Account) ToAccountInfo() *solana.AccountInfo {
	cloned := a.Clone()
	return &solana.AccountInfo{
		Data:       cloned.Data,
		Owner:      cloned.Owner,
		Lamports:   cloned.Lamports,
		Executable: cloned.Executable,
	}
}

func (a *Account) String() string {
	return fmt.Sprintf(
		"Account{address=%s,lamports=%d,owner=%s,data_len=%d,executable=%t}",
		base58.Encode(a.Address),
		a.Lamports,
		base58.Encode(a.Owner),
		len(a.Data),
		a.Executable,
	)
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
