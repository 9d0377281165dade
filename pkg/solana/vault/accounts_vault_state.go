package vault

import (
	"bytes"
	"fmt"
)

const (
	VaultStateAccountSize = (8 + // discriminator
		1 + // vault_bump
		1) // state_bump
)

var VaultStateAccountDiscriminator = []byte{228, 196, 82, 165, 98, 210, 235, 152}

// VaultStateAccount is the program owned record that pins the bumps used to
// derive an owner's state and vault addresses.
type VaultStateAccount struct {
	VaultBump uint8
	StateBump uint8
}

func (obj *VaultStateAccount) Marshal() []byte {
	data := make([]byte, VaultStateAccountSize)

	var offset int

	putDiscriminator(data, VaultStateAccountDiscriminator, &offset)
	putUint8(data, obj.VaultBump, &offset)
	putUint8(data, obj.StateBump, &offset)

	return data
}

func (obj *VaultStateAccount) Unmarshal(data []byte) error {
	if len(data) < VaultStateAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, VaultStateAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getUint8(data, &obj.VaultBump, &offset)
	getUint8(data, &obj.StateBump, &offset)

	return nil
}

func (obj *VaultStateAccount) Clone() *VaultStateAccount {
	return &VaultStateAccount{
		VaultBump: obj.VaultBump,
		StateBump: obj.StateBump,
	}
}

func (obj *VaultStateAccount) String() string {
	return fmt.Sprintf(
		"VaultStateAccount{vault_bump=%d,state_bump=%d}",
		obj.VaultBump,
		obj.StateBump,
	)
}
