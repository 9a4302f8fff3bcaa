package sessionkey

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
	"golang.org/x/crypto/hkdf"
)

// DerivedKeyring derives a group key per group id from the master key.
// Single user vaults have no server held group keys, so this is the
// keyring the CLI uses.
type DerivedKeyring struct {
	master []byte
}

func NewDerivedKeyring(masterKey []byte) *DerivedKeyring {
	return &DerivedKeyring{master: masterKey}
}

func (k *DerivedKeyring) GroupKey(_ context.Context, groupID string) ([]byte, error) {
	if len(k.master) == 0 {
		return nil, fmt.Errorf("keyring is locked")
	}
	key := make([]byte, cryptox.KeySize)
	r := hkdf.New(sha256.New, k.master, nil, []byte("vaultblob group key "+groupID))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
