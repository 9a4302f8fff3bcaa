package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultblob/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
	"github.com/dmitrijs2005/vaultblob/internal/dbx"
)

const saltSize = 32

// VaultService guards the local vault with a password.
//
// The master key is derived from the password and a random salt with
// argon2. Only the salt and a verifier of the key are stored, so the key
// itself never touches disk.
type VaultService struct {
	db *sql.DB
}

func NewVaultService(db *sql.DB) *VaultService {
	return &VaultService{db: db}
}

func (v *VaultService) repo() metadata.Repository {
	return metadata.NewSQLiteRepository(v.db)
}

// Initialized reports whether a password has been set.
func (v *VaultService) Initialized(ctx context.Context) (bool, error) {
	_, err := v.repo().Get(ctx, metadata.KeySalt)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Unlock returns the master key for password. The first unlock of an empty
// vault sets the password. A wrong password yields common.ErrAccessDenied.
func (v *VaultService) Unlock(ctx context.Context, password []byte) ([]byte, error) {
	repo := v.repo()

	salt, err := repo.Get(ctx, metadata.KeySalt)
	if errors.Is(err, common.ErrorNotFound) {
		return v.initialize(ctx, password)
	}
	if err != nil {
		return nil, err
	}

	verifier, err := repo.Get(ctx, metadata.KeyVerifier)
	if err != nil {
		return nil, fmt.Errorf("vault is corrupt: %w", err)
	}

	key := cryptox.DeriveMasterKey(password, salt)
	if subtle.ConstantTimeCompare(verifier, cryptox.MakeVerifier(key)) == 0 {
		return nil, common.ErrAccessDenied
	}
	return key, nil
}

func (v *VaultService) initialize(ctx context.Context, password []byte) ([]byte, error) {
	salt := common.GenerateRandByteArray(saltSize)
	key := cryptox.DeriveMasterKey(password, salt)

	err := dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, metadata.KeySalt, salt); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeyVerifier, cryptox.MakeVerifier(key))
	})
	if err != nil {
		return nil, fmt.Errorf("initialize vault: %w", err)
	}
	return key, nil
}

// Reset forgets the password. Blob records are kept but can no longer be
// decrypted with a key derived from a new password.
func (v *VaultService) Reset(ctx context.Context) error {
	return v.repo().Clear(ctx)
}
