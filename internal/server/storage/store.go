// Package storage keeps ciphertext for the storage service. Objects are
// opaque byte strings addressed by key; a missing key is
// common.ErrorNotFound.
package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vaultblob/internal/server/config"
)

// Store is an object store.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// New returns the store selected by cfg.Backend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
