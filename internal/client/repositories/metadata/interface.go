// Package metadata stores small key/value settings of the local vault,
// such as the KDF salt and the master key verifier.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeySalt     = "kdf_salt"
	KeyVerifier = "verifier"
)

type Repository interface {
	// Get returns common.ErrorNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
