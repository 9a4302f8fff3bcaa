package cli

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/client/sessionkey"
)

var ErrVaultLocked = errors.New("vault is locked, run unlock first")

// vaultKeyring serves group keys derived from the master key once the
// vault is unlocked.
type vaultKeyring struct {
	ttl time.Duration

	mu   sync.RWMutex
	keys *sessionkey.CachedKeyring
}

// unlock keeps its own copy of masterKey.
func (k *vaultKeyring) unlock(masterKey []byte) {
	master := append([]byte(nil), masterKey...)
	keys := sessionkey.NewCachedKeyring(sessionkey.NewDerivedKeyring(master), k.ttl)

	k.mu.Lock()
	prev := k.keys
	k.keys = keys
	k.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}

func (k *vaultKeyring) lock() {
	k.mu.Lock()
	prev := k.keys
	k.keys = nil
	k.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}

func (k *vaultKeyring) unlocked() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.keys != nil
}

func (k *vaultKeyring) GroupKey(ctx context.Context, groupID string) ([]byte, error) {
	k.mu.RLock()
	keys := k.keys
	k.mu.RUnlock()

	if keys == nil {
		return nil, ErrVaultLocked
	}
	return keys.GroupKey(ctx, groupID)
}
