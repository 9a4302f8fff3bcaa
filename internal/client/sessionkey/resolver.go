// Package sessionkey resolves the symmetric key of an entity. The session
// key is stored on the entity encrypted under the key of its owner group.
package sessionkey

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/client/entity"
	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
	"github.com/jellydator/ttlcache/v3"
)

// GroupKeyProvider returns the symmetric key of a group.
type GroupKeyProvider interface {
	GroupKey(ctx context.Context, groupID string) ([]byte, error)
}

// StaticKeyring serves group keys from memory.
type StaticKeyring map[string][]byte

func (k StaticKeyring) GroupKey(_ context.Context, groupID string) ([]byte, error) {
	key, ok := k[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, common.ErrorNotFound)
	}
	return key, nil
}

// CachedKeyring keeps group keys returned by the wrapped provider for a
// fixed time.
type CachedKeyring struct {
	next  GroupKeyProvider
	cache *ttlcache.Cache[string, []byte]
}

func NewCachedKeyring(next GroupKeyProvider, ttl time.Duration) *CachedKeyring {
	cache := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](ttl),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go cache.Start()
	return &CachedKeyring{next: next, cache: cache}
}

func (k *CachedKeyring) GroupKey(ctx context.Context, groupID string) ([]byte, error) {
	if item := k.cache.Get(groupID); item != nil {
		return item.Value(), nil
	}

	key, err := k.next.GroupKey(ctx, groupID)
	if err != nil {
		return nil, err
	}
	k.cache.Set(groupID, key, ttlcache.DefaultTTL)
	return key, nil
}

// Close stops the expiry loop of the cache.
func (k *CachedKeyring) Close() {
	k.cache.Stop()
}

type Resolver struct {
	keys GroupKeyProvider
}

func NewResolver(keys GroupKeyProvider) *Resolver {
	return &Resolver{keys: keys}
}

// Resolve returns the session key of instance. Every failure wraps
// common.ErrSessionKeyUnavailable.
func (r *Resolver) Resolve(ctx context.Context, instance entity.Instance) ([]byte, error) {
	group := instance.OwnerGroup()
	encKey := instance.OwnerEncSessionKey()
	if group == "" || len(encKey) == 0 {
		return nil, fmt.Errorf("%w: %s has no owner key", common.ErrSessionKeyUnavailable, instance.TypeModel())
	}

	groupKey, err := r.keys.GroupKey(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("%w: group key %s: %v", common.ErrSessionKeyUnavailable, group, err)
	}

	key, err := cryptox.DecryptKey(groupKey, encKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSessionKeyUnavailable, err)
	}
	return key, nil
}

// NewOwnerEncSessionKey creates a fresh session key and returns it together
// with its encryption under the owner group's key.
func NewOwnerEncSessionKey(ctx context.Context, keys GroupKeyProvider, groupID string) (key, ownerEncKey []byte, err error) {
	groupKey, err := keys.GroupKey(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: group key %s: %v", common.ErrSessionKeyUnavailable, groupID, err)
	}

	key = cryptox.GenerateKey()
	ownerEncKey, err = cryptox.EncryptKey(groupKey, key)
	if err != nil {
		return nil, nil, err
	}
	return key, ownerEncKey, nil
}
