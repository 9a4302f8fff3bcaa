package storage

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/vaultblob/internal/common"
)

type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

var _ Store = (*MemoryStore)(nil)
