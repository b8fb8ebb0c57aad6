package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCapacity bounds a MemoryStore created with a non-positive size.
const DefaultMemoryCapacity = 4096

// MemoryStore is a bounded in-process Store. Least recently used keys are
// evicted once the capacity is reached, so it suits the ephemeral tier.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

// NewMemoryStore creates a MemoryStore holding at most size keys.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemoryCapacity
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: cache}, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v), true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.cache.Add(key, cloneBytes(value))
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, k := range keys {
		m.cache.Remove(k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
