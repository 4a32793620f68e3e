package content

import (
	"context"
	"sync"
)

// Cache is the adapter contract consulted around every content fetch. Values
// are the persisted JSON bytes; the client owns their shape. Get returns
// ErrCacheMiss when the key is absent. Adapters shared across clients must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// SyncCache is the in-process shape of the contract: it never blocks and
// never fails.
type SyncCache interface {
	GetItem(key string) ([]byte, bool)
	SetItem(key string, value []byte)
}

// FromSyncCache lifts a SyncCache to the Cache contract.
func FromSyncCache(cache SyncCache) Cache {
	return &syncCacheAdapter{cache: cache}
}

type syncCacheAdapter struct {
	cache SyncCache
}

func (a *syncCacheAdapter) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := a.cache.GetItem(key)
	if !ok {
		return nil, ErrCacheMiss
	}

	return value, nil
}

func (a *syncCacheAdapter) Set(_ context.Context, key string, value []byte) error {
	a.cache.SetItem(key, value)

	return nil
}

// MemoryCache is the default adapter: an in-memory store scoped to the
// lifetime of whoever holds it. A zero maxSize means unbounded; otherwise the
// oldest inserted key is evicted first.
type MemoryCache struct {
	mu      sync.RWMutex
	items   map[string][]byte
	order   []string
	maxSize int
}

// NewMemoryCache creates a memory cache holding at most maxSize keys.
func NewMemoryCache(maxSize int) *MemoryCache {
	return &MemoryCache{
		items:   make(map[string][]byte),
		maxSize: maxSize,
	}
}

// GetItem implements SyncCache.
func (c *MemoryCache) GetItem(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.items[key]

	return value, ok
}

// SetItem implements SyncCache.
func (c *MemoryCache) SetItem(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}

	c.items[key] = value

	for c.maxSize > 0 && len(c.items) > c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := c.GetItem(key)
	if !ok {
		return nil, ErrCacheMiss
	}

	return value, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.SetItem(key, value)

	return nil
}

// Delete removes a key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		return nil
	}

	delete(c.items, key)

	for i, existing := range c.order {
		if existing == key {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}

	return nil
}

// Clear removes all keys.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string][]byte)
	c.order = nil

	return nil
}

// Has reports whether a key is stored.
func (c *MemoryCache) Has(_ context.Context, key string) bool {
	_, ok := c.GetItem(key)

	return ok
}

// Len returns the number of stored keys.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}
