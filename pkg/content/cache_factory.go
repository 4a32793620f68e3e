package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
)

// CacheType names a cache backend.
type CacheType string

// Cache backends known to NewCacheFromConfig.
const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeNATS   CacheType = "nats"
	CacheTypeRedis  CacheType = "redis"
	CacheTypeNone   CacheType = "none"
)

// CacheConfig selects a backend and carries its settings. Only the section
// matching Type is read.
type CacheConfig struct {
	Type   CacheType
	Memory *MemoryCacheConfig
	NATS   *NATSKVConfig
	Redis  *RedisCacheConfig
}

// MemoryCacheConfig configures the in-process cache.
type MemoryCacheConfig struct {
	// MaxSize bounds the number of entries; 0 is unbounded.
	MaxSize int
}

// DefaultCacheConfig is an unbounded in-memory cache.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{Type: CacheTypeMemory, Memory: &MemoryCacheConfig{MaxSize: constants.DefaultCacheSize}}
}

type cacheOpener func(ctx context.Context, config *CacheConfig) (Cache, error)

var cacheOpeners = map[CacheType]cacheOpener{
	"":              openMemoryCache,
	CacheTypeMemory: openMemoryCache,
	CacheTypeNone: func(context.Context, *CacheConfig) (Cache, error) {
		return NewNoOpCache(), nil
	},
	CacheTypeNATS: func(ctx context.Context, config *CacheConfig) (Cache, error) {
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(ctx, config.NATS)
	},
	CacheTypeRedis: func(ctx context.Context, config *CacheConfig) (Cache, error) {
		if config.Redis == nil {
			return nil, ErrRedisConfigRequired
		}

		return NewRedisCacheFromConfig(ctx, config.Redis)
	},
}

func openMemoryCache(_ context.Context, config *CacheConfig) (Cache, error) {
	return NewMemoryCacheFromConfig(config.Memory), nil
}

// NewCacheFromConfig opens the backend named by config.Type. A nil config
// gives DefaultCacheConfig.
func NewCacheFromConfig(ctx context.Context, config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	open, ok := cacheOpeners[config.Type]
	if !ok {
		return nil, &ConfigError{Err: ErrUnknownCacheType, Detail: string(config.Type)}
	}

	cache, err := open(ctx, config)
	if err != nil {
		// open may return a typed nil
		return nil, err
	}

	return cache, nil
}

// NewMemoryCacheFromConfig creates a memory cache; nil is unbounded.
func NewMemoryCacheFromConfig(config *MemoryCacheConfig) *MemoryCache {
	if config == nil {
		return NewMemoryCache(constants.DefaultCacheSize)
	}

	return NewMemoryCache(config.MaxSize)
}

// NoOpCache disables caching: every read misses with ErrCacheDisabled and
// writes are dropped.
type NoOpCache struct{}

// NewNoOpCache creates a cache that stores nothing.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get reports ErrCacheDisabled.
func (*NoOpCache) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheDisabled
}

// Set discards value.
func (*NoOpCache) Set(context.Context, string, []byte) error {
	return nil
}

// CacheBuilder assembles a CacheConfig step by step.
type CacheBuilder struct {
	config CacheConfig
}

// NewCacheBuilder starts from an unbounded memory cache.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{config: *DefaultCacheConfig()}
}

// WithType selects the backend.
func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	b.config.Type = cacheType

	return b
}

// WithMemoryConfig bounds the memory cache to maxSize entries.
func (b *CacheBuilder) WithMemoryConfig(maxSize int) *CacheBuilder {
	b.config.Memory = &MemoryCacheConfig{MaxSize: maxSize}

	return b
}

// WithNATSConfig sets the JetStream KV settings.
func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.NATS = config

	return b
}

// WithRedisConfig sets the Redis settings.
func (b *CacheBuilder) WithRedisConfig(config *RedisCacheConfig) *CacheBuilder {
	b.config.Redis = config

	return b
}

// Build opens the configured backend.
func (b *CacheBuilder) Build(ctx context.Context) (Cache, error) {
	config := b.config

	cache, err := NewCacheFromConfig(ctx, &config)
	if err != nil {
		return nil, fmt.Errorf("building %s cache: %w", config.Type, err)
	}

	return cache, nil
}

// CacheChain layers caches, fastest first. A hit in a lower layer is copied
// into the layers above it.
type CacheChain struct {
	layers []Cache
}

// NewCacheChain creates a chain over layers.
func NewCacheChain(layers ...Cache) *CacheChain {
	return &CacheChain{layers: layers}
}

// Get returns the value from the first layer holding key. When no layer
// does, the error matches ErrKeyNotFoundInChain and carries any backend
// failures met on the way.
func (c *CacheChain) Get(ctx context.Context, key string) ([]byte, error) {
	var failures []error

	for depth, layer := range c.layers {
		value, err := layer.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheDisabled) {
				failures = append(failures, err)
			}

			continue
		}

		for _, upper := range c.layers[:depth] {
			_ = upper.Set(ctx, key, value)
		}

		return value, nil
	}

	if len(failures) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrKeyNotFoundInChain, errors.Join(failures...))
	}

	return nil, ErrKeyNotFoundInChain
}

// Set writes value to every layer and reports all failures.
func (c *CacheChain) Set(ctx context.Context, key string, value []byte) error {
	var failures []error

	for _, layer := range c.layers {
		if err := layer.Set(ctx, key, value); err != nil {
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}
