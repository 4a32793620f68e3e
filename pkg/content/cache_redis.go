package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/redis/go-redis/v9"
)

// RedisCacheConfig holds Redis connection and keying configuration.
type RedisCacheConfig struct {
	Address  string
	Password string
	DB       int
	// Prefix namespaces keys. Defaults to "sitecontent:".
	Prefix string
	// TTL lets Redis evict entries on its own. Zero keeps entries forever.
	TTL time.Duration
}

// RedisCache stores content entries in Redis so several processes can share
// one cache.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = constants.DefaultRedisKeyPrefix
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// NewRedisCacheFromConfig connects to Redis and verifies the connection.
func NewRedisCacheFromConfig(ctx context.Context, config *RedisCacheConfig) (*RedisCache, error) {
	if config == nil {
		return nil, ErrRedisConfigRequired
	}

	if config.Address == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, constants.RedisConnectionTimeout)
	defer cancel()

	err := client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisCache(client, config.Prefix, config.TTL), nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("reading redis key: %w", err)
	}

	return value, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("writing redis key: %w", err)
	}

	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	err := c.client.Close()
	if err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}

	return nil
}
