package content_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFactory_MemoryCache(t *testing.T) {
	t.Parallel()

	config := &content.CacheConfig{
		Type: content.CacheTypeMemory,
		Memory: &content.MemoryCacheConfig{
			MaxSize: 100,
		},
	}

	cache, err := content.NewCacheFromConfig(context.Background(), config)
	require.NoError(t, err)
	require.NotNil(t, cache)

	ctx := context.Background()

	err = cache.Set(ctx, "test-key", []byte("test data"))
	require.NoError(t, err)

	retrieved, err := cache.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("test data"), retrieved)
}

func TestCacheFactory_Defaults(t *testing.T) {
	t.Parallel()

	cache, err := content.NewCacheFromConfig(context.Background(), nil)
	require.NoError(t, err)
	assert.IsType(t, &content.MemoryCache{}, cache)

	cache, err = content.NewCacheFromConfig(context.Background(), &content.CacheConfig{})
	require.NoError(t, err)
	assert.IsType(t, &content.MemoryCache{}, cache)
}

func TestCacheFactory_NoOpCache(t *testing.T) {
	t.Parallel()

	config := &content.CacheConfig{
		Type: content.CacheTypeNone,
	}

	cache, err := content.NewCacheFromConfig(context.Background(), config)
	require.NoError(t, err)
	require.NotNil(t, cache)

	ctx := context.Background()

	// Set should succeed but do nothing
	err = cache.Set(ctx, "test-key", []byte("test data"))
	require.NoError(t, err)

	// Get should always fail
	_, err = cache.Get(ctx, "test-key")
	require.ErrorIs(t, err, content.ErrCacheDisabled)
}

func TestCacheFactory_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config *content.CacheConfig
		want   error
	}{
		{
			name:   "nats without config",
			config: &content.CacheConfig{Type: content.CacheTypeNATS},
			want:   content.ErrNATSConfigRequired,
		},
		{
			name:   "redis without config",
			config: &content.CacheConfig{Type: content.CacheTypeRedis},
			want:   content.ErrRedisConfigRequired,
		},
		{
			name: "redis without address",
			config: &content.CacheConfig{
				Type:  content.CacheTypeRedis,
				Redis: &content.RedisCacheConfig{},
			},
			want: content.ErrEmptyRedisAddress,
		},
		{
			name:   "unknown type",
			config: &content.CacheConfig{Type: "memcached"},
			want:   content.ErrUnknownCacheType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cache, err := content.NewCacheFromConfig(context.Background(), tt.config)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, cache)
		})
	}
}

func TestCacheFactory_UnknownTypeIsConfigError(t *testing.T) {
	t.Parallel()

	_, err := content.NewCacheFromConfig(context.Background(), &content.CacheConfig{Type: "memcached"})
	require.Error(t, err)
	assert.True(t, content.IsConfigError(err))
	assert.Contains(t, err.Error(), "memcached")
}

func TestCacheBuilder(t *testing.T) {
	t.Parallel()

	cache, err := content.NewCacheBuilder().
		WithType(content.CacheTypeMemory).
		WithMemoryConfig(1).
		Build(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "a", []byte("1")))
	require.NoError(t, cache.Set(ctx, "b", []byte("2")))

	_, err = cache.Get(ctx, "a")
	require.ErrorIs(t, err, content.ErrCacheMiss)
}

func TestCacheBuilder_Redis(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)

	cache, err := content.NewCacheBuilder().
		WithType(content.CacheTypeRedis).
		WithRedisConfig(&content.RedisCacheConfig{Address: server.Addr()}).
		Build(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "key", []byte("value")))

	value, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
}

func TestCacheBuilder_ErrorIsWrapped(t *testing.T) {
	t.Parallel()

	_, err := content.NewCacheBuilder().WithType(content.CacheTypeNATS).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "building nats cache")
	assert.True(t, errors.Is(err, content.ErrNATSConfigRequired))
}

func TestCacheChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l1 := content.NewMemoryCache(0)
	l2 := content.NewMemoryCache(0)
	chain := content.NewCacheChain(l1, l2)

	_, err := chain.Get(ctx, "key")
	require.ErrorIs(t, err, content.ErrKeyNotFoundInChain)

	// Found in L2 populates L1
	l2.SetItem("key", []byte("value"))

	value, err := chain.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
	assert.True(t, l1.Has(ctx, "key"))

	// Set writes through every level
	require.NoError(t, chain.Set(ctx, "other", []byte("x")))
	assert.True(t, l1.Has(ctx, "other"))
	assert.True(t, l2.Has(ctx, "other"))
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errRejected }
func (brokenCache) Set(context.Context, string, []byte) error   { return errRejected }

func TestCacheChain_BackendFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l2 := content.NewMemoryCache(0)
	chain := content.NewCacheChain(brokenCache{}, content.NewNoOpCache(), l2)

	_, err := chain.Get(ctx, "key")
	require.ErrorIs(t, err, content.ErrKeyNotFoundInChain)
	require.ErrorIs(t, err, errRejected)

	// a failing layer does not hide a hit further down
	l2.SetItem("key", []byte("value"))

	value, err := chain.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	err = chain.Set(ctx, "other", []byte("x"))
	require.ErrorIs(t, err, errRejected)
	assert.True(t, l2.Has(ctx, "other"))
}
