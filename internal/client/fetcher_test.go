package client_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/client"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFetcher_ConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := client.NewFetcher(&content.Config{})
	require.ErrorIs(t, err, content.ErrMissingCredential)

	_, err = client.NewFetcher(&content.Config{Token: "nodelimiters"})
	require.ErrorIs(t, err, content.ErrInvalidCredential)

	_, err = client.NewFetcher(&content.Config{Token: testCredential, Mode: "edge"})
	require.ErrorIs(t, err, content.ErrUnknownMode)
	assert.True(t, content.IsConfigError(err))
}

func TestFetcher_CachesByURL(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cache := content.NewMemoryCache(0)

	config := h.config()
	config.Cache = cache

	fetcher, err := client.NewFetcher(config)
	require.NoError(t, err)

	ctx := context.Background()

	first, err := fetcher.Fetch(ctx, "latest", "config")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Site"}`, string(first))

	second, err := fetcher.Fetch(ctx, "latest", "config")
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, int64(1), h.contentCalls())

	// Key is the full resolved URL, bare value without an expiration policy
	assert.True(t, cache.Has(ctx, h.server.URL+"/site42/latest?search=config"))

	stored, ok := cache.GetItem(h.server.URL + "/site42/latest?search=config")
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"Site"}`, string(stored))

	// A different selector is a different key
	_, err = fetcher.Fetch(ctx, "latest", "pages")
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.contentCalls())
}

func TestFetcher_PrepopulatedCacheShortCircuits(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cache := content.NewMemoryCache(0)
	cache.SetItem(h.server.URL+"/site42/latest", []byte(`{"config":{"title":"Cached"}}`))

	config := h.config()
	config.Cache = cache

	fetcher, err := client.NewFetcher(config)
	require.NoError(t, err)

	data, err := fetcher.Fetch(context.Background(), "latest", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"config":{"title":"Cached"}}`, string(data))
	assert.Equal(t, int64(0), h.contentCalls())
}

func TestFetcher_MalformedCacheFallsThrough(t *testing.T) {
	t.Parallel()

	for _, stored := range []string{`not json`, `{"pages":[`, ``} {
		t.Run(stored, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			cache := content.NewMemoryCache(0)
			cache.SetItem(h.server.URL+"/site42/latest?search=config", []byte(stored))

			config := h.config()
			config.Cache = cache

			fetcher, err := client.NewFetcher(config)
			require.NoError(t, err)

			data, err := fetcher.Fetch(context.Background(), "latest", "config")
			require.NoError(t, err)
			assert.JSONEq(t, `{"title":"Site"}`, string(data))
			assert.Equal(t, int64(1), h.contentCalls())

			// The entry is overwritten with the fresh value
			repaired, ok := cache.GetItem(h.server.URL + "/site42/latest?search=config")
			require.True(t, ok)
			assert.JSONEq(t, `{"title":"Site"}`, string(repaired))
		})
	}
}

func TestFetcher_FailingCacheIsIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	logger := &countingLogger{}

	config := h.config()
	config.Cache = failingCache{}
	config.Logger = logger

	fetcher, err := client.NewFetcher(config)
	require.NoError(t, err)

	data, err := fetcher.Fetch(context.Background(), "latest", "config")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Site"}`, string(data))

	// One warning for the read, one for the write
	assert.Equal(t, 2, logger.count("warn"))
}

func TestFetcher_Expiration(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	clock := newFakeClock()
	cache := content.NewMemoryCache(0)

	config := h.config()
	config.Cache = cache
	config.ExpirationMinutes = 10
	config.Clock = clock.Now

	fetcher, err := client.NewFetcher(config)
	require.NoError(t, err)

	ctx := context.Background()
	key := h.server.URL + "/site42/latest?search=config"

	_, err = fetcher.Fetch(ctx, "latest", "config")
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.contentCalls())

	stored, _ := cache.GetItem(key)
	assert.JSONEq(t, `{"data":{"title":"Site"},"_ts":`+formatMillis(clock.Now())+`}`, string(stored))

	// T + m*60s - epsilon: served from cache
	clock.Advance(10*time.Minute - time.Millisecond)

	_, err = fetcher.Fetch(ctx, "latest", "config")
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.contentCalls())

	// T + m*60s + epsilon: exactly one network call, entry overwritten
	clock.Advance(2 * time.Millisecond)

	_, err = fetcher.Fetch(ctx, "latest", "config")
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.contentCalls())

	stored, _ = cache.GetItem(key)
	assert.JSONEq(t, `{"data":{"title":"Site"},"_ts":`+formatMillis(clock.Now())+`}`, string(stored))

	_, err = fetcher.Fetch(ctx, "latest", "config")
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.contentCalls())
}

func TestFetcher_BareEntryUnderExpirationIsRefetched(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cache := content.NewMemoryCache(0)
	cache.SetItem(h.server.URL+"/site42/latest?search=config", []byte(`{"title":"Old"}`))

	config := h.config()
	config.Cache = cache
	config.ExpirationMinutes = 1

	fetcher, err := client.NewFetcher(config)
	require.NoError(t, err)

	data, err := fetcher.Fetch(context.Background(), "latest", "config")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Site"}`, string(data))
	assert.Equal(t, int64(1), h.contentCalls())
}

func TestFetcher_FetchErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	fetcher, err := client.NewFetcher(h.config())
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), "nope", "")
	require.Error(t, err)

	var fetchErr *content.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Equal(t, "environment not found", fetchErr.Message)

	_, err = fetcher.Fetch(context.Background(), "latest", "pages[")
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusBadRequest, fetchErr.StatusCode)

	config := h.config()
	config.Token = "eu_othersite_secret"

	unknownSite, err := client.NewFetcher(config)
	require.NoError(t, err)

	_, err = unknownSite.Fetch(context.Background(), "latest", "")
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "site not found", fetchErr.Message)
	assert.True(t, content.IsNotFound(err))
}

func TestFetcher_FailedFetchIsNotCached(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cache := content.NewMemoryCache(0)

	config := h.config()
	config.Cache = cache

	fetcher, err := client.NewFetcher(config)
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), "nope", "")
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}
