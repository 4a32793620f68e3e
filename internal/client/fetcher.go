package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	contenthttp "github.com/fivetwenty-io/sitecontent/internal/http"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
)

// Fetcher retrieves content documents, consulting the cache adapter before
// and after every network call.
type Fetcher struct {
	httpClient *contenthttp.Client
	endpoint   *Endpoint
	cache      content.Cache
	policy     CachePolicy
	logger     content.Logger
}

// NewFetcher validates config and builds a fetcher for its credential.
func NewFetcher(config *content.Config) (*Fetcher, error) {
	credential, err := config.Validate()
	if err != nil {
		return nil, err
	}

	cache := config.Cache
	if cache == nil {
		cache = content.NewMemoryCache(constants.DefaultCacheSize)
	}

	return &Fetcher{
		httpClient: NewHTTPClient(config, credential.Raw),
		endpoint:   NewEndpoint(config, credential),
		cache:      cache,
		policy:     NewCachePolicy(config.ExpirationMinutes, config.Clock),
		logger:     loggerOf(config),
	}, nil
}

// NewHTTPClient builds the transport for config, presenting credential.
func NewHTTPClient(config *content.Config, credential string) *contenthttp.Client {
	opts := []contenthttp.Option{
		contenthttp.WithDebug(config.Debug),
		contenthttp.WithTimeout(config.HTTPTimeout),
		contenthttp.WithUserAgent(config.UserAgent),
	}

	retryMax := config.RetryMax
	if retryMax == 0 {
		retryMax = constants.DefaultRetryMax
	}

	opts = append(opts, contenthttp.WithRetryConfig(retryMax, config.RetryWaitMin, config.RetryWaitMax))

	if config.Logger != nil {
		opts = append(opts, contenthttp.WithLogger(config.Logger))
	}

	if config.Interceptors != nil {
		opts = append(opts, contenthttp.WithInterceptors(config.Interceptors))
	}

	return contenthttp.NewClient("", credential, opts...)
}

func loggerOf(config *content.Config) content.Logger {
	if config.Logger == nil {
		return content.NopLogger{}
	}

	return config.Logger
}

// Endpoint returns the URL builder.
func (f *Fetcher) Endpoint() *Endpoint {
	return f.endpoint
}

// Fetch returns the JSON value served for environment and selector. An empty
// selector fetches the whole document.
func (f *Fetcher) Fetch(ctx context.Context, environment, selector string) (json.RawMessage, error) {
	target := f.endpoint.ContentURL(environment, selector)

	lookup := f.policy.Read(ctx, f.cache, target)
	if lookup.Status == LookupHit {
		f.logger.Debug("content cache hit", map[string]interface{}{"url": target})

		return lookup.Data, nil
	}

	f.logCacheFallthrough(target, lookup)

	resp, err := f.httpClient.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}

	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("fetching %s: %w", target, content.ErrMalformedResponse)
	}

	data := json.RawMessage(resp.Body)

	f.store(ctx, target, data)

	return data, nil
}

func (f *Fetcher) store(ctx context.Context, key string, data json.RawMessage) {
	encoded, err := f.policy.Encode(data)
	if err == nil {
		err = f.cache.Set(ctx, key, encoded)
	}

	if err != nil {
		f.logger.Warn("content cache write failed", map[string]interface{}{
			"url":   key,
			"error": err.Error(),
		})
	}
}

func (f *Fetcher) logCacheFallthrough(key string, lookup Lookup) {
	fields := map[string]interface{}{
		"url":    key,
		"status": lookup.Status.String(),
	}

	if lookup.Status == LookupInvalid {
		if lookup.Err != nil {
			fields["error"] = lookup.Err.Error()
		}

		f.logger.Warn("content cache read failed", fields)

		return
	}

	f.logger.Debug("content cache "+lookup.Status.String(), fields)
}
