package contentclient

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/sitecontent/internal/client"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
)

// Resolver resolves environment aliases to tags and can be shared by several
// clients through content.Config.Resolver.
type Resolver interface {
	content.TagResolver
	// Clear forgets every remembered resolution.
	Clear()
}

// NewSync creates a client that prefetches the full document before
// returning. Every method of the returned client is served from memory.
func NewSync(ctx context.Context, config *content.Config) (content.SyncClient, error) {
	if config == nil {
		return nil, content.ErrConfigRequired
	}

	syncClient, err := client.NewSync(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating sync client: %w", err)
	}

	return syncClient, nil
}

// NewAsync creates a client that fetches on demand. It performs no I/O.
func NewAsync(config *content.Config) (content.AsyncClient, error) {
	if config == nil {
		return nil, content.ErrConfigRequired
	}

	asyncClient, err := client.NewAsync(config)
	if err != nil {
		return nil, fmt.Errorf("creating async client: %w", err)
	}

	return asyncClient, nil
}

// NewResolver creates a resolver using config's routing and transport
// settings. Config.Token is ignored; the credential is passed per call.
func NewResolver(config *content.Config) Resolver {
	return client.NewResolver(config)
}

// NewSyncFromJSON creates a sync client over a document obtained elsewhere,
// such as one serialized during server rendering.
func NewSyncFromJSON(environment string, document []byte) (content.SyncClient, error) {
	syncClient, err := client.NewSyncFromJSON(environment, document)
	if err != nil {
		return nil, fmt.Errorf("creating sync client: %w", err)
	}

	return syncClient, nil
}

// NewSyncWithToken creates a sync client for token with default settings.
func NewSyncWithToken(ctx context.Context, token string) (content.SyncClient, error) {
	return NewSync(ctx, &content.Config{
		Token: token,
	})
}

// NewAsyncWithToken creates an async client for token with default settings.
func NewAsyncWithToken(token string) (content.AsyncClient, error) {
	return NewAsync(&content.Config{
		Token: token,
	})
}
