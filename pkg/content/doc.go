// Package content provides the types, interfaces, and helpers for reading a
// site's hosted content document.
//
// # Overview
//
// A content document has five facets: pages, entries, images, lists (also
// served as options) and config. The package defines the decoded Document,
// the SyncClient and AsyncClient interfaces, the Config used to build them,
// and the Cache adapter contract consulted around every fetch. Concrete
// clients are built by the contentclient package:
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/sitecontent/pkg/content"
//	  "github.com/fivetwenty-io/sitecontent/pkg/contentclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := contentclient.NewSync(ctx, &content.Config{Token: "eu_site42_secret"})
//	  if err != nil { log.Fatal(err) }
//
//	  for _, page := range cli.GetPages("/blog") {
//	    log.Println(page.Path)
//	  }
//	}
//
// # Queries
//
// GetContent and FindPages accept JMESPath expressions evaluated over the
// raw JSON tree:
//
//	titles, err := cli.GetContent("pages[?published].title")
//
// # Caching
//
// Cache values are the JSON bytes of a fetched document or facet. NewMemoryCache
// is the default; NewRedisCache and NewNATSKVCache share entries across
// processes; CacheChain layers several adapters. With Config.ExpirationMinutes
// set, entries are wrapped as {"data": ..., "_ts": <epoch millis>} and treated
// as misses once stale.
//
// # Errors
//
// Fetch failures surface as *FetchError carrying the HTTP status. Use
// IsNotFound, IsUnauthorized, and IsForbidden to classify them. Missing
// pages, entries, images and lists return *NotFoundError, which matches
// ErrNotFound.
package content
