// Package contentclient provides the primary entry points for constructing
// content clients that implement content.SyncClient and content.AsyncClient.
//
// It layers routing, HTTP transport, caching and environment resolution on
// top of the types and interfaces defined in the content package.
//
// Quick start
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
//
//	  // Prefetch everything once; every accessor is then served from memory.
//	  site, err := contentclient.NewSync(ctx, &content.Config{Token: "eu_site42_secret"})
//	  if err != nil { log.Fatal(err) }
//	  _ = site.GetSlugs("/blog")
//
//	  // Or fetch only what a request touches.
//	  lazy, err := contentclient.NewAsync(&content.Config{
//	    Token:             "eu_site42_secret",
//	    ExpirationMinutes: 5,
//	    ResolveTags:       true,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  page, err := lazy.GetPage(ctx, "/blog/hello")
//	  if err != nil { log.Fatal(err) }
//	  _ = page
//	}
//
// # Async upgrade
//
// Before its first query-less GetContent call an async client fetches each
// facet (pages, images, one entry, option lists, config) separately and
// memoizes it. That call loads the whole document, after which the client
// behaves like a sync client and makes no further requests.
//
// # Sharing resolutions
//
// NewResolver returns a resolver that can be set as Config.Resolver on
// several clients so an alias is resolved once per process.
//
// # Helpers
//
// NewSyncWithToken and NewAsyncWithToken wrap NewSync and NewAsync with
// default settings. NewSyncFromJSON builds a sync client from a document
// obtained elsewhere.
package contentclient
