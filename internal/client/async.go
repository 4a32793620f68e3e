package client

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/fivetwenty-io/sitecontent/internal/query"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"golang.org/x/sync/singleflight"
)

// Facet selectors sent as the search parameter before the upgrade.
const (
	SelectorPages  = "pages"
	SelectorImages = "images"
	SelectorLists  = "lists || options"
	SelectorConfig = "config"

	documentFlight = "\x00document"
)

var bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EntrySelector returns the selector for one entry handle, quoting handles
// that are not bare identifiers.
func EntrySelector(handle string) string {
	if bareIdentifier.MatchString(handle) {
		return "entries." + handle
	}

	quoted, _ := json.Marshal(handle)

	return "entries." + string(quoted)
}

// Async fetches on demand. Each accessor fetches and memoizes only its facet
// until the first query-less GetContent call loads the whole document; from
// then on every call is served by that document.
type Async struct {
	config   *content.Config
	fetcher  *Fetcher
	resolver content.TagResolver
	logger   content.Logger

	unified     atomic.Pointer[Sync]
	environment atomic.Pointer[string]
	flights     singleflight.Group

	mu     sync.Mutex
	facets map[string]json.RawMessage
}

var _ content.AsyncClient = (*Async)(nil)

// NewAsync validates config. It performs no I/O.
func NewAsync(config *content.Config) (*Async, error) {
	fetcher, err := NewFetcher(config)
	if err != nil {
		return nil, err
	}

	return &Async{
		config:   config,
		fetcher:  fetcher,
		resolver: newTagResolver(config),
		logger:   loggerOf(config),
		facets:   make(map[string]json.RawMessage),
	}, nil
}

// Upgraded reports whether the client serves from the full document.
func (a *Async) Upgraded() bool {
	return a.unified.Load() != nil
}

// Invalidate drops facet results memoized before the upgrade. It has no
// effect once upgraded.
func (a *Async) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.facets = make(map[string]json.RawMessage)
}

// Environment returns the alias or tag used for fetches, resolving it on
// first use.
func (a *Async) Environment(ctx context.Context) string {
	if environment := a.environment.Load(); environment != nil {
		return *environment
	}

	// Concurrent first calls may each resolve; the results are identical.
	environment := resolveEnvironment(ctx, a.config, a.resolver, a.fetcher.Endpoint().Credential())

	// A resolver answering with the alias itself has failed; leave the
	// environment unset so the next call resolves again.
	if a.resolver == nil || environment != a.config.EnvironmentOrDefault() {
		a.environment.Store(&environment)
	}

	return environment
}

// GetContent returns the whole document, or the server-side result of
// expression. A query-less call upgrades the client.
func (a *Async) GetContent(ctx context.Context, expression string) (any, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.GetContent(expression)
	}

	if expression == "" {
		unified, err := a.upgrade(ctx)
		if err != nil {
			return nil, err
		}

		return unified.GetContent("")
	}

	err := query.Validate(expression)
	if err != nil {
		return nil, err
	}

	var result any

	err = a.facet(ctx, expression, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetPages returns the pages whose path starts with prefix.
func (a *Async) GetPages(ctx context.Context, prefix string) ([]content.Page, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.GetPages(prefix), nil
	}

	pages, err := a.pages(ctx)
	if err != nil {
		return nil, err
	}

	return content.FilterPages(pages, prefix), nil
}

// FindPages evaluates expression over the raw records of the pages matching
// prefix.
func (a *Async) FindPages(ctx context.Context, prefix, expression string) (any, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.FindPages(prefix, expression)
	}

	err := query.Validate(expression)
	if err != nil {
		return nil, err
	}

	var pages any

	err = a.facet(ctx, SelectorPages, &pages)
	if err != nil {
		return nil, err
	}

	return query.Evaluate(filterPageTrees(pages, prefix), expression)
}

// GetPage returns the page at exactly path.
func (a *Async) GetPage(ctx context.Context, path string) (*content.Page, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.GetPage(path)
	}

	pages, err := a.pages(ctx)
	if err != nil {
		return nil, err
	}

	return content.FindPage(pages, path)
}

// GetSlugs returns the slugs of pages matching prefix that declare one.
func (a *Async) GetSlugs(ctx context.Context, prefix string) ([]string, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.GetSlugs(prefix), nil
	}

	pages, err := a.pages(ctx)
	if err != nil {
		return nil, err
	}

	return content.Slugs(pages, prefix), nil
}

// GetEntry returns the entry stored under handle.
func (a *Async) GetEntry(ctx context.Context, handle string) (*content.Entry, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.GetEntry(handle)
	}

	var raw json.RawMessage

	err := a.facet(ctx, EntrySelector(handle), &raw)
	if err != nil {
		return nil, err
	}

	if isJSONNull(raw) {
		return nil, &content.NotFoundError{Kind: "entry", Key: handle}
	}

	entry := &content.Entry{}

	err = json.Unmarshal(raw, entry)
	if err != nil {
		return nil, fmt.Errorf("decoding entry %q: %w", handle, err)
	}

	return entry, nil
}

// GetImage returns the image stored under name.
func (a *Async) GetImage(ctx context.Context, name string) (*content.Image, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.GetImage(name)
	}

	images, err := a.GetImages(ctx)
	if err != nil {
		return nil, err
	}

	image, ok := images[name]
	if !ok {
		return nil, &content.NotFoundError{Kind: "image", Key: name}
	}

	return &image, nil
}

// GetImages returns every image by name.
func (a *Async) GetImages(ctx context.Context) (map[string]content.Image, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.GetImages(), nil
	}

	var images map[string]content.Image

	err := a.facet(ctx, SelectorImages, &images)
	if err != nil {
		return nil, err
	}

	if images == nil {
		images = map[string]content.Image{}
	}

	return images, nil
}

// GetList returns the option list stored under name.
func (a *Async) GetList(ctx context.Context, name string) ([]content.Option, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.GetList(name)
	}

	var lists map[string][]content.Option

	err := a.facet(ctx, SelectorLists, &lists)
	if err != nil {
		return nil, err
	}

	options, ok := lists[name]
	if !ok {
		return nil, &content.NotFoundError{Kind: "list", Key: name}
	}

	return options, nil
}

// GetOptions is GetList under its alternate name.
func (a *Async) GetOptions(ctx context.Context, name string) ([]content.Option, error) {
	return a.GetList(ctx, name)
}

// GetConfig returns the site configuration record.
func (a *Async) GetConfig(ctx context.Context) (content.Record, error) {
	if unified := a.unified.Load(); unified != nil {
		return unified.GetConfig(), nil
	}

	var config content.Record

	err := a.facet(ctx, SelectorConfig, &config)
	if err != nil {
		return nil, err
	}

	if config == nil {
		config = content.Record{}
	}

	return config, nil
}

func (a *Async) pages(ctx context.Context) ([]content.Page, error) {
	data, err := a.facetData(ctx, SelectorPages)
	if err != nil {
		return nil, err
	}

	return content.DecodePages(data), nil
}

// facet decodes the result of selector into out, fetching it at most once
// per client until Invalidate.
func (a *Async) facet(ctx context.Context, selector string, out any) error {
	data, err := a.facetData(ctx, selector)
	if err != nil {
		return err
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("decoding %q: %w", selector, err)
	}

	return nil
}

func (a *Async) facetData(ctx context.Context, selector string) (json.RawMessage, error) {
	a.mu.Lock()
	data, ok := a.facets[selector]
	a.mu.Unlock()

	if ok {
		return data, nil
	}

	environment := a.Environment(ctx)

	// Collapsed callers share the flight, so one caller's cancellation must
	// not fail the others.
	flightCtx := context.WithoutCancel(ctx)

	result, err := a.shared(ctx, selector, func() (interface{}, error) {
		data, err := a.fetcher.Fetch(flightCtx, environment, selector)
		if err != nil {
			return nil, err
		}

		a.mu.Lock()
		a.facets[selector] = data
		a.mu.Unlock()

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(json.RawMessage), nil //nolint:forcetypeassert // the flight only returns json.RawMessage
}

// upgrade loads the whole document and switches the client to it. The
// transition happens once; later callers reuse the stored document.
func (a *Async) upgrade(ctx context.Context) (*Sync, error) {
	environment := a.Environment(ctx)

	flightCtx := context.WithoutCancel(ctx)

	result, err := a.shared(ctx, documentFlight, func() (interface{}, error) {
		if unified := a.unified.Load(); unified != nil {
			return unified, nil
		}

		data, err := a.fetcher.Fetch(flightCtx, environment, "")
		if err != nil {
			return nil, err
		}

		unified, err := NewSyncFromJSON(environment, data)
		if err != nil {
			return nil, err
		}

		if a.unified.CompareAndSwap(nil, unified) {
			a.Invalidate()
			a.logger.Debug("async content client upgraded", map[string]interface{}{
				"environment": environment,
			})
		}

		return a.unified.Load(), nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Sync), nil //nolint:forcetypeassert // the flight only returns *Sync
}

// shared runs fn once per key across concurrent callers. Each caller stops
// waiting when its own ctx is done; the flight itself keeps running.
func (a *Async) shared(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error) {
	select {
	case result := <-a.flights.DoChan(key, fn):
		return result.Val, result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func isJSONNull(data json.RawMessage) bool {
	var value any

	return json.Unmarshal(data, &value) == nil && value == nil
}
