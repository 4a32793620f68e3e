package client

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/fivetwenty-io/sitecontent/internal/query"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
)

// Sync serves every operation from one document fetched at construction.
type Sync struct {
	environment string
	tree        map[string]any
	document    *content.Document
}

var _ content.SyncClient = (*Sync)(nil)

// NewSync validates config and prefetches the full document. A returned
// client is ready; an error means the prefetch failed.
func NewSync(ctx context.Context, config *content.Config) (*Sync, error) {
	fetcher, err := NewFetcher(config)
	if err != nil {
		return nil, err
	}

	environment := resolveEnvironment(ctx, config, newTagResolver(config), fetcher.Endpoint().Credential())

	data, err := fetcher.Fetch(ctx, environment, "")
	if err != nil {
		return nil, err
	}

	return NewSyncFromJSON(environment, data)
}

// NewSyncFromJSON builds a client over an already fetched document.
func NewSyncFromJSON(environment string, data []byte) (*Sync, error) {
	var tree map[string]any

	err := json.Unmarshal(data, &tree)
	if err != nil {
		return nil, fmt.Errorf("decoding content document: %w", err)
	}

	document := &content.Document{}

	err = json.Unmarshal(data, document)
	if err != nil {
		return nil, fmt.Errorf("decoding content document: %w", err)
	}

	if tree == nil {
		tree = map[string]any{}
	}

	return &Sync{
		environment: environment,
		tree:        tree,
		document:    document,
	}, nil
}

// newTagResolver returns the configured resolver, a private one, or nil when
// resolution is disabled.
func newTagResolver(config *content.Config) content.TagResolver {
	if !config.ResolveTags {
		return nil
	}

	if config.Resolver != nil {
		return config.Resolver
	}

	return NewResolver(config)
}

func resolveEnvironment(ctx context.Context, config *content.Config, resolver content.TagResolver, credential content.Credential) string {
	alias := config.EnvironmentOrDefault()
	if resolver == nil {
		return alias
	}

	return resolver.Resolve(ctx, credential, alias)
}

// Environment returns the alias or tag the document was fetched from.
func (s *Sync) Environment() string {
	return s.environment
}

// Document returns the decoded document.
func (s *Sync) Document() *content.Document {
	return s.document
}

// GetContent returns the raw document tree, or the result of expression over it.
func (s *Sync) GetContent(expression string) (any, error) {
	result, err := query.Evaluate(s.tree, expression)
	if err != nil {
		return nil, err
	}

	return query.Clone(result), nil
}

// GetPages returns the pages whose path starts with prefix.
func (s *Sync) GetPages(prefix string) []content.Page {
	return content.FilterPages(s.document.Pages, prefix)
}

// FindPages evaluates expression over the raw records of the pages matching
// prefix. An empty expression returns those records.
func (s *Sync) FindPages(prefix, expression string) (any, error) {
	result, err := query.Evaluate(filterPageTrees(s.tree["pages"], prefix), expression)
	if err != nil {
		return nil, err
	}

	return query.Clone(result), nil
}

// GetPage returns the page at exactly path.
func (s *Sync) GetPage(path string) (*content.Page, error) {
	return content.FindPage(s.document.Pages, path)
}

// GetSlugs returns the slugs of pages matching prefix that declare one.
func (s *Sync) GetSlugs(prefix string) []string {
	return content.Slugs(s.document.Pages, prefix)
}

// GetEntry returns the entry stored under handle.
func (s *Sync) GetEntry(handle string) (*content.Entry, error) {
	entry, ok := s.document.Entries[handle]
	if !ok {
		return nil, &content.NotFoundError{Kind: "entry", Key: handle}
	}

	return &entry, nil
}

// GetImage returns the image stored under name.
func (s *Sync) GetImage(name string) (*content.Image, error) {
	image, ok := s.document.Images[name]
	if !ok {
		return nil, &content.NotFoundError{Kind: "image", Key: name}
	}

	return &image, nil
}

// GetImages returns every image by name.
func (s *Sync) GetImages() map[string]content.Image {
	images := maps.Clone(s.document.Images)
	if images == nil {
		images = map[string]content.Image{}
	}

	return images
}

// GetList returns the option list stored under name.
func (s *Sync) GetList(name string) ([]content.Option, error) {
	options, ok := s.document.Lists[name]
	if !ok {
		return nil, &content.NotFoundError{Kind: "list", Key: name}
	}

	return options, nil
}

// GetOptions is GetList under its alternate name.
func (s *Sync) GetOptions(name string) ([]content.Option, error) {
	return s.GetList(name)
}

// GetConfig returns the site configuration record.
func (s *Sync) GetConfig() content.Record {
	config := maps.Clone(s.document.Config)
	if config == nil {
		config = content.Record{}
	}

	return config
}

// filterPageTrees keeps the raw page records whose _path starts with prefix.
func filterPageTrees(pages any, prefix string) []any {
	records, _ := pages.([]any)
	matched := make([]any, 0, len(records))

	for _, record := range records {
		fields, ok := record.(map[string]any)
		if !ok {
			continue
		}

		path, _ := fields["_path"].(string)
		if strings.HasPrefix(path, prefix) {
			matched = append(matched, record)
		}
	}

	return matched
}
