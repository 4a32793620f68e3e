package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	contenthttp "github.com/fivetwenty-io/sitecontent/internal/http"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
)

// ErrMissingTag is reported when a resolve response carries no tag.
var ErrMissingTag = errors.New("resolve response has no tag")

type tagKey struct {
	credential string
	alias      string
}

type resolveResponse struct {
	Tag string `json:"tag"`
}

// Resolver turns environment aliases into immutable tags and remembers
// successful resolutions per (credential, alias) until Clear.
type Resolver struct {
	config     content.Config
	httpClient *contenthttp.Client
	logger     content.Logger

	mu   sync.RWMutex
	tags map[tagKey]string
}

// NewResolver creates a resolver using config's routing and transport
// settings. The credential is supplied on each call.
func NewResolver(config *content.Config) *Resolver {
	if config == nil {
		config = &content.Config{}
	}

	return &Resolver{
		config:     *config,
		httpClient: NewHTTPClient(config, ""),
		logger:     loggerOf(config),
		tags:       make(map[tagKey]string),
	}
}

// Resolve returns the tag alias currently points to. Any failure returns
// alias unchanged and is not remembered.
func (r *Resolver) Resolve(ctx context.Context, credential content.Credential, alias string) string {
	key := tagKey{credential: credential.Raw, alias: alias}

	r.mu.RLock()
	tag, ok := r.tags[key]
	r.mu.RUnlock()

	if ok {
		return tag
	}

	tag, err := r.request(ctx, credential, alias)
	if err != nil {
		r.logger.Warn("environment resolution failed, using alias", map[string]interface{}{
			"alias": alias,
			"error": err.Error(),
		})

		return alias
	}

	r.mu.Lock()
	r.tags[key] = tag
	r.mu.Unlock()

	r.logger.Debug("environment resolved", map[string]interface{}{
		"alias": alias,
		"tag":   tag,
	})

	return tag
}

// Clear forgets every resolution.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tags = make(map[tagKey]string)
}

// Len returns the number of remembered resolutions.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tags)
}

func (r *Resolver) request(ctx context.Context, credential content.Credential, alias string) (string, error) {
	target := NewEndpoint(&r.config, credential).ResolveURL(alias)

	resp, err := r.httpClient.Do(ctx, &contenthttp.Request{
		Method:     http.MethodPost,
		URL:        target,
		Credential: credential.Raw,
	})
	if err != nil {
		return "", err
	}

	var decoded resolveResponse

	err = json.Unmarshal(resp.Body, &decoded)
	if err != nil {
		return "", content.ErrMalformedResponse
	}

	tag := strings.TrimSpace(decoded.Tag)
	if tag == "" {
		return "", ErrMissingTag
	}

	return tag, nil
}
