package content

import (
	"context"
	"strings"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
)

// Mode selects how the content API host is derived from the credential.
type Mode string

const (
	// ModeProduction targets https://{routing}.{host}.
	ModeProduction Mode = "production"

	// ModeStaging targets https://{routing}-staging.{host}.
	ModeStaging Mode = "staging"

	// ModeLocal targets the development server on http://localhost:{port}.
	ModeLocal Mode = "local"
)

// Valid reports whether the mode is known. The empty mode is treated as
// ModeProduction.
func (m Mode) Valid() bool {
	switch m {
	case "", ModeProduction, ModeStaging, ModeLocal:
		return true
	default:
		return false
	}
}

// Credential is a parsed site token of the form <routing>_<site-id>_<secret>.
type Credential struct {
	Raw     string
	Routing string
	SiteID  string
	Secret  string
}

// ParseCredential splits a site token into its routing parts.
func ParseCredential(token string) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, &ConfigError{Err: ErrMissingCredential}
	}

	parts := strings.SplitN(token, constants.CredentialDelimiter, 3) //nolint:mnd // routing, site, secret
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Credential{}, &ConfigError{Err: ErrInvalidCredential, Detail: "expected <routing>_<site-id>_<secret>"}
	}

	return Credential{
		Raw:     token,
		Routing: parts[0],
		SiteID:  parts[1],
		Secret:  parts[2],
	}, nil
}

// IsMock reports whether the credential belongs to the simulated-data class.
func (c Credential) IsMock() bool {
	return c.Routing == constants.MockCredentialClass
}

// SyncClient serves every operation from a document prefetched at
// construction. None of its methods perform I/O.
type SyncClient interface {
	// Environment returns the environment identifier (alias or resolved tag)
	// the document was fetched from.
	Environment() string
	// Document returns the decoded document. Callers must not modify it.
	Document() *Document
	// GetContent returns the raw document tree, or the result of query over it.
	GetContent(query string) (any, error)
	GetPages(prefix string) []Page
	// FindPages evaluates query over the pages matching prefix.
	FindPages(prefix, query string) (any, error)
	GetPage(path string) (*Page, error)
	GetSlugs(prefix string) []string
	GetEntry(handle string) (*Entry, error)
	GetImage(name string) (*Image, error)
	GetImages() map[string]Image
	GetList(name string) ([]Option, error)
	GetOptions(name string) ([]Option, error)
	GetConfig() Record
}

// AsyncClient fetches on demand. Until the first query-less GetContent call
// each accessor fetches only its own facet; after that call every accessor is
// served from the full document without further network calls.
type AsyncClient interface {
	GetContent(ctx context.Context, query string) (any, error)
	GetPages(ctx context.Context, prefix string) ([]Page, error)
	FindPages(ctx context.Context, prefix, query string) (any, error)
	GetPage(ctx context.Context, path string) (*Page, error)
	GetSlugs(ctx context.Context, prefix string) ([]string, error)
	GetEntry(ctx context.Context, handle string) (*Entry, error)
	GetImage(ctx context.Context, name string) (*Image, error)
	GetImages(ctx context.Context) (map[string]Image, error)
	GetList(ctx context.Context, name string) ([]Option, error)
	GetOptions(ctx context.Context, name string) ([]Option, error)
	GetConfig(ctx context.Context) (Record, error)
	// Upgraded reports whether the client serves from the full document.
	Upgraded() bool
	// Invalidate drops facet results memoized before the upgrade.
	Invalidate()
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// TagResolver resolves an environment alias to an immutable tag. A failed
// resolution returns the alias unchanged.
type TagResolver interface {
	Resolve(ctx context.Context, credential Credential, alias string) string
}

// Config represents client configuration for building a SyncClient or
// AsyncClient with the contentclient package.
//
// # Routing
//
// The credential's routing prefix and site id select the target URL:
//
//	https://{routing}.{host}/{site-id}/{environment}?search=..&lang=..&mock=..
//
// Mode switches to the staging host or to the local development server.
// BaseURL replaces the scheme and host entirely (useful behind a proxy or in
// tests).
//
// # Caching
//
// Every fetch consults Cache first. A nil Cache gives each client its own
// unbounded in-memory cache; NewNoOpCache disables caching. With
// ExpirationMinutes > 0 entries are stored in a timestamped envelope and
// ignored once older than the window. Cache failures are logged and treated
// as misses.
//
// # Environment resolution
//
// With ResolveTags set, the Environment alias is resolved once to an
// immutable tag and all fetches use the tag, giving cache-friendly URLs.
type Config struct {
	// Token is the site credential. Required.
	Token string
	// Environment is the alias or tag to read. Defaults to "latest".
	Environment string
	// Language is sent as the lang parameter when set.
	Language string
	// Mode selects the host scheme. Defaults to ModeProduction.
	Mode Mode
	// Host overrides the public API host.
	Host string
	// LocalPort overrides the development server port in ModeLocal.
	LocalPort int
	// BaseURL overrides scheme and host for every mode.
	BaseURL string
	// MockData is sent as the mock parameter for test-class credentials.
	MockData bool

	// Cache is the adapter consulted around every fetch.
	Cache Cache
	// ExpirationMinutes is the freshness window of cached entries; 0 disables it.
	ExpirationMinutes int

	// ResolveTags enables alias to tag resolution.
	ResolveTags bool
	// Resolver shares resolutions across clients. Nil gives each client its own.
	Resolver TagResolver

	// HTTPTimeout bounds a single HTTP exchange.
	HTTPTimeout time.Duration
	// RetryMax is the number of retries for connection failures. HTTP error
	// statuses are never retried. A negative value disables retries.
	RetryMax int
	// RetryWaitMin is the minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum backoff between retries.
	RetryWaitMax time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger receives cache, resolution and transport diagnostics.
	Logger Logger
	// Interceptors run around every HTTP exchange.
	Interceptors *InterceptorChain
	// Clock replaces time.Now for cache expiration checks.
	Clock func() time.Time
}

// EnvironmentOrDefault returns the configured environment or "latest".
func (c *Config) EnvironmentOrDefault() string {
	if c.Environment == "" {
		return constants.DefaultEnvironment
	}

	return c.Environment
}

// Validate checks the credential and routing mode.
func (c *Config) Validate() (Credential, error) {
	credential, err := ParseCredential(c.Token)
	if err != nil {
		return Credential{}, err
	}

	if !c.Mode.Valid() {
		return Credential{}, &ConfigError{Err: ErrUnknownMode, Detail: string(c.Mode)}
	}

	return credential, nil
}
