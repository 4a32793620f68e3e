package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Routing defaults.
const (
	// DefaultHost is the public content API host. The credential's routing
	// prefix is prepended as a subdomain.
	DefaultHost = "sitecontent.io"

	// DefaultEnvironment is the alias used when none is configured.
	DefaultEnvironment = "latest"

	// DefaultLocalPort is the fixed port of the local development server.
	DefaultLocalPort = 4321

	// StagingSuffix is appended to the routing prefix in staging mode.
	StagingSuffix = "-staging"

	// CredentialDelimiter separates routing prefix, site id and secret.
	CredentialDelimiter = "_"

	// MockCredentialClass is the routing class that requests simulated data.
	MockCredentialClass = "test"

	// ResolvePathSuffix is appended to the content path for tag resolution.
	ResolvePathSuffix = "/resolve"
)

// Query parameter names on the content URL.
const (
	QueryParamSearch = "search"
	QueryParamLang   = "lang"
	QueryParamMock   = "mock"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as tag resolution.
	ShortHTTPTimeout = 10 * time.Second

	// RedisConnectionTimeout bounds the initial Redis ping.
	RedisConnectionTimeout = 5 * time.Second
)

// Retry limits. Retries only cover connection failures.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 2

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 100 * time.Millisecond

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 2 * time.Second
)

// Cache defaults.
const (
	// DefaultCacheSize of zero means the memory cache is unbounded.
	DefaultCacheSize = 0

	// DefaultRedisKeyPrefix namespaces content entries in Redis.
	DefaultRedisKeyPrefix = "sitecontent:"

	// DefaultNATSBucket is the JetStream KV bucket for content entries.
	DefaultNATSBucket = "sitecontent"

	// CacheTimestampField is the envelope field holding the write time.
	CacheTimestampField = "_ts"

	// CacheDataField is the envelope field holding the cached value.
	CacheDataField = "data"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// UserAgent is sent when the caller does not override it.
const UserAgent = "sitecontent-go/1"
