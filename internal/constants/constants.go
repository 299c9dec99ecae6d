package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second

	// DefaultRetryAfter is used when a 429 arrives without a Retry-After
	// header.
	DefaultRetryAfter = 5 * time.Second
)

// Authentication.
const (
	// TokenExpirationBuffer is subtracted from token lifetimes so tokens
	// refresh slightly before they actually expire.
	TokenExpirationBuffer = 30 * time.Second

	// DefaultScope covers the monitoring, management, and control scopes
	// accepted by the NinjaRMM token endpoint.
	DefaultScope = "monitoring management control"

	// TokenPath is appended to the API endpoint when no token URL is
	// configured.
	TokenPath = "/oauth/token"
)

// Pagination.
const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 100

	// MaxPageSize is the largest page size the API accepts.
	MaxPageSize = 1000

	// SmallPageSize is used for demonstrations or small lists.
	SmallPageSize = 5
)

// Rate limiting and resilience.
const (
	// DefaultRequestsPerSecond is the client-side rate limit applied when
	// rate limiting is enabled.
	DefaultRequestsPerSecond = 10

	// CircuitBreakerThreshold is the failure count that opens the breaker.
	CircuitBreakerThreshold = 5

	// CircuitBreakerTimeout is how long the breaker stays open before a
	// probe is allowed.
	CircuitBreakerTimeout = 30 * time.Second

	// CircuitBreakerSuccessThreshold is the success count that closes a
	// half-open breaker.
	CircuitBreakerSuccessThreshold = 2
)

// Circuit breaker states.
const (
	StatusOpen     = "open"
	StatusHalfOpen = "half-open"
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 3

	// BufferSize is the default buffer size for channels.
	BufferSize = 100
)

// Cache configuration.
const (
	// DefaultCacheSize is the default entry cap for the in-memory cache.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default time-to-live for cached responses.
	DefaultCacheTTL = 5 * time.Minute

	// OrganizationsCacheTTL applies to organization listings, which change
	// rarely.
	OrganizationsCacheTTL = 15 * time.Minute

	// DevicesCacheTTL applies to device listings.
	DevicesCacheTTL = 2 * time.Minute

	// QueriesCacheTTL applies to /v2/queries results, which reflect live
	// telemetry.
	QueriesCacheTTL = 30 * time.Second

	// DefaultNATSCacheBucket is the JetStream KV bucket used by the NATS
	// cache backend.
	DefaultNATSCacheBucket = "ninja-cache"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// MaskedSecret replaces secret values in rendered configuration.
const MaskedSecret = "***"

// API paths.
const (
	OrganizationsPath = "/v2/organizations"
	DevicesPath       = "/v2/devices"
	DeviceSearchPath  = "/v2/devices/search"
	QueriesPathPrefix = "/v2/queries"
	TagsPath          = "/v2/tags"
)

// DefaultUserAgent is the default User-Agent header value.
const DefaultUserAgent = "ninjarmm-go-client/1.0"
