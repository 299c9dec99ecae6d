package ninja

import (
	"context"
	"time"
)

// OrganizationsClient provides access to /v2/organizations.
type OrganizationsClient interface {
	// List fetches one page. Offset pagination: params.PageSize and
	// params.After.
	List(ctx context.Context, params *QueryParams) ([]Record, error)
	// ListAll walks every page and returns all organizations.
	ListAll(ctx context.Context, params *QueryParams) ([]Record, error)
	// IterAll returns a lazy iterator over every organization.
	IterAll(ctx context.Context, params *QueryParams) *OffsetIterator
	Get(ctx context.Context, organizationID int) (Record, error)
	Create(ctx context.Context, organization Record) (Record, error)
	Update(ctx context.Context, organizationID int, organization Record) (Record, error)
	Delete(ctx context.Context, organizationID int) error
}

// DevicesClient provides access to /v2/devices and device actions.
type DevicesClient interface {
	// List fetches one page. Offset pagination; params.DeviceFilter,
	// params.Expand, and params.IncludeBackupUsage apply.
	List(ctx context.Context, params *QueryParams) ([]Record, error)
	ListAll(ctx context.Context, params *QueryParams) ([]Record, error)
	IterAll(ctx context.Context, params *QueryParams) *OffsetIterator
	Get(ctx context.Context, deviceID int) (Record, error)
	Update(ctx context.Context, deviceID int, device Record) (Record, error)
	// Search fetches one page of /v2/devices/search. Cursor pagination;
	// params.Query is required.
	Search(ctx context.Context, params *QueryParams) (*QueryResult, error)
	SearchAll(ctx context.Context, params *QueryParams) ([]Record, error)
	IterSearch(ctx context.Context, params *QueryParams) *CursorIterator
	// Reboot requests a device reboot. mode is NORMAL or FORCED.
	Reboot(ctx context.Context, deviceID int, mode string) error
	// Approve approves or rejects pending devices.
	Approve(ctx context.Context, mode DeviceApproval, deviceIDs []int) error
	// SetMaintenance schedules a maintenance window on a device.
	SetMaintenance(ctx context.Context, deviceID int, req *MaintenanceRequest) error
	// CancelMaintenance removes a device's maintenance window.
	CancelMaintenance(ctx context.Context, deviceID int) error
}

// QueriesClient provides access to the cursor-paginated /v2/queries family.
type QueriesClient interface {
	// WindowsServices fetches one page of /v2/queries/windows-services.
	// params.DeviceFilter, params.Name, and params.State apply.
	WindowsServices(ctx context.Context, params *QueryParams) (*QueryResult, error)
	AllWindowsServices(ctx context.Context, params *QueryParams) ([]Record, error)
	IterWindowsServices(ctx context.Context, params *QueryParams) *CursorIterator
	// CustomFields fetches one page of /v2/queries/custom-fields.
	CustomFields(ctx context.Context, params *QueryParams) (*QueryResult, error)
	AllCustomFields(ctx context.Context, params *QueryParams) ([]Record, error)
	IterCustomFields(ctx context.Context, params *QueryParams) *CursorIterator
	// OSPatches fetches one page of /v2/queries/os-patches.
	OSPatches(ctx context.Context, params *QueryParams) (*QueryResult, error)
	AllOSPatches(ctx context.Context, params *QueryParams) ([]Record, error)
	IterOSPatches(ctx context.Context, params *QueryParams) *CursorIterator
	// Query fetches one page of an arbitrary /v2/queries/{name} endpoint.
	Query(ctx context.Context, name string, params *QueryParams) (*QueryResult, error)
}

// TagsClient provides access to /v2/tags.
type TagsClient interface {
	List(ctx context.Context, params *QueryParams) ([]Record, error)
	ListAll(ctx context.Context, params *QueryParams) ([]Record, error)
	IterAll(ctx context.Context, params *QueryParams) *OffsetIterator
	Create(ctx context.Context, tag Record) (Record, error)
	Delete(ctx context.Context, tagID int) error
}

// ResourceClients provides access to all resource-specific clients.
type ResourceClients interface {
	Organizations() OrganizationsClient
	Devices() DevicesClient
	Queries() QueriesClient
	Tags() TagsClient
}

// RuntimeControls exposes per-client toggles.
type RuntimeControls interface {
	// SetTimestampConversion toggles epoch-to-RFC3339 conversion of
	// response payloads at runtime.
	SetTimestampConversion(enabled bool)
	// TimestampConversionEnabled reports the current conversion state.
	TimestampConversionEnabled() bool
}

type Client interface {
	ResourceClients
	RuntimeControls
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a ninja.Client.
//
// # Authentication precedence
//
// The following precedence is applied by the concrete client implementation
// (see pkg/ninjaclient and internal/client):
//  1. AccessToken: if set, it is used directly as a static Bearer token.
//  2. ClientID/ClientSecret: uses the OAuth2 client_credentials grant against
//     TokenURL with the configured scopes. A RefreshToken, when also set,
//     lets the manager renew via refresh_token instead.
//  3. No credentials: client construction fails; every NinjaRMM endpoint
//     requires authentication.
//
// # Token URL
//
// If TokenURL is empty it defaults to APIEndpoint + "/oauth/token", which is
// correct for all NinjaRMM regions (app, eu, oc).
//
// # Timeouts and retries
//
// Per-request timeouts should generally be controlled via context passed to
// client methods. Transient failures (>=500, 429, connection errors) are
// retried with backoff; 429 responses honor the Retry-After header. Tune via
// RetryMax/RetryWaitMin/RetryWaitMax.
type Config struct {
	// APIEndpoint: base URL of the NinjaRMM instance (e.g.
	// "https://app.ninjarmm.com" or "https://eu.ninjarmm.com").
	// ninjaclient.New normalizes this value by trimming a trailing slash
	// and adding "https://" if no scheme is present.
	APIEndpoint string

	// Authentication options (provide one)
	// ClientID: OAuth2 client ID for the client_credentials grant.
	ClientID string
	// ClientSecret: OAuth2 client secret used with ClientID.
	ClientSecret string
	// RefreshToken: optional refresh token used to renew access tokens.
	RefreshToken string
	// AccessToken: if set, used directly as a Bearer token.
	AccessToken string
	// TokenURL: full OAuth2 token endpoint. Defaults to
	// APIEndpoint + "/oauth/token".
	TokenURL string
	// Scopes: OAuth2 scopes requested with the token. Defaults to
	// monitoring, management, and control.
	Scopes []string

	// Optional configurations
	// HTTPTimeout: optional default HTTP timeout where supported. Most
	// client calls should rely on context timeouts.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient failures. If 0, a
	// sensible default is used by the client.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// Debug: enables verbose HTTP request/response logging when a Logger
	// is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and
	// pagination helpers.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the
	// client.
	UserAgent string
	// Cache: optional response cache. When set to a type other than
	// CacheTypeNone, repeated GETs within their TTL are served from the
	// cache and successful mutations invalidate the cached resource.
	Cache *CacheConfig
	// ConvertTimestamps: when true, epoch timestamp fields in responses
	// are converted to RFC 3339 UTC strings. Most callers want this on.
	ConvertTimestamps bool
	// AdditionalTimestampFields: extra field names treated as epoch
	// timestamps on top of the built-in set.
	AdditionalTimestampFields []string
}
