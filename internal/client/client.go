package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/jstrn/ninjarmm/internal/auth"
	"github.com/jstrn/ninjarmm/internal/constants"
	"github.com/jstrn/ninjarmm/internal/http"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// Static errors for err113 compliance. Construction errors reuse the public
// sentinels so errors.Is works across package boundaries.
var (
	ErrConfigRequired           = ninja.ErrConfigRequired
	ErrAPIEndpointRequired      = ninja.ErrAPIEndpointRequired
	ErrNoCredentials            = ninja.ErrNoCredentials
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Client implements the ninja.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       ninja.Logger
	converter    *ninja.TimestampConverter

	// Resource clients
	organizations ninja.OrganizationsClient
	devices       ninja.DevicesClient
	queries       ninja.QueriesClient
	tags          ninja.TagsClient
}

// createTokenManager creates the appropriate token manager based on config.
// A static access token wins over client credentials.
func createTokenManager(config *ninja.Config) auth.TokenManager {
	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	if config.ClientID != "" && config.ClientSecret != "" {
		return auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			TokenURL:     getTokenURL(config),
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RefreshToken: config.RefreshToken,
			Scopes:       config.Scopes,
		})
	}

	return nil // No credentials
}

// getTokenURL returns the token URL from config or the instance default.
func getTokenURL(config *ninja.Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	return config.APIEndpoint + constants.TokenPath
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *ninja.Config) ([]http.Option, error) {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.ExtendedRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.Cache != nil && config.Cache.Type != ninja.CacheTypeNone {
		cache, err := ninja.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("building response cache: %w", err)
		}

		httpOpts = append(httpOpts, http.WithCache(ninja.NewCacheManager(cache, config.Cache.Options), nil))
	}

	return httpOpts, nil
}

// New creates a new NinjaRMM API client. Every NinjaRMM endpoint requires
// authentication, so construction fails when the config carries no
// credentials.
func New(_ context.Context, config *ninja.Config) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	tokenManager := createTokenManager(config)
	if tokenManager == nil {
		return nil, ErrNoCredentials
	}

	return newWithTokenManager(config, tokenManager)
}

// NewWithTokenManager creates a new NinjaRMM API client with a custom token
// manager.
func NewWithTokenManager(config *ninja.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	if tokenManager == nil {
		return nil, ErrNoTokenManagerConfigured
	}

	return newWithTokenManager(config, tokenManager)
}

func newWithTokenManager(config *ninja.Config, tokenManager auth.TokenManager) (*Client, error) {
	httpOpts, err := createHTTPClientOptions(config)
	if err != nil {
		return nil, err
	}

	httpClient := http.NewClient(config.APIEndpoint, tokenManager, httpOpts...)

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      config.APIEndpoint,
		logger:       config.Logger,
		converter:    ninja.NewTimestampConverter(config.ConvertTimestamps, config.AdditionalTimestampFields...),
	}

	client.initializeResourceClients()

	return client, nil
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// GetToken returns the current access token from the token manager.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", ErrNoTokenManagerConfigured
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// RefreshToken forces the token manager to renew the access token.
func (c *Client) RefreshToken(ctx context.Context) error {
	if c.tokenManager == nil {
		return ErrNoTokenManagerConfigured
	}

	err := c.tokenManager.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	return nil
}

// Resource client accessors

// Organizations implements ninja.Client.Organizations.
func (c *Client) Organizations() ninja.OrganizationsClient {
	return c.organizations
}

// Devices implements ninja.Client.Devices.
func (c *Client) Devices() ninja.DevicesClient {
	return c.devices
}

// Queries implements ninja.Client.Queries.
func (c *Client) Queries() ninja.QueriesClient {
	return c.queries
}

// Tags implements ninja.Client.Tags.
func (c *Client) Tags() ninja.TagsClient {
	return c.tags
}

// SetTimestampConversion implements ninja.Client.SetTimestampConversion.
func (c *Client) SetTimestampConversion(enabled bool) {
	c.converter.SetEnabled(enabled)
}

// TimestampConversionEnabled implements ninja.Client.TimestampConversionEnabled.
func (c *Client) TimestampConversionEnabled() bool {
	return c.converter.Enabled()
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients() {
	c.organizations = NewOrganizationsClient(c.httpClient, c.converter, c.logger)
	c.devices = NewDevicesClient(c.httpClient, c.converter, c.logger)
	c.queries = NewQueriesClient(c.httpClient, c.converter, c.logger)
	c.tags = NewTagsClient(c.httpClient, c.converter, c.logger)
}

// paginationOptions derives pagination options from query params.
func paginationOptions(params *ninja.QueryParams, logger ninja.Logger) ninja.PaginationOptions {
	opts := ninja.DefaultPaginationOptions()
	opts.Logger = logger

	if params != nil && params.PageSize > 0 {
		opts.PageSize = params.PageSize
	}

	return opts
}
