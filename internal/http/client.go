// Package http provides the HTTP transport used by the NinjaRMM API client.
// It wraps retryablehttp so transient failures (connection errors, 5xx, 429)
// are retried with backoff, honoring Retry-After on rate limits.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jstrn/ninjarmm/internal/auth"
	"github.com/jstrn/ninjarmm/internal/constants"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// Request represents an API request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    interface{}
}

// Response represents an API response with its raw body.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
}

// Client is the low-level HTTP client for the NinjaRMM API.
type Client struct {
	baseURL      string
	tokenManager auth.TokenManager
	httpClient   *retryablehttp.Client
	logger       ninja.Logger
	debug        bool
	userAgent    string
	interceptors *ninja.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger used for debug logging.
func WithLogger(logger ninja.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging through the configured logger.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig tunes the retry behavior for transient failures.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithHTTPTimeout sets the timeout for a single request attempt.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithInterceptors runs the chain around every request. Request interceptors
// run before the request is sent and can short-circuit it with a cached
// response; response interceptors run after the response is read.
func WithInterceptors(chain *ninja.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithCache wires a response cache into the client: repeated GETs within
// their TTL are served locally, and successful mutations invalidate the
// cached resource and its collection listing.
func WithCache(manager *ninja.CacheManager, config *ninja.SmartCacheConfig) Option {
	return func(c *Client) {
		if c.interceptors == nil {
			c.interceptors = ninja.NewInterceptorChain()
		}

		ninja.ConfigureSmartCache(c.interceptors, manager, config)
	}
}

// NewClient creates a new HTTP client for the given API base URL. A nil token
// manager sends unauthenticated requests, which is only useful in tests.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.Logger = nil
	// Surface the final response instead of a "giving up" error so status
	// handling below stays uniform.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		httpClient:   retryClient,
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do executes an API request. Non-2xx statuses return the response together
// with a typed error: AuthenticationError for 401, RateLimitError for 429,
// APIError otherwise.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var intercepted *ninja.Request

	if c.interceptors != nil {
		intercepted = &ninja.Request{
			Method:  req.Method,
			Path:    req.Path,
			Headers: make(nethttp.Header),
			Metadata: map[string]interface{}{
				"query_params": flattenQuery(req.Query),
			},
		}

		if err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted); err != nil {
			return nil, err
		}

		if data, ok := intercepted.Metadata["cached_response"].([]byte); ok {
			if c.debug && c.logger != nil {
				c.logger.Debug("HTTP Request served from cache", map[string]interface{}{
					"method": req.Method,
					"url":    fullURL,
				})
			}

			return &Response{
				StatusCode: nethttp.StatusOK,
				Headers:    make(nethttp.Header),
				Body:       data,
			}, nil
		}
	}

	var rawBody interface{}

	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		rawBody = bodyBytes
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if intercepted != nil {
		for key, values := range intercepted.Headers {
			for _, value := range values {
				httpReq.Header.Add(key, value)
			}
		}
	}

	if c.tokenManager != nil {
		token, tokenErr := c.tokenManager.GetToken(ctx)
		if tokenErr != nil {
			return nil, &ninja.AuthenticationError{Message: "obtaining access token", Err: tokenErr}
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	response := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         fullURL,
			"status_code": httpResp.StatusCode,
		})
	}

	var statusErr error
	if httpResp.StatusCode >= nethttp.StatusBadRequest {
		statusErr = c.statusError(httpResp, body)
	}

	if c.interceptors != nil {
		interceptorErr := c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &ninja.Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Body:       body,
			Error:      statusErr,
		})
		// A cache write failure must not fail a completed call.
		if interceptorErr != nil && c.logger != nil {
			c.logger.Warn("response interceptor failed", map[string]interface{}{
				"method": req.Method,
				"path":   req.Path,
				"error":  interceptorErr.Error(),
			})
		}
	}

	return response, statusErr
}

// flattenQuery reduces url.Values to the single-valued map cache keys are
// built from.
func flattenQuery(query url.Values) map[string]string {
	if len(query) == 0 {
		return nil
	}

	params := make(map[string]string, len(query))
	for key, values := range query {
		params[key] = strings.Join(values, ",")
	}

	return params
}

// statusError maps a non-2xx response to a typed error.
func (c *Client) statusError(httpResp *nethttp.Response, body []byte) error {
	apiErr := ninja.ParseAPIError(httpResp.StatusCode, body)

	switch httpResp.StatusCode {
	case nethttp.StatusUnauthorized:
		return &ninja.AuthenticationError{Message: apiErr.Message, Err: apiErr}
	case nethttp.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(httpResp.Header.Get("Retry-After"))

		return &ninja.RateLimitError{RetryAfter: retryAfter, Err: apiErr}
	default:
		return apiErr
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: nethttp.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: nethttp.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: nethttp.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: nethttp.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: nethttp.MethodDelete,
		Path:   path,
	})
}
