package ninja

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error response from the NinjaRMM API. The API
// reports failures as a JSON body with a single "message" field (sometimes
// "error" or "resultCode" on older endpoints); StatusCode carries the HTTP
// status the body arrived with.
type APIError struct {
	StatusCode int    `json:"-"                    yaml:"-"`
	Message    string `json:"message"              yaml:"message"`
	ResultCode string `json:"resultCode,omitempty" yaml:"resultCode,omitempty"`
	ErrorCode  string `json:"error,omitempty"      yaml:"error,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorCode
	}

	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, msg)
}

// AuthenticationError represents a 401 from the API or a failure to obtain a
// token. It wraps the underlying APIError when one was parsed.
type AuthenticationError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Message, e.Err)
	}

	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// Unwrap supports errors.Is/errors.As chains.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// RateLimitError represents a 429 that exhausted the client's retries.
// RetryAfter is the server-suggested wait in seconds, 0 when the header was
// absent.
type RateLimitError struct {
	RetryAfter int
	Err        error
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %ds", e.RetryAfter)
	}

	return "rate limited"
}

// Unwrap supports errors.Is/errors.As chains.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired           = errors.New("config is required")
	ErrAPIEndpointRequired      = errors.New("API endpoint is required")
	ErrNoCredentials            = errors.New("no valid credentials available")
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
	ErrNoMoreItems              = errors.New("no more items")
	ErrPageFuncRequired         = errors.New("page function is required")
	ErrEmptySearchQuery         = errors.New("search query is required")
	ErrOrganizationIDRequired   = errors.New("organization id is required")
	ErrDeviceIDRequired         = errors.New("device id is required")
	ErrTagNameRequired          = errors.New("tag name is required")
	ErrNotAuthenticated         = errors.New("not authenticated")
	ErrCircuitBreakerOpen       = errors.New("circuit breaker is open")
	ErrInvalidCacheType         = errors.New("invalid cache type")
	ErrUnknownConfigKey         = errors.New("unknown configuration key")
)

// IsNotFound checks if the error is a 404 from the API.
func IsNotFound(err error) bool {
	apiErr := &APIError{}

	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	authErr := &AuthenticationError{}
	if errors.As(err, &authErr) {
		return true
	}

	apiErr := &APIError{}

	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsRateLimited checks if the error is a rate limit rejection.
func IsRateLimited(err error) bool {
	rlErr := &RateLimitError{}
	if errors.As(err, &rlErr) {
		return true
	}

	apiErr := &APIError{}

	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// ParseAPIError parses an API error body. Parse failures fall back to an
// APIError carrying the raw body as its message so the caller always gets a
// usable error for a non-2xx status.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	if len(body) > 0 {
		if err := json.Unmarshal(body, apiErr); err != nil || (apiErr.Message == "" && apiErr.ErrorCode == "" && apiErr.ResultCode == "") {
			apiErr.Message = string(body)
		}
	}

	return apiErr
}
