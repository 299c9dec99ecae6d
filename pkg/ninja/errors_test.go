package ninja

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "message set",
			err:      &APIError{StatusCode: 404, Message: "Device not found"},
			expected: "API error (status 404): Device not found",
		},
		{
			name:     "error code fallback",
			err:      &APIError{StatusCode: 400, ErrorCode: "invalid_request"},
			expected: "API error (status 400): invalid_request",
		},
		{
			name:     "status text fallback",
			err:      &APIError{StatusCode: 500},
			expected: "API error (status 500): Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAuthenticationError_Error(t *testing.T) {
	err := &AuthenticationError{Message: "token request rejected"}
	assert.Equal(t, "authentication failed: token request rejected", err.Error())

	wrapped := &AuthenticationError{
		Message: "token request rejected",
		Err:     &APIError{StatusCode: 401, Message: "Invalid credentials"},
	}
	assert.Contains(t, wrapped.Error(), "Invalid credentials")
}

func TestRateLimitError_Error(t *testing.T) {
	assert.Equal(t, "rate limited: retry after 5s", (&RateLimitError{RetryAfter: 5}).Error())
	assert.Equal(t, "rate limited", (&RateLimitError{}).Error())
}

func TestIsNotFound(t *testing.T) {
	notFound := &APIError{StatusCode: http.StatusNotFound, Message: "Organization not found"}
	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(fmt.Errorf("getting organization: %w", notFound)))
	assert.False(t, IsNotFound(&APIError{StatusCode: http.StatusBadRequest}))
	assert.False(t, IsNotFound(errors.New("plain error")))
	assert.False(t, IsNotFound(nil))
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(&APIError{StatusCode: http.StatusUnauthorized}))
	assert.True(t, IsUnauthorized(&AuthenticationError{Message: "expired"}))
	assert.True(t, IsUnauthorized(fmt.Errorf("request: %w", &AuthenticationError{Message: "expired"})))
	assert.False(t, IsUnauthorized(&APIError{StatusCode: http.StatusForbidden}))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&RateLimitError{RetryAfter: 10}))
	assert.True(t, IsRateLimited(&APIError{StatusCode: http.StatusTooManyRequests}))
	assert.False(t, IsRateLimited(&APIError{StatusCode: http.StatusNotFound}))
}

func TestParseAPIError(t *testing.T) {
	t.Run("message body", func(t *testing.T) {
		apiErr := ParseAPIError(404, []byte(`{"message": "Device not found"}`))
		require.NotNil(t, apiErr)
		assert.Equal(t, 404, apiErr.StatusCode)
		assert.Equal(t, "Device not found", apiErr.Message)
	})

	t.Run("oauth style body", func(t *testing.T) {
		apiErr := ParseAPIError(400, []byte(`{"error": "invalid_grant", "resultCode": "FAILURE"}`))
		assert.Equal(t, "invalid_grant", apiErr.ErrorCode)
		assert.Equal(t, "FAILURE", apiErr.ResultCode)
	})

	t.Run("non-JSON body", func(t *testing.T) {
		apiErr := ParseAPIError(502, []byte("Bad Gateway"))
		assert.Equal(t, "Bad Gateway", apiErr.Message)
	})

	t.Run("empty body", func(t *testing.T) {
		apiErr := ParseAPIError(500, nil)
		assert.Equal(t, 500, apiErr.StatusCode)
		assert.Empty(t, apiErr.Message)
	})
}
