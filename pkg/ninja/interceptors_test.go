package ninja_test

import (
	"context"
	"testing"
	"time"

	"github.com/jstrn/ninjarmm/pkg/ninja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	chain := ninja.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *ninja.Request) error {
		executionOrder = append(executionOrder, "first")
		return nil
	})

	chain.AddRequestInterceptor(func(ctx context.Context, req *ninja.Request) error {
		executionOrder = append(executionOrder, "second")
		return nil
	})

	req := &ninja.Request{
		Method: "GET",
		Path:   "/v2/devices",
	}

	err := chain.ExecuteRequestInterceptors(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_ResponseInterceptors(t *testing.T) {
	chain := ninja.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddResponseInterceptor(func(ctx context.Context, req *ninja.Request, resp *ninja.Response) error {
		executionOrder = append(executionOrder, "first")
		return nil
	})

	chain.AddResponseInterceptor(func(ctx context.Context, req *ninja.Request, resp *ninja.Response) error {
		executionOrder = append(executionOrder, "second")
		return nil
	})

	req := &ninja.Request{
		Method: "GET",
		Path:   "/v2/devices",
	}
	resp := &ninja.Response{
		StatusCode: 200,
	}

	err := chain.ExecuteResponseInterceptors(ctx, req, resp)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestHeaderInterceptor(t *testing.T) {
	headers := map[string]string{
		"X-Custom-Header": "custom-value",
		"X-Request-ID":    "123456",
	}

	interceptor := ninja.HeaderInterceptor(headers)
	ctx := context.Background()
	req := &ninja.Request{
		Method: "GET",
		Path:   "/v2/organizations",
	}

	err := interceptor(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "custom-value", req.Headers.Get("X-Custom-Header"))
	assert.Equal(t, "123456", req.Headers.Get("X-Request-ID"))
}

func TestAuthenticationInterceptor(t *testing.T) {
	tokenProvider := func(ctx context.Context) (string, error) {
		return "test-token", nil
	}

	interceptor := ninja.AuthenticationInterceptor(tokenProvider)
	ctx := context.Background()
	req := &ninja.Request{
		Method: "GET",
		Path:   "/v2/organizations",
	}

	err := interceptor(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", req.Headers.Get("Authorization"))
}

func TestMetricsCollector(t *testing.T) {
	collector := ninja.NewMetricsCollector()

	var notifiedEndpoint string
	var notifiedMetrics *ninja.Metrics

	collector.SetOnChange(func(endpoint string, metrics *ninja.Metrics) {
		notifiedEndpoint = endpoint
		notifiedMetrics = metrics
	})

	requestInterceptor := ninja.MetricsRequestInterceptor(collector)
	responseInterceptor := ninja.MetricsResponseInterceptor(collector)

	ctx := context.Background()
	req := &ninja.Request{
		Method: "GET",
		Path:   "/v2/devices",
	}

	err := requestInterceptor(ctx, req)
	require.NoError(t, err)

	// Simulate some delay
	time.Sleep(10 * time.Millisecond)

	resp := &ninja.Response{
		StatusCode: 200,
	}
	err = responseInterceptor(ctx, req, resp)
	require.NoError(t, err)

	assert.Equal(t, "GET /v2/devices", notifiedEndpoint)
	assert.NotNil(t, notifiedMetrics)
	assert.Equal(t, int64(1), notifiedMetrics.TotalRequests)
	assert.Equal(t, int64(0), notifiedMetrics.TotalErrors)
	assert.True(t, notifiedMetrics.AverageLatency > 0)

	// A second request that fails should bump the error count
	req2 := &ninja.Request{
		Method: "GET",
		Path:   "/v2/devices",
	}
	resp2 := &ninja.Response{
		StatusCode: 500,
	}
	err = responseInterceptor(ctx, req2, resp2)
	require.NoError(t, err)

	metrics := collector.GetMetrics("GET /v2/devices")
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)
}

func TestCircuitBreaker(t *testing.T) {
	config := &ninja.CircuitBreakerConfig{
		Threshold:        2,
		Timeout:          100 * time.Millisecond,
		SuccessThreshold: 1,
	}
	breaker := ninja.NewCircuitBreaker(config)

	requestInterceptor := ninja.CircuitBreakerRequestInterceptor(breaker)
	responseInterceptor := ninja.CircuitBreakerResponseInterceptor(breaker)

	ctx := context.Background()
	req := &ninja.Request{
		Method: "GET",
		Path:   "/v2/devices",
	}

	// Circuit should be closed initially
	err := requestInterceptor(ctx, req)
	require.NoError(t, err)

	// Simulate failures
	for i := 0; i < 2; i++ {
		resp := &ninja.Response{StatusCode: 500}
		err = responseInterceptor(ctx, req, resp)
		require.NoError(t, err)
	}

	// Circuit should be open now
	err = requestInterceptor(ctx, req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")

	// Wait for timeout
	time.Sleep(150 * time.Millisecond)

	// Circuit should be half-open now
	err = requestInterceptor(ctx, req)
	require.NoError(t, err)

	// Simulate success
	resp := &ninja.Response{StatusCode: 200}
	err = responseInterceptor(ctx, req, resp)
	require.NoError(t, err)

	// Circuit should be closed again
	err = requestInterceptor(ctx, req)
	require.NoError(t, err)
}

func TestRateLimitInterceptor(t *testing.T) {
	interceptor := ninja.RateLimitInterceptor(100)

	ctx := context.Background()
	req := &ninja.Request{Method: "GET", Path: "/v2/devices"}

	// Tokens available up front; a few requests pass without blocking
	for i := 0; i < 3; i++ {
		require.NoError(t, interceptor(ctx, req))
	}

	// A cancelled context aborts the wait
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	limited := ninja.RateLimitInterceptor(1)
	_ = limited(ctx, req) // drain the single token

	err := limited(cancelled, req)
	require.ErrorIs(t, err, context.Canceled)
}
