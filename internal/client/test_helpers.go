package client

import (
	"sync"

	internalhttp "github.com/jstrn/ninjarmm/internal/http"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// NewTestClient creates a client without authentication for tests.
func NewTestClient(baseURL string) *Client {
	// Create HTTP client without token manager for testing
	httpClient := internalhttp.NewClient(baseURL, nil)

	client := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		converter:  ninja.NewTimestampConverter(false),
	}

	client.initializeResourceClients()

	return client
}

// newTestConfig returns a config pointing at a test server with a static
// token so client construction succeeds.
func newTestConfig(serverURL string) *ninja.Config {
	return &ninja.Config{
		APIEndpoint: serverURL,
		AccessToken: "test-token",
	}
}

// capturingLogger records warnings for assertions.
type capturingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *capturingLogger) Debug(msg string, fields map[string]interface{}) {}
func (l *capturingLogger) Info(msg string, fields map[string]interface{})  {}
func (l *capturingLogger) Error(msg string, fields map[string]interface{}) {}

func (l *capturingLogger) Warn(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.warnings = append(l.warnings, msg)
}

func (l *capturingLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.warnings...)
}
