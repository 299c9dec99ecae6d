// Package ninjaclient provides the main entry point for creating NinjaRMM API clients
package ninjaclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/jstrn/ninjarmm/internal/client"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// Regional API endpoints.
const (
	EndpointUS = "https://app.ninjarmm.com"
	EndpointEU = "https://eu.ninjarmm.com"
	EndpointOC = "https://oc.ninjarmm.com"
)

// New creates a new NinjaRMM API client from the given configuration.
func New(ctx context.Context, config *ninja.Config) (ninja.Client, error) {
	if config == nil {
		return nil, ninja.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, ninja.ErrAPIEndpointRequired
	}

	// Normalize API endpoint
	apiEndpoint := strings.TrimSuffix(config.APIEndpoint, "/")
	if !strings.HasPrefix(apiEndpoint, "http://") && !strings.HasPrefix(apiEndpoint, "https://") {
		apiEndpoint = "https://" + apiEndpoint
	}

	config.APIEndpoint = apiEndpoint

	// Use the internal client implementation
	apiClient, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return apiClient, nil
}

// NewWithToken creates a new client with an API endpoint and access token.
func NewWithToken(ctx context.Context, endpoint, token string) (ninja.Client, error) {
	return New(ctx, &ninja.Config{
		APIEndpoint: endpoint,
		AccessToken: token,
	})
}

// NewWithClientCredentials creates a new client using OAuth2 client credentials.
func NewWithClientCredentials(ctx context.Context, endpoint, clientID, clientSecret string) (ninja.Client, error) {
	return New(ctx, &ninja.Config{
		APIEndpoint:  endpoint,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}
