package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister defines the interface for persisting token changes back to
// CLI configuration.
type ConfigPersister interface {
	UpdateInstanceToken(instanceURL, token string, expiresAt time.Time, refreshToken string) error
}

// ConfigTokenManager wraps OAuth2TokenManager and automatically persists
// renewed tokens to the CLI config, so a login survives across invocations.
type ConfigTokenManager struct {
	oauth2Manager   *OAuth2TokenManager
	configPersister ConfigPersister
	instanceURL     string
	mutex           sync.RWMutex
	lastToken       string
	lastExpiry      time.Time
}

// NewConfigTokenManager creates a new config-persisting token manager.
func NewConfigTokenManager(config *OAuth2Config, configPersister ConfigPersister, instanceURL string, initialToken string, initialExpiry time.Time) *ConfigTokenManager {
	oauth2Manager := NewOAuth2TokenManager(config)

	// If we have an initial token, set it in the OAuth2 manager
	if initialToken != "" {
		oauth2Manager.SetToken(initialToken, initialExpiry)
	}

	return &ConfigTokenManager{
		oauth2Manager:   oauth2Manager,
		configPersister: configPersister,
		instanceURL:     instanceURL,
		lastToken:       initialToken,
		lastExpiry:      initialExpiry,
	}
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token, err := m.oauth2Manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	// Check if the token was renewed and persist it
	currentToken := m.oauth2Manager.store.Get()
	if currentToken != nil && (currentToken.AccessToken != m.lastToken || !currentToken.ExpiresAt.Equal(m.lastExpiry)) {
		go func() {
			persistErr := m.persistToken(currentToken)
			if persistErr != nil {
				// Log error but don't fail the request
				_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist refreshed token: %v\n", persistErr)
			}
		}()

		m.lastToken = currentToken.AccessToken
		m.lastExpiry = currentToken.ExpiresAt
	}

	return token, nil
}

// RefreshToken forces a token refresh.
func (m *ConfigTokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	err := m.oauth2Manager.RefreshToken(ctx)
	if err != nil {
		return err
	}

	currentToken := m.oauth2Manager.store.Get()
	if currentToken != nil {
		persistErr := m.persistToken(currentToken)
		if persistErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist refreshed token: %v\n", persistErr)
		}

		m.lastToken = currentToken.AccessToken
		m.lastExpiry = currentToken.ExpiresAt
	}

	return nil
}

// SetToken manually sets the access token.
func (m *ConfigTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.oauth2Manager.SetToken(token, expiresAt)
	m.lastToken = token
	m.lastExpiry = expiresAt
}

// IsTokenExpiringSoon returns true if the token expires within the given duration.
func (m *ConfigTokenManager) IsTokenExpiringSoon(within time.Duration) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	token := m.oauth2Manager.store.Get()
	if token == nil {
		return true
	}

	return time.Now().Add(within).After(token.ExpiresAt)
}

// GetTokenExpiry returns the current token's expiration time.
func (m *ConfigTokenManager) GetTokenExpiry() time.Time {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	token := m.oauth2Manager.store.Get()
	if token == nil {
		return time.Time{}
	}

	return token.ExpiresAt
}

// persistToken saves the token to config.
func (m *ConfigTokenManager) persistToken(token *Token) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.UpdateInstanceToken(m.instanceURL, token.AccessToken, token.ExpiresAt, token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to update instance token: %w", err)
	}

	return nil
}
