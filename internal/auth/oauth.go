package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jstrn/ninjarmm/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrNoCredentials      = errors.New("no valid credentials available")
	ErrTokenRequestFailed = errors.New("token request failed")
	ErrStaticTokenRefresh = errors.New("static token cannot be refreshed")
)

// TokenManager manages OAuth2 access tokens for API requests.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// OAuth2Config holds the settings for talking to a NinjaRMM token endpoint.
type OAuth2Config struct {
	// TokenURL is the full token endpoint, e.g.
	// "https://app.ninjarmm.com/oauth/token".
	TokenURL     string
	ClientID     string
	ClientSecret string
	// RefreshToken, when set, is used with the refresh_token grant before
	// falling back to client_credentials.
	RefreshToken string
	// AccessToken seeds the store with an already-issued token.
	AccessToken string
	// Scopes defaults to monitoring, management, and control.
	Scopes []string
	// HTTPClient overrides the client used for token requests.
	HTTPClient *http.Client
}

// OAuth2TokenManager obtains and renews tokens via the client_credentials and
// refresh_token grants.
type OAuth2TokenManager struct {
	config     *OAuth2Config
	store      *TokenStore
	httpClient *http.Client
	mu         sync.Mutex
}

// NewOAuth2TokenManager creates a token manager for the given configuration.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.ShortHTTPTimeout}
	}

	manager := &OAuth2TokenManager{
		config:     config,
		store:      NewTokenStore(),
		httpClient: httpClient,
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			TokenType:    "bearer",
		})
	}

	return manager
}

// GetToken returns a valid access token, fetching or renewing one if needed.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	token, err := m.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	m.store.Set(token)

	return token.AccessToken, nil
}

// RefreshToken forces a token renewal regardless of the current token's
// validity.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.fetchToken(ctx)
	if err != nil {
		return err
	}

	m.store.Set(token)

	return nil
}

// SetToken manually sets the access token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

// fetchToken obtains a new token, preferring the refresh_token grant when a
// refresh token is available.
func (m *OAuth2TokenManager) fetchToken(ctx context.Context) (*Token, error) {
	refresh := m.config.RefreshToken
	if stored := m.store.Get(); stored != nil && stored.RefreshToken != "" {
		refresh = stored.RefreshToken
	}

	if refresh != "" {
		token, err := m.requestRefreshGrant(ctx, refresh)
		if err == nil {
			return token, nil
		}

		if m.config.ClientID == "" || m.config.ClientSecret == "" {
			return nil, err
		}
	}

	if m.config.ClientID != "" && m.config.ClientSecret != "" {
		return m.requestClientCredentials(ctx)
	}

	return nil, ErrNoCredentials
}

func (m *OAuth2TokenManager) requestClientCredentials(ctx context.Context) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", m.scope())

	return m.requestToken(ctx, form, true)
}

func (m *OAuth2TokenManager) requestRefreshGrant(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	if m.config.ClientID != "" {
		form.Set("client_id", m.config.ClientID)
	}

	if m.config.ClientSecret != "" {
		form.Set("client_secret", m.config.ClientSecret)
	}

	return m.requestToken(ctx, form, false)
}

func (m *OAuth2TokenManager) scope() string {
	if len(m.config.Scopes) == 0 {
		return constants.DefaultScope
	}

	return strings.Join(m.config.Scopes, " ")
}

// requestToken performs the form POST against the token endpoint.
func (m *OAuth2TokenManager) requestToken(ctx context.Context, form url.Values, basicAuth bool) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if basicAuth {
		req.SetBasicAuth(m.config.ClientID, m.config.ClientSecret)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, tokenError(resp.StatusCode, body)
	}

	var token Token

	err = json.Unmarshal(body, &token)
	if err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}

// tokenError turns an OAuth2 error response into a useful error value.
func tokenError(statusCode int, body []byte) error {
	var oauthErr struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}

	_ = json.Unmarshal(body, &oauthErr)

	if oauthErr.Error != "" {
		if oauthErr.Description != "" {
			return fmt.Errorf("%w: %s: %s", ErrTokenRequestFailed, oauthErr.Error, oauthErr.Description)
		}

		return fmt.Errorf("%w: %s", ErrTokenRequestFailed, oauthErr.Error)
	}

	return fmt.Errorf("%w: status %d", ErrTokenRequestFailed, statusCode)
}

// NewClientCredentialsManager creates a token manager for the
// client_credentials grant against a NinjaRMM instance. The token endpoint is
// derived from the instance URL.
func NewClientCredentialsManager(apiURL, clientID, clientSecret string, scopes ...string) *OAuth2TokenManager {
	if len(scopes) == 0 {
		scopes = strings.Fields(constants.DefaultScope)
	}

	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     strings.TrimSuffix(apiURL, "/") + constants.TokenPath,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       scopes,
	})
}

// StaticTokenManager serves a fixed token and cannot refresh it.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a token manager around an already-issued
// token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	store := NewTokenStore()
	store.Set(&Token{
		AccessToken: token,
		TokenType:   "bearer",
	})

	return &StaticTokenManager{store: store}
}

// GetToken returns the static token.
func (m *StaticTokenManager) GetToken(_ context.Context) (string, error) {
	token := m.store.Get()
	if token == nil || token.AccessToken == "" {
		return "", ErrNoCredentials
	}

	return token.AccessToken, nil
}

// RefreshToken always fails; a static token has no renewal path.
func (m *StaticTokenManager) RefreshToken(_ context.Context) error {
	return ErrStaticTokenRefresh
}

// SetToken replaces the static token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}
