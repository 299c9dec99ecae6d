package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstrn/ninjarmm/pkg/ninja"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		client, err := New(context.Background(), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfigRequired)
		assert.Nil(t, client)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		t.Parallel()

		client, err := New(context.Background(), &ninja.Config{AccessToken: "token"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAPIEndpointRequired)
		assert.Nil(t, client)
	})

	t.Run("no credentials", func(t *testing.T) {
		t.Parallel()

		client, err := New(context.Background(), &ninja.Config{APIEndpoint: "https://app.ninjarmm.com"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoCredentials)
		assert.Nil(t, client)
	})

	t.Run("with access token", func(t *testing.T) {
		t.Parallel()

		client, err := New(context.Background(), &ninja.Config{
			APIEndpoint: "https://app.ninjarmm.com",
			AccessToken: "static-token",
		})
		require.NoError(t, err)
		require.NotNil(t, client)

		token, err := client.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "static-token", token)
	})

	t.Run("with client credentials", func(t *testing.T) {
		t.Parallel()

		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "/oauth/token", r.URL.Path)
			assert.Equal(t, "client_credentials", r.FormValue("grant_type"))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "oauth-token",
				"token_type":   "bearer",
				"expires_in":   3600,
			})
		}))
		defer tokenServer.Close()

		client, err := New(context.Background(), &ninja.Config{
			APIEndpoint:  tokenServer.URL,
			ClientID:     "client-id",
			ClientSecret: "client-secret",
		})
		require.NoError(t, err)

		token, err := client.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "oauth-token", token)
	})
}

func TestNewWithTokenManager(t *testing.T) {
	t.Parallel()

	t.Run("nil token manager", func(t *testing.T) {
		t.Parallel()

		client, err := NewWithTokenManager(&ninja.Config{
			APIEndpoint: "https://app.ninjarmm.com",
		}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoTokenManagerConfigured)
		assert.Nil(t, client)
	})
}

func TestClient_SendsBearerToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := New(context.Background(), newTestConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Organizations().List(context.Background(), nil)
	require.NoError(t, err)
}

func TestClient_TimestampConversionToggle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 5, "created": 1680000000}`))
	}))
	defer server.Close()

	config := newTestConfig(server.URL)
	config.ConvertTimestamps = true

	client, err := New(context.Background(), config)
	require.NoError(t, err)
	assert.True(t, client.TimestampConversionEnabled())

	org, err := client.Organizations().Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "2023-03-28T10:40:00Z", org["created"])

	client.SetTimestampConversion(false)
	assert.False(t, client.TimestampConversionEnabled())

	org, err = client.Organizations().Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, float64(1680000000), org["created"])
}

func TestClient_ResponseCache(t *testing.T) {
	t.Parallel()

	var gets atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": 42, "name": "Acme"})
	}))
	defer server.Close()

	config := newTestConfig(server.URL)
	config.Cache = &ninja.CacheConfig{
		Type:   ninja.CacheTypeMemory,
		Memory: &ninja.MemoryCacheConfig{MaxSize: 10},
	}

	client, err := New(context.Background(), config)
	require.NoError(t, err)

	first, err := client.Organizations().Get(context.Background(), 42)
	require.NoError(t, err)

	second, err := client.Organizations().Get(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), gets.Load())

	// A successful update stales the cached record.
	_, err = client.Organizations().Update(context.Background(), 42, ninja.Record{"name": "Globex"})
	require.NoError(t, err)

	_, err = client.Organizations().Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gets.Load())
}
