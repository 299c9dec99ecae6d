package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstrn/ninjarmm/pkg/ninja"
)

func TestQueriesClient_Query(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/queries/antivirus-status", r.URL.Path)
		assert.Equal(t, "org = 5", r.URL.Query().Get("df"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"deviceId": 1, "status": "OK"}], "cursor": {"name": ""}}`))
	}))
	defer server.Close()

	client := NewTestClient(server.URL)

	params := ninja.NewQueryParams().WithDeviceFilter("org = 5")

	result, err := client.Queries().Query(context.Background(), "antivirus-status", params)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "OK", result.Results[0]["status"])
}

func TestQueriesClient_WindowsServices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/queries/windows-services", r.URL.Path)
		assert.Equal(t, "spooler", r.URL.Query().Get("name"))
		assert.Equal(t, "RUNNING", r.URL.Query().Get("state"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"deviceId": 1, "name": "spooler", "state": "RUNNING"}], "cursor": {"name": ""}}`))
	}))
	defer server.Close()

	client := NewTestClient(server.URL)

	params := ninja.NewQueryParams().WithName("spooler").WithState("RUNNING")

	result, err := client.Queries().WindowsServices(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "RUNNING", result.Results[0]["state"])
}

func TestQueriesClient_CustomFields(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/queries/custom-fields", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results": [{"deviceId": 1, "fields": {"assetTag": "A-100"}}], "cursor": {"name": ""}}`))
		}))
		defer server.Close()

		client := NewTestClient(server.URL)

		result, err := client.Queries().CustomFields(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, result.Results, 1)
	})

	t.Run("missing results key", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"cursor": {"name": "c1"}}`))
		}))
		defer server.Close()

		client := NewTestClient(server.URL)

		result, err := client.Queries().CustomFields(context.Background(), nil)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.False(t, result.HasResultsKey())

		records, err := client.Queries().AllCustomFields(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestQueriesClient_AllOSPatches(t *testing.T) {
	t.Parallel()

	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v2/queries/os-patches", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")

		switch call {
		case 1:
			assert.Empty(t, r.URL.Query().Get("cursor"))
			_, _ = w.Write([]byte(`{"results": [{"deviceId": 1}, {"deviceId": 2}], "cursor": {"name": "c1", "count": 2}}`))
		case 2:
			assert.Equal(t, "c1", r.URL.Query().Get("cursor"))
			_, _ = w.Write([]byte(`{"results": [{"deviceId": 3}], "cursor": {"name": "", "count": 1}}`))
		default:
			t.Errorf("unexpected call %d", call)
		}
	}))
	defer server.Close()

	client := NewTestClient(server.URL)

	patches, err := client.Queries().AllOSPatches(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, patches, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueriesClient_IterWindowsServices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("cursor") == "" {
			_, _ = w.Write([]byte(`{"results": [{"deviceId": 1}], "cursor": {"name": "c1"}}`))
		} else {
			_, _ = w.Write([]byte(`{"results": [{"deviceId": 2}], "cursor": {"name": ""}}`))
		}
	}))
	defer server.Close()

	client := NewTestClient(server.URL)

	iter := client.Queries().IterWindowsServices(context.Background(), nil)

	var count int

	for iter.HasNext() {
		_, err := iter.Next()
		require.NoError(t, err)

		count++
	}

	assert.Equal(t, 2, count)
}

func TestQueriesClient_QueryError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "Invalid device filter"}`))
	}))
	defer server.Close()

	client := NewTestClient(server.URL)

	result, err := client.Queries().OSPatches(context.Background(), ninja.NewQueryParams().WithDeviceFilter("bogus"))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "Invalid device filter")
}
