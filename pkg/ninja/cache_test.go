package ninja_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jstrn/ninjarmm/pkg/ninja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(10)
	ctx := context.Background()

	entry := &ninja.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
		ETag:      "abc123",
	}

	err := cache.Set(ctx, "key1", entry)
	require.NoError(t, err)

	retrieved, err := cache.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
	assert.Equal(t, entry.ETag, retrieved.ETag)
}

func TestMemoryCache_GetNonExistent(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(10)
	ctx := context.Background()

	_, err := cache.Get(ctx, "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key not found")
}

func TestMemoryCache_GetExpired(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(10)
	ctx := context.Background()

	entry := &ninja.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(-1 * time.Hour), // Already expired
		ETag:      "abc123",
	}

	err := cache.Set(ctx, "key1", entry)
	require.NoError(t, err)

	_, err = cache.Get(ctx, "key1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry expired")
}

func TestMemoryCache_Delete(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(10)
	ctx := context.Background()

	entry := &ninja.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	err := cache.Set(ctx, "key1", entry)
	require.NoError(t, err)
	assert.True(t, cache.Has(ctx, "key1"))

	err = cache.Delete(ctx, "key1")
	require.NoError(t, err)

	assert.False(t, cache.Has(ctx, "key1"))
}

func TestMemoryCache_Clear(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := &ninja.CacheEntry{
			Data:      []byte("test data"),
			ExpiresAt: time.Now().Add(1 * time.Hour),
		}
		_ = cache.Set(ctx, string(rune('a'+i)), entry)
	}

	assert.True(t, cache.Has(ctx, "a"))
	assert.True(t, cache.Has(ctx, "b"))
	assert.True(t, cache.Has(ctx, "c"))

	err := cache.Clear(ctx)
	require.NoError(t, err)

	assert.False(t, cache.Has(ctx, "a"))
	assert.False(t, cache.Has(ctx, "b"))
	assert.False(t, cache.Has(ctx, "c"))
}

func TestMemoryCache_MaxSize(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := &ninja.CacheEntry{
			Data:      []byte("test data"),
			ExpiresAt: time.Now().Add(time.Duration(i+1) * time.Hour),
		}
		_ = cache.Set(ctx, string(rune('a'+i)), entry)
	}

	// The cache should have evicted the entry closest to expiry
	has := 0

	for i := 0; i < 3; i++ {
		if cache.Has(ctx, string(rune('a'+i))) {
			has++
		}
	}

	assert.LessOrEqual(t, has, 2)
	assert.False(t, cache.Has(ctx, "a"))
}

func TestMemoryCache_Cleanup(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(10)
	ctx := context.Background()

	expiredEntry := &ninja.CacheEntry{
		Data:      []byte("expired"),
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}
	validEntry := &ninja.CacheEntry{
		Data:      []byte("valid"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	_ = cache.Set(ctx, "expired", expiredEntry)
	_ = cache.Set(ctx, "valid", validEntry)

	cache.Cleanup()

	assert.True(t, cache.Has(ctx, "valid"))
	assert.False(t, cache.Has(ctx, "expired"))
}

func TestCacheManager_GetCacheKey(t *testing.T) {
	t.Parallel()

	manager := ninja.NewCacheManager(nil, nil)

	key1 := manager.GetCacheKey("GET", "/v2/organizations", nil)
	assert.Equal(t, "GET:/v2/organizations", key1)

	params := map[string]string{"pageSize": "50", "after": "10"}
	key2 := manager.GetCacheKey("GET", "/v2/organizations", params)
	assert.Contains(t, key2, "GET:/v2/organizations:")
	assert.Contains(t, key2, "pageSize")
	assert.Contains(t, key2, "after")

	// params are order-independent
	key3 := manager.GetCacheKey("GET", "/v2/organizations", map[string]string{"after": "10", "pageSize": "50"})
	assert.Equal(t, key2, key3)
}

func TestCacheManager_SetAndGet(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(10)
	manager := ninja.NewCacheManager(cache, nil)
	ctx := context.Background()

	data := []byte("test data")
	key := "test-key"

	err := manager.Set(ctx, key, data, 1*time.Hour)
	require.NoError(t, err)

	retrieved, err := manager.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, data, retrieved)

	stats := manager.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestCacheManager_SetWithETag(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(10)
	manager := ninja.NewCacheManager(cache, nil)
	ctx := context.Background()

	err := manager.SetWithETag(ctx, "test-key", []byte("test data"), "abc123", 1*time.Hour)
	require.NoError(t, err)

	entry, err := manager.GetEntry(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("test data"), entry.Data)
	assert.Equal(t, "abc123", entry.ETag)
}

func TestCacheManager_Miss(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(10)
	manager := ninja.NewCacheManager(cache, nil)
	ctx := context.Background()

	_, err := manager.Get(ctx, "nonexistent")
	require.Error(t, err)

	stats := manager.GetStats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCacheStats_GetHitRate(t *testing.T) {
	t.Parallel()

	stats := &ninja.CacheStats{
		Hits:   75,
		Misses: 25,
	}

	hitRate := stats.GetHitRate()
	assert.InDelta(t, 0.75, hitRate, 0.0001)

	emptyStats := &ninja.CacheStats{}
	assert.InDelta(t, 0.0, emptyStats.GetHitRate(), 0.0001)
}

func TestCachingPolicy_ShouldCache(t *testing.T) {
	t.Parallel()

	policy := ninja.DefaultCachingPolicy()

	// GET requests should cache
	assert.True(t, policy.ShouldCache("GET", "/v2/organizations", 200))
	assert.True(t, policy.ShouldCache("GET", "/v2/devices", 200))

	// POST requests should not cache by default
	assert.False(t, policy.ShouldCache("POST", "/v2/organizations", 201))

	// error responses should not cache by default
	assert.False(t, policy.ShouldCache("GET", "/v2/organizations", 404))

	// volatile endpoints are excluded
	assert.False(t, policy.ShouldCache("GET", "/v2/devices/search", 200))
	assert.False(t, policy.ShouldCache("GET", "/v2/queries/windows-services", 200))
	assert.False(t, policy.ShouldCache("GET", "/v2/activities", 200))

	customPolicy := &ninja.CachingPolicy{
		CacheGET:     true,
		CachePOST:    true,
		CacheErrors:  true,
		IncludePaths: []string{"/v2/organizations"},
	}

	// only included paths should be cached
	assert.True(t, customPolicy.ShouldCache("GET", "/v2/organizations", 200))
	assert.False(t, customPolicy.ShouldCache("GET", "/v2/devices", 200))

	// POST and errors should be cached with the custom policy
	assert.True(t, customPolicy.ShouldCache("POST", "/v2/organizations", 201))
	assert.True(t, customPolicy.ShouldCache("GET", "/v2/organizations", 404))
}

func TestCacheInterceptor(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(100)
	manager := ninja.NewCacheManager(cache, nil)
	policy := ninja.DefaultCachingPolicy()

	reqInterceptor, respInterceptor := ninja.CacheInterceptor(manager, policy)

	ctx := context.Background()

	req := &ninja.Request{
		Method: "GET",
		Path:   "/v2/organizations",
	}

	// First request - nothing cached yet
	err := reqInterceptor(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, req.Metadata["cached_response"])

	resp := &ninja.Response{
		StatusCode: 200,
		Headers:    make(http.Header),
		Body:       []byte(`[{"id": 1}]`),
	}

	err = respInterceptor(ctx, req, resp)
	require.NoError(t, err)

	// Second request - served from cache
	req2 := &ninja.Request{
		Method: "GET",
		Path:   "/v2/organizations",
	}

	err = reqInterceptor(ctx, req2)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id": 1}]`), req2.Metadata["cached_response"])

	// POST requests bypass the cache
	postReq := &ninja.Request{
		Method: "POST",
		Path:   "/v2/organizations",
	}

	err = reqInterceptor(ctx, postReq)
	require.NoError(t, err)
	assert.Nil(t, postReq.Metadata["cached_response"])
}

func TestConditionalRequestInterceptor(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(100)
	manager := ninja.NewCacheManager(cache, nil)

	ctx := context.Background()

	cacheKey := manager.GetCacheKey("GET", "/v2/devices/123", nil)
	err := manager.SetWithETag(ctx, cacheKey, []byte("data"), "abc123", 1*time.Hour)
	require.NoError(t, err)

	interceptor := ninja.ConditionalRequestInterceptor(manager)

	req := &ninja.Request{
		Method:  "GET",
		Path:    "/v2/devices/123",
		Headers: make(http.Header),
	}

	err = interceptor(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "abc123", req.Headers.Get("If-None-Match"))

	postReq := &ninja.Request{
		Method:  "POST",
		Path:    "/v2/devices",
		Headers: make(http.Header),
	}

	err = interceptor(ctx, postReq)
	require.NoError(t, err)
	assert.Empty(t, postReq.Headers.Get("If-None-Match"))
}

func TestCacheInvalidationInterceptor(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(100)
	manager := ninja.NewCacheManager(cache, nil)

	ctx := context.Background()

	deviceKey := manager.GetCacheKey("GET", "/v2/devices/123", nil)
	err := manager.Set(ctx, deviceKey, []byte("device data"), 1*time.Hour)
	require.NoError(t, err)

	listKey := manager.GetCacheKey("GET", "/v2/devices", nil)
	err = manager.Set(ctx, listKey, []byte("device list"), 1*time.Hour)
	require.NoError(t, err)

	interceptor := ninja.CacheInvalidationInterceptor(manager)

	// Successful mutation invalidates the resource and its parent listing
	req := &ninja.Request{
		Method: "PATCH",
		Path:   "/v2/devices/123",
	}
	resp := &ninja.Response{
		StatusCode: 200,
	}

	err = interceptor(ctx, req, resp)
	require.NoError(t, err)

	_, err = manager.Get(ctx, deviceKey)
	require.Error(t, err)
	_, err = manager.Get(ctx, listKey)
	require.Error(t, err)

	// Failed mutation leaves the cache alone
	otherKey := manager.GetCacheKey("GET", "/v2/organizations/7", nil)
	err = manager.Set(ctx, otherKey, []byte("org data"), 1*time.Hour)
	require.NoError(t, err)

	req2 := &ninja.Request{
		Method: "DELETE",
		Path:   "/v2/organizations/7",
	}
	resp2 := &ninja.Response{
		StatusCode: 404,
	}

	err = interceptor(ctx, req2, resp2)
	require.NoError(t, err)

	_, err = manager.Get(ctx, otherKey)
	require.NoError(t, err)
}

func TestSmartCacheConfig(t *testing.T) {
	t.Parallel()

	config := ninja.DefaultSmartCacheConfig()
	assert.True(t, config.EnableSmartInvalidation)
	assert.True(t, config.EnableConditionalRequests)
	assert.True(t, config.EnableMetrics)
	assert.NotEmpty(t, config.ResourceTTLs)
	assert.Equal(t, 15*time.Minute, config.ResourceTTLs["/v2/organizations"])
	assert.Equal(t, 15*time.Minute, config.TTLFor("/v2/organizations"))
	assert.Equal(t, 30*time.Second, config.TTLFor("/v2/queries/os-patches"))
	assert.Equal(t, 5*time.Minute, config.TTLFor("/v2/something-else"))
}

func TestConfigureSmartCache(t *testing.T) {
	t.Parallel()

	chain := ninja.NewInterceptorChain()
	cache := ninja.NewMemoryCache(100)
	manager := ninja.NewCacheManager(cache, nil)
	config := ninja.DefaultSmartCacheConfig()

	ninja.ConfigureSmartCache(chain, manager, config)

	ctx := context.Background()
	req := &ninja.Request{
		Method: "GET",
		Path:   "/v2/devices",
	}

	// This should not error if interceptors were added correctly
	err := chain.ExecuteRequestInterceptors(ctx, req)
	require.NoError(t, err)
}

func TestCacheWarmer(t *testing.T) {
	t.Parallel()

	cache := ninja.NewMemoryCache(100)
	manager := ninja.NewCacheManager(cache, nil)

	warmer := ninja.NewCacheWarmer(nil, manager)
	assert.NotNil(t, warmer)

	err := warmer.Warm(context.Background())
	require.Error(t, err)
}
