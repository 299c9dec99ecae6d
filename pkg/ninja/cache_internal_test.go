package ninja

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheJanitorSweepsAndStops(t *testing.T) {
	t.Parallel()

	cache, err := NewMemoryCacheFromConfig(&MemoryCacheConfig{
		MaxSize:         10,
		CleanupInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	memCache, ok := cache.(*MemoryCache)
	require.True(t, ok)

	defer func() { _ = memCache.Close() }()

	require.NoError(t, memCache.Set(context.Background(), "stale", &CacheEntry{
		Data:      []byte("data"),
		ExpiresAt: time.Now().Add(-time.Second),
	}))

	// The janitor deletes the expired entry without any Get/Has touching it.
	assert.Eventually(t, func() bool {
		memCache.mu.RLock()
		defer memCache.mu.RUnlock()

		_, present := memCache.entries["stale"]

		return !present
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	// Close without a janitor running.
	plain := NewMemoryCache(10)
	require.NoError(t, plain.Close())
	require.NoError(t, plain.Close())

	cache, err := NewMemoryCacheFromConfig(&MemoryCacheConfig{
		MaxSize:         10,
		CleanupInterval: time.Millisecond,
	})
	require.NoError(t, err)

	memCache, ok := cache.(*MemoryCache)
	require.True(t, ok)

	require.NoError(t, memCache.Close())
	require.NoError(t, memCache.Close())
}
