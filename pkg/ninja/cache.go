package ninja

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jstrn/ninjarmm/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrCacheKeyNotFound  = errors.New("key not found")
	ErrCacheEntryExpired = errors.New("entry expired")
)

// CacheEntry is a cached response body with expiry metadata.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	ETag      string    `json:"etag,omitempty"`
}

// Expired reports whether the entry is past its expiry.
func (e *CacheEntry) Expired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Cache is a pluggable cache backend. Implementations: MemoryCache,
// NATSKVCache, NoOpCache, CacheChain.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheOptions holds options common to all cache backends.
type CacheOptions struct {
	// DefaultTTL applies when the caller does not specify one.
	DefaultTTL time.Duration
}

// DefaultCacheOptions returns sensible defaults.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		DefaultTTL: constants.DefaultCacheTTL,
	}
}

// MemoryCache is an in-memory Cache with a size cap. When full, the entry
// closest to expiry is evicted. Safe for concurrent use.
type MemoryCache struct {
	mu          sync.RWMutex
	entries     map[string]*CacheEntry
	maxSize     int
	janitorStop chan struct{}
	closeOnce   sync.Once
}

// NewMemoryCache creates an in-memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
	}
}

// Get retrieves an entry, failing on missing or expired keys.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
	}

	if entry.Expired() {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return entry, nil
}

// Set stores an entry, evicting the entry closest to expiry when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	c.entries[key] = entry

	return nil
}

// evictLocked removes the entry with the earliest expiry. Caller must hold
// the write lock.
func (c *MemoryCache) evictLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)

	for key, entry := range c.entries {
		if oldestKey == "" || entry.ExpiresAt.Before(oldest) {
			oldestKey = key
			oldest = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Delete removes an entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)

	return nil
}

// Has reports whether a live entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	return ok && !entry.Expired()
}

// Cleanup removes expired entries. Callers can run it periodically.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.Expired() {
			delete(c.entries, key)
		}
	}
}

// startJanitor sweeps expired entries every interval until Close is called.
func (c *MemoryCache) startJanitor(interval time.Duration) {
	c.janitorStop = make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Cleanup()
			case <-c.janitorStop:
				return
			}
		}
	}()
}

// Close stops the background cleanup goroutine, if one was started. Safe to
// call more than once.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		if c.janitorStop != nil {
			close(c.janitorStop)
		}
	})

	return nil
}

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// GetHitRate returns the fraction of lookups served from cache.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CacheManager wraps a Cache with key construction, TTLs, and hit/miss
// accounting.
type CacheManager struct {
	cache   Cache
	options *CacheOptions
	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
}

// NewCacheManager creates a manager over a backend. A nil options uses
// DefaultCacheOptions.
func NewCacheManager(cache Cache, options *CacheOptions) *CacheManager {
	if options == nil {
		options = DefaultCacheOptions()
	}

	return &CacheManager{
		cache:   cache,
		options: options,
	}
}

// GetCacheKey builds a deterministic cache key from a request shape. Params
// are sorted so equivalent requests share a key.
func (m *CacheManager) GetCacheKey(method, path string, params map[string]string) string {
	if len(params) == 0 {
		return method + ":" + path
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	return method + ":" + path + ":" + strings.Join(pairs, "&")
}

// Get retrieves cached data by key.
func (m *CacheManager) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		m.misses.Add(1)

		return nil, fmt.Errorf("cache get: %w", err)
	}

	m.hits.Add(1)

	return entry.Data, nil
}

// GetEntry retrieves the full cached entry, including its ETag.
func (m *CacheManager) GetEntry(ctx context.Context, key string) (*CacheEntry, error) {
	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	return entry, nil
}

// Set stores data under key with the given TTL. A zero TTL uses the default.
func (m *CacheManager) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return m.SetWithETag(ctx, key, data, "", ttl)
}

// SetWithETag stores data with an ETag for conditional requests.
func (m *CacheManager) SetWithETag(ctx context.Context, key string, data []byte, etag string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.options.DefaultTTL
	}

	entry := &CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
		ETag:      etag,
	}

	err := m.cache.Set(ctx, key, entry)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	m.sets.Add(1)

	return nil
}

// Invalidate removes a single key.
func (m *CacheManager) Invalidate(ctx context.Context, key string) error {
	if err := m.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}

	return nil
}

// InvalidateAll clears the backend.
func (m *CacheManager) InvalidateAll(ctx context.Context) error {
	if err := m.cache.Clear(ctx); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}

	return nil
}

// GetStats returns a snapshot of hit/miss counters.
func (m *CacheManager) GetStats() *CacheStats {
	return &CacheStats{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
		Sets:   m.sets.Load(),
	}
}

// CachingPolicy decides which requests are cacheable.
type CachingPolicy struct {
	CacheGET    bool
	CachePOST   bool
	CacheErrors bool
	// IncludePaths, when non-empty, restricts caching to these path
	// prefixes.
	IncludePaths []string
	// ExcludePaths lists path prefixes never cached.
	ExcludePaths []string
}

// DefaultCachingPolicy caches successful GETs, excluding endpoints whose
// results reflect live telemetry or change with every call.
func DefaultCachingPolicy() *CachingPolicy {
	return &CachingPolicy{
		CacheGET: true,
		ExcludePaths: []string{
			constants.DeviceSearchPath,
			constants.QueriesPathPrefix,
			"/v2/activities",
			"/v2/alerts",
		},
	}
}

// ShouldCache reports whether a response for method/path/status is cacheable
// under the policy.
func (p *CachingPolicy) ShouldCache(method, path string, statusCode int) bool {
	switch method {
	case "GET":
		if !p.CacheGET {
			return false
		}
	case "POST":
		if !p.CachePOST {
			return false
		}
	default:
		return false
	}

	if !p.CacheErrors && (statusCode < 200 || statusCode >= 300) {
		return false
	}

	for _, excluded := range p.ExcludePaths {
		if strings.HasPrefix(path, excluded) {
			return false
		}
	}

	if len(p.IncludePaths) > 0 {
		for _, included := range p.IncludePaths {
			if strings.HasPrefix(path, included) {
				return true
			}
		}

		return false
	}

	return true
}

// cacheParamsFromRequest pulls the query params a transport stashed in
// request metadata, if any.
func cacheParamsFromRequest(req *Request) map[string]string {
	params, _ := req.Metadata["query_params"].(map[string]string)

	return params
}

// CacheInterceptor returns a request/response interceptor pair wiring a cache
// into an InterceptorChain. The request side marks cache hits in request
// metadata; the response side stores cacheable responses.
func CacheInterceptor(manager *CacheManager, policy *CachingPolicy) (RequestInterceptor, ResponseInterceptor) {
	if policy == nil {
		policy = DefaultCachingPolicy()
	}

	requestInterceptor := func(ctx context.Context, req *Request) error {
		if req.Method != "GET" {
			return nil
		}

		key := manager.GetCacheKey(req.Method, req.Path, cacheParamsFromRequest(req))

		data, err := manager.Get(ctx, key)
		if err != nil {
			return nil //nolint:nilerr // cache miss is not a request failure
		}

		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata["cached_response"] = data

		return nil
	}

	responseInterceptor := func(ctx context.Context, req *Request, resp *Response) error {
		if resp.Error != nil || !policy.ShouldCache(req.Method, req.Path, resp.StatusCode) {
			return nil
		}

		key := manager.GetCacheKey(req.Method, req.Path, cacheParamsFromRequest(req))
		etag := ""

		if resp.Headers != nil {
			etag = resp.Headers.Get("ETag")
		}

		return manager.SetWithETag(ctx, key, resp.Body, etag, 0)
	}

	return requestInterceptor, responseInterceptor
}

// ConditionalRequestInterceptor adds If-None-Match headers from cached ETags
// so the server can answer 304 for unchanged resources.
func ConditionalRequestInterceptor(manager *CacheManager) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Method != "GET" {
			return nil
		}

		key := manager.GetCacheKey(req.Method, req.Path, cacheParamsFromRequest(req))

		entry, err := manager.GetEntry(ctx, key)
		if err != nil || entry.ETag == "" {
			return nil //nolint:nilerr // nothing cached, send unconditionally
		}

		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		req.Headers.Set("If-None-Match", entry.ETag)

		return nil
	}
}

// CacheInvalidationInterceptor drops cached GET responses for a resource
// after a successful mutation of it.
func CacheInvalidationInterceptor(manager *CacheManager) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		switch req.Method {
		case "POST", "PUT", "PATCH", "DELETE":
		default:
			return nil
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil
		}

		key := manager.GetCacheKey("GET", req.Path, nil)
		_ = manager.Invalidate(ctx, key)

		// Mutating /v2/organizations/123 also stales the collection
		// listing.
		if idx := strings.LastIndex(req.Path, "/"); idx > 0 {
			parentKey := manager.GetCacheKey("GET", req.Path[:idx], nil)
			_ = manager.Invalidate(ctx, parentKey)
		}

		return nil
	}
}

// SmartCacheConfig bundles the cache interceptors with per-resource TTLs.
type SmartCacheConfig struct {
	EnableSmartInvalidation   bool
	EnableConditionalRequests bool
	EnableMetrics             bool
	// ResourceTTLs maps path prefixes to TTLs, overriding the default.
	ResourceTTLs map[string]time.Duration
}

// DefaultSmartCacheConfig returns TTLs tuned per resource volatility.
func DefaultSmartCacheConfig() *SmartCacheConfig {
	return &SmartCacheConfig{
		EnableSmartInvalidation:   true,
		EnableConditionalRequests: true,
		EnableMetrics:             true,
		ResourceTTLs: map[string]time.Duration{
			constants.OrganizationsPath: constants.OrganizationsCacheTTL,
			constants.DevicesPath:       constants.DevicesCacheTTL,
			constants.TagsPath:          constants.OrganizationsCacheTTL,
			constants.QueriesPathPrefix: constants.QueriesCacheTTL,
		},
	}
}

// TTLFor returns the TTL for a path, falling back to the default cache TTL.
func (c *SmartCacheConfig) TTLFor(path string) time.Duration {
	for prefix, ttl := range c.ResourceTTLs {
		if strings.HasPrefix(path, prefix) {
			return ttl
		}
	}

	return constants.DefaultCacheTTL
}

// ConfigureSmartCache wires cache, invalidation, and conditional-request
// interceptors into a chain per the config.
func ConfigureSmartCache(chain *InterceptorChain, manager *CacheManager, config *SmartCacheConfig) {
	if config == nil {
		config = DefaultSmartCacheConfig()
	}

	reqInterceptor, respInterceptor := CacheInterceptor(manager, DefaultCachingPolicy())
	chain.AddRequestInterceptor(reqInterceptor)
	chain.AddResponseInterceptor(respInterceptor)

	if config.EnableConditionalRequests {
		chain.AddRequestInterceptor(ConditionalRequestInterceptor(manager))
	}

	if config.EnableSmartInvalidation {
		chain.AddResponseInterceptor(CacheInvalidationInterceptor(manager))
	}
}

// CacheWarmer pre-populates the cache with listings that nearly every
// workflow reads (organizations, tags).
type CacheWarmer struct {
	client  Client
	manager *CacheManager
}

// NewCacheWarmer creates a warmer over a client and cache manager.
func NewCacheWarmer(client Client, manager *CacheManager) *CacheWarmer {
	return &CacheWarmer{
		client:  client,
		manager: manager,
	}
}

// Warm fetches common listings so the first user-facing call is a hit. Errors
// are returned but partial warming is kept.
func (w *CacheWarmer) Warm(ctx context.Context) error {
	if w.client == nil {
		return ErrNotAuthenticated
	}

	params := NewQueryParams().WithPageSize(constants.DefaultPageSize)

	if _, err := w.client.Organizations().List(ctx, params); err != nil {
		return fmt.Errorf("warming organizations: %w", err)
	}

	if _, err := w.client.Tags().List(ctx, params); err != nil {
		return fmt.Errorf("warming tags: %w", err)
	}

	return nil
}
