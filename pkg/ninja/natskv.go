package ninja

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jstrn/ninjarmm/internal/constants"
)

// NATSKVConfig configures the NATS JetStream KV cache backend. A shared
// bucket lets a fleet of pollers reuse each other's responses instead of
// each burning API rate limit on the same listings.
type NATSKVConfig struct {
	// URL is the NATS server URL. Defaults to nats.DefaultURL.
	URL string
	// Bucket is the KV bucket name. Defaults to
	// constants.DefaultNATSCacheBucket; created if missing.
	Bucket string
	// CredsFile is an optional NATS credentials file.
	CredsFile string
	// TTL is the bucket-level TTL applied when the bucket is created.
	TTL time.Duration
	// Conn reuses an existing connection instead of dialing URL.
	Conn *nats.Conn
}

// NATSKVCache is a Cache backed by a NATS JetStream key-value bucket.
type NATSKVCache struct {
	conn     *nats.Conn
	kv       nats.KeyValue
	ownsConn bool
}

// NewNATSKVCache connects to NATS and binds (or creates) the configured KV
// bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		config = &NATSKVConfig{}
	}

	conn := config.Conn
	ownsConn := false

	if conn == nil {
		url := config.URL
		if url == "" {
			url = nats.DefaultURL
		}

		var opts []nats.Option
		if config.CredsFile != "" {
			opts = append(opts, nats.UserCredentials(config.CredsFile))
		}

		var err error

		conn, err = nats.Connect(url, opts...)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		ownsConn = true
	}

	js, err := conn.JetStream()
	if err != nil {
		if ownsConn {
			conn.Close()
		}

		return nil, fmt.Errorf("opening JetStream context: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSCacheBucket
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: bucket,
			TTL:    config.TTL,
		})
	}

	if err != nil {
		if ownsConn {
			conn.Close()
		}

		return nil, fmt.Errorf("binding KV bucket %q: %w", bucket, err)
	}

	return &NATSKVCache{
		conn:     conn,
		kv:       kv,
		ownsConn: ownsConn,
	}, nil
}

// kvKey maps a cache key to a NATS-legal key. Cache keys contain characters
// KV subjects forbid (':', '/', '='), so keys are hashed.
func kvKey(key string) string {
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])
}

// Get retrieves an entry, failing on missing or expired keys.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kve, err := c.kv.Get(kvKey(key))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
		}

		return nil, fmt.Errorf("KV get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(kve.Value(), &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	if entry.Expired() {
		_ = c.kv.Delete(kvKey(key))

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return &entry, nil
}

// Set stores an entry.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	if _, err := c.kv.Put(kvKey(key), data); err != nil {
		return fmt.Errorf("KV put: %w", err)
	}

	return nil
}

// Delete removes an entry.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(kvKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("KV delete: %w", err)
	}

	return nil
}

// Clear removes every entry in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("KV keys: %w", err)
	}

	for _, key := range keys {
		if err := c.kv.Purge(key); err != nil {
			return fmt.Errorf("KV purge: %w", err)
		}
	}

	return nil
}

// Has reports whether a live entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the NATS connection when this cache opened it.
func (c *NATSKVCache) Close() {
	if c.ownsConn && c.conn != nil {
		c.conn.Close()
	}
}
