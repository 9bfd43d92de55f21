// Package cache implements cache-aside lookups over a pluggable backing
// store. Entries carry an absolute TTL and a sliding window that extends
// their life on access, never past the absolute cap.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// MaxSlidingWindow caps the sliding window derived from a TTL.
const MaxSlidingWindow = 10 * time.Minute

// Expiration describes how long an entry lives.
type Expiration struct {
	// TTL is the absolute lifetime, measured from the write.
	TTL time.Duration
	// Sliding, when non-zero, expires the entry early if it goes unread for
	// this long. Each read pushes the deadline out again, up to TTL.
	Sliding time.Duration
}

// ExpirationFor returns the expiration used for entries written with ttl:
// a sliding window of min(ttl/2, 10 minutes).
func ExpirationFor(ttl time.Duration) Expiration {
	return Expiration{TTL: ttl, Sliding: min(ttl/2, MaxSlidingWindow)}
}

// Store is the backing key/value store. Values are opaque bytes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, exp Expiration) error
	Delete(ctx context.Context, key string) error
}

// Cache is a typed cache-aside facade over a Store. Values are encoded as
// JSON. Use the package-level Get, Set and GetOrCreate helpers.
type Cache struct {
	store  Store
	logger *slog.Logger
}

// New creates a Cache over store.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger}
}

// Remove deletes key from the cache.
func (c *Cache) Remove(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache remove %q: %w", key, err)
	}
	c.logger.Debug("removed from cache", "key", key)
	return nil
}

// Get returns the cached value for key. The boolean is false on a miss.
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var zero T

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	if !ok {
		c.logger.Debug("cache miss", "key", key)
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, fmt.Errorf("cache decode %q: %w", key, err)
	}
	c.logger.Debug("cache hit", "key", key)
	return v, true, nil
}

// Set stores value under key with ExpirationFor(ttl).
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	if err := c.store.Set(ctx, key, raw, ExpirationFor(ttl)); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	c.logger.Debug("added to cache", "key", key, "ttl", ttl)
	return nil
}

// GetOrCreate returns the cached value for key, or calls factory once and
// caches its result. Concurrent misses on the same key each call factory.
// A factory error is returned as is and nothing is cached. Store failures
// are logged and otherwise ignored: a failed read counts as a miss, a failed
// write still returns the fresh value.
func GetOrCreate[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, factory func(context.Context) (T, error)) (T, error) {
	v, ok, err := Get[T](ctx, c, key)
	if err != nil {
		c.logger.Warn("cache read failed, falling through to source", "key", key, "error", err)
	}
	if ok {
		return v, nil
	}

	v, err = factory(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := Set(ctx, c, key, v, ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return v, nil
}
