// cache.go -- Read-through caching on top of RedisStore, plus the no-op
// stand-in used when Redis is not configured.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// BuildKey joins key parts with ":".
func BuildKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// Remember returns the cached value at key, or calls fetch and caches its
// result for ttl. A ttl of zero skips the cache entirely. Redis faults are
// logged and fetch is used directly; only fetch's own error is returned.
func (s *RedisStore) Remember(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (string, error) {
	if ttl <= 0 {
		return fetch(ctx)
	}

	v, err := s.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("cache read failed, fetching fresh", "key", key, "error", err)
		return fetch(ctx)
	}

	v, err = fetch(ctx)
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, key, v, ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// NopCache satisfies the cache interfaces when Redis is not configured.
// Reads miss, writes are dropped and Remember always fetches.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (string, error) { return "", ErrCacheMiss }
func (NopCache) Set(context.Context, string, string, time.Duration) error { return nil }
func (NopCache) Delete(context.Context, ...string) error { return nil }
func (NopCache) Exists(context.Context, string) (bool, error) { return false, nil }
func (NopCache) DeleteByPattern(context.Context, string) (int, error) { return 0, ErrCacheDisabled }
func (NopCache) CheckHealth(context.Context) error { return ErrCacheDisabled }

// Remember calls fetch.
func (NopCache) Remember(ctx context.Context, _ string, _ time.Duration, fetch FetchFunc) (string, error) {
	return fetch(ctx)
}
