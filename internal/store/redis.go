// redis.go -- go-redis client for page caching and rate limiting.
//
// Every operation is a thin wrapper returning wrapped errors; Remember adds
// the read-through policy (see cache.go). If Redis is unavailable at startup
// the site runs with NopCache instead.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint used when scanning for keys by pattern.
const scanBatch = 100

// RedisStore wraps a Redis client for cache operations.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and returns a ready-to-use cache store.
// It pings Redis to verify connectivity before returning.
// Call once at startup from main.go...returned store is safe for concurrent use.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{rdb}, nil
}

// Client exposes the underlying client so the rate limiter can share the pool.
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

// Close shuts down the Redis client and releases all resources.
// Should be called via defer in main.go after creating the store.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// CheckHealth pings Redis.
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Get returns the value at key, or ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", key, err)
	}
	return v, nil
}

// Set stores value at key for ttl.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("caching %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", strings.Join(keys, ","), err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return n == 1, nil
}

// DeleteByPattern removes every key matching a glob pattern ("page:*").
// Matching keys are collected with SCAN first, then deleted in pipelined
// batches, so large keyspaces never block Redis the way KEYS would.
// Returns the number of keys Redis actually removed.
func (s *RedisStore) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	seen := make(map[string]struct{})
	var keys []string
	iter := s.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scanning %s: %w", pattern, err)
	}

	var deleted int64
	for start := 0; start < len(keys); start += scanBatch {
		batch := keys[start:min(start+scanBatch, len(keys))]
		pipe := s.rdb.Pipeline()
		cmds := make([]*redis.IntCmd, len(batch))
		for i, k := range batch {
			cmds[i] = pipe.Del(ctx, k)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return int(deleted), fmt.Errorf("deleting %s: %w", pattern, err)
		}
		for _, c := range cmds {
			deleted += c.Val()
		}
	}
	return int(deleted), nil
}
