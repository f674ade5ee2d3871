// ratelimit.go -- Fixed-window rate limiter with lockout, backed by Redis.
package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// allowScript counts one attempt and decides in a single round trip.
// Returns 1 if allowed, 0 if locked out or over the limit (which starts the
// lockout).
// KEYS[1] = attempt counter, KEYS[2] = lockout flag.
// ARGV[1] = max attempts, ARGV[2] = window ms, ARGV[3] = lockout ms (0 = none).
var allowScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
    return 0
end
local n = redis.call('INCR', KEYS[1])
if n == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
if n > tonumber(ARGV[1]) then
    if tonumber(ARGV[3]) > 0 then
        redis.call('SET', KEYS[2], '1', 'PX', ARGV[3])
    end
    return 0
end
return 1
`)

// RedisRateLimiter enforces RateLimit policies per key.
type RedisRateLimiter struct {
	rdb *redis.Client
}

// NewRedisRateLimiter shares rdb with the cache store.
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb}
}

// Allow records an attempt for key. Returns nil if allowed,
// ErrRateLimitExceeded if over policy, or a wrapped Redis error.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, policy RateLimit) error {
	if policy.MaxAttempts <= 0 {
		return nil
	}
	res, err := allowScript.Run(ctx, l.rdb,
		[]string{BuildKey("ratelimit", key), BuildKey("lockout", key)},
		policy.MaxAttempts, policy.Window.Milliseconds(), policy.LockoutTTL.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("checking rate limit for %s: %w", key, err)
	}
	if res == 0 {
		return ErrRateLimitExceeded
	}
	return nil
}
