// models.go -- Shared types and sentinel errors for the store package.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimitExceeded is returned by Allow when the caller is locked out.
// Callers use errors.Is to distinguish rate limit rejections from Redis failures.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// ErrCacheMiss is returned by Get when the key is not in Redis.
// Callers use errors.Is to distinguish a true miss from a Redis infrastructure failure.
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheDisabled is returned by NopCache when Redis is not configured.
// Callers use errors.Is to distinguish "not configured" from a real infrastructure failure.
var ErrCacheDisabled = errors.New("cache disabled")

// RateLimit defines the policy for a rate-limited action.
// Zero MaxAttempts disables limiting; zero LockoutTTL means no extra lockout
// beyond the window.
type RateLimit struct {
	MaxAttempts int           // attempts allowed within Window
	Window      time.Duration // rolling window for attempt counting
	LockoutTTL  time.Duration // how long to block after MaxAttempts is exceeded
}

// FetchFunc produces a value on cache miss.
type FetchFunc func(ctx context.Context) (string, error)
