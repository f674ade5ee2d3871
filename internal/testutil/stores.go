// stores.go
//
// Shared mock implementations of the cache and rate limiter capabilities.
// Imported by test files across packages to avoid duplicate mock definitions.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/MGallo-Code/vitrine/internal/store"
)

// MockCache implements the site's page cache for tests.
// Always stateful...Data is a map, like a real cache.
// Use *Err fields to inject errors for specific operations.
type MockCache struct {
	// Error injection...zero value means no error
	HealthErr error

	mu         sync.Mutex
	Data       map[string]string
	FetchCalls int
}

// NewMockCache returns an empty MockCache ready for use.
func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string]string)}
}

// Remember mirrors RedisStore.Remember: ttl <= 0 always fetches, a hit skips
// fetch, fetch errors are not cached.
func (m *MockCache) Remember(ctx context.Context, key string, ttl time.Duration, fetch store.FetchFunc) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		if v, ok := m.Data[key]; ok {
			return v, nil
		}
	}
	m.FetchCalls++
	v, err := fetch(ctx)
	if err != nil {
		return "", err
	}
	if ttl > 0 {
		m.Data[key] = v
	}
	return v, nil
}

func (m *MockCache) CheckHealth(context.Context) error {
	return m.HealthErr
}

// MockRateLimiter implements the contact rate limiter for tests.
// Err is returned from every Allow call; Keys records what was checked.
type MockRateLimiter struct {
	Err error

	mu   sync.Mutex
	Keys []string
}

func (m *MockRateLimiter) Allow(_ context.Context, key string, _ store.RateLimit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Keys = append(m.Keys, key)
	return m.Err
}
