package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// newTestRedis starts an in-process Redis and returns a store connected to it.
// The server is stopped when the test ends.
func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("failed to connect to test redis: %v", err)
	}
	t.Cleanup(func() { rs.Close() })
	return rs, mr
}
