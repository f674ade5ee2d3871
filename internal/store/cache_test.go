package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// counter returns a FetchFunc that counts calls and returns val.
func counter(val string, calls *int) FetchFunc {
	return func(context.Context) (string, error) {
		*calls++
		return val, nil
	}
}

// --- Remember ---

func TestRemember(t *testing.T) {
	ctx := context.Background()

	t.Run("miss fetches and caches", func(t *testing.T) {
		rs, mr := newTestRedis(t)
		calls := 0

		for i := 0; i < 3; i++ {
			got, err := rs.Remember(ctx, "page:en:home", time.Minute, counter("html", &calls))
			if err != nil || got != "html" {
				t.Fatalf("Remember: got %q, %v", got, err)
			}
		}
		if calls != 1 {
			t.Errorf("expected 1 fetch, got %d", calls)
		}
		if v, _ := mr.Get("page:en:home"); v != "html" {
			t.Errorf("expected cached value, got %q", v)
		}
	})

	t.Run("zero ttl always fetches", func(t *testing.T) {
		rs, mr := newTestRedis(t)
		calls := 0

		rs.Remember(ctx, "k", 0, counter("v", &calls))
		rs.Remember(ctx, "k", 0, counter("v", &calls))
		if calls != 2 {
			t.Errorf("expected 2 fetches, got %d", calls)
		}
		if mr.Exists("k") {
			t.Error("zero ttl should not write to the cache")
		}
	})

	t.Run("fetch error is returned and not cached", func(t *testing.T) {
		rs, mr := newTestRedis(t)
		boom := errors.New("boom")

		_, err := rs.Remember(ctx, "k", time.Minute, func(context.Context) (string, error) { return "", boom })
		if !errors.Is(err, boom) {
			t.Errorf("expected fetch error, got %v", err)
		}
		if mr.Exists("k") {
			t.Error("failed fetch should not be cached")
		}
	})

	t.Run("redis down falls back to fetch", func(t *testing.T) {
		rs, mr := newTestRedis(t)
		mr.Close()
		calls := 0

		got, err := rs.Remember(ctx, "k", time.Minute, counter("fresh", &calls))
		if err != nil || got != "fresh" || calls != 1 {
			t.Errorf("expected fallback fetch, got %q, %v, calls=%d", got, err, calls)
		}
	})
}

// --- BuildKey ---

func TestBuildKey(t *testing.T) {
	if got := BuildKey("page", "ro", "home"); got != "page:ro:home" {
		t.Errorf("got %q", got)
	}
}

// --- NopCache ---

func TestNopCache(t *testing.T) {
	ctx := context.Background()
	var c NopCache

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get: expected ErrCacheMiss, got %v", err)
	}
	if err := c.CheckHealth(ctx); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("CheckHealth: expected ErrCacheDisabled, got %v", err)
	}
	calls := 0
	c.Remember(ctx, "k", time.Minute, counter("v", &calls))
	c.Remember(ctx, "k", time.Minute, counter("v", &calls))
	if calls != 2 {
		t.Errorf("Remember: expected 2 fetches, got %d", calls)
	}
}
