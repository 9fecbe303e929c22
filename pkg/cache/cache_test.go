package cache

import (
	"testing"
	"time"
)

func TestCacheTTLBoundary(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	c := NewWithClock(5*time.Minute, func() time.Time { return now })

	c.Set("k", []byte("payload"))

	// Just inside the TTL
	now = start.Add(5*time.Minute - time.Millisecond)
	if got, ok := c.Get("k"); !ok || string(got) != "payload" {
		t.Fatalf("entry should be servable at T+TTL-ε, got ok=%v", ok)
	}

	// Just past the TTL
	now = start.Add(5*time.Minute + time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry must be treated as expired at T+TTL+ε")
	}

	// Expired entry is removed lazily
	if c.Len() != 0 {
		t.Fatalf("expired entry not evicted on read, len=%d", c.Len())
	}
}

func TestCacheSetEvictsPriorEntry(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	c := NewWithClock(time.Minute, func() time.Time { return now })

	c.Set("k", []byte("old"))
	now = start.Add(30 * time.Second)
	c.Set("k", []byte("new"))

	// The rewrite resets the expiry from the second Set
	now = start.Add(80 * time.Second)
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("entry rewritten at T+30s should still be fresh at T+80s")
	}
	if string(got) != "new" {
		t.Fatalf("got %q, want %q", got, "new")
	}
}

func TestCacheHasFresh(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	c := NewWithClock(time.Minute, func() time.Time { return now })

	if c.HasFresh("missing") {
		t.Fatal("HasFresh on missing key")
	}
	c.Set("k", nil)
	if !c.HasFresh("k") {
		t.Fatal("HasFresh false for fresh key")
	}
	now = start.Add(2 * time.Minute)
	if c.HasFresh("k") {
		t.Fatal("HasFresh true for expired key")
	}
}
