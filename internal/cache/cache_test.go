package cache

import (
	"testing"
	"time"
)

// fakeClock drives the cache's view of time in deterministic steps.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newTestCache() (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New()
	c.SetClock(func() time.Time { return clock.now })
	return c, clock
}

func TestGetOrComputeTTL(t *testing.T) {
	c, clock := newTestCache()
	calls := 0
	compute := func() interface{} {
		calls++
		return calls
	}

	if v := c.GetOrCompute("btc", 15*time.Second, compute); v != 1 {
		t.Fatalf("expected first compute result, got %v", v)
	}

	// Within TTL: cached value, no recompute.
	clock.advance(10 * time.Second)
	if v := c.GetOrCompute("btc", 15*time.Second, compute); v != 1 {
		t.Fatalf("expected cached value at t=10s, got %v", v)
	}
	if calls != 1 {
		t.Fatalf("compute invoked %d times, want 1", calls)
	}

	// Past TTL: recompute.
	clock.advance(10 * time.Second)
	if v := c.GetOrCompute("btc", 15*time.Second, compute); v != 2 {
		t.Fatalf("expected recomputed value at t=20s, got %v", v)
	}
	if calls != 2 {
		t.Fatalf("compute invoked %d times, want 2", calls)
	}
}

func TestGetOrComputeBoundary(t *testing.T) {
	c, clock := newTestCache()
	calls := 0
	compute := func() interface{} {
		calls++
		return "value"
	}

	c.GetOrCompute("k", 30*time.Second, compute)

	clock.advance(30*time.Second - time.Millisecond)
	c.GetOrCompute("k", 30*time.Second, compute)
	if calls != 1 {
		t.Fatalf("read just before expiry recomputed (calls=%d)", calls)
	}

	clock.advance(2 * time.Millisecond)
	c.GetOrCompute("k", 30*time.Second, compute)
	if calls != 2 {
		t.Fatalf("read just after expiry did not recompute (calls=%d)", calls)
	}
}

func TestStoresFailureResult(t *testing.T) {
	// A compute that produced nothing is still cached for the full TTL so
	// a dead upstream is not hammered once per request.
	c, clock := newTestCache()
	calls := 0
	compute := func() interface{} {
		calls++
		return nil
	}

	if v := c.GetOrCompute("fear_greed", 300*time.Second, compute); v != nil {
		t.Fatalf("expected nil result, got %v", v)
	}
	clock.advance(100 * time.Second)
	c.GetOrCompute("fear_greed", 300*time.Second, compute)
	if calls != 1 {
		t.Fatalf("nil result was not cached (calls=%d)", calls)
	}
}

func TestSnapshotAges(t *testing.T) {
	c, clock := newTestCache()
	c.GetOrCompute("btc", time.Minute, func() interface{} { return 1 })
	clock.advance(42 * time.Second)
	c.GetOrCompute("news", time.Minute, func() interface{} { return 2 })

	snap := c.Snapshot()
	if snap["btc"] != "42s ago" {
		t.Errorf("btc age = %q, want %q", snap["btc"], "42s ago")
	}
	if snap["news"] != "0s ago" {
		t.Errorf("news age = %q, want %q", snap["news"], "0s ago")
	}
}
