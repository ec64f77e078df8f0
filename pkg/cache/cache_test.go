package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemory(clock *fakeClock, opts ...MemoryOption) *MemoryCache {
	opts = append([]MemoryOption{WithMemoryCleanup(0), WithMemoryClock(clock.Now)}, opts...)
	return NewMemoryCache(opts...)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	mc := newTestMemory(clock)
	defer mc.Close()

	if err := mc.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	clock.Advance(59 * time.Minute)
	if got, err := mc.Get(ctx, "k"); err != nil || string(got) != "v" {
		t.Fatalf("Get before expiry = %q, %v", got, err)
	}

	clock.Advance(time.Minute)
	if _, err := mc.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss at expiry, got %v", err)
	}
	if mc.Len() != 0 {
		t.Fatalf("expired entry not evicted on read")
	}
}

func TestMemoryCacheLRU(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	mc := newTestMemory(clock, WithMemoryMaxSize(2))
	defer mc.Close()

	_ = mc.Set(ctx, "a", []byte("1"), time.Hour)
	clock.Advance(time.Second)
	_ = mc.Set(ctx, "b", []byte("2"), time.Hour)
	clock.Advance(time.Second)
	_, _ = mc.Get(ctx, "a")
	clock.Advance(time.Second)
	_ = mc.Set(ctx, "c", []byte("3"), time.Hour)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("least recently used key survived")
	}
	if ok, _ := mc.Exists(ctx, "a", "c"); !ok {
		t.Fatalf("recent keys evicted")
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(&fakeClock{t: time.Now()})
	defer mc.Close()

	for _, k := range []string{"analysis:AAPL:full", "analysis:AAPL:quick", "analysis:MSFT:full"} {
		_ = mc.Set(ctx, k, []byte("x"), time.Hour)
	}
	if err := mc.DeleteByPattern(ctx, PrefixPattern("analysis", "AAPL")); err != nil {
		t.Fatalf("DeleteByPattern: %v", err)
	}
	if mc.Len() != 1 {
		t.Fatalf("Len = %d, want 1", mc.Len())
	}
	if k := Key("analysis", "MSFT", "full"); k != "analysis:MSFT:full" {
		t.Fatalf("Key = %q", k)
	}
}

func TestLayeredCachePromotes(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	remote := newTestMemory(clock)
	lc := NewLayeredCache(remote, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()

	type payload struct {
		Symbol string `json:"symbol"`
	}
	if err := SetJSON(ctx, remote, "p", payload{Symbol: "AAPL"}, time.Hour); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	got, err := GetJSON[payload](ctx, lc, "p")
	if err != nil || got.Symbol != "AAPL" {
		t.Fatalf("GetJSON = %+v, %v", got, err)
	}
	if ok, _ := lc.memCache.Exists(ctx, "p"); !ok {
		t.Fatalf("remote hit not promoted to memory")
	}

	if err := lc.Delete(ctx, "p"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := lc.Get(ctx, "p"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
