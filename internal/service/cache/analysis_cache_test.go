package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"EquityLens/internal/domain/models"
	kv "EquityLens/pkg/cache"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func result(symbol string, at time.Time) *models.AnalysisResult {
	return &models.AnalysisResult{
		Symbol:     symbol,
		Signal:     models.SignalBuy,
		ComputedAt: at,
		ExpiresAt:  at.Add(models.FreshnessWindow),
	}
}

var aaplFull = models.CacheKey{Symbol: "AAPL", Mode: models.ModeFull}

func TestGetEvictsExpiredEntry(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	c := New(WithClock(clock.Now))

	c.Put(ctx, aaplFull, result("AAPL", clock.Now()), time.Hour)
	clock.Advance(time.Hour - time.Second)
	if _, ok := c.Get(ctx, aaplFull); !ok {
		t.Fatalf("entry missing before expiry")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get(ctx, aaplFull); ok {
		t.Fatalf("expired entry served")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not evicted, Len = %d", c.Len())
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	c := New(WithClock(clock.Now))

	first := result("AAPL", clock.Now())
	second := result("AAPL", clock.Now().Add(time.Minute))
	c.Put(ctx, aaplFull, first, time.Hour)
	c.Put(ctx, aaplFull, second, time.Hour)

	got, ok := c.Get(ctx, aaplFull)
	if !ok || got != second {
		t.Fatalf("Get = %v, %v; want second result", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestLoadSingleFlight(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	c := New(WithClock(clock.Now))

	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	compute := func(context.Context) (*models.AnalysisResult, error) {
		atomic.AddInt32(&calls, 1)
		once.Do(func() { close(started) })
		<-release
		return result("AAPL", clock.Now()), nil
	}

	const n = 25
	results := make([]*models.AnalysisResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := c.Load(ctx, aaplFull, compute)
			if err != nil {
				t.Errorf("Load: %v", err)
				return
			}
			results[i] = r
		}(i)
	}

	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("compute ran %d times, want 1", got)
	}
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("caller %d got a different result", i)
		}
	}
}

func TestLoadCancelledCallerStillFillsCache(t *testing.T) {
	clock := newTestClock()
	c := New(WithClock(clock.Now))

	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	compute := func(ctx context.Context) (*models.AnalysisResult, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return result("AAPL", clock.Now()), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx, aaplFull, compute)
		errc <- err
	}()

	<-started
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled caller got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("cancelled caller was not released")
	}

	close(release)
	r, err := c.Load(context.Background(), aaplFull, compute)
	if err != nil || r == nil {
		t.Fatalf("follow-up Load = %v, %v", r, err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("compute ran %d times, want 1", got)
	}
}

func TestLoadDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	c := New()

	var calls int32
	boom := models.NewDataUnavailable("ZZZZ", "unknown symbol", models.ErrUnknownSymbol)
	compute := func(context.Context) (*models.AnalysisResult, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}

	key := models.CacheKey{Symbol: "ZZZZ", Mode: models.ModeFull}
	for i := 0; i < 2; i++ {
		if _, err := c.Load(ctx, key, compute); !errors.Is(err, models.ErrUnknownSymbol) {
			t.Fatalf("Load #%d error = %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("compute ran %d times, want 2", got)
	}
	if c.Len() != 0 {
		t.Fatalf("failure was cached")
	}
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	c := New()
	c.Put(ctx, aaplFull, result("AAPL", time.Now()), time.Hour)
	c.Put(ctx, models.CacheKey{Symbol: "AAPL", Mode: models.ModeQuick}, result("AAPL", time.Now()), time.Hour)

	c.Invalidate(ctx, aaplFull)
	if _, ok := c.Get(ctx, aaplFull); ok {
		t.Fatalf("invalidated entry still served")
	}
	c.InvalidateSymbol(ctx, "AAPL")
	if c.Len() != 0 {
		t.Fatalf("Len = %d after InvalidateSymbol", c.Len())
	}
}

func TestInvalidateDuringLoadDoesNotStartSecondCompute(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	c := New(WithClock(clock.Now))

	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	compute := func(context.Context) (*models.AnalysisResult, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return result("AAPL", clock.Now()), nil
	}

	var wg sync.WaitGroup
	got := make([]*models.AnalysisResult, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		got[0], _ = c.Load(ctx, aaplFull, compute)
	}()
	<-started

	c.Invalidate(ctx, aaplFull)
	c.InvalidateSymbol(ctx, "AAPL")

	wg.Add(1)
	go func() {
		defer wg.Done()
		got[1], _ = c.Load(ctx, aaplFull, compute)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("compute ran %d times, want 1", n)
	}
	if got[0] == nil || got[0] != got[1] {
		t.Fatalf("callers got %v and %v, want the same result", got[0], got[1])
	}
}

func TestRemoteLevelPromotesFreshResults(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	remote := kv.NewMemoryCache(kv.WithMemoryCleanup(0), kv.WithMemoryClock(clock.Now))
	defer remote.Close()

	writer := New(WithClock(clock.Now), WithRemote(remote))
	writer.Put(ctx, aaplFull, result("AAPL", clock.Now()), models.FreshnessWindow)

	reader := New(WithClock(clock.Now), WithRemote(remote))
	got, ok := reader.Get(ctx, aaplFull)
	if !ok || got.Symbol != "AAPL" || got.Signal != models.SignalBuy {
		t.Fatalf("remote Get = %+v, %v", got, ok)
	}
	if reader.Len() != 1 {
		t.Fatalf("remote hit not promoted")
	}

	stale := result("MSFT", clock.Now().Add(-7*time.Hour))
	if err := kv.SetJSON(ctx, remote, "analysis:MSFT:full", stale, time.Hour); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	if _, ok := reader.Get(ctx, models.CacheKey{Symbol: "MSFT", Mode: models.ModeFull}); ok {
		t.Fatalf("stale remote entry served")
	}
}

func TestInvalidateSymbolClearsRemote(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	remote := kv.NewMemoryCache(kv.WithMemoryCleanup(0), kv.WithMemoryClock(clock.Now))
	defer remote.Close()

	c := New(WithClock(clock.Now), WithRemote(remote))
	c.Put(ctx, aaplFull, result("AAPL", clock.Now()), time.Hour)
	c.Put(ctx, models.CacheKey{Symbol: "AAPL", Mode: models.ModeQuick}, result("AAPL", clock.Now()), time.Hour)
	c.Put(ctx, models.CacheKey{Symbol: "AAPLX", Mode: models.ModeFull}, result("AAPLX", clock.Now()), time.Hour)

	c.InvalidateSymbol(ctx, "AAPL")

	if remote.Len() != 1 {
		t.Fatalf("remote Len = %d, want only AAPLX left", remote.Len())
	}
	fresh := New(WithClock(clock.Now), WithRemote(remote))
	if _, ok := fresh.Get(ctx, aaplFull); ok {
		t.Fatalf("invalidated symbol still in remote level")
	}
}
