package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"EquityLens/internal/domain/models"
	"EquityLens/internal/domain/repository"
	kv "EquityLens/pkg/cache"
	applogger "EquityLens/pkg/logger"
)

// ComputeFunc produces the analysis for a key on a cache miss.
type ComputeFunc func(ctx context.Context) (*models.AnalysisResult, error)

type entry struct {
	result    *models.AnalysisResult
	expiresAt time.Time
}

// AnalysisCache is the process-wide store of completed analyses. Entries
// expire at a fixed instant; an expired entry is evicted on read and never
// served. Load collapses concurrent misses for a key into one computation.
type AnalysisCache struct {
	mu      sync.RWMutex
	entries map[models.CacheKey]entry
	flights singleflight.Group

	now           func() time.Time
	remote        kv.Service
	remoteTimeout time.Duration
	l             *applogger.Logger
	metrics       repository.Metrics
}

type Option func(*AnalysisCache)

func WithClock(now func() time.Time) Option {
	return func(c *AnalysisCache) { c.now = now }
}

// WithRemote adds a second-level store shared across processes.
func WithRemote(remote kv.Service) Option {
	return func(c *AnalysisCache) { c.remote = remote }
}

func WithRemoteTimeout(d time.Duration) Option {
	return func(c *AnalysisCache) { c.remoteTimeout = d }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *AnalysisCache) { c.l = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *AnalysisCache) { c.metrics = m }
}

func New(opts ...Option) *AnalysisCache {
	c := &AnalysisCache{
		entries:       make(map[models.CacheKey]entry),
		now:           time.Now,
		remoteTimeout: 500 * time.Millisecond,
		l:             applogger.Nop(),
		metrics:       repository.NopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live entry for key.
func (c *AnalysisCache) Get(ctx context.Context, key models.CacheKey) (*models.AnalysisResult, bool) {
	r, ok := c.lookup(ctx, key)
	if ok {
		c.metrics.RecordCacheHit(key.Mode.String())
	} else {
		c.metrics.RecordCacheMiss(key.Mode.String())
	}
	return r, ok
}

// Put stores r under key for ttl, replacing any previous entry.
func (c *AnalysisCache) Put(ctx context.Context, key models.CacheKey, r *models.AnalysisResult, ttl time.Duration) {
	c.store(ctx, key, r, c.now().Add(ttl))
}

// Load returns the live entry for key or runs compute exactly once across
// concurrent callers. The computation is detached from ctx: a caller that
// gives up gets ctx.Err() at once while the flight still fills the cache.
// Errors are returned to every waiting caller and never stored.
func (c *AnalysisCache) Load(ctx context.Context, key models.CacheKey, compute ComputeFunc) (*models.AnalysisResult, error) {
	if r, ok := c.Get(ctx, key); ok {
		return r, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key.String(), func() (any, error) {
		// a flight that just finished may have filled the entry
		if r, ok := c.lookup(detached, key); ok {
			return r, nil
		}
		r, err := compute(detached)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, errors.New("analysis cache: compute returned nil result")
		}
		c.store(detached, key, r, r.ExpiresAt)
		return r, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.AnalysisResult), nil
	}
}

// Invalidate drops key from every level. A computation already in flight for
// key keeps running and later Load callers join it.
func (c *AnalysisCache) Invalidate(ctx context.Context, key models.CacheKey) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.remote == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()
	if err := c.remote.Delete(rctx, key.String()); err != nil {
		c.l.Warn("remote cache delete failed", applogger.String("key", key.String()), applogger.Error(err))
	}
}

// InvalidateSymbol drops every mode of symbol.
func (c *AnalysisCache) InvalidateSymbol(ctx context.Context, symbol string) {
	c.mu.Lock()
	for _, m := range []models.Mode{models.ModeFull, models.ModeQuick} {
		delete(c.entries, models.CacheKey{Symbol: symbol, Mode: m})
	}
	c.mu.Unlock()

	if c.remote == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()
	pattern := kv.PrefixPattern("analysis", symbol)
	if err := c.remote.DeleteByPattern(rctx, pattern); err != nil {
		c.l.Warn("remote cache delete failed", applogger.String("pattern", pattern), applogger.Error(err))
	}
}

// Len counts entries currently held in memory, expired or not.
func (c *AnalysisCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close empties the in-memory level and closes the remote one.
func (c *AnalysisCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[models.CacheKey]entry)
	c.mu.Unlock()
	if c.remote != nil {
		return c.remote.Close()
	}
	return nil
}

func (c *AnalysisCache) lookup(ctx context.Context, key models.CacheKey) (*models.AnalysisResult, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		if now.Before(e.expiresAt) {
			return e.result, true
		}
		c.mu.Lock()
		// only evict the entry we saw; a concurrent Put may have replaced it
		if cur, still := c.entries[key]; still && cur.result == e.result {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}

	return c.lookupRemote(ctx, key, now)
}

func (c *AnalysisCache) lookupRemote(ctx context.Context, key models.CacheKey, now time.Time) (*models.AnalysisResult, bool) {
	if c.remote == nil {
		return nil, false
	}
	rctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	r, err := kv.GetJSON[*models.AnalysisResult](rctx, c.remote, key.String())
	if err != nil {
		if !errors.Is(err, kv.ErrCacheMiss) {
			c.l.Warn("remote cache read failed", applogger.String("key", key.String()), applogger.Error(err))
		}
		return nil, false
	}
	if r == nil || !r.Fresh(now) {
		return nil, false
	}

	c.mu.Lock()
	c.entries[key] = entry{result: r, expiresAt: r.ExpiresAt}
	c.mu.Unlock()
	return r, true
}

func (c *AnalysisCache) store(ctx context.Context, key models.CacheKey, r *models.AnalysisResult, expiresAt time.Time) {
	c.mu.Lock()
	c.entries[key] = entry{result: r, expiresAt: expiresAt}
	c.mu.Unlock()

	if c.remote == nil {
		return
	}
	ttl := expiresAt.Sub(c.now())
	if ttl <= 0 {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()
	if err := kv.SetJSON(rctx, c.remote, key.String(), r, ttl); err != nil {
		c.l.Warn("remote cache write failed", applogger.String("key", key.String()), applogger.Error(err))
	}
}
