package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"EquityLens/internal/domain/models"
	domrepo "EquityLens/internal/domain/repository"
	domsvc "EquityLens/internal/domain/service"
	"EquityLens/internal/service/cache"
	"EquityLens/internal/services/aggregator"
	"EquityLens/internal/services/backtest"
	"EquityLens/internal/services/classifier"
	"EquityLens/internal/services/indicators"
	"EquityLens/internal/services/rules"
	applogger "EquityLens/pkg/logger"
	"EquityLens/pkg/tracing"
)

var errEmptySnapshot = errors.New("no usable market data")

// AnalysisOrchestrator runs the full analysis pipeline behind the cache.
type AnalysisOrchestrator struct {
	provider domrepo.MarketDataProvider
	cache    *cache.AnalysisCache

	now          func() time.Time
	newID        func() string
	fetchTimeout time.Duration
	retryBackoff time.Duration
	sinkTimeout  time.Duration
	parallelism  int
	params       indicators.Params
	riskFreeRate float64

	sinks   []domrepo.ResultSink
	sinkWG  sync.WaitGroup
	l       *applogger.Logger
	metrics domrepo.Metrics
	tracer  *tracing.Tracer
}

var _ domsvc.BatchAnalyzer = (*AnalysisOrchestrator)(nil)

type OrchestratorOption func(*AnalysisOrchestrator)

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *AnalysisOrchestrator) { o.now = now }
}

func WithIDGenerator(f func() string) OrchestratorOption {
	return func(o *AnalysisOrchestrator) { o.newID = f }
}

// WithFetchTimeout bounds each provider attempt.
func WithFetchTimeout(d time.Duration) OrchestratorOption {
	return func(o *AnalysisOrchestrator) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithRetryBackoff sets the pause before the single provider retry.
func WithRetryBackoff(d time.Duration) OrchestratorOption {
	return func(o *AnalysisOrchestrator) { o.retryBackoff = d }
}

func WithSinkTimeout(d time.Duration) OrchestratorOption {
	return func(o *AnalysisOrchestrator) {
		if d > 0 {
			o.sinkTimeout = d
		}
	}
}

// WithParallelism caps concurrent analyses in AnalyzeMany.
func WithParallelism(n int) OrchestratorOption {
	return func(o *AnalysisOrchestrator) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithRiskFreeRate sets the annual rate backtests measure excess return against.
func WithRiskFreeRate(r float64) OrchestratorOption {
	return func(o *AnalysisOrchestrator) {
		if r >= 0 {
			o.riskFreeRate = r
		}
	}
}

func WithIndicatorParams(p indicators.Params) OrchestratorOption {
	return func(o *AnalysisOrchestrator) { o.params = p }
}

// WithSinks registers receivers for every fresh result. Nil sinks are ignored.
func WithSinks(sinks ...domrepo.ResultSink) OrchestratorOption {
	return func(o *AnalysisOrchestrator) {
		for _, s := range sinks {
			if s != nil {
				o.sinks = append(o.sinks, s)
			}
		}
	}
}

func WithLogger(l *applogger.Logger) OrchestratorOption {
	return func(o *AnalysisOrchestrator) { o.l = l }
}

func WithMetrics(m domrepo.Metrics) OrchestratorOption {
	return func(o *AnalysisOrchestrator) { o.metrics = m }
}

func WithTracer(t *tracing.Tracer) OrchestratorOption {
	return func(o *AnalysisOrchestrator) { o.tracer = t }
}

func NewAnalysisOrchestrator(provider domrepo.MarketDataProvider, c *cache.AnalysisCache, opts ...OrchestratorOption) *AnalysisOrchestrator {
	o := &AnalysisOrchestrator{
		provider:     provider,
		cache:        c,
		now:          time.Now,
		newID:        uuid.NewString,
		fetchTimeout: 10 * time.Second,
		retryBackoff: 250 * time.Millisecond,
		sinkTimeout:  5 * time.Second,
		parallelism:  4,
		params:       indicators.DefaultParams(),
		riskFreeRate: backtest.DefaultRiskFreeRate,
		l:            applogger.Nop(),
		metrics:      domrepo.NopMetrics{},
		tracer:       tracing.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze returns the cached analysis for (symbol, mode) or computes it.
func (o *AnalysisOrchestrator) Analyze(ctx context.Context, symbol string, mode models.Mode) (*models.AnalysisResult, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	key := models.CacheKey{Symbol: sym, Mode: mode}
	return o.cache.Load(ctx, key, func(ctx context.Context) (*models.AnalysisResult, error) {
		return o.compute(ctx, sym, mode)
	})
}

// AnalyzeMany analyzes symbols concurrently. Per-symbol failures are carried in
// the items; the returned error is only set when ctx ends first.
func (o *AnalysisOrchestrator) AnalyzeMany(ctx context.Context, symbols []string, mode models.Mode) ([]domsvc.BatchItem, error) {
	items := make([]domsvc.BatchItem, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i, s := range symbols {
		i, s := i, s
		g.Go(func() error {
			r, err := o.Analyze(gctx, s, mode)
			items[i] = domsvc.BatchItem{Symbol: s, Result: r, Err: err}
			if r != nil {
				items[i].Symbol = r.Symbol
			}
			return nil
		})
	}
	_ = g.Wait()
	return items, ctx.Err()
}

// Wait blocks until every pending sink delivery has finished.
func (o *AnalysisOrchestrator) Wait() {
	o.sinkWG.Wait()
}

func (o *AnalysisOrchestrator) compute(ctx context.Context, symbol string, mode models.Mode) (*models.AnalysisResult, error) {
	ctx, span := o.tracer.StartSpan(ctx, "analysis.compute",
		attribute.String("symbol", symbol),
		attribute.String("mode", mode.String()),
	)
	defer span.End()
	started := time.Now()

	snap, err := o.fetch(ctx, symbol, mode.Lookback())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		o.metrics.RecordError("provider")
		o.l.Warn("analysis unavailable",
			applogger.String("symbol", symbol),
			applogger.String("mode", mode.String()),
			applogger.Error(err),
		)
		return nil, err
	}

	sec, err := models.NewSecurity(symbol)
	if err != nil {
		return nil, err
	}
	cls := classifier.Classify(sec.Symbol, snap.SectorHint, snap.IndustryHint)
	if cls.Ambiguity != nil {
		o.l.Warn("industry classification ambiguous, using generic profile",
			applogger.String("symbol", symbol),
			applogger.String("hint", cls.Ambiguity.Hint),
			applogger.Strings("candidates", industryNames(cls.Ambiguity.Candidates)),
			applogger.Error(cls.Ambiguity),
		)
	}
	asOf := dataAsOf(snap)
	sec.Resolve(cls.Industry, asOf)
	profile := rules.ProfileFor(*sec.Industry)

	in := rules.Inputs{
		Snapshot:  snap,
		Technical: indicators.Compute(snap.Bars, o.params),
	}
	ev := rules.Evaluate(profile, in, mode.Groups())
	for _, s := range ev.Skipped {
		o.l.Debug("factor skipped",
			applogger.String("symbol", symbol),
			applogger.String("factor", s.Name),
			applogger.String("reason", s.Reason),
		)
	}
	if len(ev.Scores) == 0 {
		o.metrics.RecordError("no_factors")
		return nil, models.NewDataUnavailable(symbol, "no computable factors", nil)
	}

	agg := aggregator.Aggregate(ev.Scores)
	now := o.now()
	res := &models.AnalysisResult{
		ID:         o.newID(),
		Symbol:     sec.Symbol,
		Name:       snap.Name,
		Mode:       mode,
		Industry:   *sec.Industry,
		Factors:    ev.Scores,
		Skipped:    ev.Skipped,
		Score:      agg.Score,
		Signal:     agg.Signal,
		Confidence: agg.Confidence,
		Risks:      rules.IdentifyRisks(profile, in),
		DataAsOf:   asOf,
		ComputedAt: now,
		ExpiresAt:  now.Add(models.FreshnessWindow),
	}

	elapsed := time.Since(started)
	o.metrics.RecordAnalysis(mode.String(), res.Industry.String(), res.Signal.String(), elapsed.Seconds())
	span.SetAttributes(
		attribute.String("industry", res.Industry.String()),
		attribute.String("signal", res.Signal.String()),
		attribute.Float64("confidence", res.Confidence),
	)
	o.l.Info("analysis computed",
		applogger.String("symbol", res.Symbol),
		applogger.String("mode", mode.String()),
		applogger.String("industry", res.Industry.String()),
		applogger.String("signal", res.Signal.String()),
		applogger.Float("score", res.Score),
		applogger.Float("confidence", res.Confidence),
		applogger.Int("factors", len(res.Factors)),
		applogger.Int("skipped", len(res.Skipped)),
		applogger.Time("data_as_of", res.DataAsOf),
		applogger.Duration("duration", elapsed),
	)

	o.publish(ctx, res)
	return res, nil
}

func (o *AnalysisOrchestrator) fetch(ctx context.Context, symbol string, lookback time.Duration) (*models.MarketSnapshot, error) {
	ctx, span := o.tracer.StartSpan(ctx, "provider.fetch", attribute.String("symbol", symbol))
	defer span.End()

	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(o.retryBackoff):
			case <-ctx.Done():
				return nil, models.NewDataUnavailable(symbol, "cancelled", ctx.Err())
			}
		}

		var snap *models.MarketSnapshot
		snap, err = o.fetchOnce(ctx, symbol, lookback)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt), attribute.Int("bars", len(snap.Bars)))
			return snap, nil
		}
		if errors.Is(err, models.ErrUnknownSymbol) || errors.Is(err, errEmptySnapshot) {
			break
		}
		o.l.Warn("provider fetch failed",
			applogger.String("symbol", symbol),
			applogger.Int("attempt", attempt),
			applogger.Error(err),
		)
	}
	return nil, err
}

func (o *AnalysisOrchestrator) fetchOnce(ctx context.Context, symbol string, lookback time.Duration) (*models.MarketSnapshot, error) {
	actx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	start := time.Now()
	snap, err := o.provider.Fetch(actx, symbol, lookback)
	o.metrics.RecordProviderFetch(time.Since(start).Seconds(), err)

	var due *models.DataUnavailableError
	switch {
	case err == nil && (snap == nil || !snap.Usable()):
		return nil, models.NewDataUnavailable(symbol, errEmptySnapshot.Error(), errEmptySnapshot)
	case err == nil:
		return snap, nil
	case errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return nil, models.NewDataUnavailable(symbol, "provider timeout", err)
	case errors.As(err, &due):
		return nil, err
	default:
		return nil, models.NewDataUnavailable(symbol, "", err)
	}
}

// publish hands r to every sink in the background.
func (o *AnalysisOrchestrator) publish(ctx context.Context, r *models.AnalysisResult) {
	base := context.WithoutCancel(ctx)
	for _, sink := range o.sinks {
		o.sinkWG.Add(1)
		go func(sink domrepo.ResultSink) {
			defer o.sinkWG.Done()
			sctx, cancel := context.WithTimeout(base, o.sinkTimeout)
			defer cancel()
			if err := sink.Save(sctx, r); err != nil {
				o.metrics.RecordError("sink")
				o.l.Error("result sink failed",
					applogger.String("symbol", r.Symbol),
					applogger.String("id", r.ID),
					applogger.Error(err),
				)
			}
		}(sink)
	}
}

func dataAsOf(snap *models.MarketSnapshot) time.Time {
	if n := len(snap.Bars); n > 0 {
		return snap.Bars[n-1].Time
	}
	return snap.FetchedAt
}

func industryNames(in []models.Industry) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = v.String()
	}
	return out
}
