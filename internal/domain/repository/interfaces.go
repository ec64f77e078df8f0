package repository

import (
	"context"
	"time"

	"EquityLens/internal/domain/models"
)

// MarketDataProvider supplies the raw inputs for one analysis.
// Implementations return *models.DataUnavailableError (wrapping
// models.ErrUnknownSymbol for tickers they do not cover) when no usable
// snapshot exists.
type MarketDataProvider interface {
	Fetch(ctx context.Context, symbol string, lookback time.Duration) (*models.MarketSnapshot, error)
}

// ResultSink receives every freshly computed analysis.
type ResultSink interface {
	Save(ctx context.Context, r *models.AnalysisResult) error
}

// ResultArchive is a ResultSink that can be queried.
type ResultArchive interface {
	ResultSink
	History(ctx context.Context, symbol string, limit int) ([]*models.AnalysisResult, error)
	Close() error
}

type Metrics interface {
	RecordCacheHit(mode string)
	RecordCacheMiss(mode string)
	RecordProviderFetch(seconds float64, err error)
	RecordAnalysis(mode, industry, signal string, seconds float64)
	RecordError(kind string)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) RecordCacheHit(string) {}
func (NopMetrics) RecordCacheMiss(string) {}
func (NopMetrics) RecordProviderFetch(float64, error) {}
func (NopMetrics) RecordAnalysis(string, string, string, float64) {}
func (NopMetrics) RecordError(string) {}

var _ Metrics = NopMetrics{}

// RefreshPublisher hands a refresh request to whichever transport feeds the
// refresh consumers.
type RefreshPublisher interface {
	RequestRefresh(ctx context.Context, req models.RefreshRequest) error
}
