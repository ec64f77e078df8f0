package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheLookups  *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	providerTime  prometheus.Histogram
	analyses      *prometheus.CounterVec
	analysisTime  *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
}

// New registers the analysis metrics on reg, or the default registry when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equitylens_cache_lookups_total",
				Help: "Analysis cache lookups by mode and outcome",
			},
			[]string{"mode", "result"},
		),
		providerCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equitylens_provider_fetches_total",
				Help: "Market data provider calls by outcome",
			},
			[]string{"result"},
		),
		providerTime: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "equitylens_provider_fetch_seconds",
				Help:    "Market data provider latency",
				Buckets: prometheus.DefBuckets,
			},
		),
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equitylens_analyses_total",
				Help: "Computed analyses by mode, industry and signal",
			},
			[]string{"mode", "industry", "signal"},
		),
		analysisTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "equitylens_analysis_duration_seconds",
				Help:    "Time to compute one analysis, fetch included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equitylens_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

func (r *Recorder) RecordCacheHit(mode string) {
	r.cacheLookups.WithLabelValues(mode, "hit").Inc()
}

func (r *Recorder) RecordCacheMiss(mode string) {
	r.cacheLookups.WithLabelValues(mode, "miss").Inc()
}

// RecordProviderFetch records one provider attempt.
func (r *Recorder) RecordProviderFetch(seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.providerCalls.WithLabelValues(result).Inc()
	r.providerTime.Observe(seconds)
}

func (r *Recorder) RecordAnalysis(mode, industry, signal string, seconds float64) {
	r.analyses.WithLabelValues(mode, industry, signal).Inc()
	r.analysisTime.WithLabelValues(mode).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
