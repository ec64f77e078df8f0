package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"EquityLens/internal/domain/models"
	domrepo "EquityLens/internal/domain/repository"
	domsvc "EquityLens/internal/domain/service"
	pkgkafka "EquityLens/pkg/kafka"
	applogger "EquityLens/pkg/logger"
	"EquityLens/pkg/queue"
)

// Invalidator drops cached analyses.
type Invalidator interface {
	Invalidate(ctx context.Context, key models.CacheKey)
	InvalidateSymbol(ctx context.Context, symbol string)
}

// RefreshHandler consumes refresh requests, from Kafka or the job queue, and
// recomputes the named analysis so that the next reader finds a warm cache.
type RefreshHandler struct {
	topic    string
	analyzer domsvc.Analyzer
	cache    Invalidator
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewRefreshHandler(topic string, analyzer domsvc.Analyzer, cache Invalidator, metrics domrepo.Metrics, l *applogger.Logger) *RefreshHandler {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &RefreshHandler{topic: topic, analyzer: analyzer, cache: cache, metrics: metrics, l: l}
}

// RefreshJobType is the job queue message type carrying a models.RefreshRequest.
const RefreshJobType = "analysis.refresh"

func (h *RefreshHandler) Topic() string { return h.topic }

func (h *RefreshHandler) Type() string { return RefreshJobType }

// Handle returns an error only for failures worth retrying. Malformed
// requests and unknown symbols are logged and dropped.
func (h *RefreshHandler) Handle(ctx context.Context, b []byte) error {
	var req models.RefreshRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("refresh_unmarshal")
		return fmt.Errorf("decode refresh request: %w", err)
	}

	sym, err := models.NormalizeSymbol(req.Symbol)
	if err != nil {
		h.metrics.RecordError("refresh_invalid")
		h.l.Warn("dropping refresh request", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return nil
	}
	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		h.metrics.RecordError("refresh_invalid")
		h.l.Warn("dropping refresh request", applogger.String("symbol", sym), applogger.Error(err))
		return nil
	}

	if req.Mode == "" {
		h.cache.InvalidateSymbol(ctx, sym)
	} else {
		h.cache.Invalidate(ctx, models.CacheKey{Symbol: sym, Mode: mode})
	}

	start := time.Now()
	r, err := h.analyzer.Analyze(ctx, sym, mode)
	if errors.Is(err, models.ErrUnknownSymbol) {
		h.l.Warn("refresh for unknown symbol", applogger.String("symbol", sym))
		return nil
	}
	if err != nil {
		h.metrics.RecordError("refresh")
		return err
	}
	h.l.Info("analysis refreshed",
		applogger.String("symbol", r.Symbol),
		applogger.String("mode", mode.String()),
		applogger.String("signal", r.Signal.String()),
		applogger.Duration("duration", time.Since(start)),
		applogger.String("trace_id", pkgkafka.TraceIDFrom(ctx)),
	)
	return nil
}

var (
	_ pkgkafka.MessageHandler = (*RefreshHandler)(nil)
	_ queue.Job               = (*RefreshHandler)(nil)
)
