package usecase

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"EquityLens/internal/domain/models"
	domsvc "EquityLens/internal/domain/service"
	"EquityLens/internal/services/backtest"
	applogger "EquityLens/pkg/logger"
)

var _ domsvc.Backtester = (*AnalysisOrchestrator)(nil)

// Backtest fetches the full-mode history for symbol and replays strategy over
// it. Results are not cached. A non-positive capital uses the default.
func (o *AnalysisOrchestrator) Backtest(ctx context.Context, symbol string, strategy models.Strategy, capital float64) (*models.BacktestResult, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	strategy, err = models.ParseStrategy(string(strategy))
	if err != nil {
		return nil, err
	}

	ctx, span := o.tracer.StartSpan(ctx, "analysis.backtest",
		attribute.String("symbol", sym),
		attribute.String("strategy", strategy.String()),
	)
	defer span.End()
	started := time.Now()

	snap, err := o.fetch(ctx, sym, models.ModeFull.Lookback())
	if err != nil {
		o.metrics.RecordError("provider")
		return nil, err
	}

	opts := []backtest.Option{backtest.WithRiskFreeRate(o.riskFreeRate)}
	if capital > 0 {
		opts = append(opts, backtest.WithInitialCapital(capital))
	}
	res, err := backtest.Run(sym, snap.Bars, strategy, opts...)
	var ide *models.InsufficientDataError
	if errors.As(err, &ide) {
		return nil, models.NewDataUnavailable(sym, "not enough history to backtest", err)
	}
	if err != nil {
		return nil, err
	}

	o.l.Info("backtest completed",
		applogger.String("symbol", sym),
		applogger.String("strategy", strategy.String()),
		applogger.Int("bars", res.Bars),
		applogger.Int("trades", res.TotalTrades),
		applogger.Float("return_pct", res.TotalReturnPct),
		applogger.Duration("duration", time.Since(started)),
	)
	return res, nil
}
