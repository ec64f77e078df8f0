package service

import (
	"context"

	"EquityLens/internal/domain/models"
)

// Analyzer is the single entry point presentation layers call.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, mode models.Mode) (*models.AnalysisResult, error)
}

// BatchAnalyzer analyzes several symbols at once. Errors are reported per symbol.
type BatchAnalyzer interface {
	Analyzer
	AnalyzeMany(ctx context.Context, symbols []string, mode models.Mode) ([]BatchItem, error)
}

type BatchItem struct {
	Symbol string
	Result *models.AnalysisResult
	Err    error
}

// Backtester replays a trading strategy over a symbol's price history.
type Backtester interface {
	Backtest(ctx context.Context, symbol string, strategy models.Strategy, capital float64) (*models.BacktestResult, error)
}
