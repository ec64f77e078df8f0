package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Strategy names a backtestable trading rule.
type Strategy string

const (
	StrategyDualMomentum   Strategy = "dual_momentum"
	StrategyMeanReversion  Strategy = "mean_reversion"
	StrategyTrendFollowing Strategy = "trend_following"
	StrategyBreakout       Strategy = "breakout"
)

// Strategies lists every supported strategy, default first.
func Strategies() []Strategy {
	return []Strategy{StrategyDualMomentum, StrategyMeanReversion, StrategyTrendFollowing, StrategyBreakout}
}

// ErrUnknownStrategy marks a strategy name ParseStrategy does not know.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy accepts the snake_case name; empty selects dual momentum.
func ParseStrategy(s string) (Strategy, error) {
	v := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return StrategyDualMomentum, nil
	}
	for _, known := range Strategies() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownStrategy, s)
}

func (s Strategy) String() string { return string(s) }

// TradeAction is the side of a simulated fill.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Trade is one simulated fill at a bar's close.
type Trade struct {
	Time   time.Time   `json:"time"`
	Action TradeAction `json:"action"`
	Price  float64     `json:"price"`
	Shares float64     `json:"shares"`
}

// BacktestResult summarizes one strategy run over a symbol's history.
// Percent fields are percentages (12.5 == 12.5%). Trades and EquityCurve
// hold only the most recent entries.
type BacktestResult struct {
	Symbol              string    `json:"symbol"`
	Strategy            Strategy  `json:"strategy"`
	From                time.Time `json:"from"`
	To                  time.Time `json:"to"`
	Bars                int       `json:"bars"`
	InitialCapital      float64   `json:"initial_capital"`
	FinalEquity         float64   `json:"final_equity"`
	TotalReturnPct      float64   `json:"total_return_pct"`
	AnnualizedReturnPct float64   `json:"annualized_return_pct"`
	MaxDrawdownPct      float64   `json:"max_drawdown_pct"`
	SharpeRatio         float64   `json:"sharpe_ratio"`
	WinRatePct          float64   `json:"win_rate_pct"`
	TotalTrades         int       `json:"total_trades"`
	BuyHoldReturnPct    float64   `json:"buy_hold_return_pct"`
	OutperformancePct   float64   `json:"outperformance_pct"`
	Trades              []Trade   `json:"trades"`
	EquityCurve         []float64 `json:"equity_curve"`
}

// SymbolMatch is one symbol search hit. Score is in [0, 1].
type SymbolMatch struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	MatchType string  `json:"match_type"`
	Score     float64 `json:"score"`
}
