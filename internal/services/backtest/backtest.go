// Package backtest replays a trading rule over daily bars. Positions are
// all-in or flat; fills happen at the signalling bar's close.
package backtest

import (
	"fmt"
	"math"

	"EquityLens/internal/domain/models"
	"EquityLens/internal/services/indicators"
)

const (
	// MinBars is the shortest history a run accepts.
	MinBars = 100

	DefaultCapital      = 10000
	DefaultRiskFreeRate = 0.02

	keepTrades = 10
	keepEquity = 100
)

type config struct {
	capital      float64
	riskFreeRate float64
}

type Option func(*config)

func WithInitialCapital(v float64) Option {
	return func(c *config) {
		if v > 0 {
			c.capital = v
		}
	}
}

// WithRiskFreeRate sets the annual rate subtracted in the Sharpe ratio.
func WithRiskFreeRate(v float64) Option {
	return func(c *config) {
		if v >= 0 {
			c.riskFreeRate = v
		}
	}
}

// Run simulates strategy over bars, which must be in ascending time order.
func Run(symbol string, bars []models.Bar, strategy models.Strategy, opts ...Option) (*models.BacktestResult, error) {
	cfg := config{capital: DefaultCapital, riskFreeRate: DefaultRiskFreeRate}
	for _, opt := range opts {
		opt(&cfg)
	}
	signal, ok := signals[strategy]
	if !ok {
		return nil, fmt.Errorf("backtest: unknown strategy %q", strategy)
	}
	if len(bars) < MinBars {
		return nil, &models.InsufficientDataError{Indicator: "backtest", Required: MinBars, Available: len(bars)}
	}

	cash := cfg.capital
	shares := 0.0
	var trades []models.Trade
	equity := make([]float64, 0, len(bars)-1)

	for i := 1; i < len(bars); i++ {
		price := bars[i].Close
		switch sig := signal(bars[:i+1]); {
		case sig > 0 && shares == 0 && price > 0:
			shares = cash / price
			cash = 0
			trades = append(trades, models.Trade{Time: bars[i].Time, Action: models.ActionBuy, Price: price, Shares: shares})
		case sig < 0 && shares > 0:
			trades = append(trades, models.Trade{Time: bars[i].Time, Action: models.ActionSell, Price: price, Shares: shares})
			cash = shares * price
			shares = 0
		}
		equity = append(equity, cash+shares*price)
	}

	first, last := bars[0], bars[len(bars)-1]
	res := &models.BacktestResult{
		Symbol:              symbol,
		Strategy:            strategy,
		From:                first.Time,
		To:                  last.Time,
		Bars:                len(bars),
		InitialCapital:      cfg.capital,
		FinalEquity:         equity[len(equity)-1],
		AnnualizedReturnPct: annualizedReturn(equity),
		MaxDrawdownPct:      maxDrawdown(equity),
		SharpeRatio:         sharpe(equity, cfg.riskFreeRate),
		WinRatePct:          winRate(trades),
		TotalTrades:         len(trades),
		Trades:              tail(trades, keepTrades),
		EquityCurve:         tail(equity, keepEquity),
	}
	res.TotalReturnPct = (res.FinalEquity/cfg.capital - 1) * 100
	if first.Close > 0 {
		res.BuyHoldReturnPct = (last.Close/first.Close - 1) * 100
	}
	res.OutperformancePct = res.TotalReturnPct - res.BuyHoldReturnPct
	return res, nil
}

func annualizedReturn(equity []float64) float64 {
	if len(equity) < 2 || equity[0] <= 0 {
		return 0
	}
	growth := equity[len(equity)-1] / equity[0]
	if growth <= 0 {
		return -100
	}
	years := float64(len(equity)) / indicators.TradingDaysPerYear
	return (math.Pow(growth, 1/years) - 1) * 100
}

// maxDrawdown is the deepest peak-to-trough fall of the curve, in percent.
func maxDrawdown(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}
	peak, worst := equity[0], 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			worst = math.Max(worst, (peak-v)/peak*100)
		}
	}
	return worst
}

// sharpe annualizes the mean daily excess return over the daily return
// standard deviation. A curve with no variation scores 0.
func sharpe(equity []float64, riskFreeRate float64) float64 {
	if len(equity) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] > 0 {
			returns = append(returns, equity[i]/equity[i-1]-1)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	sd := math.Sqrt(variance / float64(len(returns)-1))
	if sd < 1e-12 {
		return 0
	}
	excess := mean - riskFreeRate/indicators.TradingDaysPerYear
	return math.Sqrt(indicators.TradingDaysPerYear) * excess / sd
}

// winRate is the share of completed buy/sell round trips that sold higher.
func winRate(trades []models.Trade) float64 {
	var wins, closed int
	for i := 0; i+1 < len(trades); i += 2 {
		buy, sell := trades[i], trades[i+1]
		if buy.Action != models.ActionBuy || sell.Action != models.ActionSell {
			continue
		}
		closed++
		if sell.Price > buy.Price {
			wins++
		}
	}
	if closed == 0 {
		return 0
	}
	return float64(wins) / float64(closed) * 100
}

// tail copies the last n elements; the result is never nil.
func tail[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return append(make([]T, 0, len(s)), s...)
}
