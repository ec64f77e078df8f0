package backtest

import (
	"EquityLens/internal/domain/models"
	"EquityLens/internal/services/indicators"
)

// signalFunc looks at history up to and including the current bar and
// returns 1 to enter, -1 to exit, 0 to stay.
type signalFunc func(bars []models.Bar) int

var signals = map[models.Strategy]signalFunc{
	models.StrategyDualMomentum:   dualMomentum,
	models.StrategyMeanReversion:  meanReversion,
	models.StrategyTrendFollowing: trendFollowing,
	models.StrategyBreakout:       breakout,
}

const (
	oneMonth    = 21
	threeMonths = 63
)

// dualMomentum holds while both the one and three month returns are positive
// and volatility stays moderate. Exit conditions take precedence.
func dualMomentum(bars []models.Bar) int {
	n := len(bars)
	if n <= threeMonths {
		return 0
	}
	m1, ok1 := pctChange(bars[n-1-oneMonth].Close, bars[n-1].Close)
	m3, ok3 := pctChange(bars[n-1-threeMonths].Close, bars[n-1].Close)
	vol, err := indicators.RealizedVolatility(bars, 20)
	if !ok1 || !ok3 || err != nil {
		return 0
	}
	switch {
	case m1 < -0.01 || vol > 0.5:
		return -1
	case m1 > 0.02 && m3 > 0.05 && vol < 0.4:
		return 1
	}
	return 0
}

// meanReversion buys an oversold close near the lower Bollinger band and
// exits once price is back at the middle band or overbought.
func meanReversion(bars []models.Bar) int {
	rsi, err := indicators.RSI(bars, 14)
	if err != nil {
		return 0
	}
	ch, err := indicators.Bollinger(bars, 20, 2)
	if err != nil {
		return 0
	}
	switch {
	case rsi > 70 || ch.Percentile >= 50:
		return -1
	case rsi < 30 && ch.Percentile <= 20:
		return 1
	}
	return 0
}

// trendFollowing rides a bullish MACD above the 50-day average and leaves on
// a bearish histogram cross or a close under the average.
func trendFollowing(bars []models.Bar) int {
	m, err := indicators.MACD(bars, 12, 26, 9)
	if err != nil {
		return 0
	}
	cl := make([]float64, len(bars))
	for i, b := range bars {
		cl[i] = b.Close
	}
	sma, err := indicators.SMA(cl, 50)
	if err != nil {
		return 0
	}
	last := cl[len(cl)-1]
	switch {
	case last < sma || (m.Crossed() && m.Histogram < 0):
		return -1
	case m.Trend == indicators.Bullish && last > sma:
		return 1
	}
	return 0
}

const (
	breakoutWindow  = 20
	breakdownWindow = 10
)

// breakout enters on a close above the prior 20-day high and exits on a
// close below the prior 10-day low.
func breakout(bars []models.Bar) int {
	n := len(bars)
	if n <= breakoutWindow {
		return 0
	}
	last := bars[n-1].Close
	prior := bars[:n-1]

	high := prior[len(prior)-breakoutWindow].High
	for _, b := range prior[len(prior)-breakoutWindow:] {
		high = max(high, b.High)
	}
	low := prior[len(prior)-breakdownWindow].Low
	for _, b := range prior[len(prior)-breakdownWindow:] {
		low = min(low, b.Low)
	}

	switch {
	case last < low:
		return -1
	case last > high:
		return 1
	}
	return 0
}

func pctChange(from, to float64) (float64, bool) {
	if from <= 0 {
		return 0, false
	}
	return to/from - 1, true
}
