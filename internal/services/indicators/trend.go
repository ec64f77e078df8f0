package indicators

import (
	"math"

	"EquityLens/internal/domain/models"
)

// Trend is the categorical state of a moving-average crossover.
type Trend int

const (
	Bearish Trend = -1
	Neutral Trend = 0
	Bullish Trend = 1
)

func (t Trend) String() string {
	switch t {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

func (t Trend) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// MACDResult is the latest MACD state plus the previous histogram so callers
// can tell whether a crossover just happened.
type MACDResult struct {
	MACD          float64 `json:"macd"`
	Signal        float64 `json:"signal"`
	Histogram     float64 `json:"histogram"`
	PrevHistogram float64 `json:"prev_histogram"`
	Trend         Trend   `json:"trend"`
}

// Crossed reports a sign change of the histogram on the latest bar.
func (m MACDResult) Crossed() bool {
	return (m.Histogram > 0) != (m.PrevHistogram > 0)
}

// neutralBand is the histogram magnitude, relative to price, treated as no trend.
const neutralBand = 1e-4

// MACD needs slow+signal bars so that two signal-line points exist.
func MACD(bars []models.Bar, fast, slow, signal int) (MACDResult, error) {
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signal <= 0 {
		signal = 9
	}
	required := slow + signal
	if len(bars) < required {
		return MACDResult{}, &models.InsufficientDataError{Indicator: "macd", Required: required, Available: len(bars)}
	}

	cl := closes(bars)
	fastEMA := EMA(cl, fast)
	slowEMA := EMA(cl, slow)

	// both EMAs are defined from index slow-1 onward
	line := make([]float64, 0, len(cl)-slow+1)
	for i := slow - 1; i < len(cl); i++ {
		line = append(line, fastEMA[i]-slowEMA[i])
	}
	sig := EMA(line, signal)

	last := len(line) - 1
	res := MACDResult{
		MACD:          line[last],
		Signal:        sig[last],
		Histogram:     line[last] - sig[last],
		PrevHistogram: line[last-1] - sig[last-1],
	}

	price := math.Abs(cl[len(cl)-1])
	switch {
	case math.Abs(res.Histogram) <= neutralBand*price:
		res.Trend = Neutral
	case res.Histogram > 0:
		res.Trend = Bullish
	default:
		res.Trend = Bearish
	}
	return res, nil
}

// SMA is the simple average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 || len(values) < period {
		return 0, &models.InsufficientDataError{Indicator: "sma", Required: period, Available: len(values)}
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// EMA returns the exponential moving average series seeded with the SMA of
// the first period values. Entries before period-1 are zero.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	out[period-1] = seed / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}
