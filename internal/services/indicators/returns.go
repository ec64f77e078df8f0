package indicators

import (
	"math"

	"EquityLens/internal/domain/models"
)

// TradingDaysPerYear annualizes daily-bar statistics.
const TradingDaysPerYear = 252

// LogReturns computes r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(bars)-1, or nil if insufficient data.
// Non-positive closes contribute a zero return.
func LogReturns(bars []models.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		cur := bars[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility is the annualized sample standard deviation of the last
// window log returns.
func RealizedVolatility(bars []models.Bar, window int) (float64, error) {
	if window < 2 {
		window = 2
	}
	if len(bars) < window+1 {
		return 0, &models.InsufficientDataError{Indicator: "volatility", Required: window + 1, Available: len(bars)}
	}
	returns := LogReturns(bars[len(bars)-window-1:])

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance * TradingDaysPerYear), nil
}

func closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
