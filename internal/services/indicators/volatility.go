package indicators

import (
	"math"

	"EquityLens/internal/domain/models"
)

// Channel is a Bollinger band snapshot for the latest bar.
// Percentile is where the close sits between Lower (0) and Upper (100).
type Channel struct {
	Upper      float64 `json:"upper"`
	Middle     float64 `json:"middle"`
	Lower      float64 `json:"lower"`
	Percentile float64 `json:"percentile"`
}

func Bollinger(bars []models.Bar, period int, k float64) (Channel, error) {
	if period <= 0 {
		period = 20
	}
	if k <= 0 {
		k = 2
	}
	if len(bars) < period {
		return Channel{}, &models.InsufficientDataError{Indicator: "bollinger", Required: period, Available: len(bars)}
	}

	window := closes(bars[len(bars)-period:])
	mid, _ := SMA(window, period)
	variance := 0.0
	for _, c := range window {
		variance += (c - mid) * (c - mid)
	}
	sd := math.Sqrt(variance / float64(period))

	ch := Channel{Upper: mid + k*sd, Middle: mid, Lower: mid - k*sd, Percentile: 50}
	if width := ch.Upper - ch.Lower; width > 0 {
		last := window[len(window)-1]
		ch.Percentile = clamp((last-ch.Lower)/width*100, 0, 100)
	}
	return ch, nil
}

// ATR is Wilder's average true range of the latest bar.
func ATR(bars []models.Bar, period int) (float64, error) {
	if period <= 0 {
		period = 14
	}
	if len(bars) < period+1 {
		return 0, &models.InsufficientDataError{Indicator: "atr", Required: period + 1, Available: len(bars)}
	}

	atr := 0.0
	for i := 1; i <= period; i++ {
		atr += trueRange(bars[i-1], bars[i])
	}
	atr /= float64(period)
	for i := period + 1; i < len(bars); i++ {
		atr = (atr*float64(period-1) + trueRange(bars[i-1], bars[i])) / float64(period)
	}
	return atr, nil
}

func trueRange(prev, cur models.Bar) float64 {
	return math.Max(cur.High-cur.Low, math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
