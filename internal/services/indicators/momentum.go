package indicators

import "EquityLens/internal/domain/models"

// RSI is Wilder's relative strength index of the latest bar, in [0, 100].
// The first average gain and loss are seeded from period close-to-close
// changes, and n changes need n+1 closes: a 14-period RSI needs 15 bars.
func RSI(bars []models.Bar, period int) (float64, error) {
	if period <= 0 {
		period = 14
	}
	if len(bars) < period+1 {
		return 0, &models.InsufficientDataError{Indicator: "rsi", Required: period + 1, Available: len(bars)}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := change(bars[i-1].Close, bars[i].Close)
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(bars); i++ {
		gain, loss := change(bars[i-1].Close, bars[i].Close)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

func change(prev, cur float64) (gain, loss float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}
