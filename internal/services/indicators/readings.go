// Package indicators holds pure technical indicator functions over daily bars.
// Every indicator enforces its own minimum history and reports shortfalls as
// *models.InsufficientDataError.
package indicators

import "EquityLens/internal/domain/models"

type Params struct {
	RSIPeriod        int
	MACDFast         int
	MACDSlow         int
	MACDSignal       int
	BollingerPeriod  int
	BollingerK       float64
	ATRPeriod        int
	VolatilityWindow int
}

func DefaultParams() Params {
	return Params{
		RSIPeriod:        14,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		BollingerPeriod:  20,
		BollingerK:       2,
		ATRPeriod:        14,
		VolatilityWindow: 20,
	}
}

// Reading pairs an indicator value with the error that prevented computing it.
type Reading[T any] struct {
	Value T
	Err   error
}

func (r Reading[T]) Get() (T, error) { return r.Value, r.Err }

func read[T any](v T, err error) Reading[T] { return Reading[T]{Value: v, Err: err} }

// Readings is every indicator evaluated once over the same bar series.
type Readings struct {
	RSI        Reading[float64]
	MACD       Reading[MACDResult]
	Channel    Reading[Channel]
	ATR        Reading[float64]
	Volatility Reading[float64]
	LastClose  Reading[float64]
}

func Compute(bars []models.Bar, p Params) Readings {
	r := Readings{
		RSI:        read[float64](RSI(bars, p.RSIPeriod)),
		MACD:       read[MACDResult](MACD(bars, p.MACDFast, p.MACDSlow, p.MACDSignal)),
		Channel:    read[Channel](Bollinger(bars, p.BollingerPeriod, p.BollingerK)),
		ATR:        read[float64](ATR(bars, p.ATRPeriod)),
		Volatility: read[float64](RealizedVolatility(bars, p.VolatilityWindow)),
	}
	if len(bars) == 0 {
		r.LastClose.Err = &models.InsufficientDataError{Indicator: "close", Required: 1}
	} else {
		r.LastClose.Value = bars[len(bars)-1].Close
	}
	return r
}
