package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"EquityLens/internal/domain/models"
)

func makeBars(closes ...float64) []models.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestRSIInsufficientData(t *testing.T) {
	_, err := RSI(makeBars(1, 2, 3, 4, 5), 14)
	var ide *models.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if ide.Required != 15 || ide.Available != 5 || ide.Indicator != "rsi" {
		t.Fatalf("unexpected error detail: %+v", ide)
	}
}

func TestRSIMinimumHistoryIsPeriodPlusOne(t *testing.T) {
	closes := series(15, func(i int) float64 { return 100 + float64(i) })
	if _, err := RSI(makeBars(closes[:14]...), 14); err == nil {
		t.Fatalf("14 closes hold only 13 changes and must be rejected")
	}
	if v, err := RSI(makeBars(closes...), 14); err != nil || v != 100 {
		t.Fatalf("RSI over 15 closes = %v, %v; want 100", v, err)
	}
}

func TestRSIBoundsAndKnownValues(t *testing.T) {
	up := makeBars(series(30, func(i int) float64 { return 100 + float64(i) })...)
	if v, err := RSI(up, 14); err != nil || v != 100 {
		t.Fatalf("rising RSI = %v, %v; want 100", v, err)
	}

	down := makeBars(series(30, func(i int) float64 { return 100 - float64(i) })...)
	if v, err := RSI(down, 14); err != nil || v != 0 {
		t.Fatalf("falling RSI = %v, %v; want 0", v, err)
	}

	flat := makeBars(series(20, func(int) float64 { return 50 })...)
	if v, _ := RSI(flat, 14); v != 50 {
		t.Fatalf("flat RSI = %v; want 50", v)
	}

	// equal gains and losses over exactly one period
	zigzag := makeBars(series(15, func(i int) float64 { return 100 + float64(i%2) })...)
	if v, _ := RSI(zigzag, 14); math.Abs(v-50) > 1e-9 {
		t.Fatalf("zigzag RSI = %v; want 50", v)
	}

	noisy := makeBars(series(60, func(i int) float64 { return 100 + 10*math.Sin(float64(i)/3) })...)
	v, err := RSI(noisy, 14)
	if err != nil || v < 0 || v > 100 {
		t.Fatalf("RSI out of range: %v, %v", v, err)
	}
}

func TestMACDTrend(t *testing.T) {
	rising := makeBars(series(60, func(i int) float64 {
		if i < 40 {
			return 100
		}
		return 100 + 2*float64(i-39)
	})...)
	m, err := MACD(rising, 12, 26, 9)
	if err != nil {
		t.Fatalf("MACD: %v", err)
	}
	if m.Trend != Bullish || m.Histogram <= 0 {
		t.Fatalf("expected bullish, got %+v", m)
	}

	falling := makeBars(series(60, func(i int) float64 {
		if i < 40 {
			return 100
		}
		return 100 - 2*float64(i-39)
	})...)
	if m, _ := MACD(falling, 12, 26, 9); m.Trend != Bearish {
		t.Fatalf("expected bearish, got %+v", m)
	}

	flat := makeBars(series(60, func(int) float64 { return 100 })...)
	if m, _ := MACD(flat, 12, 26, 9); m.Trend != Neutral {
		t.Fatalf("expected neutral, got %+v", m)
	}

	_, err = MACD(makeBars(series(34, func(int) float64 { return 1 })...), 12, 26, 9)
	var ide *models.InsufficientDataError
	if !errors.As(err, &ide) || ide.Required != 35 {
		t.Fatalf("expected insufficient data requiring 35 bars, got %v", err)
	}
}

func TestBollingerPercentile(t *testing.T) {
	flat := makeBars(series(20, func(int) float64 { return 10 })...)
	ch, err := Bollinger(flat, 20, 2)
	if err != nil {
		t.Fatalf("Bollinger: %v", err)
	}
	if ch.Percentile != 50 || ch.Upper != ch.Lower {
		t.Fatalf("flat channel = %+v", ch)
	}

	spike := makeBars(append(series(19, func(int) float64 { return 10 }), 30)...)
	ch, _ = Bollinger(spike, 20, 2)
	if ch.Percentile <= 50 || ch.Percentile > 100 {
		t.Fatalf("spike percentile = %v", ch.Percentile)
	}
	if !(ch.Lower < ch.Middle && ch.Middle < ch.Upper) {
		t.Fatalf("bands out of order: %+v", ch)
	}
}

func TestATRConstantRange(t *testing.T) {
	bars := makeBars(series(30, func(int) float64 { return 50 })...)
	v, err := ATR(bars, 14)
	if err != nil || math.Abs(v-2) > 1e-9 {
		t.Fatalf("ATR = %v, %v; want 2", v, err)
	}
}

func TestRealizedVolatility(t *testing.T) {
	geometric := makeBars(series(40, func(i int) float64 { return 100 * math.Pow(1.01, float64(i)) })...)
	v, err := RealizedVolatility(geometric, 20)
	if err != nil || v > 1e-9 {
		t.Fatalf("constant growth volatility = %v, %v; want 0", v, err)
	}
	if r := LogReturns(makeBars(1)); r != nil {
		t.Fatalf("single bar returns = %v", r)
	}
	if _, err := RealizedVolatility(makeBars(1, 2, 3), 20); !models.IsSkippable(err) {
		t.Fatalf("expected skippable error, got %v", err)
	}
}

func TestEMASeed(t *testing.T) {
	e := EMA([]float64{1, 2, 3, 4}, 3)
	if e[2] != 2 {
		t.Fatalf("seed = %v; want 2", e[2])
	}
	if want := 4*0.5 + 2*0.5; e[3] != want {
		t.Fatalf("ema[3] = %v; want %v", e[3], want)
	}
}

func TestComputeShortHistory(t *testing.T) {
	r := Compute(makeBars(1, 2, 3, 4, 5), DefaultParams())
	for name, err := range map[string]error{
		"rsi":        r.RSI.Err,
		"macd":       r.MACD.Err,
		"bollinger":  r.Channel.Err,
		"atr":        r.ATR.Err,
		"volatility": r.Volatility.Err,
	} {
		if !models.IsSkippable(err) {
			t.Errorf("%s: expected insufficient data, got %v", name, err)
		}
	}
	if v, err := r.LastClose.Get(); err != nil || v != 5 {
		t.Fatalf("last close = %v, %v", v, err)
	}
}
