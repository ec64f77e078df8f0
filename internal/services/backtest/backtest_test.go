package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"EquityLens/internal/domain/models"
)

// compounding builds daily bars whose close moves by rates[i] on bar i.
func compounding(start float64, rates []float64) []models.Bar {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(rates))
	price := start
	for i, r := range rates {
		price *= 1 + r
		bars[i] = models.Bar{
			Time:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.002,
			Low:    price * 0.998,
			Close:  price,
			Volume: 1e6,
		}
	}
	return bars
}

func constant(n int, r float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func TestRunRejectsShortHistory(t *testing.T) {
	_, err := Run("AAPL", compounding(100, constant(99, 0.01)), models.StrategyDualMomentum)
	var ide *models.InsufficientDataError
	if !errors.As(err, &ide) || ide.Required != MinBars || ide.Available != 99 {
		t.Fatalf("err = %v, want InsufficientDataError for 99 bars", err)
	}
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	if _, err := Run("AAPL", compounding(100, constant(150, 0.01)), models.Strategy("martingale")); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestUptrendStrategiesBuyOnceAndHold(t *testing.T) {
	bars := compounding(100, constant(150, 0.005))
	for _, s := range []models.Strategy{models.StrategyDualMomentum, models.StrategyTrendFollowing, models.StrategyBreakout} {
		t.Run(s.String(), func(t *testing.T) {
			res, err := Run("AAPL", bars, s)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.TotalTrades != 1 || res.Trades[0].Action != models.ActionBuy {
				t.Fatalf("trades = %+v, want a single buy", res.Trades)
			}
			if res.FinalEquity <= res.InitialCapital || res.TotalReturnPct <= 0 {
				t.Fatalf("final equity %v from %v", res.FinalEquity, res.InitialCapital)
			}
			if res.MaxDrawdownPct > 1e-9 {
				t.Fatalf("drawdown = %v on a rising series", res.MaxDrawdownPct)
			}
			// entering late can only lag buy and hold on a monotonic rise
			if res.OutperformancePct >= 0 {
				t.Fatalf("outperformance = %v", res.OutperformancePct)
			}
			if math.Abs(res.OutperformancePct-(res.TotalReturnPct-res.BuyHoldReturnPct)) > 1e-9 {
				t.Fatalf("outperformance inconsistent: %+v", res)
			}
		})
	}
}

func TestMeanReversionRoundTrip(t *testing.T) {
	rates := append(constant(60, -0.01), constant(60, 0.01)...)
	res, err := Run("AAPL", compounding(100, rates), models.StrategyMeanReversion)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) < 2 || res.Trades[0].Action != models.ActionBuy || res.Trades[1].Action != models.ActionSell {
		t.Fatalf("trades = %+v, want buy then sell", res.Trades)
	}
	if res.Trades[1].Price >= res.Trades[0].Price {
		t.Fatalf("sold at %v after buying at %v in a falling knife", res.Trades[1].Price, res.Trades[0].Price)
	}
	if res.Trades[1].Shares != res.Trades[0].Shares {
		t.Fatalf("sold %v shares, bought %v", res.Trades[1].Shares, res.Trades[0].Shares)
	}
	if res.WinRatePct != 0 {
		t.Fatalf("win rate = %v", res.WinRatePct)
	}
}

func TestRunTrimsHistoryAndHonorsCapital(t *testing.T) {
	res, err := Run("AAPL", compounding(100, constant(150, 0.005)), models.StrategyBreakout, WithInitialCapital(50000))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.InitialCapital != 50000 || res.Bars != 150 {
		t.Fatalf("capital %v bars %d", res.InitialCapital, res.Bars)
	}
	if len(res.EquityCurve) != keepEquity {
		t.Fatalf("equity curve has %d points", len(res.EquityCurve))
	}
	if res.EquityCurve[len(res.EquityCurve)-1] != res.FinalEquity {
		t.Fatalf("curve does not end at final equity")
	}
}

func TestFlatSeriesNeverTrades(t *testing.T) {
	res, err := Run("AAPL", compounding(100, constant(120, 0)), models.StrategyDualMomentum)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalTrades != 0 || res.Trades == nil || res.FinalEquity != DefaultCapital || res.SharpeRatio != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestMetrics(t *testing.T) {
	if got := maxDrawdown([]float64{100, 120, 90, 130, 110}); math.Abs(got-25) > 1e-9 {
		t.Fatalf("maxDrawdown = %v, want 25", got)
	}

	year := make([]float64, 252)
	for i := range year {
		year[i] = 100 * math.Pow(2, float64(i)/251)
	}
	if got := annualizedReturn(year); math.Abs(got-100) > 1e-6 {
		t.Fatalf("annualizedReturn = %v, want 100", got)
	}

	trades := []models.Trade{
		{Action: models.ActionBuy, Price: 10}, {Action: models.ActionSell, Price: 12},
		{Action: models.ActionBuy, Price: 12}, {Action: models.ActionSell, Price: 11},
		{Action: models.ActionBuy, Price: 11},
	}
	if got := winRate(trades); got != 50 {
		t.Fatalf("winRate = %v, want 50", got)
	}

	if got := sharpe([]float64{100, 100, 100, 100}, DefaultRiskFreeRate); got != 0 {
		t.Fatalf("sharpe of flat curve = %v", got)
	}
	up := []float64{100, 101, 103, 104, 106}
	if got := sharpe(up, DefaultRiskFreeRate); got <= 0 {
		t.Fatalf("sharpe of rising curve = %v", got)
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := models.ParseStrategy(""); err != nil || s != models.StrategyDualMomentum {
		t.Fatalf("ParseStrategy(\"\") = %v, %v", s, err)
	}
	if s, err := models.ParseStrategy(" Breakout "); err != nil || s != models.StrategyBreakout {
		t.Fatalf("ParseStrategy(Breakout) = %v, %v", s, err)
	}
	if _, err := models.ParseStrategy("pairs"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}
