package usecase

import (
	"context"
	"errors"
	"testing"

	"EquityLens/internal/domain/models"
)

func TestBacktest(t *testing.T) {
	ctx := context.Background()
	long := appleSnapshot()
	long.Bars = dailyBars(150, 100)
	p := &fakeProvider{snaps: map[string]*models.MarketSnapshot{"AAPL": long, "MSFT": appleSnapshot()}}
	o := newTestOrchestrator(p, newFakeClock())

	res, err := o.Backtest(ctx, "aapl", models.StrategyBreakout, 0)
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if res.Symbol != "AAPL" || res.Strategy != models.StrategyBreakout || res.Bars != 150 || res.InitialCapital != 10000 {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = o.Backtest(ctx, "AAPL", "", 25000)
	if err != nil {
		t.Fatalf("Backtest default strategy: %v", err)
	}
	if res.Strategy != models.StrategyDualMomentum || res.InitialCapital != 25000 {
		t.Fatalf("strategy %s capital %v", res.Strategy, res.InitialCapital)
	}

	var due *models.DataUnavailableError
	if _, err := o.Backtest(ctx, "MSFT", models.StrategyBreakout, 0); !errors.As(err, &due) {
		t.Fatalf("short history err = %v, want DataUnavailableError", err)
	}
	if _, err := o.Backtest(ctx, "ZZZZ", models.StrategyBreakout, 0); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("unknown symbol err = %v", err)
	}
	if _, err := o.Backtest(ctx, "$$", models.StrategyBreakout, 0); !errors.Is(err, models.ErrInvalidSymbol) {
		t.Fatalf("invalid symbol err = %v", err)
	}
	if _, err := o.Backtest(ctx, "AAPL", "grid", 0); !errors.Is(err, models.ErrUnknownStrategy) {
		t.Fatalf("unknown strategy err = %v", err)
	}
}

func TestSymbolSearch(t *testing.T) {
	uc := NewSymbolSearchUseCase(nil)

	res := uc.Search("fiserw", 0)
	if res.Count == 0 || res.Matches[0].Symbol != "FISV" {
		t.Fatalf("Search(fiserw) = %+v", res)
	}
	if res := uc.Search("x", 3); res.Matches == nil || res.Count != 0 {
		t.Fatalf("Search(x) = %+v", res)
	}

	m, err := uc.Resolve("micro soft")
	if err != nil || m.Symbol != "MSFT" {
		t.Fatalf("Resolve = %+v, %v", m, err)
	}
	if _, err := uc.Resolve("qwzxv"); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("Resolve(noise) err = %v", err)
	}
}
