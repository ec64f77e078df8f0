package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"EquityLens/internal/domain/models"
	domrepo "EquityLens/internal/domain/repository"
	pkgch "EquityLens/pkg/clickhouse"
	applogger "EquityLens/pkg/logger"
)

// ProviderSchema creates the tables CHProvider reads from. Loading them is
// left to upstream ingestion jobs.
var ProviderSchema = []string{
	`CREATE TABLE IF NOT EXISTS equity_bars (
        symbol LowCardinality(String),
        day    Date,
        open   Float64,
        high   Float64,
        low    Float64,
        close  Float64,
        volume Float64
    ) ENGINE = ReplacingMergeTree ORDER BY (symbol, day)`,
	`CREATE TABLE IF NOT EXISTS equity_fundamentals (
        symbol          LowCardinality(String),
        as_of           DateTime,
        name            String,
        sector          String,
        industry        String,
        pe              Nullable(Float64),
        pb              Nullable(Float64),
        revenue_growth  Nullable(Float64),
        earnings_growth Nullable(Float64),
        profit_margin   Nullable(Float64),
        roe             Nullable(Float64),
        debt_to_equity  Nullable(Float64)
    ) ENGINE = ReplacingMergeTree ORDER BY (symbol, as_of)`,
	`CREATE TABLE IF NOT EXISTS macro_indicators (
        as_of              DateTime,
        fed_funds_rate     Nullable(Float64),
        ten_year_yield     Nullable(Float64),
        two_year_yield     Nullable(Float64),
        inflation_yoy      Nullable(Float64),
        unemployment       Nullable(Float64),
        gdp_growth         Nullable(Float64),
        pmi                Nullable(Float64),
        consumer_sentiment Nullable(Float64),
        vix                Nullable(Float64)
    ) ENGINE = ReplacingMergeTree ORDER BY as_of`,
}

// CHProvider assembles snapshots from daily bars, fundamentals and macro
// tables kept in ClickHouse.
type CHProvider struct {
	db  *sql.DB
	l   *applogger.Logger
	now func() time.Time
}

var _ domrepo.MarketDataProvider = (*CHProvider)(nil)

func NewCHProvider(ch *pkgch.Client) *CHProvider {
	return &CHProvider{db: ch.DB(), l: applogger.Nop(), now: time.Now}
}

// SetLogger injects a structured logger.
func (p *CHProvider) SetLogger(l *applogger.Logger) { p.l = l }

// SetClock replaces time.Now, for tests.
func (p *CHProvider) SetClock(now func() time.Time) { p.now = now }

func (p *CHProvider) Fetch(ctx context.Context, symbol string, lookback time.Duration) (*models.MarketSnapshot, error) {
	start := time.Now()
	now := p.now().UTC()
	snap := &models.MarketSnapshot{Symbol: symbol, FetchedAt: now}

	bars, err := p.bars(ctx, symbol, now.Add(-lookback))
	if err != nil {
		return nil, err
	}
	snap.Bars = bars

	found, err := p.fundamentals(ctx, snap)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 && !found {
		return nil, models.NewDataUnavailable(symbol, "unknown symbol", models.ErrUnknownSymbol)
	}
	if err := p.macro(ctx, &snap.Macro); err != nil {
		// macro inputs are optional; the rules skip them
		p.l.Warn("clickhouse macro query error", applogger.String("symbol", symbol), applogger.Error(err))
	}

	p.l.Debug("clickhouse snapshot ok",
		applogger.String("symbol", symbol),
		applogger.Int("bars", len(bars)),
		applogger.Bool("fundamentals", found),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return snap, nil
}

func (p *CHProvider) bars(ctx context.Context, symbol string, from time.Time) ([]models.Bar, error) {
	const q = `
        SELECT day, open, high, low, close, volume
        FROM equity_bars
        WHERE symbol = ? AND day >= ?
        ORDER BY day ASC
    `
	rows, err := p.db.QueryContext(ctx, q, symbol, from)
	if err != nil {
		p.l.Error("clickhouse bars query error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 256)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (p *CHProvider) fundamentals(ctx context.Context, snap *models.MarketSnapshot) (bool, error) {
	const q = `
        SELECT name, sector, industry, pe, pb, revenue_growth, earnings_growth,
               profit_margin, roe, debt_to_equity
        FROM equity_fundamentals
        WHERE symbol = ?
        ORDER BY as_of DESC
        LIMIT 1
    `
	var (
		name, sector, industry string
		vals                   [7]sql.NullFloat64
	)
	err := p.db.QueryRowContext(ctx, q, snap.Symbol).Scan(
		&name, &sector, &industry,
		&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &vals[6],
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		p.l.Error("clickhouse fundamentals query error", applogger.String("symbol", snap.Symbol), applogger.Error(err))
		return false, fmt.Errorf("query fundamentals: %w", err)
	}

	snap.Name, snap.SectorHint, snap.IndustryHint = name, sector, industry
	snap.Fundamentals = models.Fundamentals{
		PE:             nullable(vals[0]),
		PB:             nullable(vals[1]),
		RevenueGrowth:  nullable(vals[2]),
		EarningsGrowth: nullable(vals[3]),
		ProfitMargin:   nullable(vals[4]),
		ROE:            nullable(vals[5]),
		DebtToEquity:   nullable(vals[6]),
	}
	return true, nil
}

func (p *CHProvider) macro(ctx context.Context, m *models.Macro) error {
	const q = `
        SELECT fed_funds_rate, ten_year_yield, two_year_yield, inflation_yoy,
               unemployment, gdp_growth, pmi, consumer_sentiment, vix
        FROM macro_indicators
        ORDER BY as_of DESC
        LIMIT 1
    `
	var vals [9]sql.NullFloat64
	err := p.db.QueryRowContext(ctx, q).Scan(
		&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &vals[6], &vals[7], &vals[8],
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query macro: %w", err)
	}
	*m = models.Macro{
		FedFundsRate:      nullable(vals[0]),
		TenYearYield:      nullable(vals[1]),
		TwoYearYield:      nullable(vals[2]),
		InflationYoY:      nullable(vals[3]),
		Unemployment:      nullable(vals[4]),
		GDPGrowth:         nullable(vals[5]),
		PMI:               nullable(vals[6]),
		ConsumerSentiment: nullable(vals[7]),
		VIX:               nullable(vals[8]),
	}
	return nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}
