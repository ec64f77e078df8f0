package models

import "time"

// Bar is one daily OHLCV record.
type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// Fundamentals holds point-in-time ratios. Nil means the provider had no value.
// Growth and margin figures are percentages (12.5 == 12.5%).
type Fundamentals struct {
	PE             *float64 `json:"pe,omitempty"`
	PB             *float64 `json:"pb,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth *float64 `json:"earnings_growth,omitempty"`
	ProfitMargin   *float64 `json:"profit_margin,omitempty"`
	ROE            *float64 `json:"roe,omitempty"`
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`
}

// Macro holds economy-wide indicators, in percent unless noted.
type Macro struct {
	FedFundsRate      *float64 `json:"fed_funds_rate,omitempty"`
	TenYearYield      *float64 `json:"ten_year_yield,omitempty"`
	TwoYearYield      *float64 `json:"two_year_yield,omitempty"`
	InflationYoY      *float64 `json:"inflation_yoy,omitempty"`
	Unemployment      *float64 `json:"unemployment,omitempty"`
	GDPGrowth         *float64 `json:"gdp_growth,omitempty"`
	PMI               *float64 `json:"pmi,omitempty"`               // index level, 50 = neutral
	ConsumerSentiment *float64 `json:"consumer_sentiment,omitempty"` // index level
	VIX               *float64 `json:"vix,omitempty"`
}

// MarketSnapshot is everything the engine needs for one analysis.
// Bars are sorted oldest first.
type MarketSnapshot struct {
	Symbol       string       `json:"symbol"`
	Name         string       `json:"name,omitempty"`
	SectorHint   string       `json:"sector,omitempty"`
	IndustryHint string       `json:"industry,omitempty"`
	Bars         []Bar        `json:"bars"`
	Fundamentals Fundamentals `json:"fundamentals"`
	Macro        Macro        `json:"macro"`
	FetchedAt    time.Time    `json:"fetched_at"`
}

// Usable reports whether the snapshot carries any price or fundamental data.
func (s *MarketSnapshot) Usable() bool {
	if len(s.Bars) > 0 {
		return true
	}
	f := s.Fundamentals
	return f.PE != nil || f.PB != nil || f.RevenueGrowth != nil || f.EarningsGrowth != nil ||
		f.ProfitMargin != nil || f.ROE != nil || f.DebtToEquity != nil
}

// Float returns a pointer to v, for building optional snapshot fields.
func Float(v float64) *float64 { return &v }
