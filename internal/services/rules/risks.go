package rules

import (
	"fmt"

	"EquityLens/internal/services/indicators"
)

// MaxRisks caps the risk list attached to a result.
const MaxRisks = 3

const (
	elevatedVIX = 30
	// wideRange flags an ATR above this fraction of the last close.
	wideRange = 0.05
)

// IdentifyRisks lists snapshot-specific warnings first, then the profile's
// standing risk factors, capped at MaxRisks.
func IdentifyRisks(p *Profile, in Inputs) []string {
	var risks []string
	if snap := in.Snapshot; snap != nil {
		f := snap.Fundamentals
		if f.DebtToEquity != nil && *f.DebtToEquity > p.Norms.DebtWarning {
			risks = append(risks, fmt.Sprintf("High leverage: debt/equity %.2f above %.2f", *f.DebtToEquity, p.Norms.DebtWarning))
		}
		if f.PE != nil && *f.PE > p.Norms.PEWarning {
			risks = append(risks, fmt.Sprintf("High valuation: P/E %.1f above %.0f", *f.PE, p.Norms.PEWarning))
		}
		if g := firstOf(f.RevenueGrowth, f.EarningsGrowth); g != nil && *g < 0 {
			risks = append(risks, fmt.Sprintf("Negative growth: %.1f%%", *g))
		}
		if v := snap.Macro.VIX; v != nil && *v > elevatedVIX {
			risks = append(risks, fmt.Sprintf("Elevated market volatility: VIX %.1f", *v))
		}
	}
	if pct, ok := atrPercent(in.Technical); ok && pct > wideRange {
		risks = append(risks, fmt.Sprintf("Wide daily range: ATR %.1f%% of price", pct*100))
	}
	for i, r := range p.RiskFactors {
		if i == 2 {
			break
		}
		risks = append(risks, r)
	}
	if len(risks) > MaxRisks {
		risks = risks[:MaxRisks]
	}
	return risks
}

func atrPercent(r indicators.Readings) (float64, bool) {
	atr, err := r.ATR.Get()
	if err != nil {
		return 0, false
	}
	last, err := r.LastClose.Get()
	if err != nil || last <= 0 {
		return 0, false
	}
	return atr / last, true
}
