package rules

import (
	"fmt"
	"math"

	"EquityLens/internal/domain/models"
)

// ValuationNorms are the industry thresholds the fundamental bands are built
// from. Growth and profitability are percentages.
type ValuationNorms struct {
	GrowthExcellent float64 `json:"growth_excellent"`
	GrowthGood      float64 `json:"growth_good"`
	GrowthFair      float64 `json:"growth_fair"`
	ProfitExcellent float64 `json:"profit_excellent"`
	ProfitGood      float64 `json:"profit_good"`
	ProfitFair      float64 `json:"profit_fair"`
	DebtSafe        float64 `json:"debt_safe"`
	DebtWarning     float64 `json:"debt_warning"`
	PEWarning       float64 `json:"pe_warning"`
	PBWarning       float64 `json:"pb_warning,omitempty"`
}

// Profile is the immutable scoring bundle of one industry.
type Profile struct {
	Industry    models.Industry `json:"industry"`
	Description string          `json:"description"`
	Norms       ValuationNorms  `json:"norms"`
	Rules       []Rule          `json:"rules"`
	RiskFactors []string        `json:"risk_factors"`
	KeyMetrics  []string        `json:"key_metrics"`
}

// Weight returns the profile weight of the named rule, or 0.
func (p *Profile) Weight(name string) float64 {
	for _, r := range p.Rules {
		if r.Name == name {
			return r.Weight
		}
	}
	return 0
}

type groupWeights struct {
	fundamental, technical, macro float64
}

type fundamentalWeights struct {
	growth, profitability, debt, pe, pb float64
}

const (
	technicalRSI        = 0.35
	technicalTrend      = 0.35
	technicalBollinger  = 0.15
	technicalVolatility = 0.15

	macroInterest     = 0.25
	macroInflation    = 0.20
	macroGDP          = 0.20
	macroUnemployment = 0.15
	macroSentiment    = 0.10
	macroPMI          = 0.10
)

var (
	rsiBands        = Bands{{10, 1}, {25, 0.4}, {50, 0}, {75, -0.4}, {90, -1}}
	trendBands      = Bands{{-1, -0.8}, {0, 0}, {1, 0.8}}
	bollingerBands  = Bands{{0, 0.6}, {50, 0}, {100, -0.6}}
	volatilityBands = Bands{{0.15, 0.4}, {0.35, 0}, {0.7, -0.6}}

	ratesBands        = Bands{{1, 0.6}, {3, 0}, {6, -1}}
	bankRatesBands    = Bands{{1, -0.6}, {3, 0}, {6, 0.6}}
	inflationBands    = Bands{{0, 0}, {2, 0.5}, {3, 0}, {6, -1}}
	gdpBands          = Bands{{-2, -1}, {0, -0.4}, {2, 0.4}, {4, 1}}
	unemploymentBands = Bands{{3.5, 0.6}, {5, 0}, {8, -1}}
	pmiBands          = Linear(45, 55)
	sentimentBands    = Linear(60, 100)
)

type profileSpec struct {
	industry    models.Industry
	description string
	norms       ValuationNorms
	groups      groupWeights
	fundamental fundamentalWeights
	// rising rates help lenders
	ratesHelp   bool
	// lenders are scored on ROE rather than net margin
	useROE      bool
	riskFactors []string
	keyMetrics  []string
}

var specs = []profileSpec{
	{
		industry:    models.IndustrySoftware,
		description: "Software and internet platforms; growth-led valuation",
		norms: ValuationNorms{
			GrowthExcellent: 20, GrowthGood: 10, GrowthFair: 5,
			ProfitExcellent: 30, ProfitGood: 20, ProfitFair: 10,
			DebtSafe: 0.5, DebtWarning: 1.0, PEWarning: 40,
		},
		groups:      groupWeights{0.45, 0.30, 0.25},
		fundamental: fundamentalWeights{growth: 0.35, profitability: 0.25, debt: 0.15, pe: 0.25},
		riskFactors: []string{
			"Technology disruption and obsolescence",
			"Valuation compression when rates rise",
			"Regulatory scrutiny of platforms and data privacy",
		},
		keyMetrics: []string{"revenue_growth", "profit_margin", "pe"},
	},
	{
		industry:    models.IndustryFinancial,
		description: "Banks, insurers and asset managers; book value and rate driven",
		norms: ValuationNorms{
			GrowthExcellent: 12, GrowthGood: 7, GrowthFair: 3,
			ProfitExcellent: 20, ProfitGood: 15, ProfitFair: 10,
			DebtSafe: 10, DebtWarning: 15, PEWarning: 15, PBWarning: 2.5,
		},
		groups:      groupWeights{0.50, 0.15, 0.35},
		fundamental: fundamentalWeights{growth: 0.15, profitability: 0.25, debt: 0.15, pe: 0.20, pb: 0.25},
		ratesHelp:   true,
		useROE:      true,
		riskFactors: []string{
			"Credit cycle deterioration",
			"Net interest margin compression",
			"Capital and regulatory requirements",
		},
		keyMetrics: []string{"roe", "pb", "debt_to_equity"},
	},
	{
		industry:    models.IndustryEnergy,
		description: "Oil, gas and utilities; commodity and cash-flow driven",
		norms: ValuationNorms{
			GrowthExcellent: 15, GrowthGood: 8, GrowthFair: 3,
			ProfitExcellent: 25, ProfitGood: 15, ProfitFair: 8,
			DebtSafe: 0.7, DebtWarning: 1.2, PEWarning: 30,
		},
		groups:      groupWeights{0.40, 0.25, 0.35},
		fundamental: fundamentalWeights{growth: 0.20, profitability: 0.30, debt: 0.25, pe: 0.25},
		riskFactors: []string{
			"Commodity price volatility",
			"Energy transition and environmental regulation",
			"Capital intensity of reserves replacement",
		},
		keyMetrics: []string{"profit_margin", "debt_to_equity", "pe"},
	},
	{
		industry:    models.IndustryHealthcare,
		description: "Pharma, biotech and providers; pipeline and margin driven",
		norms: ValuationNorms{
			GrowthExcellent: 20, GrowthGood: 12, GrowthFair: 6,
			ProfitExcellent: 30, ProfitGood: 20, ProfitFair: 10,
			DebtSafe: 0.6, DebtWarning: 1.0, PEWarning: 35,
		},
		groups:      groupWeights{0.50, 0.30, 0.20},
		fundamental: fundamentalWeights{growth: 0.30, profitability: 0.25, debt: 0.15, pe: 0.30},
		riskFactors: []string{
			"Clinical trial and approval risk",
			"Patent expirations",
			"Drug pricing regulation",
		},
		keyMetrics: []string{"revenue_growth", "profit_margin", "pe"},
	},
	{
		industry:    models.IndustryIndustrial,
		description: "Manufacturing, aerospace and transport; cyclical",
		norms:       industrialNorms,
		groups:      groupWeights{0.40, 0.25, 0.35},
		fundamental: fundamentalWeights{growth: 0.25, profitability: 0.25, debt: 0.25, pe: 0.25},
		riskFactors: []string{
			"Economic cycle sensitivity",
			"Supply chain disruption",
			"Input cost inflation",
		},
		keyMetrics: []string{"revenue_growth", "debt_to_equity", "pe"},
	},
	{
		industry:    models.IndustryGeneric,
		description: "Fallback profile for unclassified securities",
		norms:       industrialNorms,
		groups:      groupWeights{0.40, 0.35, 0.25},
		fundamental: fundamentalWeights{growth: 0.25, profitability: 0.25, debt: 0.25, pe: 0.25},
		riskFactors: []string{
			"Broad market volatility",
			"Sector-specific headwinds not covered by an industry profile",
		},
		keyMetrics: []string{"revenue_growth", "profit_margin", "pe"},
	},
}

var industrialNorms = ValuationNorms{
	GrowthExcellent: 15, GrowthGood: 8, GrowthFair: 3,
	ProfitExcellent: 20, ProfitGood: 12, ProfitFair: 6,
	DebtSafe: 0.8, DebtWarning: 1.5, PEWarning: 25,
}

var profiles = buildProfiles()

func buildProfiles() map[models.Industry]*Profile {
	out := make(map[models.Industry]*Profile, len(specs))
	for _, s := range specs {
		p := s.build()
		if err := p.validate(); err != nil {
			panic(fmt.Sprintf("rules: %s profile: %v", s.industry, err))
		}
		out[s.industry] = p
	}
	return out
}

func (s profileSpec) build() *Profile {
	n := s.norms
	f := s.fundamental
	g := s.groups

	profitName, profitPick := "profit_margin", func(x models.Fundamentals) *float64 { return firstOf(x.ProfitMargin, x.ROE) }
	if s.useROE {
		profitName, profitPick = "roe", func(x models.Fundamentals) *float64 { return x.ROE }
	}

	rs := []Rule{
		{
			Name: "growth", Group: models.GroupFundamental, Weight: g.fundamental * f.growth,
			Bands:    Bands{{0, -1}, {n.GrowthFair, 0}, {n.GrowthGood, 0.5}, {n.GrowthExcellent, 1}},
			Accessor: fundamental("revenue_growth", func(x models.Fundamentals) *float64 { return firstOf(x.RevenueGrowth, x.EarningsGrowth) }),
		},
		{
			Name: "profitability", Group: models.GroupFundamental, Weight: g.fundamental * f.profitability,
			Bands:    Bands{{0, -1}, {n.ProfitFair, 0}, {n.ProfitGood, 0.5}, {n.ProfitExcellent, 1}},
			Accessor: fundamental(profitName, profitPick),
		},
		{
			Name: "debt", Group: models.GroupFundamental, Weight: g.fundamental * f.debt,
			Bands:    Bands{{n.DebtSafe, 1}, {n.DebtWarning, -0.5}, {2 * n.DebtWarning, -1}},
			Accessor: fundamental("debt_to_equity", func(x models.Fundamentals) *float64 { return x.DebtToEquity }),
		},
		{
			Name: "pe", Group: models.GroupFundamental, Weight: g.fundamental * f.pe,
			Bands:    Bands{{0.5 * n.PEWarning, 1}, {n.PEWarning, 0}, {1.5 * n.PEWarning, -1}},
			Accessor: peValue,
		},
	}
	if f.pb > 0 {
		rs = append(rs, Rule{
			Name: "pb", Group: models.GroupFundamental, Weight: g.fundamental * f.pb,
			Bands:    Bands{{1, 1}, {n.PBWarning, 0}, {2 * n.PBWarning, -1}},
			Accessor: fundamental("pb", func(x models.Fundamentals) *float64 { return x.PB }),
		})
	}

	rates := ratesBands
	if s.ratesHelp {
		rates = bankRatesBands
	}
	rs = append(rs,
		Rule{Name: "rsi", Group: models.GroupTechnical, Weight: g.technical * technicalRSI, Bands: rsiBands, Accessor: rsiValue},
		Rule{Name: "trend", Group: models.GroupTechnical, Weight: g.technical * technicalTrend, Bands: trendBands, Accessor: trendValue},
		Rule{Name: "bollinger", Group: models.GroupTechnical, Weight: g.technical * technicalBollinger, Bands: bollingerBands, Accessor: bandPosition},
		Rule{Name: "volatility", Group: models.GroupTechnical, Weight: g.technical * technicalVolatility, Bands: volatilityBands, Accessor: volatilityValue},

		Rule{Name: "interest_rate", Group: models.GroupMacro, Weight: g.macro * macroInterest, Bands: rates,
			Accessor: macro("fed_funds_rate", func(m models.Macro) *float64 { return m.FedFundsRate })},
		Rule{Name: "inflation", Group: models.GroupMacro, Weight: g.macro * macroInflation, Bands: inflationBands,
			Accessor: macro("inflation_yoy", func(m models.Macro) *float64 { return m.InflationYoY })},
		Rule{Name: "gdp_growth", Group: models.GroupMacro, Weight: g.macro * macroGDP, Bands: gdpBands,
			Accessor: macro("gdp_growth", func(m models.Macro) *float64 { return m.GDPGrowth })},
		Rule{Name: "unemployment", Group: models.GroupMacro, Weight: g.macro * macroUnemployment, Bands: unemploymentBands,
			Accessor: macro("unemployment", func(m models.Macro) *float64 { return m.Unemployment })},
		Rule{Name: "consumer_sentiment", Group: models.GroupMacro, Weight: g.macro * macroSentiment, Bands: sentimentBands,
			Accessor: macro("consumer_sentiment", func(m models.Macro) *float64 { return m.ConsumerSentiment })},
		Rule{Name: "pmi", Group: models.GroupMacro, Weight: g.macro * macroPMI, Bands: pmiBands,
			Accessor: macro("pmi", func(m models.Macro) *float64 { return m.PMI })},
	)

	return &Profile{
		Industry:    s.industry,
		Description: s.description,
		Norms:       n,
		Rules:       rs,
		RiskFactors: s.riskFactors,
		KeyMetrics:  s.keyMetrics,
	}
}

func (p *Profile) validate() error {
	sum := 0.0
	seen := make(map[string]bool, len(p.Rules))
	for _, r := range p.Rules {
		if seen[r.Name] {
			return fmt.Errorf("duplicate rule %q", r.Name)
		}
		seen[r.Name] = true
		if r.Weight <= 0 {
			return fmt.Errorf("rule %q has non-positive weight", r.Name)
		}
		if r.Accessor == nil {
			return fmt.Errorf("rule %q has no accessor", r.Name)
		}
		if err := r.Bands.Validate(); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
		sum += r.Weight
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("weights sum to %v", sum)
	}
	return nil
}

// ProfileFor returns the static profile of ind. Unknown values get Generic.
func ProfileFor(ind models.Industry) *Profile {
	switch ind {
	case models.IndustrySoftware, models.IndustryFinancial, models.IndustryEnergy,
		models.IndustryHealthcare, models.IndustryIndustrial, models.IndustryGeneric:
		return profiles[ind]
	default:
		return profiles[models.IndustryGeneric]
	}
}

// Profiles lists every profile in models.Industries order.
func Profiles() []*Profile {
	out := make([]*Profile, 0, len(models.Industries))
	for _, ind := range models.Industries {
		out = append(out, profiles[ind])
	}
	return out
}
