// Package rules holds the static industry profiles and the evaluator that turns
// a market snapshot into weighted factor scores.
package rules

import (
	"errors"
	"fmt"
	"math"

	"EquityLens/internal/domain/models"
	"EquityLens/internal/services/indicators"
)

// Inputs is everything a rule accessor may read.
type Inputs struct {
	Snapshot  *models.MarketSnapshot
	Technical indicators.Readings
}

// Accessor extracts a rule's raw value. A skippable error (see
// models.IsSkippable) marks the factor as not computable.
type Accessor func(Inputs) (float64, error)

// Rule is one weighted factor of a profile. Weight is the share of the whole
// profile, so the weights of a profile sum to 1.
type Rule struct {
	Name     string             `json:"name"`
	Group    models.FactorGroup `json:"group"`
	Weight   float64            `json:"weight"`
	Bands    Bands              `json:"bands"`
	Accessor Accessor           `json:"-"`
}

// Evaluation is the outcome of running a profile over one set of inputs.
type Evaluation struct {
	Scores  []models.FactorScore
	Skipped []models.SkippedFactor
}

// TotalWeight sums the weights of the evaluated factors.
func (e Evaluation) TotalWeight() float64 {
	sum := 0.0
	for _, s := range e.Scores {
		sum += s.Weight
	}
	return sum
}

// Evaluate scores every rule of p whose group is in groups. Rules whose input
// is missing are reported in Skipped and the weights of the remaining rules
// are rescaled to sum to 1.
func Evaluate(p *Profile, in Inputs, groups []models.FactorGroup) Evaluation {
	var ev Evaluation
	total := 0.0
	for _, r := range p.Rules {
		if !hasGroup(groups, r.Group) {
			continue
		}
		raw, err := r.Accessor(in)
		if err == nil && (math.IsNaN(raw) || math.IsInf(raw, 0)) {
			err = fmt.Errorf("%w: non-finite %s", models.ErrFactorUnavailable, r.Name)
		}
		if err != nil {
			ev.Skipped = append(ev.Skipped, models.SkippedFactor{Name: r.Name, Reason: err.Error()})
			continue
		}
		ev.Scores = append(ev.Scores, models.FactorScore{
			Name:   r.Name,
			Group:  r.Group,
			Raw:    raw,
			Score:  r.Bands.Normalize(raw),
			Weight: r.Weight,
		})
		total += r.Weight
	}
	if total > 0 {
		for i := range ev.Scores {
			ev.Scores[i].Weight /= total
		}
	}
	return ev
}

func hasGroup(groups []models.FactorGroup, g models.FactorGroup) bool {
	for _, x := range groups {
		if x == g {
			return true
		}
	}
	return false
}

var errNoSnapshot = errors.New("no snapshot")

func optional(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s", models.ErrFactorUnavailable, name)
	}
	return *v, nil
}

func fundamental(name string, pick func(models.Fundamentals) *float64) Accessor {
	return func(in Inputs) (float64, error) {
		if in.Snapshot == nil {
			return 0, fmt.Errorf("%w: %s: %v", models.ErrFactorUnavailable, name, errNoSnapshot)
		}
		return optional(name, pick(in.Snapshot.Fundamentals))
	}
}

func macro(name string, pick func(models.Macro) *float64) Accessor {
	return func(in Inputs) (float64, error) {
		if in.Snapshot == nil {
			return 0, fmt.Errorf("%w: %s: %v", models.ErrFactorUnavailable, name, errNoSnapshot)
		}
		return optional(name, pick(in.Snapshot.Macro))
	}
}

func firstOf(vs ...*float64) *float64 {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

func rsiValue(in Inputs) (float64, error) { return in.Technical.RSI.Get() }

func trendValue(in Inputs) (float64, error) {
	m, err := in.Technical.MACD.Get()
	if err != nil {
		return 0, err
	}
	return float64(m.Trend), nil
}

func bandPosition(in Inputs) (float64, error) {
	ch, err := in.Technical.Channel.Get()
	if err != nil {
		return 0, err
	}
	return ch.Percentile, nil
}

func volatilityValue(in Inputs) (float64, error) { return in.Technical.Volatility.Get() }

func peValue(in Inputs) (float64, error) {
	pe, err := fundamental("pe", func(f models.Fundamentals) *float64 { return f.PE })(in)
	if err != nil {
		return 0, err
	}
	if pe <= 0 {
		return 0, fmt.Errorf("%w: pe %.2f not meaningful", models.ErrFactorUnavailable, pe)
	}
	return pe, nil
}
