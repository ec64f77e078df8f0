package models

import (
	"fmt"
	"strings"
	"time"
)

// FreshnessWindow is how long a computed analysis stays servable.
const FreshnessWindow = 6 * time.Hour

// Mode selects how much of the rule set an analysis runs.
type Mode int

const (
	ModeFull Mode = iota
	ModeQuick
)

func (m Mode) String() string {
	if m == ModeQuick {
		return "quick"
	}
	return "full"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return ModeFull, nil
	case "quick":
		return ModeQuick, nil
	default:
		return ModeFull, fmt.Errorf("unknown analysis mode %q", s)
	}
}

// Lookback is the history window requested from the provider.
func (m Mode) Lookback() time.Duration {
	if m == ModeQuick {
		return 120 * 24 * time.Hour
	}
	return 400 * 24 * time.Hour
}

// Groups are the factor groups a mode evaluates.
func (m Mode) Groups() []FactorGroup {
	if m == ModeQuick {
		return []FactorGroup{GroupFundamental, GroupTechnical}
	}
	return []FactorGroup{GroupFundamental, GroupTechnical, GroupMacro}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Signal is the aggregate recommendation.
type Signal int

const (
	SignalHold Signal = iota
	SignalStrongBuy
	SignalBuy
	SignalSell
	SignalStrongSell
)

func (s Signal) String() string {
	switch s {
	case SignalStrongBuy:
		return "Strong Buy"
	case SignalBuy:
		return "Buy"
	case SignalSell:
		return "Sell"
	case SignalStrongSell:
		return "Strong Sell"
	default:
		return "Hold"
	}
}

func ParseSignal(s string) (Signal, error) {
	for _, sig := range []Signal{SignalStrongBuy, SignalBuy, SignalHold, SignalSell, SignalStrongSell} {
		if strings.EqualFold(sig.String(), strings.TrimSpace(s)) {
			return sig, nil
		}
	}
	return SignalHold, fmt.Errorf("unknown signal %q", s)
}

func (s Signal) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Signal) UnmarshalText(b []byte) error {
	v, err := ParseSignal(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type FactorGroup string

const (
	GroupFundamental FactorGroup = "fundamental"
	GroupTechnical   FactorGroup = "technical"
	GroupMacro       FactorGroup = "macro"
)

// FactorScore is one evaluated rule. Score is in [-1, 1]; Weight is renormalized
// over the rules that could be evaluated.
type FactorScore struct {
	Name   string      `json:"name"`
	Group  FactorGroup `json:"group"`
	Raw    float64     `json:"raw"`
	Score  float64     `json:"score"`
	Weight float64     `json:"weight"`
}

// SkippedFactor is a rule that had no computable input.
type SkippedFactor struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AnalysisResult is immutable once built; callers must not modify shared instances.
type AnalysisResult struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name,omitempty"`
	Mode       Mode            `json:"mode"`
	Industry   Industry        `json:"industry"`
	Factors    []FactorScore   `json:"factors"`
	Skipped    []SkippedFactor `json:"skipped,omitempty"`
	Score      float64         `json:"score"`
	Signal     Signal          `json:"signal"`
	Confidence float64         `json:"confidence"`
	Risks      []string        `json:"risks,omitempty"`
	DataAsOf   time.Time       `json:"data_as_of"`
	ComputedAt time.Time       `json:"computed_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// Fresh reports whether the result may still be served at now.
func (r *AnalysisResult) Fresh(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// CacheKey addresses one cached analysis.
type CacheKey struct {
	Symbol string
	Mode   Mode
}

func (k CacheKey) String() string {
	return "analysis:" + k.Symbol + ":" + k.Mode.String()
}
