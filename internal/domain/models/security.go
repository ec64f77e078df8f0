package models

import (
	"fmt"
	"strings"
	"time"
)

// Industry is the closed set of industry profiles a security can resolve to.
type Industry int

const (
	IndustryGeneric Industry = iota
	IndustrySoftware
	IndustryFinancial
	IndustryEnergy
	IndustryHealthcare
	IndustryIndustrial
)

// Industries lists every profile, fallback last.
var Industries = []Industry{
	IndustrySoftware,
	IndustryFinancial,
	IndustryEnergy,
	IndustryHealthcare,
	IndustryIndustrial,
	IndustryGeneric,
}

func (i Industry) String() string {
	switch i {
	case IndustrySoftware:
		return "software"
	case IndustryFinancial:
		return "financial"
	case IndustryEnergy:
		return "energy"
	case IndustryHealthcare:
		return "healthcare"
	case IndustryIndustrial:
		return "industrial"
	default:
		return "generic"
	}
}

// ParseIndustry is the inverse of String.
func ParseIndustry(s string) (Industry, error) {
	for _, ind := range Industries {
		if ind.String() == strings.ToLower(strings.TrimSpace(s)) {
			return ind, nil
		}
	}
	return IndustryGeneric, fmt.Errorf("unknown industry %q", s)
}

func (i Industry) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Industry) UnmarshalText(b []byte) error {
	v, err := ParseIndustry(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

const maxSymbolLen = 10

// NormalizeSymbol trims and upper-cases a ticker and checks its shape:
// 1-10 characters of A-Z, 0-9, '.' or '-'.
func NormalizeSymbol(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || len(s) > maxSymbolLen {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, raw)
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, raw)
		}
	}
	return s, nil
}

// Security is the subject of an analysis. Industry is nil until classified.
type Security struct {
	Symbol     string
	Industry   *Industry
	LastDataAt time.Time
}

func NewSecurity(symbol string) (*Security, error) {
	s, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return &Security{Symbol: s}, nil
}

// Resolve records the classified industry and the snapshot time backing it.
func (s *Security) Resolve(ind Industry, dataAt time.Time) {
	s.Industry = &ind
	s.LastDataAt = dataAt
}
