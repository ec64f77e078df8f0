package usecase

import (
	"EquityLens/internal/domain/models"
	"EquityLens/internal/services/search"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 25
)

// SymbolSearchUseCase looks tickers up by symbol, company name or typo.
type SymbolSearchUseCase struct {
	catalog *search.Catalog
}

// NewSymbolSearchUseCase falls back to the built-in catalog when c is nil.
func NewSymbolSearchUseCase(c *search.Catalog) *SymbolSearchUseCase {
	if c == nil {
		c = search.DefaultCatalog()
	}
	return &SymbolSearchUseCase{catalog: c}
}

type SearchSymbolsResult struct {
	Query   string               `json:"query"`
	Count   int                  `json:"count"`
	Matches []models.SymbolMatch `json:"matches"`
}

func (uc *SymbolSearchUseCase) Search(query string, limit int) *SearchSymbolsResult {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)
	matches := uc.catalog.Find(query, limit)
	if matches == nil {
		matches = []models.SymbolMatch{}
	}
	return &SearchSymbolsResult{Query: query, Count: len(matches), Matches: matches}
}

// Resolve maps free text to one ticker. Input that already names a catalog
// symbol comes back unchanged; anything unmatched yields ErrUnknownSymbol.
func (uc *SymbolSearchUseCase) Resolve(input string) (models.SymbolMatch, error) {
	m, ok := uc.catalog.AutoCorrect(input)
	if !ok {
		return models.SymbolMatch{}, models.NewDataUnavailable(input, "no matching symbol", models.ErrUnknownSymbol)
	}
	return m, nil
}
