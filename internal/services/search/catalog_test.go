package search

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFind(t *testing.T) {
	c := DefaultCatalog()
	tests := []struct {
		name   string
		query  string
		symbol string
		kind   string
	}{
		{"exact ticker", "aapl", "AAPL", MatchExactSymbol},
		{"padded ticker", "  MSFT ", "MSFT", MatchExactSymbol},
		{"exact name", "morgan stanley", "MS", MatchExactName},
		{"known misspelling", "fiserw", "FISV", MatchSearchTerm},
		{"brand alias", "coke", "KO", MatchSearchTerm},
		{"first word of name", "bank", "BAC", MatchSearchTerm},
		{"typo", "microsft", "MSFT", MatchFuzzy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Find(tt.query, 5)
			if len(got) == 0 {
				t.Fatalf("Find(%q) returned nothing", tt.query)
			}
			if got[0].Symbol != tt.symbol || got[0].MatchType != tt.kind {
				t.Fatalf("Find(%q)[0] = %s/%s, want %s/%s", tt.query, got[0].Symbol, got[0].MatchType, tt.symbol, tt.kind)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Score > got[i-1].Score {
					t.Fatalf("results not sorted by score: %+v", got)
				}
			}
		})
	}
}

func TestFindExactTickerIsSingleResult(t *testing.T) {
	got := DefaultCatalog().Find("JPM", 5)
	if len(got) != 1 || got[0].Score != 1 || got[0].Name != "JPMorgan Chase & Co." {
		t.Fatalf("Find(JPM) = %+v", got)
	}
}

func TestFindRejectsNoise(t *testing.T) {
	c := DefaultCatalog()
	if got := c.Find("x", 5); got != nil {
		t.Fatalf("single letter query matched %+v", got)
	}
	if got := c.Find("qwzxv", 5); len(got) != 0 {
		t.Fatalf("noise matched %+v", got)
	}
}

func TestAutoCorrect(t *testing.T) {
	c := DefaultCatalog()
	m, ok := c.AutoCorrect("APPL")
	if !ok || m.Symbol != "AAPL" {
		t.Fatalf("AutoCorrect(APPL) = %+v, %v", m, ok)
	}
	if _, ok := c.AutoCorrect("qwzxv"); ok {
		t.Fatalf("AutoCorrect matched noise")
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stocks.yaml")
	body := `stocks:
  - symbol: acme
    name: Acme Corporation
    category: industrial
    terms: [roadrunner]
  - symbol: INIT
    name: Initech
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}
	if got := c.Find("ACME", 5); len(got) != 1 || got[0].Symbol != "ACME" {
		t.Fatalf("Find(ACME) = %+v", got)
	}
	if got := c.Find("roadrunner", 5); len(got) == 0 || got[0].Symbol != "ACME" {
		t.Fatalf("Find(roadrunner) = %+v", got)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("stocks: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCatalog(empty); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
}
