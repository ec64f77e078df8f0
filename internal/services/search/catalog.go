// Package search resolves free-text queries and misspelled tickers to known
// symbols.
package search

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"EquityLens/internal/domain/models"
)

const (
	MatchExactSymbol = "exact_symbol"
	MatchExactName   = "exact_name"
	MatchPartialName = "partial_name"
	MatchSearchTerm  = "search_term"
	MatchFuzzy       = "fuzzy"

	// minQueryLen guards against one-letter queries matching everything.
	minQueryLen = 2
)

// Entry is one listed security. Terms are extra lower-case aliases.
type Entry struct {
	Symbol   string   `yaml:"symbol"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Terms    []string `yaml:"terms"`
}

// Catalog is an immutable symbol directory.
type Catalog struct {
	entries []Entry
}

// commonMistakes maps a name fragment to misspellings users type for it.
var commonMistakes = map[string][]string{
	"fiserv":    {"fiserw", "fiserb", "fiserve"},
	"alphabet":  {"google", "goog", "googel", "gogle"},
	"microsoft": {"micro soft"},
	"comcast":   {"cmcst"},
	"meta":      {"facebook", "fb"},
}

func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		e.Symbol = strings.ToUpper(strings.TrimSpace(e.Symbol))
		if e.Symbol == "" {
			continue
		}
		e.Terms = searchTerms(e)
		c.entries = append(c.entries, e)
	}
	return c
}

// LoadCatalog reads a YAML file holding a top-level `stocks` list.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc struct {
		Stocks []Entry `yaml:"stocks"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Stocks) == 0 {
		return nil, fmt.Errorf("catalog %s lists no stocks", path)
	}
	return NewCatalog(doc.Stocks), nil
}

func (c *Catalog) Len() int { return len(c.entries) }

// Find ranks catalog entries against query, best first. An exact ticker
// match short-circuits to that single entry.
func (c *Catalog) Find(query string, limit int) []models.SymbolMatch {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < minQueryLen {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	best := make(map[int]models.SymbolMatch)
	consider := func(i int, kind string, score float64) {
		if cur, ok := best[i]; ok && cur.Score >= score {
			return
		}
		e := c.entries[i]
		best[i] = models.SymbolMatch{Symbol: e.Symbol, Name: e.Name, Category: e.Category, MatchType: kind, Score: score}
	}

	for i, e := range c.entries {
		if q == strings.ToLower(e.Symbol) {
			consider(i, MatchExactSymbol, 1)
			return []models.SymbolMatch{best[i]}
		}
	}

	for i, e := range c.entries {
		name := strings.ToLower(e.Name)
		switch {
		case name == "":
		case q == name:
			consider(i, MatchExactName, 0.95)
		case strings.Contains(name, q):
			if sim := similarity(q, name); sim > 0.3 {
				consider(i, MatchPartialName, sim*0.8)
			}
		}
		for _, term := range e.Terms {
			if strings.Contains(term, q) || strings.Contains(q, term) {
				if sim := similarity(q, term); sim > 0.5 {
					consider(i, MatchSearchTerm, sim*0.7)
				}
			}
		}
	}

	if len(best) < limit {
		for i, e := range c.entries {
			for _, cand := range e.Terms {
				if sim := similarity(q, cand); sim >= 0.6 {
					consider(i, MatchFuzzy, sim*0.6)
				}
			}
		}
	}

	out := make([]models.SymbolMatch, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Symbol < out[j].Symbol
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AutoCorrect returns the single best match for input.
func (c *Catalog) AutoCorrect(input string) (models.SymbolMatch, bool) {
	found := c.Find(input, 1)
	if len(found) == 0 {
		return models.SymbolMatch{}, false
	}
	return found[0], true
}

// similarity is 1 minus the edit distance over the longer length.
func similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func searchTerms(e Entry) []string {
	sym := strings.ToLower(e.Symbol)
	name := strings.ToLower(strings.TrimSpace(e.Name))
	terms := []string{sym, strings.NewReplacer("0", "o", "1", "i").Replace(sym)}
	if name != "" {
		terms = append(terms, name)
		if first := strings.Fields(name)[0]; len(first) >= minQueryLen {
			terms = append(terms, strings.Trim(first, ".,"))
		}
	}
	for fragment, mistakes := range commonMistakes {
		if strings.Contains(name, fragment) {
			terms = append(terms, mistakes...)
		}
	}
	for _, t := range e.Terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}

	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
