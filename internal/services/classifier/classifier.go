// Package classifier resolves a ticker to one of the fixed industry profiles.
package classifier

import (
	"slices"
	"strings"
	"unicode"

	"EquityLens/internal/domain/models"
)

// Source records how a classification was reached.
type Source string

const (
	SourceTable    Source = "table"
	SourceHint     Source = "hint"
	SourceFallback Source = "fallback"
)

// Classification is the result of Classify. Ambiguity is set when a hint was
// given but did not single out one profile; it is informational only.
type Classification struct {
	Industry  models.Industry
	Source    Source
	Ambiguity *models.ClassificationAmbiguousError
}

var symbolTable = map[string]models.Industry{}

func init() {
	for ind, symbols := range map[models.Industry][]string{
		models.IndustrySoftware:   {"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSLA", "ORCL", "CRM", "ADBE"},
		models.IndustryFinancial:  {"JPM", "BAC", "WFC", "C", "GS", "MS", "SCHW", "BLK", "AXP", "FISV"},
		models.IndustryEnergy:     {"XOM", "CVX", "COP", "SLB"},
		models.IndustryHealthcare: {"JNJ", "PFE", "UNH", "MRK", "ABBV"},
		models.IndustryIndustrial: {"CAT", "GE", "HON", "BA", "UPS", "DE"},
	} {
		for _, s := range symbols {
			symbolTable[s] = ind
		}
	}
}

// phrases are checked before single words so that "health technology" is not
// read as technology.
var phrases = []struct {
	industry models.Industry
	phrase   string
}{
	{models.IndustryHealthcare, "health technology"},
	{models.IndustryHealthcare, "health care"},
	{models.IndustryHealthcare, "medical devices"},
	{models.IndustrySoftware, "electronic technology"},
	{models.IndustrySoftware, "technology services"},
	{models.IndustryFinancial, "financial services"},
	{models.IndustryFinancial, "credit services"},
	{models.IndustryEnergy, "oil & gas"},
	{models.IndustryEnergy, "energy minerals"},
	{models.IndustryIndustrial, "aerospace & defense"},
	{models.IndustryIndustrial, "engineering & construction"},
	{models.IndustryIndustrial, "industrial services"},
}

// keywords match the start of a hint word: "bank" matches "Banks" and
// "biotech" matches "Biotechnology", but "technology" does not.
var keywords = []struct {
	industry models.Industry
	words    []string
}{
	{models.IndustrySoftware, []string{"software", "technology", "internet", "semiconductor"}},
	{models.IndustryFinancial, []string{"bank", "financial", "insurance", "credit", "capital", "investment"}},
	{models.IndustryEnergy, []string{"energy", "oil", "gas", "pipeline", "utilities"}},
	{models.IndustryHealthcare, []string{"health", "pharma", "biotech", "medical", "drug"}},
	{models.IndustryIndustrial, []string{"industrial", "machinery", "aerospace", "transportation", "manufactur"}},
}

// Classify never fails: unknown symbols without a decisive hint resolve to
// Generic. Hints are tried in order, sector before industry; the first one
// that points at a single profile wins.
func Classify(symbol string, hints ...string) Classification {
	if ind, ok := symbolTable[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return Classification{Industry: ind, Source: SourceTable}
	}

	var given []string
	var candidates []models.Industry
	for _, hint := range hints {
		words := tokenize(hint)
		if len(words) == 0 {
			continue
		}
		given = append(given, strings.TrimSpace(hint))
		matched := matchHint(words)
		if len(matched) == 1 {
			return Classification{Industry: matched[0], Source: SourceHint}
		}
		candidates = appendUnique(candidates, matched...)
	}
	if len(given) == 0 {
		return Classification{Industry: models.IndustryGeneric, Source: SourceFallback}
	}
	return Classification{
		Industry: models.IndustryGeneric,
		Source:   SourceFallback,
		Ambiguity: &models.ClassificationAmbiguousError{
			Symbol:     symbol,
			Hint:       strings.Join(given, " / "),
			Candidates: candidates,
		},
	}
}

func matchHint(words []string) []models.Industry {
	padded := " " + strings.Join(words, " ") + " "
	var matched []models.Industry
	for _, p := range phrases {
		if strings.Contains(padded, " "+p.phrase+" ") {
			matched = appendUnique(matched, p.industry)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	for _, k := range keywords {
	next:
		for _, w := range k.words {
			for _, word := range words {
				if strings.HasPrefix(word, w) {
					matched = appendUnique(matched, k.industry)
					break next
				}
			}
		}
	}
	return matched
}

// tokenize lower-cases hint and splits it on anything but letters, digits and '&'.
func tokenize(hint string) []string {
	return strings.FieldsFunc(strings.ToLower(hint), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '&'
	})
}

func appendUnique(list []models.Industry, inds ...models.Industry) []models.Industry {
	for _, ind := range inds {
		if !slices.Contains(list, ind) {
			list = append(list, ind)
		}
	}
	return list
}
