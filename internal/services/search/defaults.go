package search

// DefaultCatalog covers the large caps the classifier knows plus a few
// frequently requested names outside its table.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Entry{
		{Symbol: "AAPL", Name: "Apple Inc.", Category: "technology"},
		{Symbol: "MSFT", Name: "Microsoft Corporation", Category: "technology"},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", Category: "technology"},
		{Symbol: "AMZN", Name: "Amazon.com Inc.", Category: "technology"},
		{Symbol: "META", Name: "Meta Platforms Inc.", Category: "technology"},
		{Symbol: "NVDA", Name: "NVIDIA Corporation", Category: "technology"},
		{Symbol: "TSLA", Name: "Tesla Inc.", Category: "technology"},
		{Symbol: "ORCL", Name: "Oracle Corporation", Category: "technology"},
		{Symbol: "CRM", Name: "Salesforce Inc.", Category: "technology"},
		{Symbol: "ADBE", Name: "Adobe Inc.", Category: "technology"},
		{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Category: "financial"},
		{Symbol: "BAC", Name: "Bank of America Corporation", Category: "financial"},
		{Symbol: "WFC", Name: "Wells Fargo & Company", Category: "financial"},
		{Symbol: "C", Name: "Citigroup Inc.", Category: "financial"},
		{Symbol: "GS", Name: "Goldman Sachs Group Inc.", Category: "financial"},
		{Symbol: "MS", Name: "Morgan Stanley", Category: "financial"},
		{Symbol: "SCHW", Name: "Charles Schwab Corporation", Category: "financial"},
		{Symbol: "BLK", Name: "BlackRock Inc.", Category: "financial"},
		{Symbol: "AXP", Name: "American Express Company", Category: "financial"},
		{Symbol: "FISV", Name: "Fiserv Inc.", Category: "financial"},
		{Symbol: "XOM", Name: "Exxon Mobil Corporation", Category: "energy", Terms: []string{"exxon"}},
		{Symbol: "CVX", Name: "Chevron Corporation", Category: "energy"},
		{Symbol: "COP", Name: "ConocoPhillips", Category: "energy"},
		{Symbol: "SLB", Name: "Schlumberger Limited", Category: "energy"},
		{Symbol: "JNJ", Name: "Johnson & Johnson", Category: "healthcare"},
		{Symbol: "PFE", Name: "Pfizer Inc.", Category: "healthcare"},
		{Symbol: "UNH", Name: "UnitedHealth Group Inc.", Category: "healthcare"},
		{Symbol: "MRK", Name: "Merck & Co. Inc.", Category: "healthcare"},
		{Symbol: "ABBV", Name: "AbbVie Inc.", Category: "healthcare"},
		{Symbol: "CAT", Name: "Caterpillar Inc.", Category: "industrial"},
		{Symbol: "GE", Name: "GE Aerospace", Category: "industrial", Terms: []string{"general electric"}},
		{Symbol: "HON", Name: "Honeywell International Inc.", Category: "industrial"},
		{Symbol: "BA", Name: "Boeing Company", Category: "industrial"},
		{Symbol: "UPS", Name: "United Parcel Service Inc.", Category: "industrial"},
		{Symbol: "DE", Name: "Deere & Company", Category: "industrial", Terms: []string{"john deere"}},
		{Symbol: "CMCSA", Name: "Comcast Corporation", Category: "communication"},
		{Symbol: "WMT", Name: "Walmart Inc.", Category: "consumer"},
		{Symbol: "KO", Name: "Coca-Cola Company", Category: "consumer", Terms: []string{"coke"}},
	})
}
