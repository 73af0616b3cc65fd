package provider

// DefaultSymbolMap translates uppercase ticker symbols to CoinGecko
// identifier slugs. Tickers and slugs live in different namespaces and
// are never conflated by casing alone; tickers without an entry here are
// excluded from CoinGecko requests entirely and surfaced as
// untranslatable.
var DefaultSymbolMap = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"SUI":   "sui",
	"ARB":   "arbitrum",
	"AVAX":  "avalanche-2",
	"ATOM":  "cosmos",
	"FET":   "fetch-ai",
	"MATIC": "polygon",
	"GRT":   "the-graph",
	"NEAR":  "near",
	"PEPE":  "pepe",
	"DOGE":  "dogecoin",
	"UNI":   "uniswap",
	"AR":    "arweave",
	"TRX":   "tron",
	"LTC":   "litecoin",
	"BCH":   "bitcoin-cash",
	"XLM":   "stellar",
	"ALGO":  "algorand",
}

// batches partitions symbols into chunks no larger than limit,
// preserving order.
func batches(symbols []string, limit int) [][]string {
	if limit <= 0 {
		limit = 1
	}
	var out [][]string
	for start := 0; start < len(symbols); start += limit {
		end := start + limit
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[start:end])
	}
	return out
}
