package models

// CoinQuote is the normalized market quote shared by every coin list on the
// site, whatever upstream it came from. ID is the stable de-duplication key;
// Symbol is upper-cased on ingestion. Optional numeric fields are pointers so
// "upstream did not say" stays distinguishable from zero.
type CoinQuote struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	Image     string   `json:"image,omitempty"`
	PriceUSD  float64  `json:"price_usd"`
	Change24h *float64 `json:"change_24h"`
	Change7d  *float64 `json:"change_7d"`
	Volume24h float64  `json:"volume_24h"`
	MarketCap float64  `json:"market_cap"`
	Rank      *int     `json:"rank"`
	Website   string   `json:"website,omitempty"`
}

// SparklineLimit bounds the trailing BTC price series kept for charting.
const SparklineLimit = 60

// BtcQuote is the richer bitcoin snapshot shown on the home page: a
// multi-currency price table plus a bounded trailing price series. It lives
// in memory only; a restart loses it until the next successful fetch.
type BtcQuote struct {
	Name      string              `json:"name"`
	Symbol    string              `json:"symbol"`
	Image     string              `json:"image,omitempty"`
	PriceUSD  *float64            `json:"price_usd"`
	PriceEUR  *float64            `json:"price_eur"`
	Prices    map[string]*float64 `json:"prices"`
	Change24h *float64            `json:"change_24h"`
	Volume24h *float64            `json:"volume_24h"`
	MarketCap *float64            `json:"market_cap"`
	Sparkline []float64           `json:"sparkline"`
	Updated   string              `json:"updated"`
}

// QuoteCurrencies is the fixed set of currency codes in BtcQuote.Prices.
var QuoteCurrencies = []string{"usd", "eur", "gbp", "aud", "cad", "jpy", "cny", "inr", "krw"}

// AsCoinQuote flattens the bitcoin snapshot into the common list shape so it
// can stand in for a coin list when everything else is unavailable.
func (b *BtcQuote) AsCoinQuote() CoinQuote {
	quote := CoinQuote{
		ID:        "bitcoin",
		Name:      b.Name,
		Symbol:    b.Symbol,
		Image:     b.Image,
		Change24h: b.Change24h,
	}
	if b.PriceUSD != nil {
		quote.PriceUSD = *b.PriceUSD
	}
	if b.Volume24h != nil {
		quote.Volume24h = *b.Volume24h
	}
	if b.MarketCap != nil {
		quote.MarketCap = *b.MarketCap
	}
	return quote
}

// DirectoryCoin is one row of the full coin directory used as the last
// resort for free-text search.
type DirectoryCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// CoinDirectory is the persisted directory snapshot; Updated gates its
// refresh (at most once per day).
type CoinDirectory struct {
	Updated int64           `json:"updated"`
	Coins   []DirectoryCoin `json:"coins"`
}
