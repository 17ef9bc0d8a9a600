package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cryptotools/config"
	"cryptotools/internal/models"
	"cryptotools/logger"
)

// CoinGecko reads quotes, rankings, search results and the coin directory
// from the CoinGecko v3 API. All requests share one rate limiter so a burst
// of page loads cannot trip the public tier's request budget.
type CoinGecko struct {
	httpReader
	baseURL string
	limiter *rate.Limiter
	log     *logger.Log
}

func NewCoinGecko(cfg config.CoinGeckoConfig, timeout time.Duration, userAgent string, log *logger.Log) *CoinGecko {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	return &CoinGecko{
		httpReader: httpReader{
			client:    &http.Client{Timeout: timeout},
			userAgent: userAgent,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		log:     log,
	}
}

func (c *CoinGecko) get(ctx context.Context, path string, query url.Values, v interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return c.getJSON(ctx, "coingecko", c.baseURL+path, query, v)
}

type geckoDetailResponse struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Image  struct {
		Small string `json:"small"`
	} `json:"image"`
	MarketData struct {
		CurrentPrice             map[string]*float64 `json:"current_price"`
		PriceChangePercentage24h *float64            `json:"price_change_percentage_24h"`
		TotalVolume              map[string]*float64 `json:"total_volume"`
		MarketCap                map[string]*float64 `json:"market_cap"`
		Sparkline7d              struct {
			Price []float64 `json:"price"`
		} `json:"sparkline_7d"`
	} `json:"market_data"`
}

type geckoSimplePrice struct {
	USD          *float64 `json:"usd"`
	EUR          *float64 `json:"eur"`
	GBP          *float64 `json:"gbp"`
	AUD          *float64 `json:"aud"`
	CAD          *float64 `json:"cad"`
	JPY          *float64 `json:"jpy"`
	CNY          *float64 `json:"cny"`
	INR          *float64 `json:"inr"`
	KRW          *float64 `json:"krw"`
	USD24hChange *float64 `json:"usd_24h_change"`
	USD24hVol    *float64 `json:"usd_24h_vol"`
	USDMarketCap *float64 `json:"usd_market_cap"`
}

// BitcoinQuote fetches the rich bitcoin snapshot. The detail endpoint is
// primary; when it fails the reduced simple-price endpoint fills in what it
// can (no image, no sparkline).
func (c *CoinGecko) BitcoinQuote(ctx context.Context) (*models.BtcQuote, error) {
	var detail geckoDetailResponse
	err := c.get(ctx, "/coins/bitcoin", url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
		"sparkline":      {"true"},
		"market_data":    {"true"},
	}, &detail)
	if err == nil {
		return btcFromDetail(&detail), nil
	}
	c.log.WithComponent("coingecko").WithError(err).Warn("bitcoin detail fetch failed, trying simple price")

	var simple map[string]geckoSimplePrice
	err = c.get(ctx, "/simple/price", url.Values{
		"ids":                 {"bitcoin"},
		"vs_currencies":       {"usd,eur,gbp,aud,cad,jpy,cny,inr,krw"},
		"include_24hr_change": {"true"},
		"include_24hr_vol":    {"true"},
		"include_market_cap":  {"true"},
	}, &simple)
	if err != nil {
		return nil, err
	}
	reduced, ok := simple["bitcoin"]
	if !ok {
		return nil, fmt.Errorf("simple price response missing bitcoin")
	}
	return btcFromSimple(&reduced), nil
}

func btcFromDetail(detail *geckoDetailResponse) *models.BtcQuote {
	prices := detail.MarketData.CurrentPrice
	quote := &models.BtcQuote{
		Name:      detail.Name,
		Symbol:    strings.ToUpper(detail.Symbol),
		Image:     detail.Image.Small,
		PriceUSD:  prices["usd"],
		PriceEUR:  prices["eur"],
		Prices:    make(map[string]*float64, len(models.QuoteCurrencies)),
		Change24h: detail.MarketData.PriceChangePercentage24h,
		Volume24h: detail.MarketData.TotalVolume["usd"],
		MarketCap: detail.MarketData.MarketCap["usd"],
		Updated:   time.Now().UTC().Format("2006-01-02 15:04 UTC"),
	}
	if quote.Name == "" {
		quote.Name = "Bitcoin"
	}
	if quote.Symbol == "" {
		quote.Symbol = "BTC"
	}
	for _, code := range models.QuoteCurrencies {
		quote.Prices[code] = prices[code]
	}
	spark := detail.MarketData.Sparkline7d.Price
	if len(spark) > models.SparklineLimit {
		spark = spark[len(spark)-models.SparklineLimit:]
	}
	quote.Sparkline = spark
	return quote
}

func btcFromSimple(simple *geckoSimplePrice) *models.BtcQuote {
	return &models.BtcQuote{
		Name:     "Bitcoin",
		Symbol:   "BTC",
		PriceUSD: simple.USD,
		PriceEUR: simple.EUR,
		Prices: map[string]*float64{
			"usd": simple.USD,
			"eur": simple.EUR,
			"gbp": simple.GBP,
			"aud": simple.AUD,
			"cad": simple.CAD,
			"jpy": simple.JPY,
			"cny": simple.CNY,
			"inr": simple.INR,
			"krw": simple.KRW,
		},
		Change24h: simple.USD24hChange,
		Volume24h: simple.USD24hVol,
		MarketCap: simple.USDMarketCap,
		Sparkline: []float64{},
		Updated:   time.Now().UTC().Format("2006-01-02 15:04 UTC"),
	}
}

type geckoMarketItem struct {
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	Symbol                   string   `json:"symbol"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  *float64 `json:"price_change_percentage_7d_in_currency"`
	TotalVolume              *float64 `json:"total_volume"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
}

func (m *geckoMarketItem) toQuote() models.CoinQuote {
	quote := models.CoinQuote{
		ID:        m.ID,
		Name:      m.Name,
		Symbol:    strings.ToUpper(m.Symbol),
		Image:     m.Image,
		Change24h: m.PriceChangePercentage24h,
		Change7d:  m.PriceChangePercentage7d,
		Rank:      m.MarketCapRank,
	}
	if m.CurrentPrice != nil {
		quote.PriceUSD = *m.CurrentPrice
	}
	if m.TotalVolume != nil {
		quote.Volume24h = *m.TotalVolume
	}
	if m.MarketCap != nil {
		quote.MarketCap = *m.MarketCap
	}
	return quote
}

func marketQuery() url.Values {
	return url.Values{
		"vs_currency":             {"usd"},
		"order":                   {"market_cap_desc"},
		"page":                    {"1"},
		"sparkline":               {"false"},
		"price_change_percentage": {"24h,7d"},
	}
}

// TopMarkets fetches one page of coins ranked by market capitalization
// descending.
func (c *CoinGecko) TopMarkets(ctx context.Context, pageSize int) ([]models.CoinQuote, error) {
	query := marketQuery()
	query.Set("per_page", strconv.Itoa(pageSize))

	var items []geckoMarketItem
	if err := c.get(ctx, "/coins/markets", query, &items); err != nil {
		return nil, err
	}
	quotes := make([]models.CoinQuote, 0, len(items))
	for i := range items {
		quotes = append(quotes, items[i].toQuote())
	}
	return quotes, nil
}

// MarketsByIDs fetches quotes for an explicit identifier list in one batch.
// Upstream may omit identifiers it does not know; callers handle the gaps.
func (c *CoinGecko) MarketsByIDs(ctx context.Context, ids []string) ([]models.CoinQuote, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := marketQuery()
	query.Set("ids", strings.Join(ids, ","))
	query.Set("per_page", strconv.Itoa(len(ids)))

	var items []geckoMarketItem
	if err := c.get(ctx, "/coins/markets", query, &items); err != nil {
		return nil, err
	}
	quotes := make([]models.CoinQuote, 0, len(items))
	for i := range items {
		quotes = append(quotes, items[i].toQuote())
	}
	return quotes, nil
}

// SearchIDs resolves a free-text query to coin identifiers via the fuzzy
// search endpoint, truncated to limit.
func (c *CoinGecko) SearchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	var payload struct {
		Coins []struct {
			ID string `json:"id"`
		} `json:"coins"`
	}
	if err := c.get(ctx, "/search", url.Values{"query": {query}}, &payload); err != nil {
		return nil, err
	}
	ids := make([]string, 0, limit)
	for _, coin := range payload.Coins {
		if coin.ID == "" {
			continue
		}
		ids = append(ids, coin.ID)
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// CoinDirectory fetches the full identifier directory. Large and slow;
// callers cache it on disk for a day.
func (c *CoinGecko) CoinDirectory(ctx context.Context) ([]models.DirectoryCoin, error) {
	var coins []models.DirectoryCoin
	if err := c.get(ctx, "/coins/list", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}
