package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptotools/config"
	"cryptotools/internal/models"
	"cryptotools/logger"
)

// GeckoTerminal composes a quote for the internal token from a DEX
// liquidity-pool endpoint: price, 24h/7d change, pool volume and
// fully-diluted valuation.
type GeckoTerminal struct {
	httpReader
	baseURL string
	network string
	poolID  string
	tokenID string
	log     *logger.Log
}

func NewGeckoTerminal(cfg config.GeckoTerminalConfig, tokenID string, timeout time.Duration, userAgent string, log *logger.Log) *GeckoTerminal {
	return &GeckoTerminal{
		httpReader: httpReader{
			client:    &http.Client{Timeout: timeout},
			userAgent: userAgent,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		network: cfg.Network,
		poolID:  cfg.PoolID,
		tokenID: tokenID,
		log:     log,
	}
}

// GeckoTerminal reports numbers as JSON strings; absent or unparsable
// values read as zero rather than failing the composite.
type poolResponse struct {
	Data struct {
		Attributes struct {
			BaseTokenPriceUSD string `json:"base_token_price_usd"`
			FdvUSD            string `json:"fdv_usd"`
			PriceChange       struct {
				H24 string `json:"h24"`
				D7  string `json:"d7"`
			} `json:"price_change_percentage"`
			VolumeUSD struct {
				H24 string `json:"h24"`
			} `json:"volume_usd"`
		} `json:"attributes"`
		Relationships struct {
			BaseToken struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"base_token"`
		} `json:"relationships"`
	} `json:"data"`
	Included []struct {
		Type       string `json:"type"`
		ID         string `json:"id"`
		Attributes struct {
			Name     string `json:"name"`
			Symbol   string `json:"symbol"`
			ImageURL string `json:"image_url"`
		} `json:"attributes"`
	} `json:"included"`
}

func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// PoolToken fetches the liquidity pool and assembles the token's quote.
// The returned volume covers the pool only; the resolver adds the
// supplementary exchange volume on top.
func (g *GeckoTerminal) PoolToken(ctx context.Context) (*models.CoinQuote, error) {
	endpoint := fmt.Sprintf("%s/networks/%s/pools/%s", g.baseURL, g.network, g.poolID)
	var payload poolResponse
	err := g.getJSON(ctx, "geckoterminal", endpoint, url.Values{
		"include": {"base_token,quote_token"},
	}, &payload)
	if err != nil {
		return nil, err
	}

	attr := payload.Data.Attributes
	baseID := payload.Data.Relationships.BaseToken.Data.ID

	name := "Smellow"
	symbol := "SMLO"
	image := ""
	for _, inc := range payload.Included {
		if inc.Type == "token" && inc.ID == baseID {
			if inc.Attributes.Name != "" {
				name = inc.Attributes.Name
			}
			if inc.Attributes.Symbol != "" {
				symbol = inc.Attributes.Symbol
			}
			image = inc.Attributes.ImageURL
			break
		}
	}

	change24h := parseAmount(attr.PriceChange.H24)
	change7d := parseAmount(attr.PriceChange.D7)
	return &models.CoinQuote{
		ID:        g.tokenID,
		Name:      name,
		Symbol:    strings.ToUpper(symbol),
		Image:     image,
		PriceUSD:  parseAmount(attr.BaseTokenPriceUSD),
		Change24h: &change24h,
		Change7d:  &change7d,
		Volume24h: parseAmount(attr.VolumeUSD.H24),
		MarketCap: parseAmount(attr.FdvUSD),
	}, nil
}

// Nestex reads the supplementary 24h trading volume for the internal token
// from the exchange's ticker listing.
type Nestex struct {
	httpReader
	tickersURL string
	log        *logger.Log
}

func NewNestex(cfg config.NestexConfig, timeout time.Duration, userAgent string, log *logger.Log) *Nestex {
	return &Nestex{
		httpReader: httpReader{
			client:    &http.Client{Timeout: timeout},
			userAgent: userAgent,
		},
		tickersURL: cfg.TickersURL,
		log:        log,
	}
}

// flexFloat tolerates upstreams that quote their numbers. Absent or
// unparsable values read as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// TickerVolume returns the target volume reported for tickerID, zero when
// the ticker is not listed.
func (n *Nestex) TickerVolume(ctx context.Context, tickerID string) (float64, error) {
	var tickers []struct {
		TickerID     string    `json:"ticker_id"`
		TargetVolume flexFloat `json:"target_volume"`
	}
	if err := n.getJSON(ctx, "nestex", n.tickersURL, nil, &tickers); err != nil {
		return 0, err
	}
	for _, ticker := range tickers {
		if ticker.TickerID == tickerID {
			return float64(ticker.TargetVolume), nil
		}
	}
	return 0, nil
}
