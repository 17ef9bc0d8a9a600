package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"cryptotools/config"
	"cryptotools/logger"
)

func newTestGecko(t *testing.T, handler http.Handler) (*CoinGecko, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewCoinGecko(config.CoinGeckoConfig{
		BaseURL:       server.URL,
		RatePerMinute: 6000,
		Burst:         100,
	}, time.Second, "JestagCryptoTools/1.0", logger.Logger())
	return client, server
}

func TestTopMarketsNormalization(t *testing.T) {
	var gotUA string
	client, _ := newTestGecko(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path != "/coins/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("per_page"); got != "30" {
			t.Errorf("per_page = %s, want 30", got)
		}
		w.Write([]byte(`[
			{"id":"bitcoin","name":"Bitcoin","symbol":"btc","image":"https://img/btc.png",
			 "current_price":50000.5,"price_change_percentage_24h":2.5,
			 "price_change_percentage_7d_in_currency":-1.25,
			 "total_volume":12345,"market_cap":900000,"market_cap_rank":1},
			{"id":"mystery","name":"Mystery","symbol":"myst"}
		]`))
	}))

	quotes, err := client.TopMarkets(context.Background(), 30)
	if err != nil {
		t.Fatalf("TopMarkets failed: %v", err)
	}
	if gotUA != "JestagCryptoTools/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}

	btc := quotes[0]
	if btc.Symbol != "BTC" {
		t.Errorf("symbol not upper-cased: %s", btc.Symbol)
	}
	if btc.PriceUSD != 50000.5 || btc.Change24h == nil || *btc.Change24h != 2.5 {
		t.Errorf("unexpected btc quote: %+v", btc)
	}
	if btc.Rank == nil || *btc.Rank != 1 {
		t.Errorf("rank not carried: %+v", btc.Rank)
	}

	// Omitted numeric fields default to zero / nil, never an error.
	mystery := quotes[1]
	if mystery.PriceUSD != 0 || mystery.Change24h != nil || mystery.Rank != nil {
		t.Errorf("omitted fields mishandled: %+v", mystery)
	}
}

func TestBitcoinQuoteDetail(t *testing.T) {
	client, _ := newTestGecko(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"name":"Bitcoin","symbol":"btc",
			"image":{"small":"https://img/btc-small.png"},
			"market_data":{
				"current_price":{"usd":50000,"eur":46000,"jpy":7000000},
				"price_change_percentage_24h":3.1,
				"total_volume":{"usd":1000},
				"market_cap":{"usd":2000},
				"sparkline_7d":{"price":[1,2,3]}
			}
		}`))
	}))

	quote, err := client.BitcoinQuote(context.Background())
	if err != nil {
		t.Fatalf("BitcoinQuote failed: %v", err)
	}
	if quote.Symbol != "BTC" || quote.Image != "https://img/btc-small.png" {
		t.Errorf("unexpected quote: %+v", quote)
	}
	if quote.PriceUSD == nil || *quote.PriceUSD != 50000 {
		t.Errorf("usd price missing: %+v", quote.PriceUSD)
	}
	if quote.Prices["jpy"] == nil || *quote.Prices["jpy"] != 7000000 {
		t.Errorf("jpy price missing from table")
	}
	if len(quote.Sparkline) != 3 {
		t.Errorf("sparkline lost: %v", quote.Sparkline)
	}
}

func TestBitcoinQuoteSparklineTruncation(t *testing.T) {
	client, _ := newTestGecko(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Bitcoin","symbol":"btc","image":{},
			"market_data":{"current_price":{"usd":1},"sparkline_7d":{"price":[` + longSeries(100) + `]}}}`))
	}))

	quote, err := client.BitcoinQuote(context.Background())
	if err != nil {
		t.Fatalf("BitcoinQuote failed: %v", err)
	}
	if len(quote.Sparkline) != 60 {
		t.Fatalf("sparkline length = %d, want 60", len(quote.Sparkline))
	}
	// The most recent samples are kept.
	if quote.Sparkline[59] != 99 {
		t.Fatalf("sparkline not truncated from the front: last=%v", quote.Sparkline[59])
	}
}

func longSeries(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strconv.Itoa(i)
	}
	return strings.Join(parts, ",")
}

func TestBitcoinQuoteFallsBackToSimplePrice(t *testing.T) {
	client, _ := newTestGecko(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coins/bitcoin":
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		case "/simple/price":
			w.Write([]byte(`{"bitcoin":{"usd":48000,"eur":44000,"usd_24h_change":-2.2}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	quote, err := client.BitcoinQuote(context.Background())
	if err != nil {
		t.Fatalf("BitcoinQuote failed: %v", err)
	}
	if quote.Name != "Bitcoin" || quote.Image != "" {
		t.Errorf("reduced schema mishandled: %+v", quote)
	}
	if quote.PriceUSD == nil || *quote.PriceUSD != 48000 {
		t.Errorf("usd price missing: %+v", quote.PriceUSD)
	}
	if len(quote.Sparkline) != 0 {
		t.Errorf("fallback must not carry a sparkline")
	}
}

func TestErrorStatusIsError(t *testing.T) {
	client, _ := newTestGecko(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))

	if _, err := client.TopMarkets(context.Background(), 30); err == nil {
		t.Fatal("expected error for 500 response")
	}
	if _, err := client.SearchIDs(context.Background(), "bitcoin", 6); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestSearchIDsLimit(t *testing.T) {
	client, _ := newTestGecko(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "bit" {
			t.Errorf("query = %s", got)
		}
		w.Write([]byte(`{"coins":[{"id":"bitcoin"},{"id":""},{"id":"bitcoin-cash"},{"id":"bitgert"}]}`))
	}))

	ids, err := client.SearchIDs(context.Background(), "bit", 2)
	if err != nil {
		t.Fatalf("SearchIDs failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "bitcoin" || ids[1] != "bitcoin-cash" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestMarketsByIDsJoinsIdentifiers(t *testing.T) {
	client, _ := newTestGecko(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "bitcoin,nano" {
			t.Errorf("ids = %s", got)
		}
		w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","current_price":1}]`))
	}))

	quotes, err := client.MarketsByIDs(context.Background(), []string{"bitcoin", "nano"})
	if err != nil {
		t.Fatalf("MarketsByIDs failed: %v", err)
	}
	// Upstream omitting an id is a legitimate partial result.
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
}
