package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cryptotools/config"
	"cryptotools/logger"
)

func TestPoolTokenComposesQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/networks/solana/pools/pool-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("include"); got != "base_token,quote_token" {
			t.Errorf("include = %s", got)
		}
		w.Write([]byte(`{
			"data":{
				"attributes":{
					"base_token_price_usd":"0.0042",
					"fdv_usd":"420000",
					"price_change_percentage":{"h24":"5.5","d7":"-3.25"},
					"volume_usd":{"h24":"1234.56"}
				},
				"relationships":{"base_token":{"data":{"id":"solana_tok1"}}}
			},
			"included":[
				{"type":"token","id":"solana_other","attributes":{"name":"Other","symbol":"oth"}},
				{"type":"token","id":"solana_tok1","attributes":{"name":"Smellow","symbol":"smlo","image_url":"https://img/smlo.png"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewGeckoTerminal(config.GeckoTerminalConfig{
		BaseURL: server.URL,
		Network: "solana",
		PoolID:  "pool-1",
	}, "smlo", time.Second, "JestagCryptoTools/1.0", logger.Logger())

	quote, err := client.PoolToken(context.Background())
	if err != nil {
		t.Fatalf("PoolToken failed: %v", err)
	}
	if quote.ID != "smlo" || quote.Name != "Smellow" || quote.Symbol != "SMLO" {
		t.Errorf("identity wrong: %+v", quote)
	}
	if quote.Image != "https://img/smlo.png" {
		t.Errorf("image = %q", quote.Image)
	}
	if quote.PriceUSD != 0.0042 || quote.Volume24h != 1234.56 || quote.MarketCap != 420000 {
		t.Errorf("string-typed numbers not parsed: %+v", quote)
	}
	if quote.Change24h == nil || *quote.Change24h != 5.5 || quote.Change7d == nil || *quote.Change7d != -3.25 {
		t.Errorf("change percentages wrong: %+v", quote)
	}
}

func TestPoolTokenDefaultsAndBlanks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"attributes":{"base_token_price_usd":"not-a-number"}}}`))
	}))
	defer server.Close()

	client := NewGeckoTerminal(config.GeckoTerminalConfig{
		BaseURL: server.URL,
		Network: "solana",
		PoolID:  "pool-1",
	}, "smlo", time.Second, "JestagCryptoTools/1.0", logger.Logger())

	quote, err := client.PoolToken(context.Background())
	if err != nil {
		t.Fatalf("PoolToken failed: %v", err)
	}
	if quote.Name != "Smellow" || quote.Symbol != "SMLO" {
		t.Errorf("defaults not applied: %+v", quote)
	}
	if quote.PriceUSD != 0 || quote.Volume24h != 0 {
		t.Errorf("unparsable amounts should read zero: %+v", quote)
	}
}

func TestTickerVolume(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// One quoted volume, one bare, one junk.
		w.Write([]byte(`[
			{"ticker_id":"BTC_USDT","target_volume":123.4},
			{"ticker_id":"SMLO_USDT","target_volume":"987.5"},
			{"ticker_id":"ETH_USDT","target_volume":"n/a"}
		]`))
	}))
	defer server.Close()

	client := NewNestex(config.NestexConfig{TickersURL: server.URL}, time.Second, "JestagCryptoTools/1.0", logger.Logger())

	volume, err := client.TickerVolume(context.Background(), "SMLO_USDT")
	if err != nil {
		t.Fatalf("TickerVolume failed: %v", err)
	}
	if volume != 987.5 {
		t.Errorf("volume = %v, want 987.5", volume)
	}

	volume, err = client.TickerVolume(context.Background(), "ETH_USDT")
	if err != nil {
		t.Fatalf("TickerVolume failed: %v", err)
	}
	if volume != 0 {
		t.Errorf("junk volume should read zero, got %v", volume)
	}

	volume, err = client.TickerVolume(context.Background(), "MISSING_USDT")
	if err != nil {
		t.Fatalf("TickerVolume failed: %v", err)
	}
	if volume != 0 {
		t.Errorf("unlisted ticker should read zero, got %v", volume)
	}
}

func TestFearGreedCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"value":"64","value_classification":"Greed"}]}`))
	}))
	defer server.Close()

	client := NewFearGreed(config.FearGreedConfig{URL: server.URL}, time.Second, "JestagCryptoTools/1.0", logger.Logger())

	index, err := client.Current(context.Background())
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if index.Value != 64 || index.Classification != "Greed" {
		t.Errorf("unexpected index: %+v", index)
	}
}

func TestFearGreedEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewFearGreed(config.FearGreedConfig{URL: server.URL}, time.Second, "JestagCryptoTools/1.0", logger.Logger())

	if _, err := client.Current(context.Background()); err == nil {
		t.Fatal("expected error for empty data")
	}
}
