package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Market   MarketConfig   `yaml:"market"`
	News     NewsConfig     `yaml:"news"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Address          string        `yaml:"address"`
	LogHistory       int           `yaml:"log_history"`
	ResourceHistory  int           `yaml:"resource_history"`
	ResourceInterval time.Duration `yaml:"resource_interval"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// CacheConfig carries the per-dataset TTLs for the in-process cache and the
// refresh age for the on-disk coin directory.
type CacheConfig struct {
	BTC          time.Duration `yaml:"btc"`
	TopCoins     time.Duration `yaml:"top_coins"`
	Basket       time.Duration `yaml:"basket"`
	Search       time.Duration `yaml:"search"`
	Sentiment    time.Duration `yaml:"sentiment"`
	News         time.Duration `yaml:"news"`
	DirectoryAge time.Duration `yaml:"directory_age"`
}

type UpstreamConfig struct {
	UserAgent     string              `yaml:"user_agent"`
	Timeout       time.Duration       `yaml:"timeout"`
	CoinGecko     CoinGeckoConfig     `yaml:"coingecko"`
	GeckoTerminal GeckoTerminalConfig `yaml:"geckoterminal"`
	Nestex        NestexConfig        `yaml:"nestex"`
	FearGreed     FearGreedConfig     `yaml:"fear_greed"`
}

type CoinGeckoConfig struct {
	BaseURL       string `yaml:"base_url"`
	RatePerMinute int    `yaml:"rate_per_minute"`
	Burst         int    `yaml:"burst"`
}

type GeckoTerminalConfig struct {
	BaseURL string `yaml:"base_url"`
	Network string `yaml:"network"`
	PoolID  string `yaml:"pool_id"`
}

type NestexConfig struct {
	TickersURL string `yaml:"tickers_url"`
	TickerID   string `yaml:"ticker_id"`
}

type FearGreedConfig struct {
	URL string `yaml:"url"`
}

// MarketConfig is the curated portion of the market surface: the personal
// basket, the display priority order, symbol aliases for search and the
// project website table. All of these are data, not code.
type MarketConfig struct {
	TopLimit    int               `yaml:"top_limit"`
	TopPageSize int               `yaml:"top_page_size"`
	SearchLimit int               `yaml:"search_limit"`
	BasketToken string            `yaml:"basket_token"`
	BasketCoins []string          `yaml:"basket_coins"`
	Priority    []string          `yaml:"priority"`
	Aliases     map[string]string `yaml:"aliases"`
	Websites    map[string]string `yaml:"websites"`
}

type NewsConfig struct {
	Feeds        []Feed        `yaml:"feeds"`
	PerFeedLimit int           `yaml:"per_feed_limit"`
	Window       time.Duration `yaml:"window"`
	DefaultLimit int           `yaml:"default_limit"`
}

type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment overrides for deployment specific settings
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		config.Server.Address = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		config.Storage.DataDir = strings.TrimSpace(v)
	}

	if config.Logging.Format == "" {
		if IsProductionLike(AppEnvironment()) {
			config.Logging.Format = "json"
		} else {
			config.Logging.Format = "text"
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "cryptotools",
			Version: "dev",
		},
		Server: ServerConfig{
			Address:          "127.0.0.1:5002",
			LogHistory:       200,
			ResourceHistory:  200,
			ResourceInterval: 5 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Cache: CacheConfig{
			BTC:          15 * time.Second,
			TopCoins:     30 * time.Second,
			Basket:       30 * time.Second,
			Search:       10 * time.Second,
			Sentiment:    300 * time.Second,
			News:         3600 * time.Second,
			DirectoryAge: 24 * time.Hour,
		},
		Upstream: UpstreamConfig{
			UserAgent: "JestagCryptoTools/1.0",
			Timeout:   10 * time.Second,
			CoinGecko: CoinGeckoConfig{
				BaseURL:       "https://api.coingecko.com/api/v3",
				RatePerMinute: 30,
				Burst:         10,
			},
			GeckoTerminal: GeckoTerminalConfig{
				BaseURL: "https://api.geckoterminal.com/api/v2",
				Network: "solana",
				PoolID:  "9FepPyQDMBvj4bcLrfCUhK9pyLk8WoTDNkvgSCR86aWp",
			},
			Nestex: NestexConfig{
				TickersURL: "https://trade.nestex.one/api/cg/tickers",
				TickerID:   "SMLO_USDT",
			},
			FearGreed: FearGreedConfig{
				URL: "https://api.alternative.me/fng/",
			},
		},
		Market: MarketConfig{
			TopLimit:    15,
			TopPageSize: 30,
			SearchLimit: 6,
			BasketToken: "smlo",
			BasketCoins: []string{
				"bitcoin",
				"solana",
				"polygon-ecosystem-token",
				"dogecoin",
				"litecoin",
				"binancecoin",
				"mantle",
				"nano",
				"banano",
				"atto",
			},
			Priority: []string{
				"smlo",
				"bitcoin",
				"solana",
				"polygon-ecosystem-token",
				"dogecoin",
				"litecoin",
				"binancecoin",
				"mantle",
				"nano",
				"banano",
				"atto",
			},
			Aliases: map[string]string{
				"btc":   "bitcoin",
				"eth":   "ethereum",
				"sol":   "solana",
				"bnb":   "binancecoin",
				"xrp":   "ripple",
				"doge":  "dogecoin",
				"matic": "polygon-ecosystem-token",
				"pol":   "polygon-ecosystem-token",
				"usdt":  "tether",
				"usdc":  "usd-coin",
			},
			Websites: map[string]string{
				"bitcoin":                 "https://bitcoin.org",
				"ethereum":                "https://ethereum.org",
				"tether":                  "https://tether.to",
				"usd-coin":                "https://www.circle.com/en/usdc",
				"binancecoin":             "https://www.bnbchain.org",
				"solana":                  "https://solana.com",
				"dogecoin":                "https://dogecoin.com",
				"litecoin":                "https://litecoin.org",
				"polygon-ecosystem-token": "https://polygon.technology",
				"mantle":                  "https://www.mantle.xyz",
				"nano":                    "https://nano.org",
				"banano":                  "https://banano.cc",
				"xrp":                     "https://xrpl.org",
				"cardano":                 "https://cardano.org",
				"avalanche-2":             "https://www.avax.network",
				"tron":                    "https://tron.network",
				"the-open-network":        "https://ton.org",
				"polkadot":                "https://polkadot.network",
			},
		},
		News: NewsConfig{
			Feeds: []Feed{
				{Name: "CoinDesk", URL: "https://www.coindesk.com/arc/outboundfeeds/rss/"},
				{Name: "Cointelegraph", URL: "https://cointelegraph.com/rss"},
				{Name: "The Block", URL: "https://www.theblock.co/rss.xml"},
				{Name: "Reddit r/CryptoCurrency", URL: "https://www.reddit.com/r/CryptoCurrency/.rss"},
				{Name: "Reddit r/Bitcoin", URL: "https://www.reddit.com/r/Bitcoin/.rss"},
			},
			PerFeedLimit: 30,
			Window:       7 * 24 * time.Hour,
			DefaultLimit: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stdout",
		},
	}
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Server.Address) == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if strings.TrimSpace(config.Storage.DataDir) == "" {
		return fmt.Errorf("storage.data_dir must not be empty")
	}
	if config.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if config.Upstream.CoinGecko.BaseURL == "" {
		return fmt.Errorf("upstream.coingecko.base_url must not be empty")
	}
	for _, ttl := range []struct {
		name  string
		value time.Duration
	}{
		{"cache.btc", config.Cache.BTC},
		{"cache.top_coins", config.Cache.TopCoins},
		{"cache.basket", config.Cache.Basket},
		{"cache.search", config.Cache.Search},
		{"cache.sentiment", config.Cache.Sentiment},
		{"cache.news", config.Cache.News},
		{"cache.directory_age", config.Cache.DirectoryAge},
	} {
		if ttl.value <= 0 {
			return fmt.Errorf("%s must be positive", ttl.name)
		}
	}
	if config.Market.TopLimit <= 0 || config.Market.TopPageSize <= 0 {
		return fmt.Errorf("market.top_limit and market.top_page_size must be positive")
	}
	if config.Market.TopLimit > config.Market.TopPageSize {
		return fmt.Errorf("market.top_limit must not exceed market.top_page_size")
	}
	if config.Market.SearchLimit <= 0 {
		return fmt.Errorf("market.search_limit must be positive")
	}
	if config.Market.BasketToken == "" || len(config.Market.BasketCoins) == 0 {
		return fmt.Errorf("market.basket_token and market.basket_coins must be set")
	}
	if len(config.News.Feeds) == 0 {
		return fmt.Errorf("news.feeds must not be empty")
	}
	for i, feed := range config.News.Feeds {
		if feed.Name == "" || feed.URL == "" {
			return fmt.Errorf("news.feeds[%d] requires name and url", i)
		}
	}
	if config.News.PerFeedLimit <= 0 || config.News.DefaultLimit <= 0 {
		return fmt.Errorf("news.per_feed_limit and news.default_limit must be positive")
	}
	if config.News.Window <= 0 {
		return fmt.Errorf("news.window must be positive")
	}
	return nil
}
