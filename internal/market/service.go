// Package market is the fallback resolver sitting between the HTTP surface
// and the upstream clients. Every read runs the same chain: TTL cache, live
// fetch with write-through to cache and disk snapshot, disk snapshot replay,
// typed default. The read surface is total; no method here returns an error.
package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cryptotools/config"
	"cryptotools/internal/cache"
	"cryptotools/internal/metrics"
	"cryptotools/internal/models"
	"cryptotools/internal/store"
	"cryptotools/logger"
)

const newsPlaceholderTitle = "Crypto news feed will appear here once data loads."

// QuoteSource is the CoinGecko surface the resolver consumes.
type QuoteSource interface {
	BitcoinQuote(ctx context.Context) (*models.BtcQuote, error)
	TopMarkets(ctx context.Context, pageSize int) ([]models.CoinQuote, error)
	MarketsByIDs(ctx context.Context, ids []string) ([]models.CoinQuote, error)
	SearchIDs(ctx context.Context, query string, limit int) ([]string, error)
	CoinDirectory(ctx context.Context) ([]models.DirectoryCoin, error)
}

// PoolSource supplies the internal token's DEX-composed quote.
type PoolSource interface {
	PoolToken(ctx context.Context) (*models.CoinQuote, error)
}

// VolumeSource supplies the supplementary exchange volume for the internal
// token.
type VolumeSource interface {
	TickerVolume(ctx context.Context, tickerID string) (float64, error)
}

// SentimentSource supplies the current fear/greed reading.
type SentimentSource interface {
	Current(ctx context.Context) (*models.FearGreedIndex, error)
}

// NewsSource supplies normalized feed entries.
type NewsSource interface {
	Fetch(ctx context.Context, perFeedLimit int) ([]models.NewsItem, error)
}

// Sources bundles the upstream clients injected into the resolver.
type Sources struct {
	Gecko     QuoteSource
	Pool      PoolSource
	Volume    VolumeSource
	Sentiment SentimentSource
	News      NewsSource
}

// Service resolves every public dataset. The cache and store are injected,
// never package-level state, so tests can build a Service around fakes and
// a temp dir.
type Service struct {
	cfg   *config.Config
	cache *cache.Cache
	store *store.Store
	src   Sources
	log   *logger.Log
	now   func() time.Time
}

func NewService(cfg *config.Config, c *cache.Cache, st *store.Store, src Sources, log *logger.Log) *Service {
	return &Service{
		cfg:   cfg,
		cache: c,
		store: st,
		src:   src,
		log:   log,
		now:   time.Now,
	}
}

// SetClock replaces the service's time source. Test use only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// BTCQuote returns the bitcoin snapshot, nil when no source can supply one.
// BTC has no disk snapshot; it is the one dataset that is memory only.
func (s *Service) BTCQuote(ctx context.Context) *models.BtcQuote {
	value := s.cache.GetOrCompute("btc", s.cfg.Cache.BTC, func() interface{} {
		quote, err := s.src.Gecko.BitcoinQuote(ctx)
		if err != nil {
			s.log.WithComponent("market").WithError(err).Warn("bitcoin quote unavailable")
			metrics.RecordFallback("btc", "default")
			return nil
		}
		return quote
	})
	quote, _ := value.(*models.BtcQuote)
	return quote
}

// TopCoins returns the ranked market page truncated to limit. On upstream
// failure the last disk snapshot is served unchanged in order; with no
// snapshot either, the list degrades to just the bitcoin quote.
func (s *Service) TopCoins(ctx context.Context, limit int) []models.CoinQuote {
	if limit <= 0 {
		limit = s.cfg.Market.TopLimit
	}
	key := fmt.Sprintf("top_%d", limit)

	value := s.cache.GetOrCompute(key, s.cfg.Cache.TopCoins, func() interface{} {
		fresh, err := s.src.Gecko.TopMarkets(ctx, s.cfg.Market.TopPageSize)
		if err != nil || len(fresh) == 0 {
			s.log.WithComponent("market").WithError(err).Warn("top coins fetch failed")
			return nil
		}
		if len(fresh) > limit {
			fresh = fresh[:limit]
		}
		if err := s.store.SaveTopCoins(fresh); err != nil {
			s.log.WithComponent("market").WithError(err).Warn("top coins snapshot write failed")
		}
		return fresh
	})
	if coins, _ := value.([]models.CoinQuote); len(coins) > 0 {
		return coins
	}

	if snapshot := s.store.LoadTopCoins(); len(snapshot) > 0 {
		metrics.RecordFallback("top_coins", "snapshot")
		return snapshot
	}

	metrics.RecordFallback("top_coins", "default")
	if btc := s.BTCQuote(ctx); btc != nil {
		return []models.CoinQuote{btc.AsCoinQuote()}
	}
	return []models.CoinQuote{}
}

// MyCoins returns the personal basket: the internal token composed from the
// DEX pool plus the fixed identifier list, priority-ordered. A stale basket
// snapshot (reordered) stands in when the fresh composite fails outright.
func (s *Service) MyCoins(ctx context.Context) []models.CoinQuote {
	value := s.cache.GetOrCompute("my_coins", s.cfg.Cache.Basket, func() interface{} {
		return s.fetchBasket(ctx)
	})
	if coins, _ := value.([]models.CoinQuote); len(coins) > 0 {
		return coins
	}

	if snapshot := s.store.LoadBasket(); len(snapshot) > 0 {
		metrics.RecordFallback("basket", "snapshot")
		return ReorderByPriority(snapshot, s.cfg.Market.Priority)
	}

	metrics.RecordFallback("basket", "default")
	return []models.CoinQuote{}
}

// fetchBasket assembles the fresh basket. A batch-quote failure fails the
// whole fetch (the snapshot is better than a basket with no market coins);
// a pool or volume failure only degrades its own contribution.
func (s *Service) fetchBasket(ctx context.Context) interface{} {
	log := s.log.WithComponent("market")

	var coins []models.CoinQuote
	token, err := s.src.Pool.PoolToken(ctx)
	if err != nil {
		log.WithError(err).Warn("pool token fetch failed")
	} else {
		volume, err := s.src.Volume.TickerVolume(ctx, s.cfg.Upstream.Nestex.TickerID)
		if err != nil {
			log.WithError(err).Warn("exchange volume fetch failed, using pool volume only")
			volume = 0
		}
		token.Volume24h += volume
		coins = append(coins, *token)
	}

	batch, err := s.src.Gecko.MarketsByIDs(ctx, s.cfg.Market.BasketCoins)
	if err != nil {
		log.WithError(err).Warn("basket batch fetch failed")
		return nil
	}
	byID := make(map[string]models.CoinQuote, len(batch))
	for _, coin := range batch {
		byID[coin.ID] = coin
	}

	var missing []string
	for _, id := range s.cfg.Market.BasketCoins {
		coin, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		coins = append(coins, coin)
	}

	// Retry identifiers the batch response omitted, one at a time.
	for _, id := range missing {
		one, err := s.src.Gecko.MarketsByIDs(ctx, []string{id})
		if err != nil || len(one) == 0 {
			log.WithFields(logger.Fields{"coin": id}).Warn("basket coin unavailable")
			continue
		}
		coins = append(coins, one[0])
	}

	if len(coins) == 0 {
		return nil
	}
	coins = ReorderByPriority(coins, s.cfg.Market.Priority)

	// The internal token must not silently vanish from the basket; keep
	// its last snapshotted value when the fresh fetch came back without it.
	if !containsID(coins, s.cfg.Market.BasketToken) {
		for _, cached := range s.store.LoadBasket() {
			if cached.ID == s.cfg.Market.BasketToken {
				coins = append([]models.CoinQuote{cached}, coins...)
				break
			}
		}
	}

	if err := s.store.SaveBasket(coins); err != nil {
		log.WithError(err).Warn("basket snapshot write failed")
	}
	return coins
}

func containsID(coins []models.CoinQuote, id string) bool {
	for _, coin := range coins {
		if coin.ID == id {
			return true
		}
	}
	return false
}

// Sentiment returns the current fear/greed reading, nil when unavailable.
func (s *Service) Sentiment(ctx context.Context) *models.FearGreedIndex {
	value := s.cache.GetOrCompute("fear_greed", s.cfg.Cache.Sentiment, func() interface{} {
		reading, err := s.src.Sentiment.Current(ctx)
		if err != nil {
			s.log.WithComponent("market").WithError(err).Warn("fear/greed unavailable")
			metrics.RecordFallback("fear_greed", "default")
			return nil
		}
		return reading
	})
	reading, _ := value.(*models.FearGreedIndex)
	return reading
}

// SearchCoins resolves a free-text query to full quotes. Identifier
// resolution walks fuzzy search, the alias table and the cached coin
// directory; quote expansion falls back to scanning the disk snapshots.
func (s *Service) SearchCoins(ctx context.Context, query string, limit int) []models.CoinQuote {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = s.cfg.Market.SearchLimit
	}
	key := fmt.Sprintf("search:%s:%d", strings.ToLower(query), limit)

	value := s.cache.GetOrCompute(key, s.cfg.Cache.Search, func() interface{} {
		return s.searchQuotes(ctx, query, limit)
	})
	coins, _ := value.([]models.CoinQuote)
	return coins
}

func (s *Service) searchQuotes(ctx context.Context, query string, limit int) interface{} {
	log := s.log.WithComponent("market")
	lower := strings.ToLower(query)

	ids, err := s.src.Gecko.SearchIDs(ctx, query, limit)
	if err != nil {
		log.WithError(err).Warn("fuzzy search failed")
		ids = nil
	}
	if len(ids) == 0 {
		if id, ok := s.cfg.Market.Aliases[lower]; ok {
			ids = []string{id}
		}
	}
	if len(ids) == 0 {
		ids = s.directoryMatch(ctx, lower, limit)
	}
	if len(ids) == 0 {
		return nil
	}

	quotes, err := s.src.Gecko.MarketsByIDs(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("search quote expansion failed, scanning snapshots")
		metrics.RecordFallback("search", "snapshot")
		quotes = s.scanSnapshots(ids)
	}
	return quotes
}

// directoryMatch resolves identifiers from the full coin directory, which
// is refreshed from upstream at most once per day. Matches are
// case-insensitive: substring of the name, the whole symbol, or a symbol
// prefix.
func (s *Service) directoryMatch(ctx context.Context, query string, limit int) []string {
	var coins []models.DirectoryCoin
	if directory, ok := s.store.LoadDirectory(); ok {
		if s.now().Unix()-directory.Updated < int64(s.cfg.Cache.DirectoryAge.Seconds()) {
			coins = directory.Coins
		}
	}
	if len(coins) == 0 {
		fetched, err := s.src.Gecko.CoinDirectory(ctx)
		if err != nil {
			s.log.WithComponent("market").WithError(err).Warn("coin directory fetch failed")
			return nil
		}
		coins = fetched
		if err := s.store.SaveDirectory(models.CoinDirectory{Updated: s.now().Unix(), Coins: coins}); err != nil {
			s.log.WithComponent("market").WithError(err).Warn("coin directory snapshot write failed")
		}
	}

	var matches []string
	for _, coin := range coins {
		if coin.ID == "" {
			continue
		}
		name := strings.ToLower(coin.Name)
		symbol := strings.ToLower(coin.Symbol)
		if strings.Contains(name, query) || query == symbol || strings.HasPrefix(symbol, query) {
			matches = append(matches, coin.ID)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

// scanSnapshots resolves identifiers against the two disk snapshots,
// top coins first, keeping each identifier once.
func (s *Service) scanSnapshots(ids []string) []models.CoinQuote {
	var results []models.CoinQuote
	seen := make(map[string]bool, len(ids))
	for _, snapshot := range [][]models.CoinQuote{s.store.LoadTopCoins(), s.store.LoadBasket()} {
		byID := make(map[string]models.CoinQuote, len(snapshot))
		for _, coin := range snapshot {
			byID[coin.ID] = coin
		}
		for _, id := range ids {
			if coin, ok := byID[id]; ok && !seen[id] {
				seen[id] = true
				results = append(results, coin)
			}
		}
	}
	return results
}

// News returns up to limit items, freshest first, restricted to the
// configured window. The disk snapshot replays through the same freshness
// filter; with nothing at all, a single placeholder item announces the gap.
func (s *Service) News(ctx context.Context, limit int) []models.NewsItem {
	if limit <= 0 {
		limit = s.cfg.News.DefaultLimit
	}

	value := s.cache.GetOrCompute("news", s.cfg.Cache.News, func() interface{} {
		fetched, err := s.src.News.Fetch(ctx, s.cfg.News.PerFeedLimit)
		if err != nil {
			s.log.WithComponent("market").WithError(err).Warn("news fetch failed")
			return nil
		}
		fresh := s.freshNews(fetched)
		if len(fresh) == 0 {
			return nil
		}
		if err := s.store.SaveNews(fresh); err != nil {
			s.log.WithComponent("market").WithError(err).Warn("news snapshot write failed")
		}
		return fresh
	})
	items, _ := value.([]models.NewsItem)

	if len(items) == 0 {
		if snapshot := s.freshNews(s.store.LoadNews()); len(snapshot) > 0 {
			metrics.RecordFallback("news", "snapshot")
			items = snapshot
		}
	}
	if len(items) == 0 {
		metrics.RecordFallback("news", "default")
		items = []models.NewsItem{{
			Title:            newsPlaceholderTitle,
			Source:           "CoinDesk",
			PublishedDisplay: "Unknown time",
		}}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// freshNews drops undated items and anything older than the window, then
// sorts freshest first.
func (s *Service) freshNews(items []models.NewsItem) []models.NewsItem {
	cutoff := s.now().Add(-s.cfg.News.Window).Unix()
	fresh := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		if item.PublishedAt == nil || *item.PublishedAt < cutoff {
			continue
		}
		if item.Summary == "" {
			item.Summary = "Summary unavailable."
		}
		fresh = append(fresh, item)
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return *fresh[i].PublishedAt > *fresh[j].PublishedAt
	})
	return fresh
}

// CacheSnapshot reports the age of every cache entry for the diagnostics
// surface.
func (s *Service) CacheSnapshot() map[string]string {
	return s.cache.Snapshot()
}
