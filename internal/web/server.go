// Package web exposes the aggregation layer over HTTP: the public market
// and news endpoints, the curation endpoints for holdings and suggestions,
// and the diagnostics surface (cache ages, recent logs, host resources,
// Prometheus metrics).
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cryptotools/config"
	"cryptotools/internal/market"
	"cryptotools/internal/metrics"
	"cryptotools/internal/models"
	"cryptotools/internal/store"
	"cryptotools/logger"
)

// Server hosts the JSON API.
type Server struct {
	cfg        *config.Config
	market     *market.Service
	store      *store.Store
	log        *logger.Log
	logs       *logBuffer
	sampler    *resourceSampler
	httpServer *http.Server
}

func NewServer(cfg *config.Config, svc *market.Service, st *store.Store, log *logger.Log) *Server {
	cfg.Server.Address = normalizeAddress(cfg.Server.Address)

	logs := newLogBuffer(cfg.Server.LogHistory)
	log.AddHook(logs)

	return &Server{
		cfg:     cfg,
		market:  svc,
		store:   st,
		log:     log,
		logs:    logs,
		sampler: newResourceSampler(cfg.Server.ResourceHistory, cfg.Server.ResourceInterval, log),
	}
}

// Address reports the network address the server listens on.
func (s *Server) Address() string {
	return s.cfg.Server.Address
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	defer s.cleanup()

	router, err := s.buildRouter()
	if err != nil {
		return err
	}
	s.sampler.start(ctx)

	s.httpServer = &http.Server{
		Addr:    s.cfg.Server.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) cleanup() {
	s.logs.close()
	s.sampler.stop()
}

func (s *Server) buildRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	router.GET("/api/health", s.handleHealth)
	router.GET("/api/summary", s.handleSummary)
	router.GET("/api/search", s.handleSearch)
	router.GET("/api/news", s.handleNews)
	router.GET("/api/markets", s.handleMarkets)
	router.GET("/api/personal", s.handlePersonal)

	router.GET("/api/holdings", s.handleListHoldings)
	router.POST("/api/holdings", s.handleAddHolding)
	router.DELETE("/api/holdings/:id", s.handleRemoveHolding)

	router.GET("/api/suggestions", s.handleListSuggestions)
	router.POST("/api/suggestions", s.handleAddSuggestion)
	router.PATCH("/api/suggestions/:id", s.handleSuggestionStatus)
	router.DELETE("/api/suggestions/:id", s.handleRemoveSuggestion)

	router.GET("/api/diag/cache", s.handleDiagCache)
	router.GET("/api/diag/logs", s.handleDiagLogs)
	router.GET("/api/diag/resources", s.handleDiagResources)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"app":     s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	ctx := c.Request.Context()
	btc := s.market.BTCQuote(ctx)

	var change *float64
	if btc != nil {
		change = btc.Change24h
	}

	c.JSON(http.StatusOK, gin.H{
		"btc":        btc,
		"top_coins":  s.market.TopCoins(ctx, 0),
		"my_coins":   s.market.MyCoins(ctx),
		"fear_greed": s.market.Sentiment(ctx),
		"mood":       market.Mood(change),
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	ctx := c.Request.Context()
	query := c.Query("q")
	limit := intQuery(c, "limit", s.cfg.Market.SearchLimit)

	results := s.market.SearchCoins(ctx, query, limit)
	if len(results) == 0 && strings.TrimSpace(query) != "" {
		results = s.localScan(ctx, query, limit)
	}
	if results == nil {
		results = []models.CoinQuote{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// localScan is the last search resort: match the query against whatever the
// personal basket and top list currently hold.
func (s *Server) localScan(ctx context.Context, query string, limit int) []models.CoinQuote {
	q := strings.ToLower(strings.TrimSpace(query))
	var matches []models.CoinQuote
	// Copy before concatenating: the basket slice is shared with the cache.
	pool := append([]models.CoinQuote(nil), s.market.MyCoins(ctx)...)
	pool = append(pool, s.market.TopCoins(ctx, 0)...)
	for _, coin := range pool {
		name := strings.ToLower(coin.Name)
		symbol := strings.ToLower(coin.Symbol)
		if strings.Contains(name, q) || q == symbol || strings.HasPrefix(symbol, q) {
			matches = append(matches, coin)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

func (s *Server) handleNews(c *gin.Context) {
	limit := intQuery(c, "limit", 30)
	items := s.market.News(c.Request.Context(), limit)

	// Bucket dated items for the news page: last day vs rest of the week.
	now := time.Now().UTC()
	dayCutoff := now.Add(-24 * time.Hour).Unix()
	daily := make([]models.NewsItem, 0, len(items))
	weekly := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		if item.PublishedAt == nil {
			continue
		}
		if *item.PublishedAt >= dayCutoff {
			daily = append(daily, item)
		} else {
			weekly = append(weekly, item)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"daily":  daily,
		"weekly": weekly,
	})
}

func (s *Server) handleMarkets(c *gin.Context) {
	ctx := c.Request.Context()
	merged := market.MergeCoins(
		s.market.MyCoins(ctx),
		s.market.TopCoins(ctx, 0),
		s.cfg.Market.Websites,
	)
	c.JSON(http.StatusOK, gin.H{
		"btc":   s.market.BTCQuote(ctx),
		"coins": merged,
	})
}

func (s *Server) handlePersonal(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"my_coins": s.market.MyCoins(ctx),
		"holdings": s.store.Holdings(),
	})
}

func (s *Server) handleListHoldings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"holdings": s.store.Holdings()})
}

func (s *Server) handleAddHolding(c *gin.Context) {
	var req struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.Name == "" || req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and symbol are required"})
		return
	}

	holding, err := s.store.AppendHolding(models.Holding{
		Name:   req.Name,
		Symbol: strings.ToUpper(req.Symbol),
		Note:   strings.TrimSpace(req.Note),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save holding"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"holding": holding})
}

func (s *Server) handleRemoveHolding(c *gin.Context) {
	removed := s.store.RemoveHolding(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleListSuggestions(c *gin.Context) {
	suggestions := s.store.Suggestions()

	groups := map[models.SuggestionStatus][]models.Suggestion{
		models.StatusNew:        {},
		models.StatusInProgress: {},
		models.StatusDone:       {},
	}
	for _, suggestion := range suggestions {
		groups[suggestion.Status] = append(groups[suggestion.Status], suggestion)
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"groups":      groups,
		"counts": gin.H{
			"total":       len(suggestions),
			"new":         len(groups[models.StatusNew]),
			"in_progress": len(groups[models.StatusInProgress]),
			"done":        len(groups[models.StatusDone]),
		},
	})
}

func (s *Server) handleAddSuggestion(c *gin.Context) {
	var req struct {
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Email == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and message are required"})
		return
	}

	suggestion, err := s.store.AppendSuggestion(req.Email, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save suggestion"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"suggestion": suggestion})
}

func (s *Server) handleSuggestionStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	status := models.SuggestionStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	updated := s.store.SetSuggestionStatus(c.Param("id"), status)
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (s *Server) handleRemoveSuggestion(c *gin.Context) {
	removed := s.store.RemoveSuggestion(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleDiagCache(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cache": s.market.CacheSnapshot()})
}

func (s *Server) handleDiagLogs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": s.logs.snapshot()})
}

func (s *Server) handleDiagResources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"resources": s.sampler.snapshot()})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "0.0.0.0:8000"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8000"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8000")
	}
	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8000")
	}
	return addr
}
