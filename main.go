package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cryptotools/config"
	"cryptotools/internal/cache"
	"cryptotools/internal/market"
	"cryptotools/internal/metrics"
	"cryptotools/internal/store"
	"cryptotools/internal/upstream"
	"cryptotools/internal/web"
	"cryptotools/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	}).Info("starting cryptotools")

	metrics.Init()

	st, err := store.New(cfg.Storage.DataDir, log)
	if err != nil {
		log.WithError(err).Error("Failed to open data directory")
		os.Exit(1)
	}

	timeout := cfg.Upstream.Timeout
	userAgent := cfg.Upstream.UserAgent
	sources := market.Sources{
		Gecko:     upstream.NewCoinGecko(cfg.Upstream.CoinGecko, timeout, userAgent, log),
		Pool:      upstream.NewGeckoTerminal(cfg.Upstream.GeckoTerminal, cfg.Market.BasketToken, timeout, userAgent, log),
		Volume:    upstream.NewNestex(cfg.Upstream.Nestex, timeout, userAgent, log),
		Sentiment: upstream.NewFearGreed(cfg.Upstream.FearGreed, timeout, userAgent, log),
		News:      upstream.NewNewsReader(cfg.News.Feeds, timeout, userAgent, log),
	}

	service := market.NewService(cfg, cache.New(), st, sources, log)
	server := web.NewServer(cfg, service, st, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
	}()

	log.WithComponent("main").WithFields(logger.Fields{
		"address": server.Address(),
	}).Info("serving API")

	if err := server.Run(ctx); err != nil {
		log.WithError(err).Error("server exited with error")
		os.Exit(1)
	}

	log.WithComponent("main").Info("shutdown complete")
}
