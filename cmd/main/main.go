package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"wealthpilot-market/src/alerts"
	"wealthpilot-market/src/auth"
	"wealthpilot-market/src/cache"
	"wealthpilot-market/src/config"
	"wealthpilot-market/src/events"
	"wealthpilot-market/src/interfaces"
	"wealthpilot-market/src/network"
	"wealthpilot-market/src/poller"
	"wealthpilot-market/src/provider"
	"wealthpilot-market/src/provider/alphavantage"
	"wealthpilot-market/src/provider/simulated"
	"wealthpilot-market/src/provider/yahoo"
	"wealthpilot-market/src/server"
	"wealthpilot-market/src/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Environment overrides for secrets (.env is optional)
	godotenv.Load()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	// 1. Storage
	var store interfaces.IStore
	switch cfg.Storage.DBType {
	case "postgres":
		store, err = storage.NewPostgresDB(cfg.MConfig, log)
	default:
		// Default to SQLite
		store, err = storage.NewSQLiteDB(cfg.MConfig, log)
	}
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	if err := store.Initialize(); err != nil {
		log.Fatal("failed to migrate store", zap.Error(err))
	}
	defer store.Close()

	// 2. Cache
	ttls := cache.TTLs{
		Quote:      time.Duration(cfg.Cache.QuoteTTLSeconds) * time.Second,
		Historical: time.Duration(cfg.Cache.HistoricalTTLSeconds) * time.Second,
		Profile:    time.Duration(cfg.Cache.ProfileTTLSeconds) * time.Second,
	}
	var quoteCache interfaces.ICache
	switch cfg.Cache.Backend {
	case "redis":
		quoteCache, err = cache.NewRedisCache(cfg.Cache.RedisAddr, ttls)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
	default:
		quoteCache = cache.NewMemoryCache(ttls)
	}

	// 3. Provider chain, in configured failover order
	netMgr := network.NewManager(cfg.MConfig, log)

	var providers []interfaces.IQuoteProvider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "alphavantage":
			if cfg.Providers.AlphaVantage.APIKey == "" {
				log.Warn("alphavantage has no api key, skipping provider")
				continue
			}
			providers = append(providers, alphavantage.NewSource(cfg.Providers.AlphaVantage, netMgr, log))
		case "yahoo":
			providers = append(providers, yahoo.NewSource(netMgr, log))
		case "simulated":
			providers = append(providers, simulated.NewSource())
		}
	}
	if len(providers) == 0 {
		log.Fatal("no usable providers configured")
	}

	fetchTimeout := time.Duration(cfg.Providers.RequestTimeoutSeconds) * time.Second
	fetcher := provider.NewResilientFetcher(quoteCache, providers, fetchTimeout, log)

	// 4. Streaming server
	verifier := auth.NewHMACVerifier(cfg.Auth.Secret)
	srv := server.NewStreamServer(cfg.MConfig, log, fetcher, store, verifier)

	// 5. Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := &sync.WaitGroup{}

	var publisher *events.AlertPublisher
	if cfg.Alerts.Kafka.Enabled {
		publisher = events.NewAlertPublisher(cfg.Alerts.Kafka, log)
		defer publisher.Close()
	}

	quotePoller := poller.NewQuotePoller(cfg.Stream, srv.Registry, store, fetcher, srv.Dispatcher, log)
	quotePoller.Start(ctx, wg)

	evaluator := alerts.NewAlertEvaluator(cfg.Alerts, store, fetcher, srv.Dispatcher, publisher, log)
	evaluator.Start(ctx, wg)

	heartbeat := time.Duration(cfg.Stream.HeartbeatIntervalSeconds) * time.Second
	monitor := server.NewLivenessMonitor(srv.Registry, heartbeat, log)
	monitor.Start(ctx, wg)

	// 6. Serve
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()
	wg.Wait()
}

// -----------------------------------------------------------------------------

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	if lvl == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}

	log, err := zcfg.Build()
	if err != nil {
		fmt.Printf("Error building logger: %v\n", err)
		os.Exit(1)
	}
	return log
}
