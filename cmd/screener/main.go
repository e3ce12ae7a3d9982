package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"CoinScreener/internal/calculator"
	"CoinScreener/internal/collector"
	"CoinScreener/internal/config"
	"CoinScreener/internal/logger"
	"CoinScreener/internal/notifier"
	"CoinScreener/internal/pattern"
	"CoinScreener/internal/recorder"
	"CoinScreener/internal/risk"
	"CoinScreener/internal/screener"
	"CoinScreener/internal/strategy"
	"CoinScreener/internal/watchlist"
)

func main() {
	config.LoadDotEnv(".env")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Msg("CoinScreener starting")

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewBinanceFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RequestsPerSecond)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")
	col := collector.NewCollector(fetcher, cfg.DataSource.CandleLimit, cfg.DataSource.VolumeLimit)

	wl, err := watchlist.NewManager(cfg.Watchlist.StateFile, cfg.Screener.Symbols)
	if err != nil {
		log.Fatal().Err(err).Msg("init watchlist")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	engine := strategy.NewEngine(calculator.New(), pattern.New(), risk.New())

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tn *notifier.TelegramNotifier
	var sink screener.Notifier
	if cfg.NotificationsEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sink = tn
	} else {
		log.Warn().Msg("telegram credentials missing, notifications disabled")
	}

	scr := screener.New(col, engine, wl, rec, sink, screener.Options{
		Workers:       cfg.Screener.Workers,
		MinConfidence: cfg.Screener.MinConfidence,
		TopN:          cfg.Screener.TopN,
	})
	if err := scr.Register(cfg.Screener.Cron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	scr.Start(ctx)
	defer scr.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, scr.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics endpoint listening")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, scanning now")
		go func() {
			if _, err := scr.RunNow(ctx, screener.TriggerStartup); err != nil {
				log.Error().Err(err).Msg("startup scan")
			}
		}()
	}

	log.Info().Strs("watchlist", wl.Symbols()).Str("cron", cfg.Screener.Cron).Msg("CoinScreener is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	if metricsSrv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Info().Msg("CoinScreener stopped")
}
