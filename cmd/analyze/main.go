// Command analyze runs one multi-timeframe analysis and prints the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"CoinScreener/internal/calculator"
	"CoinScreener/internal/collector"
	"CoinScreener/internal/config"
	"CoinScreener/internal/logger"
	"CoinScreener/internal/model"
	"CoinScreener/internal/notifier"
	"CoinScreener/internal/pattern"
	"CoinScreener/internal/risk"
	"CoinScreener/internal/strategy"
	"CoinScreener/internal/watchlist"
)

var htmlTag = regexp.MustCompile(`</?b>`)

func main() {
	config.LoadDotEnv(".env")

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	provider := flag.String("provider", "", "data provider override: binance or mock")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: analyze [flags] SYMBOL\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *provider != "" {
		cfg.DataSource.Provider = *provider
	}
	logger.Init(cfg.Log.Level, true)

	symbol, err := watchlist.Normalize(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("bad symbol")
	}

	var fetcher collector.Fetcher = &collector.MockFetcher{}
	if cfg.DataSource.Provider != "mock" {
		fetcher = collector.NewBinanceFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RequestsPerSecond)
	}
	col := collector.NewCollector(fetcher, cfg.DataSource.CandleLimit, cfg.DataSource.VolumeLimit)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	snap, err := col.Collect(ctx, symbol)
	if err != nil {
		log.Fatal().Err(err).Str("symbol", symbol).Msg("collect")
	}

	engine := strategy.NewEngine(calculator.New(), pattern.New(), risk.New())
	res, err := engine.Analyze(symbol, snap.Candles15m, snap.Candles1H, snap.Candles4H, snap.Volume)
	if err != nil {
		var short *model.InsufficientDataError
		if errors.As(err, &short) {
			log.Fatal().Str("symbol", symbol).Str("timeframe", short.Timeframe.String()).
				Int("need", short.Need).Int("have", short.Have).Msg("not enough history")
		}
		log.Fatal().Err(err).Msg("analyze")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatal().Err(err).Msg("encode result")
		}
		return
	}
	fmt.Println(htmlTag.ReplaceAllString(notifier.FormatAnalysis(res), ""))
}
