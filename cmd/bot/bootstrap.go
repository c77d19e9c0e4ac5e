package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"mtf-trading-bot/internal/engine"
	"mtf-trading-bot/internal/engine/engineobs"
	"mtf-trading-bot/internal/eod"
	"mtf-trading-bot/internal/eod/eodobs"
	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/llm/claude"
	"mtf-trading-bot/internal/llm/llmobs"
	"mtf-trading-bot/internal/llm/noop"
	"mtf-trading-bot/internal/llm/openai"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/marketdata"
	"mtf-trading-bot/internal/marketdata/marketdataobs"
	"mtf-trading-bot/internal/news"
	"mtf-trading-bot/internal/recorder"
	"mtf-trading-bot/internal/server"
	"mtf-trading-bot/internal/store"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/tradelog"
)

// initializeSystem loads .env and sets up the logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs gzips journal files older than TRADER_LOG_RETENTION_DAYS
func compressOldLogs(ctx context.Context, journal *tradelog.Journal) {
	v := os.Getenv("TRADER_LOG_RETENTION_DAYS")
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn(ctx, "Ignoring invalid TRADER_LOG_RETENTION_DAYS", "value", v)
		return
	}
	if err := journal.CompressOlder(n); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// initializeMarketData builds the provider chain and the timeframe fetcher
func initializeMarketData(ctx context.Context, cfg *store.Config) *marketdata.Fetcher {
	names := cfg.MarketData.Providers
	if cfg.DataSource == "STATIC" {
		logger.Info(ctx, "Using STATIC synthetic candle data")
		names = []string{"STATIC"}
	}

	timeout := time.Duration(cfg.MarketData.TimeoutSeconds) * time.Second
	var providers []marketdata.Provider
	for _, name := range names {
		switch strings.ToUpper(name) {
		case "YAHOO":
			providers = append(providers, marketdataobs.Wrap(marketdata.NewYahooProvider(marketdata.YahooOptions{
				RequestsPerMin: cfg.MarketData.RequestsPerMin,
				Timeout:        timeout,
			})))
		case "ZERODHA":
			z, err := marketdata.NewZerodhaProvider(marketdata.ZerodhaParams{
				APIKey:         os.Getenv("KITE_API_KEY"),
				AccessToken:    os.Getenv("KITE_ACCESS_TOKEN"),
				Exchange:       cfg.MarketData.Exchange,
				RequestsPerMin: cfg.MarketData.RequestsPerMin,
			})
			if err != nil {
				logger.Warn(ctx, "Skipping Zerodha provider", "error", err)
				continue
			}
			providers = append(providers, marketdataobs.Wrap(z))
		case "STATIC":
			providers = append(providers, marketdataobs.Wrap(marketdata.NewStaticProvider()))
		}
	}

	chain := marketdata.NewFallbackProvider(providers...)
	logger.Info(ctx, "Market data providers configured", "chain", chain.Name())
	return marketdata.NewFetcher(chain, marketdata.FetcherOptionsFrom(cfg))
}

// initializeNews returns the news service, or nil when disabled
func initializeNews(ctx context.Context, cfg *store.Config) *news.Service {
	if !cfg.News.Enabled {
		logger.Info(ctx, "News sentiment disabled in config")
		return nil
	}
	return news.NewService(news.ServiceConfigFrom(cfg))
}

// initializeWriter picks the rationale writer and wraps it with observability.
// The bool reports whether an external text service is usable.
func initializeWriter(ctx context.Context, cfg *store.Config) (interfaces.RationaleWriter, bool) {
	provider := strings.ToUpper(cfg.LLM.Provider)
	switch provider {
	case "CLAUDE":
		w := claude.NewWriter(cfg)
		if !w.Configured() {
			logger.Warn(ctx, "CLAUDE provider selected but no API key set, template rationale will be used")
		}
		return llmobs.Wrap(w, provider), w.Configured()
	case "OPENAI":
		w := openai.NewWriter(cfg)
		if !w.Configured() {
			logger.Warn(ctx, "OPENAI provider selected but no API key set, template rationale will be used")
		}
		return llmobs.Wrap(w, provider), w.Configured()
	default:
		logger.Info(ctx, "No LLM provider configured, using template rationale")
		return llmobs.Wrap(noop.NewWriter(), "NONE"), false
	}
}

func initializeAnalyzer(cfg *store.Config, writer interfaces.RationaleWriter) interfaces.Analyzer {
	return engineobs.Wrap(engine.New(cfg, writer))
}

// initializeRecorder opens sqlite storage in LIVE mode. DRY_RUN keeps nothing.
func initializeRecorder(ctx context.Context, cfg *store.Config) (interfaces.PlanRecorder, *recorder.SQLiteRecorder, error) {
	if cfg.Mode != "LIVE" {
		logger.Warn(ctx, "Running in DRY_RUN mode - plans are logged but not recorded")
		return recorder.NewNoopRecorder(), nil, nil
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath, cfg.Location())
	if err != nil {
		return nil, nil, fmt.Errorf("open plan store: %w", err)
	}
	logger.Info(ctx, "Recording plans", "path", cfg.Storage.SQLitePath)
	return rec, rec, nil
}

func initializeEOD(journal *tradelog.Journal, cfg *store.Config) interfaces.EodSummarizer {
	return eodobs.Wrap(eod.NewSummarizer(journal, cfg.EOD.Dir))
}

// initializeScheduler registers the EOD summary on the configured cron spec
func initializeScheduler(ctx context.Context, cfg *store.Config, summarizer interfaces.EodSummarizer) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := c.AddFunc(cfg.EOD.Cron, func() {
		p, err := summarizer.SummarizeToday(ctx)
		if err != nil {
			logger.ErrorWithErr(ctx, "EOD summary failed", err)
			return
		}
		if p != "" {
			logger.Info(ctx, "EOD CSV written", "path", p)
		}
	}); err != nil {
		return nil, fmt.Errorf("register eod task: %w", err)
	}
	return c, nil
}

// healthCheck reports the services map served on /health
func healthCheck(newsSvc *news.Service, sqlite *recorder.SQLiteRecorder, llmReady bool) server.HealthFunc {
	return func(ctx context.Context) map[string]bool {
		db := false
		if sqlite != nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			db = sqlite.Ping(pingCtx) == nil
			cancel()
		}
		return map[string]bool{
			"market_data": true,
			"news":        newsSvc != nil && newsSvc.Enabled(),
			"database":    db,
			"llm":         llmReady,
		}
	}
}
