package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/pipeline"
	"mtf-trading-bot/internal/recorder"
	"mtf-trading-bot/internal/server"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/tradelog"
	"mtf-trading-bot/internal/types"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	must(initializeSystem())
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(ctx, *configPath)
	must(err)

	journal := tradelog.New(cfg.Storage.JournalDir, cfg.Location())
	compressOldLogs(ctx, journal)

	fetcher := initializeMarketData(ctx, cfg)
	newsSvc := initializeNews(ctx, cfg)
	writer, llmReady := initializeWriter(ctx, cfg)
	analyzer := initializeAnalyzer(cfg, writer)

	rec, sqlite, err := initializeRecorder(ctx, cfg)
	must(err)
	defer rec.Close()

	opts := []pipeline.Option{
		pipeline.WithCache(recorder.NewAnalysisCache(time.Duration(cfg.Storage.CacheTTLSeconds) * time.Second)),
	}
	if newsSvc != nil {
		opts = append(opts, pipeline.WithNews(newsSvc))
	}
	if cfg.Mode == "LIVE" {
		opts = append(opts, pipeline.WithJournal(journal))
	}
	runner := pipeline.New(fetcher, analyzer, rec, opts...)

	summarizer := initializeEOD(journal, cfg)
	sched, err := initializeScheduler(ctx, cfg, summarizer)
	must(err)
	sched.Start()

	srv := server.New(cfg.Server.Addr, runner, rec, healthCheck(newsSvc, sqlite, llmReady), logger.IsDebugEnabled())
	go func() {
		if err := srv.Start(); err != nil {
			logger.ErrorWithErr(ctx, "HTTP server stopped", err)
			cancel()
		}
	}()

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Bot started", "mode", cfg.Mode, "universe", cfg.Universe, "poll_seconds", cfg.PollSeconds)
	for {
		select {
		case <-tick.C:
			printPlans(ctx, os.Stdout, runner.RunUniverse(ctx, cfg.Universe, cfg.TradeType))
		case <-ctx.Done():
			logger.Info(context.Background(), "Shutting down...")
			shutdown(srv, sched.Stop(), summarizer)
			return
		}
	}
}

// printPlans writes one JSON line per response that produced plans.
func printPlans(ctx context.Context, w io.Writer, responses []types.AnalysisResponse) {
	for _, resp := range responses {
		if resp.TotalPlans == 0 {
			continue
		}
		b, err := json.Marshal(resp)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to encode analysis", err, "ticker", resp.Ticker)
			continue
		}
		fmt.Fprintln(w, string(b))
	}
}

func shutdown(srv *server.Server, cronDone context.Context, summarizer interfaces.EodSummarizer) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "HTTP shutdown error", "error", err)
	}
	select {
	case <-cronDone.Done():
	case <-ctx.Done():
	}
	if p, err := summarizer.SummarizeToday(ctx); err == nil && p != "" {
		logger.Info(ctx, "EOD CSV written", "path", p)
	}
	_ = trace.Shutdown(ctx)
	_ = logger.Shutdown(ctx)
}
