package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"mtf-trading-bot/internal/engine"
	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/llm/claude"
	"mtf-trading-bot/internal/llm/noop"
	"mtf-trading-bot/internal/llm/openai"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/marketdata"
	"mtf-trading-bot/internal/news"
	"mtf-trading-bot/internal/pipeline"
	"mtf-trading-bot/internal/store"
	"mtf-trading-bot/internal/types"
)

var (
	cfgFile   string
	tradeType string
	format    string
	static    bool
	noNews    bool
	timeout   time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "analyze TICKER [TICKER...]",
		Short: "Multi-timeframe trade plans for one or more tickers",
		Long: `Analyze fetches day (1h/15m/5m) and swing (1w/1d/4h) timeframes, aligns
trend, momentum and trigger signals, and prints any resulting trade plans.

Examples:
  analyze AAPL
  analyze --type swing --format json MSFT NVDA
  analyze --static --no-news TSLA`,
		Args: cobra.MinimumNArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.Flags().StringVar(&tradeType, "type", "both", "trade type: day, swing, both")
	rootCmd.Flags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.Flags().BoolVar(&static, "static", false, "use synthetic candles instead of live providers")
	rootCmd.Flags().BoolVar(&noNews, "no-news", false, "skip news sentiment")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "overall timeout")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return store.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		return err
	}
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	if static {
		cfg.DataSource = "STATIC"
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	opts := []pipeline.Option{}
	if !noNews && cfg.News.Enabled {
		opts = append(opts, pipeline.WithNews(news.NewService(news.ServiceConfigFrom(cfg))))
	}
	runner := pipeline.New(newFetcher(cfg), engine.New(cfg, newWriter(cfg)), nil, opts...)

	responses := make([]types.AnalysisResponse, 0, len(args))
	for _, t := range args {
		resp, err := runner.Run(ctx, t, tradeType)
		if err != nil {
			return fmt.Errorf("%s: %w", t, err)
		}
		responses = append(responses, resp)
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(responses)
	}
	printTable(responses)
	return nil
}

func newFetcher(cfg *store.Config) *marketdata.Fetcher {
	var providers []marketdata.Provider
	if cfg.DataSource == "STATIC" {
		providers = append(providers, marketdata.NewStaticProvider())
	} else {
		for _, name := range cfg.MarketData.Providers {
			switch strings.ToUpper(name) {
			case "YAHOO":
				providers = append(providers, marketdata.NewYahooProvider(marketdata.YahooOptions{
					RequestsPerMin: cfg.MarketData.RequestsPerMin,
					Timeout:        time.Duration(cfg.MarketData.TimeoutSeconds) * time.Second,
				}))
			case "ZERODHA":
				z, err := marketdata.NewZerodhaProvider(marketdata.ZerodhaParams{
					APIKey:      os.Getenv("KITE_API_KEY"),
					AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
					Exchange:    cfg.MarketData.Exchange,
				})
				if err == nil {
					providers = append(providers, z)
				}
			case "STATIC":
				providers = append(providers, marketdata.NewStaticProvider())
			}
		}
	}
	return marketdata.NewFetcher(marketdata.NewFallbackProvider(providers...), marketdata.FetcherOptionsFrom(cfg))
}

func newWriter(cfg *store.Config) interfaces.RationaleWriter {
	switch strings.ToUpper(cfg.LLM.Provider) {
	case "CLAUDE":
		return claude.NewWriter(cfg)
	case "OPENAI":
		return openai.NewWriter(cfg)
	}
	return noop.NewWriter()
}

func printTable(responses []types.AnalysisResponse) {
	total := 0
	for _, r := range responses {
		total += r.TotalPlans
	}
	fmt.Printf("Found %d trade plans for %d tickers:\n\n", total, len(responses))
	if total == 0 {
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Ticker", "Type", "Dir", "Entry", "Stop", "Target", "Target2", "R:R", "Conf", "Edges"}),
	)
	for _, r := range responses {
		for _, p := range r.Plans {
			table.Append([]string{
				p.Ticker,
				string(p.TradeType),
				strings.ToUpper(string(p.Direction)),
				fmt.Sprintf("%.2f", p.Entry),
				fmt.Sprintf("%.2f", p.Stop),
				fmt.Sprintf("%.2f", p.Target),
				fmt.Sprintf("%.2f", p.Target2),
				fmt.Sprintf("%.2f", p.RiskReward),
				fmt.Sprintf("%d/5", p.Confidence),
				strings.Join(p.EdgeNames(), ","),
			})
		}
	}
	table.Render()

	for _, r := range responses {
		for _, p := range r.Plans {
			fmt.Printf("\n%s %s: %s\n", p.Ticker, p.TradeType, p.Rationale)
			if p.RiskNotes != "" {
				fmt.Printf("  risk: %s\n", p.RiskNotes)
			}
		}
	}
}
