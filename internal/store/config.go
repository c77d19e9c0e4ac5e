package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Mode DRY_RUN only logs plans, LIVE also records and journals them
	Mode        string   `yaml:"mode"`
	DataSource  string   `yaml:"data_source"`
	PollSeconds int      `yaml:"poll_seconds"`
	TradeType   string   `yaml:"trade_type"`
	Universe    []string `yaml:"universe"`
	MarketData  struct {
		Providers      []string `yaml:"providers"`
		Exchange       string   `yaml:"exchange"`
		BiasSymbol     string   `yaml:"bias_symbol"`
		DayLookback    int      `yaml:"day_lookback_days"`
		SwingLookback  int      `yaml:"swing_lookback_days"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		RequestsPerMin int      `yaml:"requests_per_minute"`
		Timezone       string   `yaml:"timezone"`
	} `yaml:"market_data"`
	News struct {
		Enabled      bool `yaml:"enabled"`
		MaxArticles  int  `yaml:"max_articles"`
		CacheMinutes int  `yaml:"cache_minutes"`
	} `yaml:"news"`
	LLM struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxChars       int     `yaml:"max_chars"`
		System         string  `yaml:"system"`
	} `yaml:"llm"`
	Engine struct {
		MinATR float64 `yaml:"min_atr"`
	} `yaml:"engine"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		SQLitePath      string `yaml:"sqlite_path"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
		JournalDir      string `yaml:"journal_dir"`
	} `yaml:"storage"`
	EOD struct {
		Cron string `yaml:"cron"`
		Dir  string `yaml:"dir"`
	} `yaml:"eod"`
}

// Default returns a config with every default filled in.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.DataSource == "" {
		c.DataSource = "STATIC"
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = 300
	}
	if c.TradeType == "" {
		c.TradeType = "both"
	}
	if len(c.MarketData.Providers) == 0 {
		c.MarketData.Providers = []string{"YAHOO"}
	}
	if c.MarketData.Exchange == "" {
		c.MarketData.Exchange = "NSE"
	}
	if c.MarketData.BiasSymbol == "" {
		c.MarketData.BiasSymbol = "SPY"
	}
	if c.MarketData.DayLookback == 0 {
		c.MarketData.DayLookback = 5
	}
	if c.MarketData.SwingLookback == 0 {
		c.MarketData.SwingLookback = 365
	}
	if c.MarketData.TimeoutSeconds == 0 {
		c.MarketData.TimeoutSeconds = 15
	}
	if c.MarketData.RequestsPerMin == 0 {
		c.MarketData.RequestsPerMin = 60
	}
	if c.MarketData.Timezone == "" {
		c.MarketData.Timezone = "America/New_York"
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 10
	}
	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 60
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NONE"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 200
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 10
	}
	if c.LLM.MaxChars == 0 {
		c.LLM.MaxChars = 600
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/plans.db"
	}
	if c.Storage.CacheTTLSeconds == 0 {
		c.Storage.CacheTTLSeconds = 60
	}
	if c.Storage.JournalDir == "" {
		c.Storage.JournalDir = "logs"
	}
	if c.EOD.Cron == "" {
		c.EOD.Cron = "5 16 * * 1-5"
	}
	if c.EOD.Dir == "" {
		c.EOD.Dir = "reports"
	}
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.DataSource != "STATIC" && c.DataSource != "LIVE" {
		return fmt.Errorf("invalid data_source '%s': must be 'STATIC' or 'LIVE'", c.DataSource)
	}
	if len(c.Universe) == 0 {
		return errors.New("universe cannot be empty")
	}
	switch c.TradeType {
	case "day", "swing", "both":
	default:
		return fmt.Errorf("trade_type must be 'day', 'swing' or 'both', got '%s'", c.TradeType)
	}
	for _, p := range c.MarketData.Providers {
		switch strings.ToUpper(p) {
		case "YAHOO", "ZERODHA", "STATIC":
		default:
			return fmt.Errorf("unknown market_data provider '%s'", p)
		}
	}
	if _, err := time.LoadLocation(c.MarketData.Timezone); err != nil {
		return fmt.Errorf("market_data.timezone: %w", err)
	}
	switch strings.ToUpper(c.LLM.Provider) {
	case "CLAUDE", "OPENAI", "NONE":
	default:
		return fmt.Errorf("llm.provider must be 'CLAUDE', 'OPENAI' or 'NONE', got '%s'", c.LLM.Provider)
	}
	if c.Engine.MinATR < 0 {
		return fmt.Errorf("engine.min_atr must be >= 0, got %.4f", c.Engine.MinATR)
	}
	if c.Storage.CacheTTLSeconds < 0 {
		return fmt.Errorf("storage.cache_ttl_seconds must be >= 0, got %d", c.Storage.CacheTTLSeconds)
	}
	return nil
}

// Location is the exchange timezone used for intraday VWAP resets.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MarketData.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	for i, t := range c.Universe {
		c.Universe[i] = strings.ToUpper(strings.TrimSpace(t))
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
