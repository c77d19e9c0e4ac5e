package news

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/store"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/types"
)

// ArticleSource supplies raw articles for a symbol.
type ArticleSource interface {
	Scrape(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error)
}

// Service provides cached news summaries
type Service struct {
	source ArticleSource
	cache  *summaryCache
	cfg    *ServiceConfig
	now    func() time.Time
}

var _ interfaces.NewsProvider = (*Service)(nil)

// ServiceConfig configures the news service
type ServiceConfig struct {
	MaxArticles    int           // articles kept per summary
	CacheDuration  time.Duration // how long a summary is reused
	ScraperTimeout time.Duration
	Enabled        bool
}

func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxArticles:    10,
		CacheDuration:  1 * time.Hour,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	}
}

// ServiceConfigFrom maps the news section of the bot config.
func ServiceConfigFrom(cfg *store.Config) *ServiceConfig {
	sc := DefaultServiceConfig()
	sc.Enabled = cfg.News.Enabled
	if cfg.News.MaxArticles > 0 {
		sc.MaxArticles = cfg.News.MaxArticles
	}
	if cfg.News.CacheMinutes > 0 {
		sc.CacheDuration = time.Duration(cfg.News.CacheMinutes) * time.Minute
	}
	return sc
}

type summaryCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	summary   *types.NewsSummary
	timestamp time.Time
}

func newSummaryCache(ttl time.Duration) *summaryCache {
	return &summaryCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

func (c *summaryCache) get(symbol string, now time.Time) (*types.NewsSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[symbol]
	if !ok || now.Sub(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.summary, true
}

// set stores a summary and drops anything already expired
func (c *summaryCache) set(symbol string, summary *types.NewsSummary, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for sym, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, sym)
		}
	}
	c.data[symbol] = &cacheEntry{summary: summary, timestamp: now}
}

func (c *summaryCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// NewService builds a service over the default colly scraper.
func NewService(cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return NewServiceWithSource(NewScraper(cfg.ScraperTimeout), cfg)
}

func NewServiceWithSource(source ArticleSource, cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		source: source,
		cache:  newSummaryCache(cfg.CacheDuration),
		cfg:    cfg,
		now:    time.Now,
	}
}

// Summary returns the ranked, deduplicated headlines for ticker with an
// aggregate sentiment. A disabled service returns nil, which callers treat
// as neutral news.
func (s *Service) Summary(ctx context.Context, ticker string) (*types.NewsSummary, error) {
	if !s.cfg.Enabled {
		return nil, nil
	}
	ctx, span := trace.StartSpan(ctx, "news.Summary")
	defer span.End()

	ticker = strings.ToUpper(ticker)
	now := s.now()
	if cached, ok := s.cache.get(ticker, now); ok {
		logger.Debug(ctx, "Using cached news summary", "ticker", ticker,
			"age_minutes", now.Sub(cached.FetchedAt).Minutes())
		return cached, nil
	}

	articles, err := s.source.Scrape(ctx, ticker, s.cfg.MaxArticles*2)
	if err != nil {
		return nil, fmt.Errorf("news for %s: %w", ticker, err)
	}

	summary := s.build(ticker, articles, now)
	s.cache.set(ticker, summary, now)

	logger.Info(ctx, "News summary built", "ticker", ticker,
		"articles", len(summary.Articles),
		"overall", summary.SentimentSummary.Overall,
		"description", summary.SentimentSummary.Description)
	return summary, nil
}

func (s *Service) build(ticker string, articles []types.NewsArticle, now time.Time) *types.NewsSummary {
	unique := Dedupe(articles)
	for i := range unique {
		if unique[i].Sentiment == "" {
			unique[i].Sentiment = Classify(unique[i].Title, unique[i].Content)
		}
	}
	Rank(unique)

	sentiment := Summarize(unique)
	if len(unique) > s.cfg.MaxArticles {
		unique = unique[:s.cfg.MaxArticles]
	}
	return &types.NewsSummary{
		Ticker:           ticker,
		Articles:         unique,
		SentimentSummary: sentiment,
		FetchedAt:        now,
	}
}

// Enabled reports whether the service will fetch news at all.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled
}

func (s *Service) ClearCache() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	s.cache.data = make(map[string]*cacheEntry)
}
