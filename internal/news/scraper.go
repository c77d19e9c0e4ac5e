package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/types"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Source describes one headline listing page.
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // e.g. "/quote/{symbol}/news"
	Selectors  ArticleSelectors
	Delay      time.Duration
}

// ArticleSelectors are CSS selectors relative to each article container.
type ArticleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	Content          string
	PublishedAt      string
}

// Scraper collects headlines from a list of sources with colly.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

func NewScraper(timeout time.Duration, sources ...Source) *Scraper {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &Scraper{
		sources: sources,
		timeout: timeout,
	}
}

func DefaultSources() []Source {
	return []Source{
		{
			Name:       "YahooFinance",
			BaseURL:    "https://finance.yahoo.com",
			SearchPath: "/quote/{symbol}/news",
			Selectors: ArticleSelectors{
				ArticleContainer: "li.stream-item",
				Title:            "h3",
				URL:              "a",
				Content:          "p",
				PublishedAt:      "time",
			},
			Delay: 2 * time.Second,
		},
		{
			Name:       "Finviz",
			BaseURL:    "https://finviz.com",
			SearchPath: "/quote.ashx?t={symbol}",
			Selectors: ArticleSelectors{
				ArticleContainer: "table#news-table tr",
				Title:            "a.tab-link-news",
				URL:              "a.tab-link-news",
				PublishedAt:      "td:first-child",
			},
			Delay: 2 * time.Second,
		},
		{
			Name:       "MarketWatch",
			BaseURL:    "https://www.marketwatch.com",
			SearchPath: "/investing/stock/{symbol}",
			Selectors: ArticleSelectors{
				ArticleContainer: "div.article__content",
				Title:            "h3.article__headline",
				URL:              "a.link",
				Content:          "p.article__summary",
				PublishedAt:      "span.article__timestamp",
			},
			Delay: 2 * time.Second,
		},
	}
}

// Scrape fetches up to maxArticles headlines for symbol across all sources.
// It fails only when every source fails.
func (s *Scraper) Scrape(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	logger.Debug(ctx, "Starting news scraping", "symbol", symbol, "sources", len(s.sources))

	perSource := max(maxArticles/len(s.sources), 1)
	var all []types.NewsArticle
	var errs []error
	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		articles, err := s.scrapeSource(ctx, src, symbol, perSource)
		if err != nil {
			logger.Warn(ctx, "Failed to scrape source", "source", src.Name, "symbol", symbol, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
			continue
		}
		all = append(all, articles...)
	}

	if len(errs) == len(s.sources) {
		return nil, errors.Join(errs...)
	}
	logger.Debug(ctx, "News scraping completed", "symbol", symbol, "articles", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src Source, symbol string, limit int) ([]types.NewsArticle, error) {
	var articles []types.NewsArticle

	c := colly.NewCollector(
		colly.AllowedDomains(hostname(src.BaseURL)),
		colly.MaxDepth(1),
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)
	if src.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: src.Delay}); err != nil {
			return nil, err
		}
	}

	sel := src.Selectors
	c.OnHTML(sel.ArticleContainer, func(e *colly.HTMLElement) {
		if len(articles) >= limit {
			return
		}
		a, ok := extractArticle(e.DOM, sel, src)
		if !ok {
			return
		}
		a.Symbol = symbol
		articles = append(articles, a)
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	target := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{symbol}", url.PathEscape(strings.ToUpper(symbol)))
	if err := c.Visit(target); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", target, err)
	}
	c.Wait()
	if visitErr != nil {
		return nil, visitErr
	}
	return articles, nil
}

func extractArticle(dom *goquery.Selection, sel ArticleSelectors, src Source) (types.NewsArticle, bool) {
	title := strings.TrimSpace(dom.Find(sel.Title).First().Text())
	if title == "" {
		return types.NewsArticle{}, false
	}
	href, _ := dom.Find(sel.URL).First().Attr("href")
	if href == "" {
		return types.NewsArticle{}, false
	}
	if base, err := url.Parse(src.BaseURL); err == nil {
		if ref, err := url.Parse(href); err == nil {
			href = base.ResolveReference(ref).String()
		}
	}

	var content string
	if sel.Content != "" {
		content = strings.Join(strings.Fields(dom.Find(sel.Content).First().Text()), " ")
	}

	var published time.Time
	if sel.PublishedAt != "" {
		node := dom.Find(sel.PublishedAt).First()
		raw, ok := node.Attr("datetime")
		if !ok {
			raw = node.Text()
		}
		published = parsePublished(strings.TrimSpace(raw))
	}

	return types.NewsArticle{
		Title:       title,
		URL:         href,
		Content:     content,
		Source:      src.Name,
		PublishedAt: published,
		Sentiment:   Classify(title, content),
	}, true
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"Jan-02-06 03:04PM",
	"Jan 2, 2006 3:04 p.m. MST",
	"2006-01-02",
}

// parsePublished returns the zero time for formats it cannot read.
func parsePublished(raw string) time.Time {
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
