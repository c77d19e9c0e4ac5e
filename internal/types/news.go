package types

import "time"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// NewsArticle is one scraped or fetched article.
type NewsArticle struct {
	Title       string    `json:"headline"`
	URL         string    `json:"url"`
	Content     string    `json:"summary,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Symbol      string    `json:"symbol"`
	Sentiment   Sentiment `json:"sentiment"`
}

type SentimentSummary struct {
	Overall     Sentiment `json:"overall"`
	Positive    int       `json:"positive"`
	Negative    int       `json:"negative"`
	Neutral     int       `json:"neutral"`
	PositivePct float64   `json:"positive_pct"`
	NegativePct float64   `json:"negative_pct"`
	Description string    `json:"description"`
}

// NewsSummary is the news collaborator's output. A nil summary or a nil
// SentimentSummary means no adjustment.
type NewsSummary struct {
	Ticker           string            `json:"ticker"`
	Articles         []NewsArticle     `json:"articles"`
	SentimentSummary *SentimentSummary `json:"sentiment_summary,omitempty"`
	FetchedAt        time.Time         `json:"fetched_at"`
}

func (n *NewsSummary) Overall() Sentiment {
	if n == nil || n.SentimentSummary == nil || n.SentimentSummary.Overall == "" {
		return SentimentNeutral
	}
	return n.SentimentSummary.Overall
}

// TopHeadline returns the highest-ranked article, if any.
func (n *NewsSummary) TopHeadline() (NewsArticle, bool) {
	if n == nil || len(n.Articles) == 0 {
		return NewsArticle{}, false
	}
	return n.Articles[0], true
}
