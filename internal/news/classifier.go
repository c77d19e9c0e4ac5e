package news

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"mtf-trading-bot/internal/types"
)

// dedupKeyLen is how much of a normalized headline identifies a story.
const dedupKeyLen = 50

var positiveWords = []string{
	"surge", "gain", "profit", "growth", "record", "beat", "exceed",
	"strong", "rise", "jump", "rally", "breakthrough", "success",
	"upgrade", "bullish", "optimistic", "outperform",
}

var negativeWords = []string{
	"loss", "decline", "drop", "fall", "crash", "plunge", "miss",
	"weak", "concern", "risk", "warning", "downgrade", "bearish",
	"pessimistic", "underperform", "layoff", "cut", "lawsuit",
}

// Classify labels an article by counting keyword hits in its headline and
// summary. Ties are neutral.
func Classify(headline, summary string) types.Sentiment {
	text := strings.ToLower(headline + " " + summary)

	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return types.SentimentPositive
	case neg > pos:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

// Summarize aggregates per-article labels into an overall sentiment.
func Summarize(articles []types.NewsArticle) *types.SentimentSummary {
	s := &types.SentimentSummary{Overall: types.SentimentNeutral}
	if len(articles) == 0 {
		s.Description = "0.0% positive, 0.0% negative"
		return s
	}

	for _, a := range articles {
		switch a.Sentiment {
		case types.SentimentPositive:
			s.Positive++
		case types.SentimentNegative:
			s.Negative++
		default:
			s.Neutral++
		}
	}

	total := float64(len(articles))
	s.PositivePct = math.Round(float64(s.Positive)/total*1000) / 10
	s.NegativePct = math.Round(float64(s.Negative)/total*1000) / 10

	switch {
	case s.PositivePct > 60:
		s.Overall = types.SentimentPositive
	case s.NegativePct > 60:
		s.Overall = types.SentimentNegative
	case s.PositivePct > s.NegativePct+20:
		s.Overall = types.SentimentPositive
	case s.NegativePct > s.PositivePct+20:
		s.Overall = types.SentimentNegative
	}
	s.Description = fmt.Sprintf("%.1f%% positive, %.1f%% negative", s.PositivePct, s.NegativePct)
	return s
}

func normalizeTitle(title string) string {
	key := strings.ToLower(strings.Join(strings.Fields(title), " "))
	if r := []rune(key); len(r) > dedupKeyLen {
		key = string(r[:dedupKeyLen])
	}
	return key
}

// Dedupe keeps the first article seen for each normalized headline.
func Dedupe(articles []types.NewsArticle) []types.NewsArticle {
	seen := make(map[string]struct{}, len(articles))
	out := make([]types.NewsArticle, 0, len(articles))
	for _, a := range articles {
		key := normalizeTitle(a.Title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Rank orders articles newest first. Undated articles sort last.
func Rank(articles []types.NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
