package llm

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"mtf-trading-bot/internal/types"
)

var (
	ErrMissingAPIKey = errors.New("llm api key missing")
	ErrEmptyOutput   = errors.New("llm returned empty output")
)

const (
	DefaultMaxChars = 600
	SystemPrompt    = "You are a professional trading analyst. Provide concise, actionable trade rationales."
)

// BuildRationalePrompt renders the plan facts as the user prompt.
func BuildRationalePrompt(f types.RationaleFacts) string {
	higher, middle, lower := f.Signals.Higher, f.Signals.Middle, f.Signals.Lower

	edges := "None"
	if len(f.Edges) > 0 {
		names := make([]string, 0, len(f.Edges))
		for _, e := range f.Edges {
			if e.Applied {
				names = append(names, e.Name)
			}
		}
		edges = strings.Join(names, ", ")
	}

	trigger := "Not triggered"
	if lower.Trigger(f.Direction) {
		trigger = "Triggered"
	}

	var news string
	if top, ok := f.News.TopHeadline(); ok {
		news = fmt.Sprintf("\n\nRecent News: %s (Sentiment: %s)", top.Title, f.News.Overall())
	}

	var b strings.Builder
	b.WriteString("Generate a concise 2-3 sentence trade rationale for this setup:\n\n")
	fmt.Fprintf(&b, "**Ticker**: %s\n", f.Ticker)
	fmt.Fprintf(&b, "**Trade Type**: %s Trade\n", title(string(f.TradeType)))
	fmt.Fprintf(&b, "**Direction**: %s\n\n", strings.ToUpper(string(f.Direction)))
	b.WriteString("**Technical Setup**:\n")
	fmt.Fprintf(&b, "- Higher TF (%s) Trend: %s (EMA20: %.2f, EMA50: %.2f)\n", higher.Timeframe, higher.Trend(), higher.EMA20, higher.EMA50)
	fmt.Fprintf(&b, "- Middle TF (%s) Momentum: %s (RSI: %.2f)\n", middle.Timeframe, middle.Momentum(), middle.RSI)
	fmt.Fprintf(&b, "- Lower TF (%s) Entry: %s\n", lower.Timeframe, trigger)
	fmt.Fprintf(&b, "- Applied Edges: %s%s\n\n", edges, news)
	b.WriteString("Write 2-3 sentences explaining:\n")
	b.WriteString("1. What timeframe alignment supports this trade\n")
	b.WriteString("2. Which edge(s) provide additional confirmation\n")
	b.WriteString("3. Any risks or considerations\n\n")
	b.WriteString("Be direct and specific. No disclaimers or fluff.")
	return b.String()
}

// Sanitize trims model output and bounds it to maxChars runes, cutting at the
// last sentence end when one exists.
func Sanitize(text string, maxChars int) (string, error) {
	out := strings.TrimSpace(text)
	out = strings.Trim(out, "\"")
	out = strings.Join(strings.Fields(out), " ")
	if out == "" {
		return "", ErrEmptyOutput
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if utf8.RuneCountInString(out) <= maxChars {
		return out, nil
	}
	cut := string([]rune(out)[:maxChars])
	if i := strings.LastIndex(cut, ". "); i > 0 {
		return cut[:i+1], nil
	}
	return strings.TrimSpace(cut), nil
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
