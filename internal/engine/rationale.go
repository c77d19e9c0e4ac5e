package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/types"
)

var errEmptyRationale = errors.New("rationale writer returned empty text")

type rationaleGenerator struct {
	writer  interfaces.RationaleWriter
	timeout time.Duration
}

// generate asks the writer first and falls back to the template on any
// failure. The writer's error never reaches the caller.
func (g rationaleGenerator) generate(ctx context.Context, facts types.RationaleFacts) string {
	if g.writer == nil {
		return TemplateRationale(facts)
	}
	ctx, span := trace.StartSpan(ctx, "rationale.Generate")
	defer span.End()

	text, err := g.call(ctx, facts)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = errEmptyRationale
		}
	}
	if err != nil {
		logger.Warn(ctx, "Rationale generation failed, using template",
			"ticker", facts.Ticker,
			"trade_type", facts.TradeType,
			"error", err,
		)
		return TemplateRationale(facts)
	}
	return text
}

func (g rationaleGenerator) call(ctx context.Context, facts types.RationaleFacts) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: fmt.Errorf("rationale writer panicked: %v", r)}
			}
		}()
		text, err := g.writer.WriteRationale(ctx, facts)
		ch <- reply{text: text, err: err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// TemplateRationale is the deterministic explanation used when no writer is
// available or the writer fails.
func TemplateRationale(facts types.RationaleFacts) string {
	higher, middle := facts.Signals.Higher, facts.Signals.Middle
	trend := fmt.Sprintf("%s setup with %s %s trend confirmed by %s momentum",
		facts.Direction.Title(), higher.Timeframe, higher.Trend(), middle.Timeframe)

	names := make([]string, 0, len(facts.Edges))
	for _, e := range facts.Edges {
		names = append(names, e.Name)
	}
	edgeDesc := "Basic setup without additional edge confirmation"
	if len(names) > 0 {
		edgeDesc = fmt.Sprintf("Strong conviction with %d edge(s): %s",
			len(names), strings.Join(names[:min(2, len(names))], ", "))
	}

	return fmt.Sprintf("%s. %s. %s.", trend, edgeDesc, newsDescription(facts.News, facts.Direction))
}

func newsDescription(news *types.NewsSummary, dir types.Direction) string {
	sentiment := news.Overall()
	switch NewsAdjustment(news, dir) {
	case 1:
		return fmt.Sprintf("News sentiment is %s, aligned with the trade direction", sentiment)
	case -1:
		return fmt.Sprintf("News sentiment is %s, conflicting with the trade direction", sentiment)
	}
	return "News sentiment neutral"
}

// riskNotes summarizes position risk for the plan.
func riskNotes(lv Levels, bias *types.Series, tradeType types.TradeType) string {
	notes := []string{
		fmt.Sprintf("Risk %.1fR (Entry to stop = $%.2f)", lv.RiskReward, lv.R),
		"Risk 1-2% of capital per trade",
		fmt.Sprintf("ATR: $%.2f (volatility measure)", lv.ATR),
	}
	if bias.Len() > 0 {
		symbol := bias.Symbol
		if symbol == "" {
			symbol = "SPY"
		}
		notes = append(notes, fmt.Sprintf("Monitor %s for market context", symbol))
	}
	if tradeType == types.TradeDay {
		notes = append(notes, "Avoid 11:30 AM - 1:30 PM EST low-volume window")
	}
	return strings.Join(notes, "; ")
}
