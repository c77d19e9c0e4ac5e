package noop

import (
	"context"

	"mtf-trading-bot/internal/engine"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/types"
)

// Writer is used when no text-generation provider is configured. It returns
// the deterministic template text.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteRationale(ctx context.Context, facts types.RationaleFacts) (string, error) {
	logger.Debug(ctx, "Noop rationale writer called", "ticker", facts.Ticker, "trade_type", facts.TradeType)
	return engine.TemplateRationale(facts), nil
}
