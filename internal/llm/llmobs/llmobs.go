package llmobs

import (
	"context"
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/types"
)

// observableWriter wraps a RationaleWriter with logging and tracing
type observableWriter struct {
	writer   interfaces.RationaleWriter
	provider string
}

var _ interfaces.RationaleWriter = (*observableWriter)(nil)

func Wrap(w interfaces.RationaleWriter, provider string) interfaces.RationaleWriter {
	return &observableWriter{
		writer:   w,
		provider: provider,
	}
}

func (ow *observableWriter) WriteRationale(ctx context.Context, facts types.RationaleFacts) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.WriteRationale")
	defer span.End()

	start := time.Now()
	// DebugSkip(1) reports the engine as the caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting rationale",
		"provider", ow.provider,
		"ticker", facts.Ticker,
		"trade_type", facts.TradeType,
		"direction", facts.Direction,
		"edges", len(facts.Edges),
	)

	text, err := ow.writer.WriteRationale(ctx, facts)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Rationale request failed", err,
			"provider", ow.provider,
			"ticker", facts.Ticker,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Rationale received",
		"provider", ow.provider,
		"ticker", facts.Ticker,
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
