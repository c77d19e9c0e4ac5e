package marketdataobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/marketdata"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/types"
)

// observableProvider wraps a Provider with observability (logging & tracing)
type observableProvider struct {
	provider marketdata.Provider
}

// Compile-time interface check
var _ marketdata.Provider = (*observableProvider)(nil)

// Wrap wraps a provider with observability middleware
func Wrap(p marketdata.Provider) marketdata.Provider {
	return &observableProvider{provider: p}
}

func (op *observableProvider) Name() string {
	return op.provider.Name()
}

// Candles fetches bars with observability
func (op *observableProvider) Candles(ctx context.Context, symbol string, iv marketdata.Interval, from, to time.Time) (*types.Series, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.Candles")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", op.provider.Name()),
		attribute.String("symbol", symbol),
		attribute.String("interval", string(iv)),
	)

	logger.DebugSkip(ctx, 1, "Fetching candles", "provider", op.provider.Name(), "symbol", symbol, "interval", iv)

	start := time.Now()
	s, err := op.provider.Candles(ctx, symbol, iv, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.DebugSkip(ctx, 1, "Candle fetch failed", "provider", op.provider.Name(), "symbol", symbol, "interval", iv, "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("bars", s.Len()))
	logger.DebugSkip(ctx, 1, "Candles fetched successfully",
		"provider", op.provider.Name(),
		"symbol", symbol,
		"interval", iv,
		"bars", s.Len(),
		"has_volume", s.HasVolume,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return s, nil
}
