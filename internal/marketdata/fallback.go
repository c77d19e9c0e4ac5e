package marketdata

import (
	"context"
	"errors"
	"strings"
	"time"

	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/types"
)

// FallbackProvider tries each provider in order and returns the first
// non-empty series.
type FallbackProvider struct {
	providers []Provider
}

var _ Provider = (*FallbackProvider)(nil)

func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	return &FallbackProvider{providers: providers}
}

func (f *FallbackProvider) Name() string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, ">")
}

func (f *FallbackProvider) Candles(ctx context.Context, symbol string, iv Interval, from, to time.Time) (*types.Series, error) {
	if len(f.providers) == 0 {
		return nil, ErrNoProviders
	}

	var errs []error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := p.Candles(ctx, symbol, iv, from, to)
		if err == nil && s.Len() > 0 {
			return s, nil
		}
		if err == nil {
			err = ErrNoData
		}
		if !errors.Is(err, ErrUnsupportedInterval) {
			logger.Debug(ctx, "Provider failed, trying next", "provider", p.Name(), "symbol", symbol, "interval", iv, "error", err)
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
