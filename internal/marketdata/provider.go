package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"mtf-trading-bot/internal/types"
)

// Interval is a bar width label.
type Interval string

const (
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1wk"
)

// Duration is the nominal width of one bar.
func (iv Interval) Duration() time.Duration {
	switch iv {
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval1d:
		return 24 * time.Hour
	case Interval1w:
		return 7 * 24 * time.Hour
	}
	return 0
}

var (
	ErrNoData              = errors.New("no data returned")
	ErrNoProviders         = errors.New("no market data providers configured")
	ErrUnsupportedInterval = errors.New("interval not supported by provider")
)

// ProviderError tags a failure with the provider that produced it.
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Provider supplies OHLCV bars for one symbol and interval in [from, to].
type Provider interface {
	Name() string
	Candles(ctx context.Context, symbol string, iv Interval, from, to time.Time) (*types.Series, error)
}

// normalize sorts bars by time, drops duplicate timestamps (keeping the
// later bar) and reports whether any bar carries volume.
func normalize(candles []types.Candle) ([]types.Candle, bool) {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Ts < candles[j].Ts })

	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].Ts == c.Ts {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}

	hasVolume := false
	for _, c := range out {
		if c.Vol > 0 {
			hasVolume = true
			break
		}
	}
	return out, hasVolume
}

func newSeries(symbol string, iv Interval, candles []types.Candle) (*types.Series, error) {
	candles, hasVolume := normalize(candles)
	if len(candles) == 0 {
		return nil, ErrNoData
	}
	return &types.Series{
		Symbol:    symbol,
		Timeframe: string(iv),
		Candles:   candles,
		HasVolume: hasVolume,
	}, nil
}
