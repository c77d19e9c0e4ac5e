package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/store"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/types"
)

// roleIntervals are the higher/middle/lower bar widths per trade type.
var roleIntervals = map[types.TradeType][3]Interval{
	types.TradeDay:   {Interval1h, Interval15m, Interval5m},
	types.TradeSwing: {Interval1w, Interval1d, Interval4h},
}

type FetcherOptions struct {
	BiasSymbol    string
	DayLookback   int // calendar days for intraday bars
	SwingLookback int // calendar days for daily bars
	Location      *time.Location
	CacheTTL      time.Duration
	Now           func() time.Time
}

// Fetcher assembles the timeframe sets the engine consumes.
type Fetcher struct {
	provider Provider
	opts     FetcherOptions
	cache    *seriesCache
}

var _ interfaces.MarketData = (*Fetcher)(nil)

func NewFetcher(p Provider, opts FetcherOptions) *Fetcher {
	if opts.DayLookback <= 0 {
		opts.DayLookback = 5
	}
	if opts.SwingLookback <= 0 {
		opts.SwingLookback = 365
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Fetcher{
		provider: p,
		opts:     opts,
		cache:    newSeriesCache(opts.CacheTTL),
	}
}

// FetcherOptionsFrom maps the market_data section of the bot config.
func FetcherOptionsFrom(cfg *store.Config) FetcherOptions {
	return FetcherOptions{
		BiasSymbol:    cfg.MarketData.BiasSymbol,
		DayLookback:   cfg.MarketData.DayLookback,
		SwingLookback: cfg.MarketData.SwingLookback,
		Location:      cfg.Location(),
		CacheTTL:      time.Duration(cfg.Storage.CacheTTLSeconds) * time.Second,
	}
}

func (f *Fetcher) lookback(iv Interval) time.Duration {
	day := 24 * time.Hour
	switch iv {
	case Interval5m, Interval15m:
		return time.Duration(f.opts.DayLookback) * day
	case Interval1h:
		return time.Duration(max(f.opts.DayLookback*4, 30)) * day
	case Interval4h:
		return 120 * day
	case Interval1w:
		return time.Duration(f.opts.SwingLookback*2) * day
	default:
		return time.Duration(f.opts.SwingLookback) * day
	}
}

// FetchTimeframes fetches the three role series concurrently. A role the
// providers cannot supply is left nil; an error is returned only when every
// role failed or ctx was cancelled.
func (f *Fetcher) FetchTimeframes(ctx context.Context, ticker string, tradeType types.TradeType) (types.TimeframeSet, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.FetchTimeframes")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticker", ticker),
		attribute.String("trade_type", string(tradeType)),
	)

	ivs, ok := roleIntervals[tradeType]
	if !ok {
		return types.TimeframeSet{}, fmt.Errorf("unknown trade type %q", tradeType)
	}

	var (
		series [3]*types.Series
		errs   [3]error
		bias   *types.Series
		wg     sync.WaitGroup
	)
	for i, iv := range ivs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			series[i], errs[i] = f.series(ctx, ticker, iv)
		}()
	}
	if f.opts.BiasSymbol != "" && !strings.EqualFold(f.opts.BiasSymbol, ticker) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := f.series(ctx, f.opts.BiasSymbol, ivs[1])
			if err != nil {
				logger.Debug(ctx, "Market bias series unavailable", "symbol", f.opts.BiasSymbol, "error", err)
				return
			}
			bias = s
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return types.TimeframeSet{}, err
	}
	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			logger.Warn(ctx, "Timeframe unavailable", "ticker", ticker, "trade_type", tradeType, "interval", ivs[i], "error", err)
		}
	}
	if failed == len(ivs) {
		return types.TimeframeSet{}, fmt.Errorf("fetch %s %s timeframes: %w", ticker, tradeType, errors.Join(errs[:]...))
	}

	return types.TimeframeSet{
		Higher:     series[0],
		Middle:     series[1],
		Lower:      series[2],
		MarketBias: bias,
	}, nil
}

// series fetches one interval, deriving 4h and weekly bars from finer bars
// when the provider does not serve them.
func (f *Fetcher) series(ctx context.Context, symbol string, iv Interval) (*types.Series, error) {
	now := f.opts.Now()
	if s, ok := f.cache.get(symbol, iv, now); ok {
		return s, nil
	}

	from := now.Add(-f.lookback(iv))
	s, err := f.provider.Candles(ctx, symbol, iv, from, now)
	if errors.Is(err, ErrUnsupportedInterval) {
		s, err = f.derive(ctx, symbol, iv, from, now)
	}
	if err != nil {
		return nil, err
	}
	f.cache.put(symbol, iv, s, now)
	return s, nil
}

func (f *Fetcher) derive(ctx context.Context, symbol string, iv Interval, from, to time.Time) (*types.Series, error) {
	var (
		base  Interval
		build func([]types.Candle) []types.Candle
	)
	switch iv {
	case Interval4h:
		base = Interval1h
		build = func(c []types.Candle) []types.Candle { return Resample(c, 4, f.opts.Location) }
	case Interval1w:
		base = Interval1d
		build = func(c []types.Candle) []types.Candle { return ResampleWeekly(c, f.opts.Location) }
	default:
		return nil, fmt.Errorf("%s: %w", iv, ErrUnsupportedInterval)
	}

	src, err := f.provider.Candles(ctx, symbol, base, from, to)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "Resampled series", "symbol", symbol, "from_interval", base, "to_interval", iv, "bars", src.Len())
	return &types.Series{
		Symbol:    symbol,
		Timeframe: string(iv),
		Candles:   build(src.Candles),
		HasVolume: src.HasVolume,
	}, nil
}

// ClearCache drops all cached series.
func (f *Fetcher) ClearCache() {
	f.cache.clear()
}
