package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/recorder"
	"mtf-trading-bot/internal/tradelog"
	"mtf-trading-bot/internal/types"
)

var (
	ErrInvalidTicker    = errors.New("ticker must be 1-5 alphabetic characters")
	ErrInvalidTradeType = errors.New("trade_type must be 'day', 'swing' or 'both'")
	// ErrMarketData means no requested trade type could be fetched.
	ErrMarketData = errors.New("market data unavailable")
)

// Runner drives one ticker through fetch, analysis and persistence.
type Runner struct {
	market   interfaces.MarketData
	news     interfaces.NewsProvider
	analyzer interfaces.Analyzer
	recorder interfaces.PlanRecorder
	journal  *tradelog.Journal
	cache    *recorder.AnalysisCache
}

type Option func(*Runner)

// WithNews attaches a news collaborator. Without one the engine gets no news.
func WithNews(n interfaces.NewsProvider) Option {
	return func(r *Runner) { r.news = n }
}

// WithJournal appends every recorded plan to the daily journal.
func WithJournal(j *tradelog.Journal) Option {
	return func(r *Runner) { r.journal = j }
}

func WithCache(c *recorder.AnalysisCache) Option {
	return func(r *Runner) { r.cache = c }
}

func New(market interfaces.MarketData, analyzer interfaces.Analyzer, rec interfaces.PlanRecorder, opts ...Option) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	r := &Runner{market: market, analyzer: analyzer, recorder: rec}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeTicker trims and upper-cases v and checks it is 1-5 letters.
func NormalizeTicker(v string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(v))
	if t == "" || len(t) > 5 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, v)
	}
	for _, r := range t {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidTicker, v)
		}
	}
	return t, nil
}

// Run analyzes ticker for the requested trade types. A cached response younger
// than the cache TTL is returned as-is with Cached set.
func (r *Runner) Run(ctx context.Context, ticker, tradeType string) (types.AnalysisResponse, error) {
	symbol, err := NormalizeTicker(ticker)
	if err != nil {
		return types.AnalysisResponse{}, err
	}
	scope, ok := types.ParseScope(tradeType)
	if !ok {
		return types.AnalysisResponse{}, fmt.Errorf("%w: got %q", ErrInvalidTradeType, tradeType)
	}

	if cached, ok := r.cache.Get(symbol, scope); ok {
		logger.Debug(ctx, "Returning cached analysis", "ticker", symbol, "trade_type", scope)
		cached.Cached = true
		return cached, nil
	}

	req := types.AnalysisRequest{Ticker: symbol, Scope: scope}
	var fetchErrs []error
	fetched := 0
	for _, tt := range []types.TradeType{types.TradeDay, types.TradeSwing} {
		if !scope.Includes(tt) {
			continue
		}
		set, err := r.market.FetchTimeframes(ctx, symbol, tt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return types.AnalysisResponse{}, ctxErr
			}
			logger.Warn(ctx, "Market data fetch failed", "ticker", symbol, "trade_type", tt, "error", err)
			fetchErrs = append(fetchErrs, fmt.Errorf("%s: %w", tt, err))
			continue
		}
		fetched++
		if tt == types.TradeDay {
			req.Day = set
		} else {
			req.Swing = set
		}
	}
	if fetched == 0 {
		return types.AnalysisResponse{}, fmt.Errorf("%w for %s: %w", ErrMarketData, symbol, errors.Join(fetchErrs...))
	}

	if r.news != nil {
		summary, err := r.news.Summary(ctx, symbol)
		if err != nil {
			logger.Warn(ctx, "News unavailable, continuing without it", "ticker", symbol, "error", err)
		} else {
			req.News = summary
		}
	}

	result, err := r.analyzer.Analyze(ctx, req)
	if err != nil {
		return types.AnalysisResponse{}, fmt.Errorf("analysis of %s: %w", symbol, err)
	}

	recorded, err := r.recorder.Record(ctx, result)
	if err != nil {
		return types.AnalysisResponse{}, fmt.Errorf("recording plans for %s: %w", symbol, err)
	}
	if r.journal != nil {
		if err := r.journal.Append(recorded); err != nil {
			logger.ErrorWithErr(ctx, "Failed to journal plans", err, "ticker", symbol)
		}
	}

	resp := types.AnalysisResponse{
		Ticker:             symbol,
		TradeTypeRequested: scope,
		Plans:              recorded,
		TotalPlans:         len(recorded),
		HighestConfidence:  result.HighestConfidence,
		AnalysisTimestamp:  result.AnalysisTimestamp,
	}
	if resp.AnalysisTimestamp.IsZero() {
		resp.AnalysisTimestamp = time.Now()
	}
	r.cache.Put(symbol, scope, resp)
	return resp, nil
}

// RunUniverse analyzes each ticker in turn. Failures are logged and skipped.
func (r *Runner) RunUniverse(ctx context.Context, tickers []string, tradeType string) []types.AnalysisResponse {
	op := logger.StartOperation(ctx, "pipeline.RunUniverse", "tickers", len(tickers), "trade_type", tradeType)
	ctx = op.GetContext()

	out := make([]types.AnalysisResponse, 0, len(tickers))
	failed := 0
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			op.EndWithError(err, "completed", len(out))
			return out
		}
		resp, err := r.Run(ctx, t, tradeType)
		if err != nil {
			logger.ErrorWithErr(ctx, "Analysis failed", err, "ticker", t)
			failed++
			continue
		}
		out = append(out, resp)
	}
	op.End("completed", len(out), "failed", failed)
	return out
}
