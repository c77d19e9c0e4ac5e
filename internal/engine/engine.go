package engine

import (
	"context"
	"sort"
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/ta"
	"mtf-trading-bot/internal/types"
)

// Reasons a trade type produced no plan.
const (
	SkipMissingTimeframe     = "missing_timeframe"
	SkipInsufficientData     = "insufficient_data"
	SkipNoDirection          = "no_direction"
	SkipDegenerateVolatility = "degenerate_volatility"
)

type Options struct {
	// MinATR is the ATR at or below which no plan is emitted.
	MinATR           float64
	RationaleTimeout time.Duration
	// Location sets the calendar day for intraday VWAP resets.
	Location *time.Location
	Now      func() time.Time
}

// profile fixes the timeframe labels and VWAP use per trade type.
type profile struct {
	tradeType types.TradeType
	labels    [3]string
	vwap      bool
}

var (
	dayProfile   = profile{tradeType: types.TradeDay, labels: [3]string{"1h", "15m", "5m"}, vwap: true}
	swingProfile = profile{tradeType: types.TradeSwing, labels: [3]string{"weekly", "daily", "4h"}, vwap: false}
)

type Engine struct {
	opts      Options
	rationale rationaleGenerator
}

var _ interfaces.Analyzer = (*Engine)(nil)

func newEngine(writer interfaces.RationaleWriter, opts Options) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		opts:      opts,
		rationale: rationaleGenerator{writer: writer, timeout: opts.RationaleTimeout},
	}
}

// Analyze evaluates each requested trade type and ranks the resulting plans.
// A result with no plans is a normal outcome. The only error is a done context.
func (e *Engine) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, error) {
	scope := req.Scope
	if scope == "" {
		scope = types.ScopeBoth
	}
	result := types.AnalysisResult{
		Ticker: req.Ticker,
		Plans:  make([]types.TradePlan, 0, 2),
	}

	for _, p := range []profile{dayProfile, swingProfile} {
		if !scope.Includes(p.tradeType) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return types.AnalysisResult{}, err
		}
		set := req.Day
		if p.tradeType == types.TradeSwing {
			set = req.Swing
		}
		plan, reason := e.evaluate(ctx, req.Ticker, p, set, req.News)
		if reason != "" {
			logger.NoPlan(ctx, req.Ticker, string(p.tradeType), reason)
			continue
		}
		logger.Plan(ctx, req.Ticker, string(plan.TradeType), string(plan.Direction), plan.Confidence,
			"entry", plan.Entry,
			"stop", plan.Stop,
			"target", plan.Target,
			"edges", len(plan.EdgesApplied),
		)
		result.Plans = append(result.Plans, plan)
	}

	sort.SliceStable(result.Plans, func(i, j int) bool {
		return result.Plans[i].Confidence > result.Plans[j].Confidence
	})
	result.TotalPlans = len(result.Plans)
	if result.TotalPlans > 0 {
		result.HighestConfidence = result.Plans[0].Confidence
	}
	result.AnalysisTimestamp = e.opts.Now()
	return result, nil
}

// evaluate builds the plan for one trade type or returns why it could not.
func (e *Engine) evaluate(ctx context.Context, ticker string, p profile, set types.TimeframeSet, news *types.NewsSummary) (types.TradePlan, string) {
	if !set.Complete() {
		return types.TradePlan{}, SkipMissingTimeframe
	}

	opts := ta.DefaultOptions()
	opts.IncludeVWAP = p.vwap
	opts.Location = e.opts.Location

	higherOv := ta.ComputeAll(set.Higher, opts)
	middleOv := ta.ComputeAll(set.Middle, opts)
	lowerOv := ta.ComputeAll(set.Lower, opts)

	snaps := types.TimeframeSnapshots{
		Higher: ta.Summarize(higherOv, p.labels[0]),
		Middle: ta.Summarize(middleOv, p.labels[1]),
		Lower:  ta.Summarize(lowerOv, p.labels[2]),
	}
	if !snaps.Higher.Valid || !snaps.Middle.Valid || !snaps.Lower.Valid {
		return types.TradePlan{}, SkipInsufficientData
	}

	dir := ResolveDirection(snaps.Higher, snaps.Middle)
	if dir == types.DirectionNone {
		return types.TradePlan{}, SkipNoDirection
	}

	atr := lowerOv.LatestATR()
	if degenerate(atr, e.opts.MinATR) {
		return types.TradePlan{}, SkipDegenerateVolatility
	}
	lv := ComputeLevels(lowerOv.Latest(), atr, dir)
	if lv.collapsed(dir) {
		return types.TradePlan{}, SkipDegenerateVolatility
	}

	edges := ApplyEdges(snaps.Higher, snaps.Middle, snaps.Lower, lowerOv, dir, p.tradeType)
	confidence := Score(snaps.Higher, snaps.Middle, snaps.Lower, dir, edges, news)

	rationale := e.rationale.generate(ctx, types.RationaleFacts{
		Ticker:    ticker,
		TradeType: p.tradeType,
		Direction: dir,
		Signals:   snaps,
		Edges:     edges,
		News:      news,
	})

	return types.TradePlan{
		Ticker:       ticker,
		TradeType:    p.tradeType,
		Direction:    dir,
		Entry:        lv.Entry,
		Stop:         lv.Stop,
		Target:       lv.Target,
		Target2:      lv.Target2,
		RiskReward:   lv.RiskReward,
		RiskPct:      lv.riskPct(),
		RewardPct:    lv.rewardPct(),
		Confidence:   confidence,
		EdgesApplied: edges,
		Rationale:    rationale,
		RiskNotes:    riskNotes(lv, set.MarketBias, p.tradeType),
		ATRValue:     snaps.Lower.ATR,
		Timeframes:   snaps,
	}, ""
}
