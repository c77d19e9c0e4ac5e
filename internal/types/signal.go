package types

import (
	"strings"
	"time"
)

type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
	BiasUnknown Bias = "unknown"
)

type VWAPPosition string

const (
	VWAPAbove   VWAPPosition = "above"
	VWAPBelow   VWAPPosition = "below"
	VWAPUnknown VWAPPosition = "unknown"
)

type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionNone  Direction = "none"
)

// Polarity is the bias a timeframe must show to agree with the direction.
func (d Direction) Polarity() Bias {
	switch d {
	case DirectionLong:
		return BiasBullish
	case DirectionShort:
		return BiasBearish
	}
	return BiasUnknown
}

func (d Direction) Title() string {
	s := string(d)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type TradeType string

const (
	TradeDay   TradeType = "day"
	TradeSwing TradeType = "swing"
)

// TradeScope is the requested sub-type set: day, swing or both.
type TradeScope string

const (
	ScopeDay   TradeScope = "day"
	ScopeSwing TradeScope = "swing"
	ScopeBoth  TradeScope = "both"
)

func (s TradeScope) Includes(t TradeType) bool {
	return s == ScopeBoth || string(s) == string(t)
}

func ParseScope(v string) (TradeScope, bool) {
	switch TradeScope(strings.ToLower(strings.TrimSpace(v))) {
	case ScopeDay:
		return ScopeDay, true
	case ScopeSwing:
		return ScopeSwing, true
	case ScopeBoth, "":
		return ScopeBoth, true
	}
	return "", false
}

type Divergence string

const (
	DivergenceNone    Divergence = ""
	DivergenceBullish Divergence = "bullish"
	DivergenceBearish Divergence = "bearish"
)

// Snapshot is the discrete reduction of one timeframe's overlay.
// When Valid is false every bias field reads as unknown.
type Snapshot struct {
	Timeframe    string       `json:"timeframe"`
	Valid        bool         `json:"valid"`
	Reason       string       `json:"reason,omitempty"`
	TrendBias    Bias         `json:"trend_bias"`
	MomentumBias Bias         `json:"momentum_bias"`
	EMA20        float64      `json:"ema20"`
	EMA50        float64      `json:"ema50"`
	EMA20Slope   float64      `json:"ema20_slope"`
	RSI          float64      `json:"rsi"`
	ATR          float64      `json:"atr"`
	VWAP         *float64     `json:"vwap,omitempty"`
	PriceVsVWAP  VWAPPosition `json:"price_vs_vwap"`
	Close        float64      `json:"close"`
	Volume       float64      `json:"volume"`
	LongTrigger  bool         `json:"long_trigger"`
	ShortTrigger bool         `json:"short_trigger"`
}

func InvalidSnapshot(timeframe, reason string) Snapshot {
	return Snapshot{
		Timeframe:    timeframe,
		Valid:        false,
		Reason:       reason,
		TrendBias:    BiasUnknown,
		MomentumBias: BiasUnknown,
		PriceVsVWAP:  VWAPUnknown,
	}
}

func (s Snapshot) Trend() Bias {
	if !s.Valid {
		return BiasUnknown
	}
	return s.TrendBias
}

func (s Snapshot) Momentum() Bias {
	if !s.Valid {
		return BiasUnknown
	}
	return s.MomentumBias
}

// Trigger reports whether the entry trigger for d fired on this timeframe.
func (s Snapshot) Trigger(d Direction) bool {
	if !s.Valid {
		return false
	}
	switch d {
	case DirectionLong:
		return s.LongTrigger
	case DirectionShort:
		return s.ShortTrigger
	}
	return false
}

// EdgeResult marks one confirmation filter that fired. Filters that did not
// fire are absent from the list.
type EdgeResult struct {
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

type TimeframeSnapshots struct {
	Higher Snapshot `json:"higher"`
	Middle Snapshot `json:"middle"`
	Lower  Snapshot `json:"lower"`
}

// TradePlan is the engine's output for one (ticker, trade type).
type TradePlan struct {
	Ticker       string             `json:"ticker"`
	TradeType    TradeType          `json:"trade_type"`
	Direction    Direction          `json:"direction"`
	Entry        float64            `json:"entry"`
	Stop         float64            `json:"stop"`
	Target       float64            `json:"target"`
	Target2      float64            `json:"target2"`
	RiskReward   float64            `json:"risk_reward"`
	RiskPct      float64            `json:"risk_pct"`
	RewardPct    float64            `json:"reward_pct"`
	Confidence   int                `json:"confidence"`
	EdgesApplied []EdgeResult       `json:"edges_applied"`
	Rationale    string             `json:"rationale"`
	RiskNotes    string             `json:"risk_notes"`
	ATRValue     float64            `json:"atr_value"`
	Timeframes   TimeframeSnapshots `json:"timeframes"`
}

func (p TradePlan) EdgeNames() []string {
	names := make([]string, 0, len(p.EdgesApplied))
	for _, e := range p.EdgesApplied {
		if e.Applied {
			names = append(names, e.Name)
		}
	}
	return names
}

// AnalysisResult aggregates the plans for one ticker, highest confidence first.
// Zero plans is a normal outcome.
type AnalysisResult struct {
	Ticker            string      `json:"ticker"`
	Plans             []TradePlan `json:"plans"`
	TotalPlans        int         `json:"total_plans"`
	HighestConfidence int         `json:"highest_confidence"`
	AnalysisTimestamp time.Time   `json:"analysis_timestamp"`
}

// RationaleFacts is the structured input handed to a text-generation service.
type RationaleFacts struct {
	Ticker    string
	TradeType TradeType
	Direction Direction
	Signals   TimeframeSnapshots
	Edges     []EdgeResult
	News      *NewsSummary
}
