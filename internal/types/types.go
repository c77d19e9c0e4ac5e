package types

import (
	"math"
	"time"
)

// Candle is a single OHLCV bar. Ts is the bar open time in unix seconds.
type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

func (c Candle) Time() time.Time { return time.Unix(c.Ts, 0) }

// Series is an ordered OHLCV sequence for one (ticker, timeframe) pair.
// Timestamps are strictly increasing. HasVolume is false when the provider
// supplied no volume column.
type Series struct {
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	Candles   []Candle `json:"candles"`
	HasVolume bool     `json:"has_volume"`
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Candles)
}

func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Overlay holds indicator series aligned 1:1 with the candles they were
// computed from. VWAP is nil when it was skipped.
type Overlay struct {
	Candles   []Candle
	HasVolume bool
	EMA       map[int][]float64
	RSI       []float64
	ATR       []float64
	VWAP      []float64
}

func (o Overlay) Len() int { return len(o.Candles) }

func (o Overlay) Latest() Candle {
	if len(o.Candles) == 0 {
		return Candle{}
	}
	return o.Candles[len(o.Candles)-1]
}

func (o Overlay) LatestATR() float64 {
	if len(o.ATR) == 0 {
		return math.NaN()
	}
	return o.ATR[len(o.ATR)-1]
}

func (o Overlay) Closes() []float64 {
	out := make([]float64, len(o.Candles))
	for i, c := range o.Candles {
		out[i] = c.Close
	}
	return out
}

// TimeframeSet is the market data for one trade sub-type. A nil series
// means the provider could not supply that role.
type TimeframeSet struct {
	Higher     *Series `json:"higher"`
	Middle     *Series `json:"middle"`
	Lower      *Series `json:"lower"`
	MarketBias *Series `json:"market_bias,omitempty"`
}

func (t TimeframeSet) Complete() bool {
	return t.Higher != nil && t.Middle != nil && t.Lower != nil
}

// AnalysisRequest is everything the engine needs for one ticker.
type AnalysisRequest struct {
	Ticker string
	Scope  TradeScope
	Day    TimeframeSet
	Swing  TimeframeSet
	News   *NewsSummary
}
