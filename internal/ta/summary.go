package ta

import (
	"math"
	"time"

	"mtf-trading-bot/internal/types"
)

const (
	MinBars       = 20
	SlopePeriods  = 5
	momentumUpper = 55.0
	momentumLower = 45.0
)

type Options struct {
	EMAPeriods  []int
	RSIPeriod   int
	ATRPeriod   int
	IncludeVWAP bool
	// ResetDaily restarts VWAP at each calendar day in Location.
	ResetDaily bool
	Location   *time.Location
}

func DefaultOptions() Options {
	return Options{
		EMAPeriods:  []int{20, 50},
		RSIPeriod:   14,
		ATRPeriod:   14,
		IncludeVWAP: true,
		ResetDaily:  true,
		Location:    time.UTC,
	}
}

// ComputeAll builds the indicator overlay for a series. VWAP is skipped when
// the series has no volume or opts disables it.
func ComputeAll(s *types.Series, opts Options) types.Overlay {
	if s == nil {
		return types.Overlay{EMA: map[int][]float64{}}
	}
	n := len(s.Candles)
	ts := make([]int64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	vols := make([]float64, n)
	for i, c := range s.Candles {
		ts[i], highs[i], lows[i], closes[i], vols[i] = c.Ts, c.High, c.Low, c.Close, c.Vol
	}

	o := types.Overlay{
		Candles:   s.Candles,
		HasVolume: s.HasVolume,
		EMA:       make(map[int][]float64, len(opts.EMAPeriods)),
		RSI:       RSI(closes, opts.RSIPeriod),
		ATR:       ATR(highs, lows, closes, opts.ATRPeriod),
	}
	for _, p := range opts.EMAPeriods {
		o.EMA[p] = EMA(closes, p)
	}
	if opts.IncludeVWAP && s.HasVolume {
		o.VWAP = VWAP(ts, highs, lows, closes, vols, opts.ResetDaily, opts.Location)
	}
	return o
}

// Summarize reduces an overlay to a snapshot of its latest bar.
func Summarize(o types.Overlay, timeframe string) types.Snapshot {
	if o.Len() < MinBars {
		return types.InvalidSnapshot(timeframe, "insufficient data")
	}
	last := o.Len() - 1
	latest := o.Latest()
	closes := o.Closes()

	snap := types.Snapshot{
		Timeframe:    timeframe,
		Valid:        true,
		TrendBias:    types.BiasUnknown,
		MomentumBias: types.BiasUnknown,
		PriceVsVWAP:  types.VWAPUnknown,
		ATR:          o.LatestATR(),
		Close:        latest.Close,
		Volume:       latest.Vol,
		LongTrigger:  ThreeBarBreakout(closes, types.DirectionLong),
		ShortTrigger: ThreeBarBreakout(closes, types.DirectionShort),
	}

	ema20, ok20 := o.EMA[20]
	ema50, ok50 := o.EMA[50]
	if ok20 && ok50 && len(ema20) == o.Len() && len(ema50) == o.Len() {
		snap.EMA20, snap.EMA50 = ema20[last], ema50[last]
		switch {
		case snap.EMA20 > snap.EMA50:
			snap.TrendBias = types.BiasBullish
		case snap.EMA20 < snap.EMA50:
			snap.TrendBias = types.BiasBearish
		default:
			snap.TrendBias = types.BiasNeutral
		}
		snap.EMA20Slope = Round(Slope(ema20, SlopePeriods), 4)
	}

	if len(o.RSI) == o.Len() && !math.IsNaN(o.RSI[last]) {
		rsi := o.RSI[last]
		switch {
		case rsi > momentumUpper:
			snap.MomentumBias = types.BiasBullish
		case rsi < momentumLower:
			snap.MomentumBias = types.BiasBearish
		default:
			snap.MomentumBias = types.BiasNeutral
		}
		snap.RSI = Round(rsi, 2)
	}

	if len(o.VWAP) == o.Len() && !math.IsNaN(o.VWAP[last]) {
		v := o.VWAP[last]
		snap.VWAP = &v
		if latest.Close > v {
			snap.PriceVsVWAP = types.VWAPAbove
		} else {
			snap.PriceVsVWAP = types.VWAPBelow
		}
	}
	return snap
}
