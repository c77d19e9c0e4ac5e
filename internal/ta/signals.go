package ta

import (
	"math"

	"mtf-trading-bot/internal/types"
)

const divergenceBand = 0.05

// DetectDivergence compares the latest price and indicator readings against
// their extremes over the last lookback bars. Bearish is checked first.
// NaN readings are ignored.
func DetectDivergence(prices, indicator []float64, lookback int) types.Divergence {
	if lookback <= 0 || len(prices) < lookback || len(indicator) < lookback {
		return types.DivergenceNone
	}
	p := prices[len(prices)-lookback:]
	ind := indicator[len(indicator)-lookback:]
	lastP, lastI := p[len(p)-1], ind[len(ind)-1]
	if math.IsNaN(lastP) || math.IsNaN(lastI) {
		return types.DivergenceNone
	}
	pHigh, pLow := extremes(p)
	iHigh, iLow := extremes(ind)

	if lastP > pHigh*(1-divergenceBand) && lastI < iHigh*(1-divergenceBand) {
		return types.DivergenceBearish
	}
	if lastP < pLow*(1+divergenceBand) && lastI > iLow*(1+divergenceBand) {
		return types.DivergenceBullish
	}
	return types.DivergenceNone
}

func extremes(vals []float64) (hi, lo float64) {
	hi, lo = math.Inf(-1), math.Inf(1)
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		hi = math.Max(hi, v)
		lo = math.Min(lo, v)
	}
	return hi, lo
}

// ThreeBarBreakout reports whether the latest close clears the high (long)
// or low (short) of the three closes before it.
func ThreeBarBreakout(closes []float64, dir types.Direction) bool {
	if len(closes) < 4 {
		return false
	}
	last := closes[len(closes)-1]
	hi, lo := extremes(closes[len(closes)-4 : len(closes)-1])
	switch dir {
	case types.DirectionLong:
		return last > hi
	case types.DirectionShort:
		return last < lo
	}
	return false
}
