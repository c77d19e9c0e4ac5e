package engine

import (
	"math"

	"mtf-trading-bot/internal/ta"
	"mtf-trading-bot/internal/types"
)

// RiskReward is the fixed reward multiple of the primary target.
const RiskReward = 2.0

type Levels struct {
	Entry      float64
	Stop       float64
	Target     float64
	Target2    float64
	RiskReward float64
	ATR        float64
	R          float64
}

// ComputeLevels places the stop one ATR from the latest lower-timeframe close,
// the primary target at 2R and the secondary at 1R.
func ComputeLevels(latest types.Candle, atr float64, dir types.Direction) Levels {
	entry := latest.Close
	sign := 1.0
	if dir == types.DirectionShort {
		sign = -1.0
	}
	stop := entry - sign*atr
	r := math.Abs(entry - stop)

	return Levels{
		Entry:      ta.Round(entry, 2),
		Stop:       ta.Round(stop, 2),
		Target:     ta.Round(entry+sign*RiskReward*r, 2),
		Target2:    ta.Round(entry+sign*r, 2),
		RiskReward: RiskReward,
		ATR:        ta.Round(atr, 2),
		R:          ta.Round(r, 2),
	}
}

// degenerate reports whether the ATR is too small to size a stop.
func degenerate(atr, minATR float64) bool {
	return math.IsNaN(atr) || math.IsInf(atr, 0) || atr <= minATR
}

// collapsed reports whether rounding to the cent left no room between the
// levels, which happens when the ATR is positive but below half a cent.
func (l Levels) collapsed(dir types.Direction) bool {
	if l.R == 0 || l.Stop == l.Entry {
		return true
	}
	if dir == types.DirectionShort {
		return !(l.Target < l.Target2 && l.Target2 < l.Entry && l.Entry < l.Stop)
	}
	return !(l.Stop < l.Entry && l.Entry < l.Target2 && l.Target2 < l.Target)
}

func (l Levels) riskPct() float64 {
	if l.Entry == 0 {
		return 0
	}
	return ta.Round(math.Abs(l.Entry-l.Stop)/l.Entry*100, 2)
}

func (l Levels) rewardPct() float64 {
	if l.Entry == 0 {
		return 0
	}
	return ta.Round(math.Abs(l.Target-l.Entry)/l.Entry*100, 2)
}
