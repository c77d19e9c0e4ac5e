package engine

import (
	"math"

	"mtf-trading-bot/internal/ta"
	"mtf-trading-bot/internal/types"
)

const (
	EdgeSlopeRising     = "Slope Filter (EMA20 rising strongly)"
	EdgeSlopeFalling    = "Slope Filter (EMA20 falling strongly)"
	EdgePullbackLong    = "Pullback Confirmation (Above VWAP, RSI reset)"
	EdgePullbackShort   = "Pullback Confirmation (Below VWAP, RSI reset)"
	EdgeVolatility      = "Volatility Filter (Strong breakout candle)"
	EdgeVolume          = "Volume Confirmation (1.5x average)"
	EdgeBullDivergence  = "Bullish Divergence"
	EdgeBearDivergence  = "Bearish Divergence"
	slopeThreshold      = 0.1
	volatilityMult      = 1.25
	volumeMult          = 1.5
	volumeWindow        = 10
	divergenceLookback  = 20
)

// ApplyEdges evaluates the five confirmation filters in display order and
// returns those that fired.
func ApplyEdges(higher, middle, lower types.Snapshot, lowerOverlay types.Overlay, dir types.Direction, tradeType types.TradeType) []types.EdgeResult {
	edges := make([]types.EdgeResult, 0, 5)
	fire := func(name string) {
		edges = append(edges, types.EdgeResult{Name: name, Applied: true})
	}

	switch {
	case dir == types.DirectionLong && higher.EMA20Slope > slopeThreshold:
		fire(EdgeSlopeRising)
	case dir == types.DirectionShort && higher.EMA20Slope < -slopeThreshold:
		fire(EdgeSlopeFalling)
	}

	if tradeType == types.TradeDay && middle.Valid {
		rsi := middle.RSI
		switch {
		case dir == types.DirectionLong && middle.PriceVsVWAP == types.VWAPAbove && rsi > 45 && rsi < 65:
			fire(EdgePullbackLong)
		case dir == types.DirectionShort && middle.PriceVsVWAP == types.VWAPBelow && rsi > 35 && rsi < 55:
			fire(EdgePullbackShort)
		}
	}

	if lowerOverlay.Len() == 0 {
		return edges
	}
	latest := lowerOverlay.Latest()
	atr := lowerOverlay.LatestATR()
	if !math.IsNaN(atr) && latest.High-latest.Low > volatilityMult*atr {
		fire(EdgeVolatility)
	}

	if lowerOverlay.HasVolume {
		n := min(volumeWindow, lowerOverlay.Len())
		vols := make([]float64, 0, n)
		for _, c := range lowerOverlay.Candles[lowerOverlay.Len()-n:] {
			vols = append(vols, c.Vol)
		}
		if avg := ta.Mean(vols, n); latest.Vol > volumeMult*avg {
			fire(EdgeVolume)
		}
	}

	switch ta.DetectDivergence(lowerOverlay.Closes(), lowerOverlay.RSI, divergenceLookback) {
	case types.DivergenceBullish:
		if dir == types.DirectionLong {
			fire(EdgeBullDivergence)
		}
	case types.DivergenceBearish:
		if dir == types.DirectionShort {
			fire(EdgeBearDivergence)
		}
	}
	return edges
}
