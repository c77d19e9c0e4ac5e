package engine

import "mtf-trading-bot/internal/types"

// ResolveDirection requires the higher and middle trends to agree outright.
// Invalid snapshots never agree.
func ResolveDirection(higher, middle types.Snapshot) types.Direction {
	h, m := higher.Trend(), middle.Trend()
	switch {
	case h == types.BiasBullish && m == types.BiasBullish:
		return types.DirectionLong
	case h == types.BiasBearish && m == types.BiasBearish:
		return types.DirectionShort
	}
	return types.DirectionNone
}
