package engine

import "mtf-trading-bot/internal/types"

const (
	MaxConfidence = 5
	maxEdgeBonus  = 2
)

// BaseConfidence scores trend agreement, middle momentum and the lower
// entry trigger, one point each.
func BaseConfidence(higher, middle, lower types.Snapshot, dir types.Direction) int {
	score := 0
	// Always true once a direction resolved; kept so the scale matches history.
	if higher.Trend() == middle.Trend() {
		score++
	}
	if middle.Momentum() == dir.Polarity() {
		score++
	}
	if lower.Trigger(dir) {
		score++
	}
	return score
}

// NewsAdjustment is +1 when sentiment agrees with the direction, -1 when it
// opposes it and 0 otherwise.
func NewsAdjustment(news *types.NewsSummary, dir types.Direction) int {
	if news == nil || news.SentimentSummary == nil {
		return 0
	}
	switch news.Overall() {
	case types.SentimentPositive:
		if dir == types.DirectionLong {
			return 1
		}
		if dir == types.DirectionShort {
			return -1
		}
	case types.SentimentNegative:
		if dir == types.DirectionShort {
			return 1
		}
		if dir == types.DirectionLong {
			return -1
		}
	}
	return 0
}

// Score combines base, capped edge bonus and news into [0, MaxConfidence].
func Score(higher, middle, lower types.Snapshot, dir types.Direction, edges []types.EdgeResult, news *types.NewsSummary) int {
	score := BaseConfidence(higher, middle, lower, dir)
	score += min(len(edges), maxEdgeBonus)
	score += NewsAdjustment(news, dir)
	return max(0, min(score, MaxConfidence))
}
