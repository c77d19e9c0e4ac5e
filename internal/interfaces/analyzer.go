package interfaces

import (
	"context"

	"mtf-trading-bot/internal/types"
)

// Analyzer turns fetched timeframe data into ranked trade plans.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, error)
}
