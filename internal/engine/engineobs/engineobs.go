package engineobs

import (
	"context"
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

type observableAnalyzer struct {
	analyzer interfaces.Analyzer
}

var _ interfaces.Analyzer = (*observableAnalyzer)(nil)

func Wrap(a interfaces.Analyzer) interfaces.Analyzer {
	return &observableAnalyzer{
		analyzer: a,
	}
}

func (oa *observableAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticker", req.Ticker),
		attribute.String("scope", string(req.Scope)),
	)

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting analysis",
		"ticker", req.Ticker,
		"scope", req.Scope,
		"has_news", req.News != nil,
	)

	result, err := oa.analyzer.Analyze(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Analysis failed", err,
			"ticker", req.Ticker,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return result, err
	}

	span.SetAttributes(
		attribute.Int("total_plans", result.TotalPlans),
		attribute.Int("highest_confidence", result.HighestConfidence),
	)
	logger.InfoSkip(ctx, 1, "Analysis completed",
		"ticker", req.Ticker,
		"total_plans", result.TotalPlans,
		"highest_confidence", result.HighestConfidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
