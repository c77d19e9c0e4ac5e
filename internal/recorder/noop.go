package recorder

import (
	"context"
	"time"

	"mtf-trading-bot/internal/types"
)

// NoopRecorder is used in DRY_RUN mode. Plans are returned without IDs and
// nothing is stored.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ context.Context, result types.AnalysisResult) ([]types.RecordedPlan, error) {
	out := make([]types.RecordedPlan, len(result.Plans))
	for i, p := range result.Plans {
		out[i] = types.RecordedPlan{CreatedAt: result.AnalysisTimestamp, TradePlan: p}
	}
	return out, nil
}

func (n *NoopRecorder) Recent(context.Context, string, int) ([]types.RecordedPlan, error) {
	return []types.RecordedPlan{}, nil
}

func (n *NoopRecorder) PlansForDay(context.Context, time.Time) ([]types.RecordedPlan, error) {
	return []types.RecordedPlan{}, nil
}

func (n *NoopRecorder) Close() error { return nil }
