package interfaces

import (
	"context"
	"time"

	"mtf-trading-bot/internal/types"
)

// PlanRecorder persists plans and hands out trade IDs.
type PlanRecorder interface {
	Record(ctx context.Context, result types.AnalysisResult) ([]types.RecordedPlan, error)
	Recent(ctx context.Context, ticker string, limit int) ([]types.RecordedPlan, error)
	PlansForDay(ctx context.Context, day time.Time) ([]types.RecordedPlan, error)
	Close() error
}
