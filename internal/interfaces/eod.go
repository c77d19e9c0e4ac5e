package interfaces

import (
	"context"
	"time"
)

type EodSummarizer interface {
	SummarizeDay(ctx context.Context, t time.Time) (csvPath string, err error)
	SummarizeToday(ctx context.Context) (csvPath string, err error)
}
