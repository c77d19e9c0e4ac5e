package eodobs

import (
	"context"
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/trace"
)

type observableEodSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableEodSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableEodSummarizer{
		summarizer: summarizer,
	}
}

func (oes *observableEodSummarizer) SummarizeDay(ctx context.Context, t time.Time) (string, error) {
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeDay")
	defer span.End()

	date := t.Format(time.DateOnly)
	logger.InfoSkip(ctx, 1, "Starting EOD summary generation", "date", date)

	csvPath, err := oes.summarizer.SummarizeDay(ctx, t)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "EOD summary generation failed", err, "date", date)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No plans found for EOD summary", "date", date)
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "EOD summary generated successfully", "date", date, "csv_path", csvPath)
	return csvPath, nil
}

func (oes *observableEodSummarizer) SummarizeToday(ctx context.Context) (string, error) {
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeToday")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting today's EOD summary generation")

	csvPath, err := oes.summarizer.SummarizeToday(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Today's EOD summary generation failed", err)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No plans found for today's EOD summary")
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "Today's EOD summary generated successfully", "csv_path", csvPath)
	return csvPath, nil
}
