package eod

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"mtf-trading-bot/internal/tradelog"
	"mtf-trading-bot/internal/types"
)

func plan(ticker string, tt types.TradeType, dir types.Direction, conf int) types.RecordedPlan {
	return types.RecordedPlan{
		TradeID: ticker + "-X",
		TradePlan: types.TradePlan{
			Ticker:       ticker,
			TradeType:    tt,
			Direction:    dir,
			Confidence:   conf,
			EdgesApplied: []types.EdgeResult{{Name: "Volatility Filter (Strong breakout candle)", Applied: true}},
		},
	}
}

func TestSummarizeDay(t *testing.T) {
	dir := t.TempDir()
	j := tradelog.New(dir, time.UTC)
	if err := j.Append([]types.RecordedPlan{
		plan("MSFT", types.TradeDay, types.DirectionLong, 3),
		plan("AAPL", types.TradeSwing, types.DirectionShort, 5),
		plan("AAPL", types.TradeDay, types.DirectionShort, 2),
	}); err != nil {
		t.Fatal(err)
	}

	s := NewSummarizer(j, "")
	path, err := s.SummarizeToday(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if path == "" {
		t.Fatal("Expected a CSV path")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("Expected header, 2 tickers and total, got %d rows", len(rows))
	}
	aapl := rows[1]
	if aapl[0] != "AAPL" || aapl[1] != "2" || aapl[3] != "2" || aapl[6] != "3.50" || aapl[7] != "5" {
		t.Errorf("Unexpected AAPL row: %v", aapl)
	}
	total := rows[3]
	if total[0] != "TOTAL" || total[1] != "3" || total[8] != "3" {
		t.Errorf("Unexpected total row: %v", total)
	}
}

func TestSummarizeDayWithoutPlans(t *testing.T) {
	s := NewSummarizer(tradelog.New(t.TempDir(), time.UTC), t.TempDir())
	path, err := s.SummarizeDay(context.Background(), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil || path != "" {
		t.Errorf("Expected empty path and no error, got %q %v", path, err)
	}
}
