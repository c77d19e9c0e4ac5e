package tradelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mtf-trading-bot/internal/types"
)

func recorded(id, ticker string, conf int) types.RecordedPlan {
	return types.RecordedPlan{
		TradeID: id,
		RunID:   "run-1",
		TradePlan: types.TradePlan{
			Ticker:     ticker,
			TradeType:  types.TradeDay,
			Direction:  types.DirectionShort,
			Entry:      50,
			Stop:       51,
			Target:     48,
			Target2:    49,
			Confidence: conf,
			EdgesApplied: []types.EdgeResult{
				{Name: "Bearish Divergence", Applied: true},
				{Name: "Volume Confirmation (1.5x average)", Applied: false},
			},
		},
	}
}

func TestAppendAndReadDay(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	j := New(t.TempDir(), ny)
	// 01:00 UTC is still the previous day in New York
	now := time.Date(2024, 3, 16, 1, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	if err := j.Append([]types.RecordedPlan{recorded("TSLA-20240315-001", "TSLA", 3), recorded("TSLA-20240315-002", "TSLA", 4)}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if filepath.Base(j.DayFile(now)) != "2024-03-15.jsonl" {
		t.Errorf("Expected local trading date in file name, got %s", j.DayFile(now))
	}

	entries, err := j.ReadDay(now)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Direction != "short" || len(entries[0].Edges) != 1 || entries[0].Edges[0] != "Bearish Divergence" {
		t.Errorf("Expected applied edges only, got %+v", entries[0])
	}

	missing, err := j.ReadDay(now.AddDate(0, 0, 5))
	if err != nil || len(missing) != 0 {
		t.Errorf("Expected no entries for a missing day, got %v %v", missing, err)
	}
}

func TestCompressOlder(t *testing.T) {
	j := New(t.TempDir(), time.UTC)
	old := time.Now().AddDate(0, 0, -10)
	j.now = func() time.Time { return old }
	if err := j.Append([]types.RecordedPlan{recorded("A-1", "AAPL", 2)}); err != nil {
		t.Fatal(err)
	}
	path := j.DayFile(old)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	j.now = time.Now
	if err := j.CompressOlder(3); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected original journal removed")
	}
	if _, err := os.Stat(path + ".gz"); err != nil {
		t.Errorf("Expected gzip archive, got %v", err)
	}
}
