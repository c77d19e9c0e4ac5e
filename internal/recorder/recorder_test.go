package recorder

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mtf-trading-bot/internal/types"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "sub", "plans.db"), time.UTC)
	if err != nil {
		t.Fatalf("Expected recorder, got %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func samplePlan(ticker string, tt types.TradeType, conf int) types.TradePlan {
	return types.TradePlan{
		Ticker:     ticker,
		TradeType:  tt,
		Direction:  types.DirectionLong,
		Entry:      100,
		Stop:       98,
		Target:     104,
		Target2:    102,
		RiskReward: 2,
		Confidence: conf,
		EdgesApplied: []types.EdgeResult{
			{Name: "Volume Confirmation (1.5x average)", Applied: true},
		},
		Rationale: "Long setup",
	}
}

func TestRecordAssignsSequentialTradeIDs(t *testing.T) {
	r := newTestRecorder(t)
	now := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	res := types.AnalysisResult{Ticker: "aapl", Plans: []types.TradePlan{
		samplePlan("AAPL", types.TradeDay, 4),
		samplePlan("AAPL", types.TradeSwing, 3),
	}}
	got, err := r.Record(ctx, res)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got[0].TradeID != "AAPL-20240315-001" || got[1].TradeID != "AAPL-20240315-002" {
		t.Errorf("Unexpected trade IDs: %s, %s", got[0].TradeID, got[1].TradeID)
	}
	if got[0].RunID == "" || got[0].RunID != got[1].RunID {
		t.Errorf("Expected shared run ID, got %q and %q", got[0].RunID, got[1].RunID)
	}

	now = now.Add(time.Minute)
	more, err := r.Record(ctx, types.AnalysisResult{Ticker: "AAPL", Plans: []types.TradePlan{samplePlan("AAPL", types.TradeDay, 5)}})
	if err != nil {
		t.Fatal(err)
	}
	if more[0].TradeID != "AAPL-20240315-003" {
		t.Errorf("Expected sequence to continue, got %s", more[0].TradeID)
	}

	now = now.Add(24 * time.Hour)
	next, _ := r.Record(ctx, types.AnalysisResult{Ticker: "AAPL", Plans: []types.TradePlan{samplePlan("AAPL", types.TradeDay, 2)}})
	if next[0].TradeID != "AAPL-20240316-001" {
		t.Errorf("Expected sequence to restart on a new day, got %s", next[0].TradeID)
	}

	other, _ := r.Record(ctx, types.AnalysisResult{Ticker: "MSFT", Plans: []types.TradePlan{samplePlan("MSFT", types.TradeDay, 2)}})
	if !strings.HasPrefix(other[0].TradeID, "MSFT-20240316-001") {
		t.Errorf("Expected per-ticker sequence, got %s", other[0].TradeID)
	}
}

func TestRecentAndPlansForDay(t *testing.T) {
	r := newTestRecorder(t)
	base := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	now := base
	r.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		now = base.Add(time.Duration(i) * time.Minute)
		if _, err := r.Record(ctx, types.AnalysisResult{Ticker: "NVDA", Plans: []types.TradePlan{samplePlan("NVDA", types.TradeDay, i)}}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := r.Recent(ctx, "nvda", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Confidence != 3 || recent[1].Confidence != 2 {
		t.Errorf("Expected newest two plans, got %+v", recent)
	}
	if len(recent[0].EdgesApplied) != 1 || recent[0].Rationale != "Long setup" {
		t.Errorf("Expected full plan payload round trip, got %+v", recent[0].TradePlan)
	}

	day, err := r.PlansForDay(ctx, base)
	if err != nil {
		t.Fatal(err)
	}
	if len(day) != 3 || day[0].TradeID != "NVDA-20240315-001" {
		t.Errorf("Expected 3 plans oldest first, got %d", len(day))
	}

	empty, err := r.PlansForDay(ctx, base.AddDate(0, 0, 1))
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v %v", empty, err)
	}
}

func TestRecordEmptyResult(t *testing.T) {
	r := newTestRecorder(t)
	got, err := r.Record(context.Background(), types.AnalysisResult{Ticker: "AAPL", Plans: []types.TradePlan{}})
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("Expected empty slice, got %v %v", got, err)
	}
}

func TestAnalysisCache(t *testing.T) {
	c := NewAnalysisCache(time.Minute)
	now := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	res := types.AnalysisResponse{Ticker: "AAPL", TotalPlans: 1}
	c.Put("aapl", types.ScopeDay, res)

	if got, ok := c.Get("AAPL", types.ScopeDay); !ok || got.TotalPlans != 1 {
		t.Errorf("Expected cached result, got %v %v", got, ok)
	}
	if _, ok := c.Get("AAPL", types.ScopeSwing); ok {
		t.Error("Expected miss for a different scope")
	}

	now = now.Add(time.Minute)
	if _, ok := c.Get("AAPL", types.ScopeDay); ok {
		t.Error("Expected entry to expire after ttl")
	}

	disabled := NewAnalysisCache(0)
	disabled.Put("AAPL", types.ScopeDay, res)
	if _, ok := disabled.Get("AAPL", types.ScopeDay); ok {
		t.Error("Expected zero ttl to disable caching")
	}
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()
	got, err := n.Record(context.Background(), types.AnalysisResult{Plans: []types.TradePlan{samplePlan("AAPL", types.TradeDay, 3)}})
	if err != nil || len(got) != 1 || got[0].TradeID != "" {
		t.Errorf("Expected pass-through plan without ID, got %+v %v", got, err)
	}
}
