package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mtf-trading-bot/internal/pipeline"
	"mtf-trading-bot/internal/recorder"
	"mtf-trading-bot/internal/types"
)

type fakeMarket struct{ err error }

func (f fakeMarket) FetchTimeframes(ctx context.Context, ticker string, tt types.TradeType) (types.TimeframeSet, error) {
	if f.err != nil {
		return types.TimeframeSet{}, f.err
	}
	s := &types.Series{Symbol: ticker, Candles: []types.Candle{{Ts: 1, Close: 10}}}
	return types.TimeframeSet{Higher: s, Middle: s, Lower: s}, nil
}

type fakeAnalyzer struct{ err error }

func (f fakeAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, error) {
	if f.err != nil {
		return types.AnalysisResult{}, f.err
	}
	plan := types.TradePlan{Ticker: req.Ticker, TradeType: types.TradeDay, Direction: types.DirectionLong,
		Entry: 100, Stop: 98, Target: 104, Target2: 106, Confidence: 4}
	return types.AnalysisResult{Ticker: req.Ticker, Plans: []types.TradePlan{plan}, TotalPlans: 1,
		HighestConfidence: 4, AnalysisTimestamp: time.Now()}, nil
}

func newTestServer(t *testing.T, market fakeMarket, an fakeAnalyzer, health HealthFunc) (*Server, *recorder.SQLiteRecorder) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(t.TempDir()+"/plans.db", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rec.Close() })
	runner := pipeline.New(market, an, rec)
	return New(":0", runner, rec, health, false), rec
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestAnalyzeReturnsPlans(t *testing.T) {
	s, _ := newTestServer(t, fakeMarket{}, fakeAnalyzer{}, nil)
	w := do(s, http.MethodPost, "/analyze", `{"ticker":" aapl "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp types.AnalysisResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Ticker != "AAPL" || resp.TradeTypeRequested != types.ScopeBoth {
		t.Errorf("Expected AAPL/both, got %s/%s", resp.Ticker, resp.TradeTypeRequested)
	}
	if resp.TotalPlans != 1 || !strings.HasPrefix(resp.Plans[0].TradeID, "AAPL-") {
		t.Errorf("Expected one plan with a trade ID, got %+v", resp.Plans)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	s, _ := newTestServer(t, fakeMarket{}, fakeAnalyzer{}, nil)
	cases := map[string]int{
		`{"ticker":"TOOLONG"}`:                   http.StatusUnprocessableEntity,
		`{"ticker":"AAPL","trade_type":"scalp"}`: http.StatusUnprocessableEntity,
		`not json`:                               http.StatusBadRequest,
	}
	for body, want := range cases {
		if w := do(s, http.MethodPost, "/analyze", body); w.Code != want {
			t.Errorf("%s: expected %d, got %d", body, want, w.Code)
		}
	}
}

func TestAnalyzeMarketDataUnavailable(t *testing.T) {
	s, _ := newTestServer(t, fakeMarket{err: errors.New("down")}, fakeAnalyzer{}, nil)
	w := do(s, http.MethodPost, "/analyze", `{"ticker":"AAPL","trade_type":"day"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Unable to fetch price data for AAPL") {
		t.Errorf("Expected price data message, got %s", w.Body.String())
	}
}

func TestAnalyzeInternalError(t *testing.T) {
	s, _ := newTestServer(t, fakeMarket{}, fakeAnalyzer{err: context.DeadlineExceeded}, nil)
	w := do(s, http.MethodPost, "/analyze", `{"ticker":"AAPL"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Analysis failed") {
		t.Errorf("Expected failure message, got %s", w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	services := map[string]bool{"market_data": true, "news": true, "database": true, "llm": false}
	s, _ := newTestServer(t, fakeMarket{}, fakeAnalyzer{}, func(context.Context) map[string]bool { return services })

	w := do(s, http.MethodGet, "/health", "")
	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "degraded" || resp.Version != "1.0.0" {
		t.Errorf("Expected degraded/1.0.0, got %s/%s", resp.Status, resp.Version)
	}

	services["llm"] = true
	w = do(s, http.MethodGet, "/health", "")
	if !strings.Contains(w.Body.String(), `"status":"healthy"`) {
		t.Errorf("Expected healthy, got %s", w.Body.String())
	}
}

func TestRecentPlans(t *testing.T) {
	s, _ := newTestServer(t, fakeMarket{}, fakeAnalyzer{}, nil)
	do(s, http.MethodPost, "/analyze", `{"ticker":"MSFT","trade_type":"day"}`)

	w := do(s, http.MethodGet, "/plans/msft?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Count int                  `json:"count"`
		Plans []types.RecordedPlan `json:"plans"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || body.Plans[0].Ticker != "MSFT" {
		t.Errorf("Expected one MSFT plan, got %+v", body)
	}
	if w := do(s, http.MethodGet, "/plans/MSFT?limit=zero", ""); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for bad limit, got %d", w.Code)
	}
}
