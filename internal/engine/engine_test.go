package engine

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mtf-trading-bot/internal/types"
)

var fixedNow = time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)

func trendSeries(symbol string, n int, start, step float64) *types.Series {
	s := &types.Series{Symbol: symbol, HasVolume: true}
	t0 := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC).Unix()
	for i := 0; i < n; i++ {
		c := start + step*float64(i)
		s.Candles = append(s.Candles, types.Candle{
			Ts:    t0 + int64(i)*300,
			Open:  c - step/2,
			High:  c + 0.5,
			Low:   c - 0.5,
			Close: c,
			Vol:   1000,
		})
	}
	return s
}

func flatSeries(n int, price float64) *types.Series {
	s := &types.Series{Symbol: "FLAT", HasVolume: true}
	for i := 0; i < n; i++ {
		s.Candles = append(s.Candles, types.Candle{Ts: int64(i) * 300, Open: price, High: price, Low: price, Close: price, Vol: 500})
	}
	return s
}

func upSet() types.TimeframeSet {
	return types.TimeframeSet{
		Higher: trendSeries("AAPL", 60, 100, 1),
		Middle: trendSeries("AAPL", 60, 100, 1),
		Lower:  trendSeries("AAPL", 60, 100, 1),
	}
}

func downSet() types.TimeframeSet {
	return types.TimeframeSet{
		Higher: trendSeries("AAPL", 60, 200, -1),
		Middle: trendSeries("AAPL", 60, 200, -1),
		Lower:  trendSeries("AAPL", 60, 200, -1),
	}
}

func newsWith(s types.Sentiment) *types.NewsSummary {
	return &types.NewsSummary{Ticker: "AAPL", SentimentSummary: &types.SentimentSummary{Overall: s}}
}

type fakeWriter struct {
	text  string
	err   error
	block bool
	panic bool
	calls atomic.Int32
}

func (f *fakeWriter) WriteRationale(ctx context.Context, facts types.RationaleFacts) (string, error) {
	f.calls.Add(1)
	if f.panic {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func testEngine(w *fakeWriter) *Engine {
	if w == nil {
		return newEngine(nil, Options{Now: func() time.Time { return fixedNow }})
	}
	return newEngine(w, Options{Now: func() time.Time { return fixedNow }, RationaleTimeout: 50 * time.Millisecond})
}

func checkLevelOrdering(t *testing.T, p types.TradePlan) {
	t.Helper()
	switch p.Direction {
	case types.DirectionLong:
		if !(p.Stop < p.Entry && p.Entry < p.Target2 && p.Target2 < p.Target) {
			t.Errorf("Expected stop < entry < target2 < target, got %.2f %.2f %.2f %.2f", p.Stop, p.Entry, p.Target2, p.Target)
		}
	case types.DirectionShort:
		if !(p.Target < p.Target2 && p.Target2 < p.Entry && p.Entry < p.Stop) {
			t.Errorf("Expected target < target2 < entry < stop, got %.2f %.2f %.2f %.2f", p.Target, p.Target2, p.Entry, p.Stop)
		}
	}
	risk := math.Abs(p.Entry - p.Stop)
	if math.Abs(math.Abs(p.Entry-p.Target)-2*risk) > 0.011 {
		t.Errorf("Expected target at 2R, got entry %.2f target %.2f risk %.2f", p.Entry, p.Target, risk)
	}
	if math.Abs(math.Abs(p.Entry-p.Target2)-risk) > 0.011 {
		t.Errorf("Expected target2 at 1R, got entry %.2f target2 %.2f risk %.2f", p.Entry, p.Target2, risk)
	}
}

func TestAnalyzeBullishBothTypes(t *testing.T) {
	eng := testEngine(nil)
	req := types.AnalysisRequest{Ticker: "AAPL", Scope: types.ScopeBoth, Day: upSet(), Swing: upSet()}

	res, err := eng.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.TotalPlans != 2 {
		t.Fatalf("Expected 2 plans, got %d", res.TotalPlans)
	}
	if res.Plans[0].TradeType != types.TradeDay || res.Plans[1].TradeType != types.TradeSwing {
		t.Errorf("Expected day before swing on tie, got %s, %s", res.Plans[0].TradeType, res.Plans[1].TradeType)
	}
	for _, p := range res.Plans {
		if p.Direction != types.DirectionLong {
			t.Errorf("Expected long, got %s", p.Direction)
		}
		// base 3 plus the slope edge
		if p.Confidence != 4 {
			t.Errorf("Expected confidence 4, got %d (edges %v)", p.Confidence, p.EdgeNames())
		}
		if len(p.EdgesApplied) != 1 || p.EdgesApplied[0].Name != EdgeSlopeRising {
			t.Errorf("Expected only slope edge, got %v", p.EdgeNames())
		}
		if p.RiskReward != 2.0 {
			t.Errorf("Expected risk reward 2.0, got %f", p.RiskReward)
		}
		if p.Entry != 159 {
			t.Errorf("Expected entry 159, got %.2f", p.Entry)
		}
		checkLevelOrdering(t, p)
	}
	if res.HighestConfidence != 4 {
		t.Errorf("Expected highest confidence 4, got %d", res.HighestConfidence)
	}
	if !res.AnalysisTimestamp.Equal(fixedNow) {
		t.Errorf("Expected timestamp %v, got %v", fixedNow, res.AnalysisTimestamp)
	}
	if got := res.Plans[1].Timeframes.Higher.Timeframe; got != "weekly" {
		t.Errorf("Expected swing higher label weekly, got %s", got)
	}
	if res.Plans[1].Timeframes.Middle.VWAP != nil {
		t.Error("Expected VWAP disabled for swing")
	}
	if res.Plans[0].Timeframes.Middle.VWAP == nil {
		t.Error("Expected VWAP for day middle timeframe")
	}
}

func TestAnalyzeShort(t *testing.T) {
	res, _ := testEngine(nil).Analyze(context.Background(), types.AnalysisRequest{
		Ticker: "AAPL", Scope: types.ScopeDay, Day: downSet(),
	})
	if res.TotalPlans != 1 {
		t.Fatalf("Expected 1 plan, got %d", res.TotalPlans)
	}
	p := res.Plans[0]
	if p.Direction != types.DirectionShort {
		t.Errorf("Expected short, got %s", p.Direction)
	}
	checkLevelOrdering(t, p)
	if !strings.HasPrefix(p.Rationale, "Short setup with 1h bearish trend confirmed by 15m momentum.") {
		t.Errorf("Unexpected rationale: %s", p.Rationale)
	}
}

func TestAnalyzeDisagreementYieldsNoPlan(t *testing.T) {
	set := upSet()
	set.Middle = trendSeries("AAPL", 60, 200, -1)
	res, err := testEngine(nil).Analyze(context.Background(), types.AnalysisRequest{Ticker: "AAPL", Scope: types.ScopeDay, Day: set})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.TotalPlans != 0 || res.HighestConfidence != 0 {
		t.Errorf("Expected no plans, got %d (highest %d)", res.TotalPlans, res.HighestConfidence)
	}
	if res.Plans == nil {
		t.Error("Expected empty, non-nil plan list")
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	set := upSet()
	set.Lower = trendSeries("AAPL", 10, 100, 1)
	res, err := testEngine(nil).Analyze(context.Background(), types.AnalysisRequest{Ticker: "AAPL", Scope: types.ScopeDay, Day: set})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.TotalPlans != 0 {
		t.Errorf("Expected no plans for 10-bar series, got %d", res.TotalPlans)
	}
}

func TestAnalyzeMissingTimeframeSkipsOnlyThatType(t *testing.T) {
	day := upSet()
	day.Lower = nil
	res, _ := testEngine(nil).Analyze(context.Background(), types.AnalysisRequest{
		Ticker: "AAPL", Scope: types.ScopeBoth, Day: day, Swing: upSet(),
	})
	if res.TotalPlans != 1 || res.Plans[0].TradeType != types.TradeSwing {
		t.Errorf("Expected a single swing plan, got %d", res.TotalPlans)
	}
}

func TestAnalyzeDegenerateVolatility(t *testing.T) {
	set := upSet()
	set.Lower = flatSeries(60, 100)
	res, _ := testEngine(nil).Analyze(context.Background(), types.AnalysisRequest{Ticker: "AAPL", Scope: types.ScopeDay, Day: set})
	if res.TotalPlans != 0 {
		t.Errorf("Expected abstention on zero ATR, got %d plans", res.TotalPlans)
	}

	eng := newEngine(nil, Options{MinATR: 5})
	res, _ = eng.Analyze(context.Background(), types.AnalysisRequest{Ticker: "AAPL", Scope: types.ScopeDay, Day: upSet()})
	if res.TotalPlans != 0 {
		t.Errorf("Expected abstention below min ATR, got %d plans", res.TotalPlans)
	}
}

func TestAnalyzeSubCentATRAbstains(t *testing.T) {
	lower := &types.Series{Symbol: "PENNY", HasVolume: true}
	t0 := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC).Unix()
	for i := 0; i < 60; i++ {
		c := 1.0 + 0.0001*float64(i)
		lower.Candles = append(lower.Candles, types.Candle{
			Ts: t0 + int64(i)*300, Open: c, High: c + 0.0001, Low: c - 0.0001, Close: c, Vol: 1000,
		})
	}
	set := upSet()
	set.Lower = lower

	res, err := NewWithOptions(nil, Options{}).Analyze(context.Background(), types.AnalysisRequest{Ticker: "PENNY", Scope: types.ScopeDay, Day: set})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.TotalPlans != 0 {
		p := res.Plans[0]
		t.Errorf("Expected abstention when levels round together, got entry %.2f stop %.2f target2 %.2f target %.2f",
			p.Entry, p.Stop, p.Target2, p.Target)
	}
}

func TestLevelsCollapsed(t *testing.T) {
	lv := ComputeLevels(types.Candle{Close: 1.01}, 0.0002, types.DirectionLong)
	if !lv.collapsed(types.DirectionLong) {
		t.Errorf("Expected collapsed levels for sub-cent ATR, got %+v", lv)
	}
	lv = ComputeLevels(types.Candle{Close: 100}, 2, types.DirectionShort)
	if lv.collapsed(types.DirectionShort) {
		t.Errorf("Expected ordered short levels, got %+v", lv)
	}
}

func TestAnalyzeNewsAdjustsConfidence(t *testing.T) {
	cases := []struct {
		news *types.NewsSummary
		want int
	}{
		{nil, 4},
		{newsWith(types.SentimentNeutral), 4},
		{newsWith(types.SentimentPositive), 5},
		{newsWith(types.SentimentNegative), 3},
		{&types.NewsSummary{Ticker: "AAPL"}, 4},
	}
	for _, tc := range cases {
		res, _ := testEngine(nil).Analyze(context.Background(), types.AnalysisRequest{
			Ticker: "AAPL", Scope: types.ScopeDay, Day: upSet(), News: tc.news,
		})
		if res.TotalPlans != 1 {
			t.Fatalf("Expected 1 plan, got %d", res.TotalPlans)
		}
		if got := res.Plans[0].Confidence; got != tc.want {
			t.Errorf("Expected confidence %d for %s news, got %d", tc.want, tc.news.Overall(), got)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	req := types.AnalysisRequest{Ticker: "AAPL", Scope: types.ScopeBoth, Day: upSet(), Swing: downSet(), News: newsWith(types.SentimentPositive)}
	a, _ := testEngine(nil).Analyze(context.Background(), req)
	b, _ := testEngine(nil).Analyze(context.Background(), req)
	if !reflect.DeepEqual(a, b) {
		t.Error("Expected identical results for identical inputs")
	}
	// long day +1 news, short swing -1 news
	if a.Plans[0].TradeType != types.TradeDay || a.Plans[0].Confidence != 5 {
		t.Errorf("Expected day plan first with confidence 5, got %s/%d", a.Plans[0].TradeType, a.Plans[0].Confidence)
	}
	if a.Plans[1].Confidence != 3 {
		t.Errorf("Expected swing confidence 3, got %d", a.Plans[1].Confidence)
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testEngine(nil).Analyze(ctx, types.AnalysisRequest{Ticker: "AAPL", Day: upSet()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRationaleWriter(t *testing.T) {
	req := types.AnalysisRequest{Ticker: "AAPL", Scope: types.ScopeDay, Day: upSet()}
	template := "Long setup with 1h bullish trend confirmed by 15m momentum. " +
		"Strong conviction with 1 edge(s): Slope Filter (EMA20 rising strongly). News sentiment neutral."

	cases := map[string]*fakeWriter{
		"error":   {err: errors.New("service down")},
		"empty":   {text: "   "},
		"timeout": {block: true},
		"panic":   {panic: true},
	}
	for name, w := range cases {
		res, err := testEngine(w).Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("%s: expected failure to be swallowed, got %v", name, err)
		}
		if got := res.Plans[0].Rationale; got != template {
			t.Errorf("%s: expected template rationale, got %q", name, got)
		}
		if n := w.calls.Load(); n != 1 {
			t.Errorf("%s: expected 1 writer call, got %d", name, n)
		}
	}

	w := &fakeWriter{text: "  Breakout above the 3-bar high with rising EMAs.  "}
	res, _ := testEngine(w).Analyze(context.Background(), req)
	if got := res.Plans[0].Rationale; got != "Breakout above the 3-bar high with rising EMAs." {
		t.Errorf("Expected writer text, got %q", got)
	}
}

func TestRiskNotes(t *testing.T) {
	set := upSet()
	set.MarketBias = trendSeries("SPY", 30, 400, 1)
	res, _ := testEngine(nil).Analyze(context.Background(), types.AnalysisRequest{Ticker: "AAPL", Scope: types.ScopeDay, Day: set})
	notes := res.Plans[0].RiskNotes
	for _, want := range []string{"Risk 2.0R (Entry to stop = $", "Risk 1-2% of capital per trade", "Monitor SPY for market context", "Avoid 11:30 AM - 1:30 PM EST low-volume window"} {
		if !strings.Contains(notes, want) {
			t.Errorf("Expected risk notes to contain %q, got %q", want, notes)
		}
	}

	lv := ComputeLevels(types.Candle{Close: 50}, 1.5, types.DirectionLong)
	got := riskNotes(lv, nil, types.TradeSwing)
	want := "Risk 2.0R (Entry to stop = $1.50); Risk 1-2% of capital per trade; ATR: $1.50 (volatility measure)"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
