package eod

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/tradelog"
)

// aggRow holds per-ticker plan statistics for one day.
type aggRow struct {
	Ticker        string
	Plans         int
	Long, Short   int
	Day, Swing    int
	ConfidenceSum int
	MaxConfidence int
	Edges         int
}

type summarizer struct {
	journal *tradelog.Journal
	outDir  string
	now     func() time.Time
}

var _ interfaces.EodSummarizer = (*summarizer)(nil)

// NewSummarizer writes CSV summaries of the journal's plans into outDir.
func NewSummarizer(journal *tradelog.Journal, outDir string) interfaces.EodSummarizer {
	if outDir == "" {
		outDir = filepath.Join(journal.Dir(), "eod")
	}
	return &summarizer{journal: journal, outDir: outDir, now: time.Now}
}

func (s *summarizer) csvPath(t time.Time) string {
	return filepath.Join(s.outDir, t.In(s.journal.Location()).Format(time.DateOnly)+".csv")
}

// SummarizeDay returns "" with no error when nothing was journaled.
func (s *summarizer) SummarizeDay(ctx context.Context, t time.Time) (string, error) {
	entries, err := s.journal.ReadDay(t)
	if err != nil {
		return "", fmt.Errorf("read journal: %w", err)
	}
	if len(entries) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	aggs := map[string]*aggRow{}
	for _, e := range entries {
		row := aggs[e.Ticker]
		if row == nil {
			row = &aggRow{Ticker: e.Ticker}
			aggs[e.Ticker] = row
		}
		row.Plans++
		switch e.Direction {
		case "long":
			row.Long++
		case "short":
			row.Short++
		}
		switch e.TradeType {
		case "day":
			row.Day++
		case "swing":
			row.Swing++
		}
		row.ConfidenceSum += e.Confidence
		row.MaxConfidence = max(row.MaxConfidence, e.Confidence)
		row.Edges += len(e.Edges)
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := s.csvPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"ticker", "plans", "long", "short", "day", "swing", "avg_confidence", "max_confidence", "edges_fired"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var total aggRow
	for _, k := range keys {
		r := aggs[k]
		if err := w.Write(r.record()); err != nil {
			return "", err
		}
		total.Plans += r.Plans
		total.Long += r.Long
		total.Short += r.Short
		total.Day += r.Day
		total.Swing += r.Swing
		total.ConfidenceSum += r.ConfidenceSum
		total.MaxConfidence = max(total.MaxConfidence, r.MaxConfidence)
		total.Edges += r.Edges
	}
	total.Ticker = "TOTAL"
	if err := w.Write(total.record()); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

func (r aggRow) record() []string {
	avg := 0.0
	if r.Plans > 0 {
		avg = float64(r.ConfidenceSum) / float64(r.Plans)
	}
	return []string{
		strings.ToUpper(r.Ticker),
		strconv.Itoa(r.Plans),
		strconv.Itoa(r.Long),
		strconv.Itoa(r.Short),
		strconv.Itoa(r.Day),
		strconv.Itoa(r.Swing),
		fmt.Sprintf("%.2f", avg),
		strconv.Itoa(r.MaxConfidence),
		strconv.Itoa(r.Edges),
	}
}

func (s *summarizer) SummarizeToday(ctx context.Context) (string, error) {
	return s.SummarizeDay(ctx, s.now())
}
