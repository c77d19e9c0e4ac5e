package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mtf-trading-bot/internal/types"
)

// Entry is one journaled plan.
type Entry struct {
	Time       string   `json:"time"`
	TradeID    string   `json:"trade_id"`
	RunID      string   `json:"run_id"`
	Ticker     string   `json:"ticker"`
	TradeType  string   `json:"trade_type"`
	Direction  string   `json:"direction"`
	Entry      float64  `json:"entry"`
	Stop       float64  `json:"stop"`
	Target     float64  `json:"target"`
	Target2    float64  `json:"target2"`
	Confidence int      `json:"confidence"`
	Edges      []string `json:"edges,omitempty"`
	Rationale  string   `json:"rationale,omitempty"`
}

// Journal appends plans to one JSON-lines file per trading day.
type Journal struct {
	dir string
	loc *time.Location
	now func() time.Time
	mu  sync.Mutex
}

func New(dir string, loc *time.Location) *Journal {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" && dir == "" {
		dir = v
	}
	if dir == "" {
		dir = "logs"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Journal{dir: dir, loc: loc, now: time.Now}
}

func (j *Journal) Dir() string { return j.dir }

func (j *Journal) Location() *time.Location { return j.loc }

// DayFile is the journal path for t's trading date.
func (j *Journal) DayFile(t time.Time) string {
	return filepath.Join(j.dir, "plans", t.In(j.loc).Format(time.DateOnly)+".jsonl")
}

func (j *Journal) Append(plans []types.RecordedPlan) error {
	if len(plans) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().In(j.loc)
	p := j.DayFile(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, rp := range plans {
		b, err := json.Marshal(entryFrom(rp, now))
		if err != nil {
			return fmt.Errorf("encode %s: %w", rp.TradeID, err)
		}
		if _, err := fmt.Fprintln(f, string(b)); err != nil {
			return err
		}
	}
	return nil
}

func entryFrom(rp types.RecordedPlan, now time.Time) Entry {
	return Entry{
		Time:       now.Format(time.DateTime),
		TradeID:    rp.TradeID,
		RunID:      rp.RunID,
		Ticker:     rp.Ticker,
		TradeType:  string(rp.TradeType),
		Direction:  string(rp.Direction),
		Entry:      rp.Entry,
		Stop:       rp.Stop,
		Target:     rp.Target,
		Target2:    rp.Target2,
		Confidence: rp.Confidence,
		Edges:      rp.EdgeNames(),
		Rationale:  rp.Rationale,
	}
}

// ReadDay returns the entries journaled on t's trading date. A missing file
// yields no entries and no error. Malformed lines are skipped.
func (j *Journal) ReadDay(t time.Time) ([]Entry, error) {
	f, err := os.Open(j.DayFile(t))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// CompressOlder gzips journal files older than retentionDays.
func (j *Journal) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// already compressed on an earlier pass
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			return nil
		}
		_ = os.Remove(p)
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
