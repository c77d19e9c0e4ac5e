package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/types"
)

const tradeDateLayout = "20060102"

// SQLiteRecorder persists emitted plans and assigns trade IDs of the form
// TICKER-YYYYMMDD-NNN, numbered per ticker per trading day.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	loc *time.Location
	now func() time.Time
}

var _ interfaces.PlanRecorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
// Trade dates are taken in loc.
func NewSQLiteRecorder(dbPath string, loc *time.Location) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}
	r := &SQLiteRecorder{db: db, loc: loc, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			trade_id    TEXT PRIMARY KEY,
			run_id      TEXT NOT NULL,
			ticker      TEXT NOT NULL,
			trade_date  TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			created_at  INTEGER NOT NULL,
			trade_type  TEXT NOT NULL,
			direction   TEXT NOT NULL,
			entry       REAL,
			stop        REAL,
			target      REAL,
			target2     REAL,
			confidence  INTEGER,
			payload     TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_ticker_day_seq ON plans(ticker, trade_date, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_created ON plans(created_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Record stores every plan in result under one run ID.
func (r *SQLiteRecorder) Record(ctx context.Context, result types.AnalysisResult) ([]types.RecordedPlan, error) {
	if len(result.Plans) == 0 {
		return []types.RecordedPlan{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	day := now.In(r.loc).Format(tradeDateLayout)
	runID := uuid.NewString()
	ticker := strings.ToUpper(result.Ticker)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var seq int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM plans WHERE ticker = ? AND trade_date = ?`,
		ticker, day).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}

	recorded := make([]types.RecordedPlan, 0, len(result.Plans))
	for _, p := range result.Plans {
		seq++
		rp := types.RecordedPlan{
			TradeID:   fmt.Sprintf("%s-%s-%03d", ticker, day, seq),
			RunID:     runID,
			CreatedAt: now,
			TradePlan: p,
		}
		payload, err := json.Marshal(rp)
		if err != nil {
			return nil, fmt.Errorf("encode plan: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO plans
			(trade_id, run_id, ticker, trade_date, seq, created_at, trade_type, direction, entry, stop, target, target2, confidence, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rp.TradeID, runID, ticker, day, seq, now.UnixNano(), string(p.TradeType), string(p.Direction),
			p.Entry, p.Stop, p.Target, p.Target2, p.Confidence, string(payload))
		if err != nil {
			return nil, fmt.Errorf("insert plan %s: %w", rp.TradeID, err)
		}
		recorded = append(recorded, rp)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	logger.Debug(ctx, "Plans recorded", "ticker", ticker, "run_id", runID, "count", len(recorded))
	return recorded, nil
}

// Recent returns the newest plans for ticker, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, ticker string, limit int) ([]types.RecordedPlan, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.query(ctx,
		`SELECT payload FROM plans WHERE ticker = ? ORDER BY created_at DESC, seq DESC LIMIT ?`,
		strings.ToUpper(ticker), limit)
}

// PlansForDay returns every plan recorded on day's trading date, oldest first.
func (r *SQLiteRecorder) PlansForDay(ctx context.Context, day time.Time) ([]types.RecordedPlan, error) {
	return r.query(ctx,
		`SELECT payload FROM plans WHERE trade_date = ? ORDER BY created_at, ticker, seq`,
		day.In(r.loc).Format(tradeDateLayout))
}

func (r *SQLiteRecorder) query(ctx context.Context, q string, args ...any) ([]types.RecordedPlan, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	out := []types.RecordedPlan{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rp types.RecordedPlan
		if err := json.Unmarshal([]byte(payload), &rp); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRecorder) Close() error {
	if r.db == nil {
		return errors.New("recorder already closed")
	}
	err := r.db.Close()
	r.db = nil
	return err
}
