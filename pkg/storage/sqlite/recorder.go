package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"wschart/internal/alert"

	_ "modernc.org/sqlite"
)

// Recorder is the alert journal backed by a local SQLite file.
type Recorder struct {
	db *sql.DB
	mu sync.Mutex
}

// AlertRow is one journal entry.
type AlertRow struct {
	ID        int64
	FiredAt   time.Time
	Symbol    string
	Kind      string
	Threshold float64
	Price     float64
	Message   string
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &Recorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *Recorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			fired_at  INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			kind      TEXT NOT NULL,
			threshold REAL,
			price     REAL,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol_ts ON alerts(symbol, fired_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordAlert implements alert.Recorder.
func (r *Recorder) RecordAlert(ctx context.Context, ev alert.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (fired_at, symbol, kind, threshold, price, message) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Time.UnixMilli(), strings.ToUpper(ev.Symbol), ev.Kind.String(), ev.Threshold, ev.Price, ev.Message(),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ListAlerts returns the alerts fired for symbol since the given time, oldest first.
func (r *Recorder) ListAlerts(ctx context.Context, symbol string, since time.Time) ([]AlertRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fired_at, symbol, kind, threshold, price, message FROM alerts
		 WHERE symbol = ? AND fired_at >= ? ORDER BY fired_at, id`,
		strings.ToUpper(symbol), since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []AlertRow
	for rows.Next() {
		var row AlertRow
		var firedMs int64
		if err := rows.Scan(&row.ID, &firedMs, &row.Symbol, &row.Kind, &row.Threshold, &row.Price, &row.Message); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		row.FiredAt = time.UnixMilli(firedMs)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
