package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/tankintel/internal/training"
)

// Ledger records every training run, successful or failed, in SQLite.
// It implements training.Recorder.
type Ledger struct {
	db *DB
}

// NewLedger creates the ledger and its schema.
func NewLedger(db *DB) (*Ledger, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS training_runs (
		id TEXT PRIMARY KEY,
		country TEXT NOT NULL,
		kind TEXT NOT NULL,
		best_model TEXT,
		metric TEXT,
		score REAL,
		rows INTEGER,
		started_at TIMESTAMP NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_training_runs_country_kind
		ON training_runs(country, kind, started_at DESC);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create training_runs schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// RecordRun inserts one run record.
func (l *Ledger) RecordRun(ctx context.Context, rec training.RunRecord) error {
	_, err := l.db.conn.ExecContext(ctx, `
		INSERT INTO training_runs
			(id, country, kind, best_model, metric, score, rows, started_at, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), rec.Country, rec.Kind, rec.BestModel, rec.Metric,
		rec.Score, rec.Rows, rec.StartedAt.UTC(), rec.Duration.Milliseconds(), rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}
	return nil
}

// Run is one persisted training run.
type Run struct {
	ID        string    `json:"id"`
	Country   string    `json:"country"`
	Kind      string    `json:"kind"`
	BestModel string    `json:"best_model"`
	Metric    string    `json:"metric"`
	Score     float64   `json:"score"`
	Rows      int       `json:"rows"`
	StartedAt time.Time `json:"started_at"`
	Duration  int64     `json:"duration_ms"`
	Error     string    `json:"error,omitempty"`
}

// RecentRuns returns the most recent runs, newest first.
func (l *Ledger) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.conn.QueryContext(ctx, `
		SELECT id, country, kind, best_model, metric, score, rows, started_at, duration_ms, error
		FROM training_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Country, &r.Kind, &r.BestModel, &r.Metric,
			&r.Score, &r.Rows, &r.StartedAt, &r.Duration, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
