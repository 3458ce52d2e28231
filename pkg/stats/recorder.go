package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	golog "github.com/tochemey/goakt/v3/log"
	_ "modernc.org/sqlite" // SQLite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    params TEXT           -- JSON
);

CREATE TABLE IF NOT EXISTS samples (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    step INTEGER NOT NULL,
    time REAL NOT NULL,
    agents INTEGER NOT NULL,
    polarization REAL NOT NULL,
    mean_speed REAL NOT NULL,
    centroid_x REAL NOT NULL,
    centroid_y REAL NOT NULL,
    PRIMARY KEY (run_id, step)
);
CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id);
`

// Sample is one recorded step.
type Sample struct {
	Step uint64
	OrderParameters
}

// Recorder stores order parameters of a run in a SQLite database.
// Every Recorder opens a new run identified by a random UUID.
type Recorder struct {
	mu     sync.Mutex
	db     *sql.DB
	runID  string
	logger golog.Logger
}

// OpenRecorder opens (or creates) the database at path, ":memory:" included,
// and registers a new run with params stored as JSON.
func OpenRecorder(ctx context.Context, path string, params any, logger golog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = golog.DiscardLogger
	}

	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer, and keeps a :memory: database alive

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats schema: %w", err)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to encode run params: %w", err)
	}

	r := &Recorder{db: db, runID: uuid.NewString(), logger: logger}
	_, err = db.ExecContext(ctx, `INSERT INTO runs (id, started_at, params) VALUES (?, ?, ?)`,
		r.runID, time.Now().UTC().Format(time.RFC3339Nano), string(raw))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}

	logger.Infof("recording run %s to %s", r.runID, path)
	return r, nil
}

// RunID returns the identifier of the current run.
func (r *Recorder) RunID() string { return r.runID }

// Record stores the order parameters measured after step.
func (r *Recorder) Record(ctx context.Context, step uint64, p OrderParameters) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO samples
			(run_id, step, time, agents, polarization, mean_speed, centroid_x, centroid_y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.runID, int64(step), p.Time, p.Agents, p.Polarization, p.MeanSpeed, p.Centroid.X, p.Centroid.Y)
	if err != nil {
		return fmt.Errorf("failed to record step %d: %w", step, err)
	}
	return nil
}

// Series returns the samples of runID ordered by step. An empty runID
// selects the current run.
func (r *Recorder) Series(ctx context.Context, runID string) ([]Sample, error) {
	if runID == "" {
		runID = r.runID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `
		SELECT step, time, agents, polarization, mean_speed, centroid_x, centroid_y
		FROM samples WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var s Sample
		var step int64
		if err := rows.Scan(&step, &s.Time, &s.Agents, &s.Polarization, &s.MeanSpeed,
			&s.Centroid.X, &s.Centroid.Y); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.Step = uint64(step)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
