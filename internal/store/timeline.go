package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/model"
)

// TimelineStore persists the historical garden timeline in SQLite.
// Points are appended as observations arrive and loaded in timestamp order
// for training.
type TimelineStore struct {
	db   *sql.DB
	path string
}

// OpenTimeline opens (or creates) the timeline database in dataDir.
func OpenTimeline(dataDir string) (*TimelineStore, error) {
	if err := EnsureDataDir(dataDir); err != nil {
		return nil, err
	}
	path := filepath.Join(dataDir, "timeline.db")

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open timeline database: %w", err)
	}
	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS timeline (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	ts_ms   INTEGER NOT NULL,
	metrics TEXT NOT NULL,
	events  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timeline_ts ON timeline(ts_ms);`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize timeline schema: %w", err)
	}

	return &TimelineStore{db: db, path: path}, nil
}

// AppendPoint records one timeline observation.
func (s *TimelineStore) AppendPoint(ctx context.Context, p garden.TimelinePoint) error {
	metrics, err := json.Marshal(p.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	events, err := json.Marshal(p.Events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO timeline (ts_ms, metrics, events) VALUES (?, ?, ?)`,
		p.Timestamp.UnixMilli(), string(metrics), string(events))
	if err != nil {
		return fmt.Errorf("append timeline point: %w", err)
	}
	return nil
}

// LoadTimeline returns all recorded points ordered by timestamp. A row
// whose JSON columns cannot be decoded fails the load with
// *model.InputError.
func (s *TimelineStore) LoadTimeline(ctx context.Context) ([]garden.TimelinePoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts_ms, metrics, events FROM timeline ORDER BY ts_ms, id`)
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer rows.Close()

	var points []garden.TimelinePoint
	for rows.Next() {
		var tsMs int64
		var metricsJSON, eventsJSON string
		if err := rows.Scan(&tsMs, &metricsJSON, &eventsJSON); err != nil {
			return nil, fmt.Errorf("scan timeline row: %w", err)
		}

		p := garden.TimelinePoint{Timestamp: time.UnixMilli(tsMs).UTC()}
		if err := json.Unmarshal([]byte(metricsJSON), &p.Metrics); err != nil {
			return nil, &model.InputError{Source: "timeline", Err: fmt.Errorf("decode metrics: %w", err)}
		}
		if err := json.Unmarshal([]byte(eventsJSON), &p.Events); err != nil {
			return nil, &model.InputError{Source: "timeline", Err: fmt.Errorf("decode events: %w", err)}
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline rows: %w", err)
	}
	return points, nil
}

// Count returns the number of recorded points.
func (s *TimelineStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM timeline`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count timeline points: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *TimelineStore) Close() error {
	return s.db.Close()
}
