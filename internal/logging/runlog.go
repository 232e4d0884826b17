package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TrainingEntry records one training pass over the timeline.
type TrainingEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Kind           string    `json:"kind"` // always "training"
	TimelinePoints int       `json:"timeline_points"`
	Patterns       int       `json:"patterns"`
	Correlations   int       `json:"correlations"`
	CriticalMass   float64   `json:"critical_mass"`
	DurationMs     int64     `json:"duration_ms"`
}

// SimulationEntry records one completed simulateWhatIf invocation.
type SimulationEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Kind       string    `json:"kind"` // always "simulation"
	BranchID   string    `json:"branch_id"`
	Hypothesis string    `json:"hypothesis"`
	Seed       int64     `json:"seed"`
	Runs       int       `json:"runs"`
	FailedRuns int       `json:"failed_runs"`
	Outcomes   int       `json:"outcomes"`
	Truncated  bool      `json:"truncated,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// RunLogger writes training and simulation trace entries to a JSONL file.
// It is safe for concurrent use. A nil RunLogger is safe to use; all
// methods are no-ops on nil receiver.
type RunLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewRunLogger opens (or creates) runs.jsonl in dataDir for appending.
func NewRunLogger(dataDir string) (*RunLogger, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	path := filepath.Join(dataDir, "runs.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return &RunLogger{file: f}, nil
}

// LogTraining appends a training entry. Safe to call on nil receiver.
func (l *RunLogger) LogTraining(e TrainingEntry) {
	e.Kind = "training"
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.write(e)
}

// LogSimulation appends a simulation entry. Safe to call on nil receiver.
func (l *RunLogger) LogSimulation(e SimulationEntry) {
	e.Kind = "simulation"
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.write(e)
}

func (l *RunLogger) write(v any) {
	if l == nil || l.file == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return // skip unmarshalable entries
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (l *RunLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
