package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/model"
)

// ModelStore persists the trained prediction model as a JSON artifact.
type ModelStore struct {
	path string
}

// NewModelStore returns a store writing model.json in dataDir.
func NewModelStore(dataDir string) *ModelStore {
	return &ModelStore{path: filepath.Join(dataDir, "model.json")}
}

// Path returns the artifact location.
func (s *ModelStore) Path() string { return s.path }

// Save writes the model artifact atomically (write temp, then rename).
func (s *ModelStore) Save(m *model.PredictionModel) error {
	return writeJSONArtifact(s.path, m)
}

// Load reads the model artifact. A missing, unreadable, or malformed
// artifact fails with *model.InputError.
func (s *ModelStore) Load() (*model.PredictionModel, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &model.InputError{Source: "model", Err: err}
	}
	var m model.PredictionModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &model.InputError{Source: "model", Err: err}
	}
	if m.Correlations == nil {
		m.Correlations = map[string][]string{}
	}
	if m.GrowthCurves == nil {
		m.GrowthCurves = map[string]model.GrowthCurve{}
	}
	return &m, nil
}

// StateStore persists the current garden snapshot as a JSON artifact.
type StateStore struct {
	path string
}

// NewStateStore returns a store writing state.json in dataDir.
func NewStateStore(dataDir string) *StateStore {
	return &StateStore{path: filepath.Join(dataDir, "state.json")}
}

// Path returns the artifact location.
func (s *StateStore) Path() string { return s.path }

// Save writes the snapshot artifact atomically.
func (s *StateStore) Save(snap garden.Snapshot) error {
	return writeJSONArtifact(s.path, snap)
}

// Load reads and validates the snapshot artifact. A missing, malformed, or
// structurally invalid snapshot fails with *model.InputError.
func (s *StateStore) Load() (garden.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return garden.Snapshot{}, &model.InputError{Source: "state", Err: err}
	}
	var snap garden.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return garden.Snapshot{}, &model.InputError{Source: "state", Err: err}
	}
	if err := ValidateSnapshot(snap); err != nil {
		return garden.Snapshot{}, &model.InputError{Source: "state", Err: err}
	}
	return snap, nil
}

// writeJSONArtifact writes v as indented JSON via a temp file and rename,
// so readers never observe a half-written artifact.
func writeJSONArtifact(path string, v any) error {
	if err := EnsureDataDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}
