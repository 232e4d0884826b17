// Package store provides the reference persistence implementations the
// engine's collaborators use: a SQLite-backed timeline store and JSON
// artifact stores for the trained model and the current garden state.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// dataDirName is the default directory name under the project root.
const dataDirName = ".gardenseer"

// DataDir returns the data directory for the given project root. The
// location is always derived from explicit configuration, never from
// ambient environment variables.
func DataDir(projectRoot string) string {
	return filepath.Join(projectRoot, dataDirName)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return nil
}
