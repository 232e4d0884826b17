package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/store"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize garden tracking in the project root",
		Long: `Initialize garden tracking by creating the .gardenseer data directory,
a default gardenseer.yaml config, and an empty garden state.

Existing files are left untouched, so init is safe to re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			dir := dataDir(cfg, root)
			if err := store.EnsureDataDir(dir); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}

			cfgPath := filepath.Join(root, "gardenseer.yaml")
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				content := fmt.Sprintf(`# Gardenseer configuration
# created: %s
logging:
  level: info
  trace_runs: true
simulation:
  monte_carlo_runs: 10
  time_horizon: 1h
`, time.Now().Format(time.RFC3339))
				if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
					return fmt.Errorf("create gardenseer.yaml: %w", err)
				}
			}

			ss := store.NewStateStore(dir)
			if _, err := os.Stat(ss.Path()); os.IsNotExist(err) {
				empty := garden.Snapshot{
					Glyphs:      []garden.Glyph{},
					Connections: []garden.Connection{},
				}
				if err := ss.Save(empty); err != nil {
					return fmt.Errorf("create state.json: %w", err)
				}
			}

			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "initialized",
					"path":   dir,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized garden tracking in %s\n", dir)
			}
			return nil
		},
	}
}
