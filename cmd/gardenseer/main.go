package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mossline/gardenseer/internal/config"
	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/store"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "gardenseer",
		Short: "Gardenseer - predictive simulation for glyph gardens",
		Long: `gardenseer learns growth patterns from a garden's recorded history and
runs seeded what-if simulations of its possible futures.

It trains a prediction model from timeline events and metrics, then
scores hypothetical action sequences by probability and desirability.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default <root>/gardenseer.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newRecordCmd(),
		newTrainCmd(),
		newSimulateCmd(),
		newAlternativesCmd(),
		newPredictCmd(),
		newTrajectoryCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "gardenseer version %s\n", version)
			}
		},
	}
}

// loadConfig resolves and loads the configuration for a command. The
// --config flag wins; otherwise gardenseer.yaml in the project root is
// used, and a missing file yields defaults.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, _ := cmd.Flags().GetString("root")
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = filepath.Join(root, "gardenseer.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, root, err
	}
	return cfg, root, nil
}

// dataDir returns the garden data directory for the given root, honoring
// the storage override from config.
func dataDir(cfg config.Config, root string) string {
	if cfg.Storage.DataDir != "" {
		return cfg.Storage.DataDir
	}
	return store.DataDir(root)
}

// loadSnapshot reads the current garden state, either from an explicit
// JSON file or from state.json in the data directory.
func loadSnapshot(statePath, dir string) (garden.Snapshot, error) {
	if statePath == "" {
		return store.NewStateStore(dir).Load()
	}
	data, err := os.ReadFile(statePath)
	if err != nil {
		return garden.Snapshot{}, fmt.Errorf("read state %s: %w", statePath, err)
	}
	var snap garden.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return garden.Snapshot{}, fmt.Errorf("parse state %s: %w", statePath, err)
	}
	if err := store.ValidateSnapshot(snap); err != nil {
		return garden.Snapshot{}, fmt.Errorf("invalid state %s: %w", statePath, err)
	}
	return snap, nil
}

func printJSON(cmd *cobra.Command, v any) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
