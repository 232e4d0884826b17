package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mossline/gardenseer/internal/logging"
	"github.com/mossline/gardenseer/internal/simulate"
	"github.com/mossline/gardenseer/internal/store"
)

func newAlternativesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alternatives",
		Short: "Simulate the standard alternative futures for the garden",
		Long: `Simulate the three standard alternative futures from the current garden
state: aggressive growth, deep connections, and rapid mutation. Each is
a full what-if simulation; compare their probability and desirability
to choose a direction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			statePath, _ := cmd.Flags().GetString("state")

			dir := dataDir(cfg, root)
			m, err := store.NewModelStore(dir).Load()
			if err != nil {
				return fmt.Errorf("load model (run 'gardenseer train' first): %w", err)
			}
			snap, err := loadSnapshot(statePath, dir)
			if err != nil {
				return err
			}

			params, budget := simulationParams(cmd, cfg)
			log := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			trace := openTrace(cfg, dir)
			defer trace.Close()

			sim := simulate.New(m, simulate.DefaultConfig(), log, trace)

			ctx := context.Background()
			if budget > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, budget)
				defer cancel()
			}

			branches, err := sim.GenerateAlternatives(ctx, snap, params)
			if err != nil {
				return fmt.Errorf("generate alternatives: %w", err)
			}

			if jsonOut {
				printJSON(cmd, map[string]any{
					"branches": branches,
					"count":    len(branches),
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Alternative futures (%d):\n\n", len(branches))
				for _, b := range branches {
					printBranch(cmd, b)
					fmt.Fprintln(cmd.OutOrStdout())
				}
			}
			return nil
		},
	}

	addSimulationFlags(cmd)
	return cmd
}
