package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mossline/gardenseer/internal/analyzer"
	"github.com/mossline/gardenseer/internal/logging"
	"github.com/mossline/gardenseer/internal/store"
)

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the most likely next garden event",
		Long: `Predict the next event from the trained model's patterns, matched
against recent event descriptions. With no matching pattern the default
prediction of continued organic growth is returned.

Example:
  gardenseer predict --recent "Sprouted rose glyph" --recent "Connected rose to fern"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			recent, _ := cmd.Flags().GetStringArray("recent")

			dir := dataDir(cfg, root)
			m, err := store.NewModelStore(dir).Load()
			if err != nil {
				return fmt.Errorf("load model (run 'gardenseer train' first): %w", err)
			}

			log := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			acfg := analyzer.DefaultConfig()
			acfg.Seed = cfg.Simulation.Seed
			a := analyzer.New(acfg, log)

			pred := a.PredictNextEvent(m, recent)

			if jsonOut {
				printJSON(cmd, pred)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Next event: %s\n", pred.Event)
				fmt.Fprintf(cmd.OutOrStdout(), "  Probability: %.2f\n", pred.Probability)
				fmt.Fprintf(cmd.OutOrStdout(), "  Timeframe:   %s\n", pred.Timeframe)
			}
			return nil
		},
	}

	cmd.Flags().StringArray("recent", nil, "Recent event description (repeatable)")
	return cmd
}
