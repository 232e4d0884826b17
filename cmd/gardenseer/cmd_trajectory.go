package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mossline/gardenseer/internal/analyzer"
	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/logging"
	"github.com/mossline/gardenseer/internal/store"
)

func newTrajectoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trajectory",
		Short: "Project a metric's growth trajectory over a time horizon",
		Long: `Project the trajectory of a metric over the time horizon using the
trained growth curve for that metric. Emits ten evenly spaced projected
values. Without a trained curve for the metric nothing is projected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			metric, _ := cmd.Flags().GetString("metric")
			horizon, _ := cmd.Flags().GetDuration("horizon")
			if horizon <= 0 {
				horizon = cfg.Simulation.TimeHorizon.Std()
			}

			dir := dataDir(cfg, root)
			m, err := store.NewModelStore(dir).Load()
			if err != nil {
				return fmt.Errorf("load model (run 'gardenseer train' first): %w", err)
			}

			log := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			acfg := analyzer.DefaultConfig()
			acfg.Seed = cfg.Simulation.Seed
			a := analyzer.New(acfg, log)

			values := a.PredictGrowthTrajectory(m, metric, horizon)

			if jsonOut {
				printJSON(cmd, map[string]any{
					"metric":  metric,
					"horizon": horizon.String(),
					"values":  values,
				})
				return nil
			}
			if len(values) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No growth curve trained for metric %q.\n", metric)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Projected %s over %s:\n", metric, horizon)
			step := horizon / time.Duration(len(values))
			for i, v := range values {
				fmt.Fprintf(cmd.OutOrStdout(), "  +%-8s %.2f\n", (step * time.Duration(i+1)).String(), v)
			}
			return nil
		},
	}

	cmd.Flags().String("metric", garden.MetricGlyphCount, "Metric to project")
	cmd.Flags().Duration("horizon", 0, "Projection horizon (default from config)")
	return cmd
}
