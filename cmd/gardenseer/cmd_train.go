package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mossline/gardenseer/internal/analyzer"
	"github.com/mossline/gardenseer/internal/logging"
	"github.com/mossline/gardenseer/internal/store"
)

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train a prediction model from the recorded timeline",
		Long: `Analyze the recorded timeline and train a prediction model: event
patterns, growth curves per metric, event-type correlations, and the
garden's critical mass. The model is written to model.json in the data
directory and used by simulate, alternatives, predict, and trajectory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			log := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			dir := dataDir(cfg, root)

			ts, err := store.OpenTimeline(dir)
			if err != nil {
				return fmt.Errorf("open timeline: %w", err)
			}
			defer ts.Close()

			points, err := ts.LoadTimeline(context.Background())
			if err != nil {
				return fmt.Errorf("load timeline: %w", err)
			}

			if err := analyzer.CheckTimeline(len(points)); err != nil {
				var ide *analyzer.InsufficientDataError
				if errors.As(err, &ide) {
					log.Warn("timeline too short for meaningful patterns",
						"points", ide.Points)
				}
			}

			acfg := analyzer.DefaultConfig()
			acfg.Seed = cfg.Simulation.Seed
			a := analyzer.New(acfg, log)

			start := time.Now()
			m, err := a.Train(points)
			if err != nil {
				return fmt.Errorf("train model: %w", err)
			}

			if err := store.NewModelStore(dir).Save(m); err != nil {
				return fmt.Errorf("save model: %w", err)
			}

			if cfg.Logging.TraceRuns {
				trace, err := logging.NewRunLogger(dir)
				if err == nil {
					trace.LogTraining(logging.TrainingEntry{
						TimelinePoints: len(points),
						Patterns:       len(m.Patterns),
						Correlations:   len(m.Correlations),
						CriticalMass:   m.CriticalMass,
						DurationMs:     time.Since(start).Milliseconds(),
					})
					trace.Close()
				}
			}

			if jsonOut {
				printJSON(cmd, map[string]any{
					"status":          "trained",
					"timeline_points": len(points),
					"patterns":        len(m.Patterns),
					"growth_curves":   len(m.GrowthCurves),
					"correlations":    len(m.Correlations),
					"critical_mass":   m.CriticalMass,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Trained model from %d timeline points:\n", len(points))
				fmt.Fprintf(cmd.OutOrStdout(), "  Patterns:      %d\n", len(m.Patterns))
				fmt.Fprintf(cmd.OutOrStdout(), "  Growth curves: %d\n", len(m.GrowthCurves))
				fmt.Fprintf(cmd.OutOrStdout(), "  Correlations:  %d\n", len(m.Correlations))
				fmt.Fprintf(cmd.OutOrStdout(), "  Critical mass: %.1f\n", m.CriticalMass)
			}
			return nil
		},
	}
}
