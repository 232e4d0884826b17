package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mossline/gardenseer/internal/config"
	"github.com/mossline/gardenseer/internal/logging"
	"github.com/mossline/gardenseer/internal/simulate"
	"github.com/mossline/gardenseer/internal/store"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a what-if simulation of a hypothetical action sequence",
		Long: `Simulate a hypothetical future: apply a sequence of actions to the
current garden state and evolve it to the time horizon using the trained
model. Runs multiple seeded Monte Carlo passes and reports the averaged
branch with its probability and desirability scores.

Actions are given as type or type:target. Types: plant, connect, mutate,
prune, nurture.

Example:
  gardenseer simulate --hypothesis "aggressive planting" \
    --action plant --action nurture --action plant --horizon 2h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			hypothesis, _ := cmd.Flags().GetString("hypothesis")
			actionArgs, _ := cmd.Flags().GetStringArray("action")
			statePath, _ := cmd.Flags().GetString("state")

			actions, err := parseActions(actionArgs)
			if err != nil {
				return err
			}

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

			branch, err := sim.SimulateWhatIf(ctx, snap, hypothesis, actions, params)
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}

			if jsonOut {
				printJSON(cmd, branch)
			} else {
				printBranch(cmd, branch)
			}
			return nil
		},
	}

	cmd.Flags().String("hypothesis", "", "Description of the hypothetical future (required)")
	cmd.Flags().StringArray("action", nil, "Action as type or type:target (repeatable)")
	addSimulationFlags(cmd)
	cmd.MarkFlagRequired("hypothesis")

	return cmd
}

// addSimulationFlags registers the parameter flags shared by simulate and
// alternatives.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("horizon", 0, "Simulated time horizon (default from config)")
	cmd.Flags().Int("runs", 0, "Monte Carlo runs per branch (default from config)")
	cmd.Flags().Int64("seed", 0, "Base seed (default from config, 0 derives from clock)")
	cmd.Flags().Duration("budget", 0, "Wall-clock budget; exceeded runs are truncated")
	cmd.Flags().String("state", "", "Garden state JSON file (default <data>/state.json)")
	cmd.Flags().Int("max-glyphs", 0, "Desirability constraint: maximum glyph count")
	cmd.Flags().Float64("min-love", 0, "Desirability constraint: minimum total love")
	cmd.Flags().Int("required-connections", 0, "Desirability constraint: minimum connection count")
}

// simulationParams assembles simulation parameters from flags, falling
// back to config defaults.
func simulationParams(cmd *cobra.Command, cfg config.Config) (simulate.Parameters, time.Duration) {
	horizon, _ := cmd.Flags().GetDuration("horizon")
	runs, _ := cmd.Flags().GetInt("runs")
	seed, _ := cmd.Flags().GetInt64("seed")
	budget, _ := cmd.Flags().GetDuration("budget")

	if horizon <= 0 {
		horizon = cfg.Simulation.TimeHorizon.Std()
	}
	if runs <= 0 {
		runs = cfg.Simulation.MonteCarloRuns
	}
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if budget <= 0 {
		budget = cfg.Simulation.Budget.Std()
	}

	params := simulate.Parameters{
		TimeHorizon:    horizon,
		MonteCarloRuns: runs,
		Seed:           seed,
	}

	var cons simulate.Constraints
	set := false
	if v, _ := cmd.Flags().GetInt("max-glyphs"); cmd.Flags().Changed("max-glyphs") {
		cons.MaxGlyphs = &v
		set = true
	}
	if v, _ := cmd.Flags().GetFloat64("min-love"); cmd.Flags().Changed("min-love") {
		cons.MinLove = &v
		set = true
	}
	if v, _ := cmd.Flags().GetInt("required-connections"); cmd.Flags().Changed("required-connections") {
		cons.RequiredConnections = &v
		set = true
	}
	if set {
		params.Constraints = &cons
	}

	return params, budget
}

// openTrace opens the run-trace log when enabled. Returns nil otherwise;
// a nil RunLogger is a no-op.
func openTrace(cfg config.Config, dir string) *logging.RunLogger {
	if !cfg.Logging.TraceRuns {
		return nil
	}
	trace, err := logging.NewRunLogger(dir)
	if err != nil {
		return nil
	}
	return trace
}

func parseActions(specs []string) ([]simulate.Action, error) {
	actions := make([]simulate.Action, 0, len(specs))
	for _, spec := range specs {
		typ, target, _ := strings.Cut(spec, ":")
		switch simulate.ActionType(typ) {
		case simulate.ActionPlant, simulate.ActionConnect, simulate.ActionMutate,
			simulate.ActionPrune, simulate.ActionNurture:
		default:
			return nil, fmt.Errorf("unknown action type %q", typ)
		}
		actions = append(actions, simulate.Action{
			Type:   simulate.ActionType(typ),
			Target: target,
		})
	}
	return actions, nil
}

func printBranch(cmd *cobra.Command, b *simulate.Branch) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Branch %s: %s\n", b.ID, b.Hypothesis)
	fmt.Fprintf(out, "  Probability:  %.3f\n", b.Probability)
	fmt.Fprintf(out, "  Desirability: %+.3f\n", b.Desirability)
	fmt.Fprintf(out, "  Outcomes:     %d\n", len(b.Outcomes))
	if b.Truncated {
		fmt.Fprintln(out, "  Truncated:    yes (wall-clock budget exceeded)")
	}
	if final := b.FinalOutcome(); final != nil {
		fmt.Fprintf(out, "  Final state:  %.1f glyphs, %.2f love, %.2f density, %.2f diversity\n",
			final.State.GlyphCount, final.State.TotalLove,
			final.State.ConnectionDensity, final.State.DiversityIndex)
		for _, e := range final.Events {
			fmt.Fprintf(out, "  Event:   %s\n", e)
		}
		for _, w := range final.Warnings {
			fmt.Fprintf(out, "  Warning: %s\n", w)
		}
	}
}
