package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mossline/gardenseer/internal/analyzer"
	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/logging"
	"github.com/mossline/gardenseer/internal/model"
	"github.com/mossline/gardenseer/internal/simulate"
	"github.com/mossline/gardenseer/internal/store"
)

func (s *Server) handleTrain(ctx context.Context, req *sdk.CallToolRequest, args GardenTrainInput) (*sdk.CallToolResult, GardenTrainOutput, error) {
	ts, err := store.OpenTimeline(s.dataDir)
	if err != nil {
		return nil, GardenTrainOutput{}, fmt.Errorf("open timeline: %w", err)
	}
	defer ts.Close()

	points, err := ts.LoadTimeline(ctx)
	if err != nil {
		return nil, GardenTrainOutput{}, fmt.Errorf("load timeline: %w", err)
	}

	var warning string
	if err := analyzer.CheckTimeline(len(points)); err != nil {
		var ide *analyzer.InsufficientDataError
		if errors.As(err, &ide) {
			warning = ide.Error()
		}
	}

	start := time.Now()
	m, err := s.newAnalyzer().Train(points)
	if err != nil {
		return nil, GardenTrainOutput{}, fmt.Errorf("train model: %w", err)
	}
	if err := store.NewModelStore(s.dataDir).Save(m); err != nil {
		return nil, GardenTrainOutput{}, fmt.Errorf("save model: %w", err)
	}

	s.trace.LogTraining(logging.TrainingEntry{
		TimelinePoints: len(points),
		Patterns:       len(m.Patterns),
		Correlations:   len(m.Correlations),
		CriticalMass:   m.CriticalMass,
		DurationMs:     time.Since(start).Milliseconds(),
	})

	return nil, GardenTrainOutput{
		TimelinePoints: len(points),
		Patterns:       len(m.Patterns),
		GrowthCurves:   len(m.GrowthCurves),
		Correlations:   len(m.Correlations),
		CriticalMass:   m.CriticalMass,
		Warning:        warning,
	}, nil
}

func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args GardenSimulateInput) (*sdk.CallToolResult, GardenSimulateOutput, error) {
	m, err := s.loadModel()
	if err != nil {
		return nil, GardenSimulateOutput{}, err
	}
	snap, err := store.NewStateStore(s.dataDir).Load()
	if err != nil {
		return nil, GardenSimulateOutput{}, fmt.Errorf("load garden state: %w", err)
	}

	actions := make([]simulate.Action, 0, len(args.Actions))
	for _, a := range args.Actions {
		switch simulate.ActionType(a.Type) {
		case simulate.ActionPlant, simulate.ActionConnect, simulate.ActionMutate,
			simulate.ActionPrune, simulate.ActionNurture:
		default:
			return nil, GardenSimulateOutput{}, fmt.Errorf("unknown action type %q", a.Type)
		}
		actions = append(actions, simulate.Action{
			Type:   simulate.ActionType(a.Type),
			Target: a.Target,
		})
	}

	params, err := s.simulationParams(args.Horizon, args.Runs, args.Seed)
	if err != nil {
		return nil, GardenSimulateOutput{}, err
	}
	if args.MaxGlyphs != nil || args.MinLove != nil || args.RequiredConnections != nil {
		params.Constraints = &simulate.Constraints{
			MaxGlyphs:           args.MaxGlyphs,
			MinLove:             args.MinLove,
			RequiredConnections: args.RequiredConnections,
		}
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	branch, err := s.newSimulator(m).SimulateWhatIf(ctx, snap, args.Hypothesis, actions, params)
	if err != nil {
		return nil, GardenSimulateOutput{}, fmt.Errorf("simulate: %w", err)
	}

	return nil, GardenSimulateOutput{Branch: summarize(branch)}, nil
}

func (s *Server) handleAlternatives(ctx context.Context, req *sdk.CallToolRequest, args GardenAlternativesInput) (*sdk.CallToolResult, GardenAlternativesOutput, error) {
	m, err := s.loadModel()
	if err != nil {
		return nil, GardenAlternativesOutput{}, err
	}
	snap, err := store.NewStateStore(s.dataDir).Load()
	if err != nil {
		return nil, GardenAlternativesOutput{}, fmt.Errorf("load garden state: %w", err)
	}

	params, err := s.simulationParams(args.Horizon, args.Runs, args.Seed)
	if err != nil {
		return nil, GardenAlternativesOutput{}, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	branches, err := s.newSimulator(m).GenerateAlternatives(ctx, snap, params)
	if err != nil {
		return nil, GardenAlternativesOutput{}, fmt.Errorf("generate alternatives: %w", err)
	}

	out := GardenAlternativesOutput{
		Branches: make([]BranchSummary, 0, len(branches)),
		Count:    len(branches),
	}
	for _, b := range branches {
		out.Branches = append(out.Branches, summarize(b))
	}
	return nil, out, nil
}

func (s *Server) handleNextEvent(ctx context.Context, req *sdk.CallToolRequest, args GardenNextEventInput) (*sdk.CallToolResult, GardenNextEventOutput, error) {
	m, err := s.loadModel()
	if err != nil {
		return nil, GardenNextEventOutput{}, err
	}

	pred := s.newAnalyzer().PredictNextEvent(m, args.Recent)
	return nil, GardenNextEventOutput{
		Event:       pred.Event,
		Probability: pred.Probability,
		Timeframe:   pred.Timeframe.String(),
	}, nil
}

func (s *Server) handleTrajectory(ctx context.Context, req *sdk.CallToolRequest, args GardenTrajectoryInput) (*sdk.CallToolResult, GardenTrajectoryOutput, error) {
	m, err := s.loadModel()
	if err != nil {
		return nil, GardenTrajectoryOutput{}, err
	}

	metric := args.Metric
	if metric == "" {
		metric = garden.MetricGlyphCount
	}
	horizon, err := s.parseHorizon(args.Horizon)
	if err != nil {
		return nil, GardenTrajectoryOutput{}, err
	}

	values := s.newAnalyzer().PredictGrowthTrajectory(m, metric, horizon)
	if values == nil {
		values = []float64{}
	}
	return nil, GardenTrajectoryOutput{
		Metric:  metric,
		Horizon: horizon.String(),
		Values:  values,
	}, nil
}

func (s *Server) loadModel() (*model.PredictionModel, error) {
	m, err := store.NewModelStore(s.dataDir).Load()
	if err != nil {
		return nil, fmt.Errorf("load model (run garden_train first): %w", err)
	}
	return m, nil
}

func (s *Server) newAnalyzer() *analyzer.Analyzer {
	cfg := analyzer.DefaultConfig()
	cfg.Seed = s.cfg.Runtime.Simulation.Seed
	return analyzer.New(cfg, s.log)
}

func (s *Server) newSimulator(m *model.PredictionModel) *simulate.Simulator {
	return simulate.New(m, simulate.DefaultConfig(), s.log, s.trace)
}

// parseHorizon resolves a duration string, falling back to the
// configured default.
func (s *Server) parseHorizon(raw string) (time.Duration, error) {
	if raw == "" {
		return s.cfg.Runtime.Simulation.TimeHorizon.Std(), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse horizon %q: %w", raw, err)
	}
	return d, nil
}

func (s *Server) simulationParams(horizon string, runs int, seed int64) (simulate.Parameters, error) {
	h, err := s.parseHorizon(horizon)
	if err != nil {
		return simulate.Parameters{}, err
	}
	if runs <= 0 {
		runs = s.cfg.Runtime.Simulation.MonteCarloRuns
	}
	if seed == 0 {
		seed = s.cfg.Runtime.Simulation.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return simulate.Parameters{
		TimeHorizon:    h,
		MonteCarloRuns: runs,
		Seed:           seed,
	}, nil
}

// withBudget applies the configured wall-clock budget to the context.
func (s *Server) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	budget := s.cfg.Runtime.Simulation.Budget.Std()
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}

func summarize(b *simulate.Branch) BranchSummary {
	sum := BranchSummary{
		ID:           b.ID,
		Hypothesis:   b.Hypothesis,
		Probability:  b.Probability,
		Desirability: b.Desirability,
		Outcomes:     len(b.Outcomes),
		Truncated:    b.Truncated,
	}
	if final := b.FinalOutcome(); final != nil {
		sum.FinalState = final.State
		sum.Events = final.Events
		sum.Warnings = final.Warnings
	}
	return sum
}
