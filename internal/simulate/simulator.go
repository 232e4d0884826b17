package simulate

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/logging"
	"github.com/mossline/gardenseer/internal/model"
)

// Config holds the tunable parameters of the simulator.
type Config struct {
	// ActionInterval is the virtual-clock advance per explicit action.
	// Default: 1 minute.
	ActionInterval time.Duration

	// EvolutionInterval is the virtual-clock advance per natural-evolution
	// step. Default: 5 minutes.
	EvolutionInterval time.Duration

	// DefaultRuns is the Monte Carlo run count used when the caller's
	// parameters do not specify one. Default: 10.
	DefaultRuns int
}

// DefaultConfig returns the default simulator configuration.
func DefaultConfig() Config {
	return Config{
		ActionInterval:    time.Minute,
		EvolutionInterval: 5 * time.Minute,
		DefaultRuns:       10,
	}
}

// Simulator executes what-if simulations against a prediction model. The
// model is read-only for the simulator's lifetime; all mutable state lives
// in per-run working snapshots.
type Simulator struct {
	model *model.PredictionModel
	cfg   Config
	log   *slog.Logger
	trace *logging.RunLogger

	// now supplies the simulation starting point; overridable in tests.
	now func() time.Time
}

// New creates a Simulator over the given trained model. A nil logger falls
// back to slog.Default; a nil trace logger disables run tracing.
func New(m *model.PredictionModel, cfg Config, log *slog.Logger, trace *logging.RunLogger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{
		model: m,
		cfg:   cfg,
		log:   log,
		trace: trace,
		now:   time.Now,
	}
}

// runResult carries one run's output across the aggregation barrier.
type runResult struct {
	outcomes  []Outcome
	truncated bool
	err       error
}

// SimulateWhatIf runs MonteCarloRuns seeded simulations of the hypothesis
// concurrently and aggregates them into one scored branch. Run k uses seed
// params.Seed+k, so a fixed base seed reproduces the branch exactly.
//
// A context deadline acts as the wall-clock budget: on expiry the branch
// holds the partial aggregated outcomes computed so far and is marked
// Truncated. Individual failing runs are excluded from aggregation; only
// when every run fails does the call fail, with *AggregationError.
func (s *Simulator) SimulateWhatIf(ctx context.Context, state garden.Snapshot, hypothesis string, actions []Action, params Parameters) (*Branch, error) {
	started := time.Now()
	start := s.now()

	runs := params.MonteCarloRuns
	if runs <= 0 {
		runs = s.cfg.DefaultRuns
	}

	results := make([]runResult, runs)
	var wg sync.WaitGroup
	for k := 0; k < runs; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			outcomes, truncated, err := s.runSingle(ctx, params.Seed+int64(k), state, actions, params.TimeHorizon, start)
			results[k] = runResult{outcomes: outcomes, truncated: truncated, err: err}
		}(k)
	}
	wg.Wait()

	var sequences [][]Outcome
	var errs []error
	truncated := false
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		if res.truncated {
			truncated = true
			// A run the deadline cut off before its first step has
			// nothing to contribute.
			if len(res.outcomes) == 0 {
				continue
			}
		}
		sequences = append(sequences, res.outcomes)
	}

	if len(errs) == runs {
		return nil, &AggregationError{Runs: runs, Errs: errs}
	}
	if len(errs) > 0 {
		s.log.Debug("excluded failed simulation runs", "failed", len(errs), "total", runs)
	}

	branch := &Branch{
		ID:            uuid.NewString(),
		Hypothesis:    hypothesis,
		StartingPoint: start,
		Actions:       actions,
		Outcomes:      aggregate(sequences),
		Truncated:     truncated,
	}
	branch.Probability = s.probability(branch.Outcomes, len(state.Glyphs))
	branch.Desirability = desirability(branch.FinalOutcome(), params.Constraints)

	s.trace.LogSimulation(logging.SimulationEntry{
		BranchID:   branch.ID,
		Hypothesis: hypothesis,
		Seed:       params.Seed,
		Runs:       runs,
		FailedRuns: len(errs),
		Outcomes:   len(branch.Outcomes),
		Truncated:  truncated,
		DurationMs: time.Since(started).Milliseconds(),
	})
	return branch, nil
}

// aggregate combines per-run outcome sequences step by step: numeric
// metrics are averaged and events/warnings unioned in first-seen order
// across the runs that reached each step index. All runs follow the same
// step schedule, so the timestamp is taken from the first sequence.
func aggregate(sequences [][]Outcome) []Outcome {
	if len(sequences) == 0 {
		return []Outcome{}
	}

	steps := len(sequences[0])
	for _, seq := range sequences[1:] {
		if len(seq) < steps {
			steps = len(seq)
		}
	}

	aggregated := make([]Outcome, 0, steps)
	for i := 0; i < steps; i++ {
		out := Outcome{
			Timestamp: sequences[0][i].Timestamp,
			Events:    []string{},
		}
		seen := map[string]bool{}
		seenWarn := map[string]bool{}
		for _, seq := range sequences {
			o := seq[i]
			out.State.GlyphCount += o.State.GlyphCount
			out.State.TotalLove += o.State.TotalLove
			out.State.ConnectionDensity += o.State.ConnectionDensity
			out.State.DiversityIndex += o.State.DiversityIndex
			for _, e := range o.Events {
				if !seen[e] {
					seen[e] = true
					out.Events = append(out.Events, e)
				}
			}
			for _, w := range o.Warnings {
				if !seenWarn[w] {
					seenWarn[w] = true
					out.Warnings = append(out.Warnings, w)
				}
			}
		}
		n := float64(len(sequences))
		out.State.GlyphCount /= n
		out.State.TotalLove /= n
		out.State.ConnectionDensity /= n
		out.State.DiversityIndex /= n
		aggregated = append(aggregated, out)
	}
	return aggregated
}

// probability scores how likely the aggregated future is. Each step
// multiplies in a 0.9^warnings penalty and a growth-alignment factor
// 1-|expected-actual|. The alignment factor can go negative when actual
// growth diverges from the model by more than 1.0; the product is only
// clamped at the end, so a wildly diverging step can zero the branch.
func (s *Simulator) probability(outcomes []Outcome, initialGlyphs int) float64 {
	expected := 1.0
	if curve, ok := s.model.Curve(garden.MetricGlyphCount); ok {
		expected = 1 + curve.Rate()
	}

	p := 1.0
	for _, o := range outcomes {
		p *= math.Pow(0.9, float64(len(o.Warnings)))
		actual := o.State.GlyphCount / math.Max(float64(initialGlyphs), 1)
		p *= 1 - math.Abs(expected-actual)
	}
	return clamp(p, 0, 1)
}

// desirability scores the branch's end state: love and connectivity
// saturate through tanh, diversity contributes linearly, and warnings and
// violated constraints subtract. A branch with no outcomes scores 0.
func desirability(final *Outcome, cons *Constraints) float64 {
	if final == nil {
		return 0
	}

	score := math.Tanh(final.State.TotalLove/10)*0.3 +
		math.Tanh(final.State.ConnectionDensity)*0.3 +
		final.State.DiversityIndex*0.2 -
		float64(len(final.Warnings))*0.1

	if cons != nil {
		if cons.MaxGlyphs != nil && final.State.GlyphCount > float64(*cons.MaxGlyphs) {
			score -= 0.5
		}
		if cons.MinLove != nil && final.State.TotalLove < *cons.MinLove {
			score -= 0.5
		}
		// Connection count is recovered from density, which is
		// connections per glyph.
		if cons.RequiredConnections != nil &&
			final.State.ConnectionDensity*final.State.GlyphCount < float64(*cons.RequiredConnections) {
			score -= 0.5
		}
	}
	return clamp(score, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
