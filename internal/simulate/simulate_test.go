package simulate

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/model"
	"github.com/mossline/gardenseer/internal/rng"
)

var simStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testModel returns a small trained model with a growth pattern and a
// modest glyph-count growth curve.
func testModel() *model.PredictionModel {
	m := model.New()
	m.Patterns = []model.Pattern{
		{
			Type:         model.PatternGrowth,
			Trigger:      "Sprouted glyph",
			Outcome:      "Connection formed nearby",
			Probability:  0.7,
			TimeToEffect: 5 * time.Minute,
			ImpactRadius: 0.3,
		},
	}
	m.GrowthCurves[garden.MetricGlyphCount] = model.GrowthCurve{
		Type:               model.CurveExponential,
		Parameters:         []float64{0.05},
		ConfidenceInterval: 0.7,
	}
	m.CriticalMass = 50
	return m
}

func testState() garden.Snapshot {
	return garden.Snapshot{
		Glyphs: []garden.Glyph{
			{ID: "g1", Type: garden.GlyphSeed, Genetics: garden.Genetics{LoveFactor: 0.8}},
			{ID: "g2", Type: garden.GlyphEntity, Genetics: garden.Genetics{LoveFactor: 0.6}},
		},
		Connections: []garden.Connection{
			{Source: "g1", Target: "g2", Strength: 0.7},
		},
	}
}

func testSimulator(m *model.PredictionModel) *Simulator {
	s := New(m, DefaultConfig(), nil, nil)
	s.now = func() time.Time { return simStart }
	return s
}

func TestRunSingle_Deterministic(t *testing.T) {
	s := testSimulator(testModel())
	actions := []Action{{Type: ActionPlant}, {Type: ActionConnect}, {Type: ActionNurture}}

	first, truncated, err := s.runSingle(context.Background(), 42, testState(), actions, 30*time.Minute, simStart)
	if err != nil || truncated {
		t.Fatalf("runSingle: err=%v truncated=%v", err, truncated)
	}
	second, _, err := s.runSingle(context.Background(), 42, testState(), actions, 30*time.Minute, simStart)
	if err != nil {
		t.Fatalf("runSingle: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical seeds produced different outcome sequences")
	}

	third, _, err := s.runSingle(context.Background(), 43, testState(), actions, 30*time.Minute, simStart)
	if err != nil {
		t.Fatalf("runSingle: %v", err)
	}
	if reflect.DeepEqual(first, third) {
		t.Error("different seeds produced identical outcome sequences")
	}
}

func TestRunSingle_StrictlyIncreasingTimestamps(t *testing.T) {
	s := testSimulator(testModel())
	actions := []Action{{Type: ActionPlant}, {Type: ActionPlant}}

	outcomes, _, err := s.runSingle(context.Background(), 1, testState(), actions, time.Hour, simStart)
	if err != nil {
		t.Fatalf("runSingle: %v", err)
	}
	if len(outcomes) == 0 {
		t.Fatal("no outcomes")
	}
	for i := 1; i < len(outcomes); i++ {
		if !outcomes[i].Timestamp.After(outcomes[i-1].Timestamp) {
			t.Fatalf("timestamps not strictly increasing at step %d: %v then %v",
				i, outcomes[i-1].Timestamp, outcomes[i].Timestamp)
		}
	}
}

func TestRunSingle_DoesNotMutateCallerState(t *testing.T) {
	s := testSimulator(testModel())
	state := testState()

	_, _, err := s.runSingle(context.Background(), 5, state, []Action{{Type: ActionNurture}, {Type: ActionPlant}}, time.Hour, simStart)
	if err != nil {
		t.Fatalf("runSingle: %v", err)
	}
	if !reflect.DeepEqual(state, testState()) {
		t.Error("caller snapshot was mutated during simulation")
	}
}

func TestApplyAction_Plant(t *testing.T) {
	s := testSimulator(testModel())
	next, err := s.applyAction(testState(), Action{Type: ActionPlant}, rng.New(9))
	if err != nil {
		t.Fatalf("applyAction: %v", err)
	}
	if len(next.Glyphs) != 3 {
		t.Fatalf("glyphs = %d, want 3", len(next.Glyphs))
	}
	planted := next.Glyphs[2]
	if planted.Type != garden.GlyphSeed {
		t.Errorf("planted type = %q, want seed", planted.Type)
	}
	if lf := planted.Genetics.LoveFactor; lf < 0.5 || lf >= 1.0 {
		t.Errorf("loveFactor = %v, want [0.5,1.0)", lf)
	}
	if f := planted.Genetics.ResonanceFreq; f < 200 || f >= 800 {
		t.Errorf("resonanceFreq = %v, want [200,800)", f)
	}
}

func TestApplyAction_Connect(t *testing.T) {
	s := testSimulator(testModel())
	next, err := s.applyAction(testState(), Action{Type: ActionConnect}, rng.New(9))
	if err != nil {
		t.Fatalf("applyAction: %v", err)
	}
	if len(next.Connections) != 2 {
		t.Fatalf("connections = %d, want 2", len(next.Connections))
	}
	c := next.Connections[1]
	if c.Source != "g1" || c.Target != "g2" {
		t.Errorf("connection endpoints = %s->%s, want g1->g2", c.Source, c.Target)
	}
	if c.Strength < 0.5 || c.Strength >= 1.0 {
		t.Errorf("strength = %v, want [0.5,1.0)", c.Strength)
	}

	// Too few glyphs: no-op.
	lone := garden.Snapshot{Glyphs: []garden.Glyph{{ID: "only"}}}
	next, err = s.applyAction(lone, Action{Type: ActionConnect}, rng.New(9))
	if err != nil {
		t.Fatalf("applyAction: %v", err)
	}
	if len(next.Connections) != 0 {
		t.Error("connect with one glyph added a connection")
	}
}

func TestApplyAction_Mutate(t *testing.T) {
	s := testSimulator(testModel())
	next, err := s.applyAction(testState(), Action{Type: ActionMutate, Target: "g1"}, rng.New(9))
	if err != nil {
		t.Fatalf("applyAction: %v", err)
	}
	g := next.Glyphs[0]
	if g.Type != garden.GlyphEntity {
		t.Errorf("mutated type = %q, want entity", g.Type)
	}
	if got, want := g.Genetics.LoveFactor, 0.8*1.2; !almostEqual(got, want) {
		t.Errorf("loveFactor = %v, want %v", got, want)
	}

	// Missing target is absorbed as a no-op.
	next, err = s.applyAction(testState(), Action{Type: ActionMutate, Target: "ghost"}, rng.New(9))
	if err != nil {
		t.Fatalf("applyAction with missing target: %v", err)
	}
	if !reflect.DeepEqual(next, testState()) {
		t.Error("mutate with missing target changed state")
	}
}

func TestApplyAction_NurtureClamps(t *testing.T) {
	s := testSimulator(testModel())
	state := garden.Snapshot{Glyphs: []garden.Glyph{
		{ID: "a", Genetics: garden.Genetics{LoveFactor: 0.95}},
		{ID: "b", Genetics: garden.Genetics{LoveFactor: 0.5}},
	}}
	next, err := s.applyAction(state, Action{Type: ActionNurture}, rng.New(9))
	if err != nil {
		t.Fatalf("applyAction: %v", err)
	}
	if next.Glyphs[0].Genetics.LoveFactor != 1.0 {
		t.Errorf("clamped loveFactor = %v, want 1.0", next.Glyphs[0].Genetics.LoveFactor)
	}
	if got, want := next.Glyphs[1].Genetics.LoveFactor, 0.55; !almostEqual(got, want) {
		t.Errorf("loveFactor = %v, want %v", got, want)
	}
}

func TestApplyAction_Prune(t *testing.T) {
	s := testSimulator(testModel())
	next, err := s.applyAction(testState(), Action{Type: ActionPrune, Target: "g1"}, rng.New(9))
	if err != nil {
		t.Fatalf("applyAction: %v", err)
	}
	if len(next.Glyphs) != 1 || next.Glyphs[0].ID != "g2" {
		t.Errorf("glyphs after prune = %+v, want only g2", next.Glyphs)
	}
	if len(next.Connections) != 0 {
		t.Error("connections touching pruned glyph survived")
	}
}

func TestApplyAction_Unknown(t *testing.T) {
	s := testSimulator(testModel())
	_, err := s.applyAction(testState(), Action{Type: "terraform"}, rng.New(9))
	if err == nil {
		t.Fatal("unknown action type did not error")
	}
}

func TestCascades_OnlyAfterPlant(t *testing.T) {
	s := testSimulator(testModel())
	if events := s.cascades(Action{Type: ActionNurture}, rng.New(1)); len(events) != 0 {
		t.Errorf("cascades after nurture = %v, want none", events)
	}

	// With probability 0.7 a cascade fires for most seeds; with an
	// always-1.0 pattern it must always fire.
	m := model.New()
	m.Patterns = []model.Pattern{{Type: model.PatternGrowth, Outcome: "Cascade bloom", Probability: 1.0}}
	s2 := testSimulator(m)
	events := s2.cascades(Action{Type: ActionPlant}, rng.New(1))
	if len(events) != 1 || events[0] != "Cascade bloom" {
		t.Errorf("cascades = %v, want [Cascade bloom]", events)
	}
}

func TestDetectWarnings_SingleWarningScenario(t *testing.T) {
	m := garden.Metrics{
		GlyphCount:        101,
		TotalLove:         50,
		ConnectionDensity: 0.9,
		DiversityIndex:    0.5,
	}
	warnings := detectWarnings(m)
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if warnings[0] != warnOverpopulation {
		t.Errorf("warning = %q, want overpopulation", warnings[0])
	}
}

func TestDetectWarnings_CoOccur(t *testing.T) {
	m := garden.Metrics{
		GlyphCount:        120,
		TotalLove:         5, // below 120*0.2
		ConnectionDensity: 0.1,
		DiversityIndex:    0.1,
	}
	if warnings := detectWarnings(m); len(warnings) != 4 {
		t.Errorf("warnings = %v, want all four", warnings)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	seq := []Outcome{
		{
			Timestamp: simStart.Add(time.Minute),
			State:     garden.Metrics{GlyphCount: 3, TotalLove: 2.5, ConnectionDensity: 0.5, DiversityIndex: 0.25},
			Events:    []string{"Connection formed nearby"},
		},
		{
			Timestamp: simStart.Add(6 * time.Minute),
			State:     garden.Metrics{GlyphCount: 4, TotalLove: 2.75, ConnectionDensity: 0.25, DiversityIndex: 0.5},
			Events:    []string{},
			Warnings:  []string{warnIsolation},
		},
	}

	got := aggregate([][]Outcome{seq, seq, seq})
	if !reflect.DeepEqual(got, seq) {
		t.Errorf("aggregating identical sequences changed them:\n got %+v\nwant %+v", got, seq)
	}
}

func TestAggregate_AlignsToShortestRun(t *testing.T) {
	long := []Outcome{
		{Timestamp: simStart, State: garden.Metrics{GlyphCount: 2}, Events: []string{"a"}},
		{Timestamp: simStart.Add(time.Minute), State: garden.Metrics{GlyphCount: 4}, Events: []string{}},
	}
	short := []Outcome{
		{Timestamp: simStart, State: garden.Metrics{GlyphCount: 4}, Events: []string{"b"}},
	}

	got := aggregate([][]Outcome{long, short})
	if len(got) != 1 {
		t.Fatalf("aggregated steps = %d, want 1", len(got))
	}
	if got[0].State.GlyphCount != 3 {
		t.Errorf("averaged glyphCount = %v, want 3", got[0].State.GlyphCount)
	}
	if !reflect.DeepEqual(got[0].Events, []string{"a", "b"}) {
		t.Errorf("unioned events = %v, want [a b]", got[0].Events)
	}
}

func TestSimulateWhatIf_BoundsAndDeterminism(t *testing.T) {
	s := testSimulator(testModel())
	params := Parameters{TimeHorizon: 30 * time.Minute, MonteCarloRuns: 5, Seed: 7}
	actions := []Action{{Type: ActionPlant}, {Type: ActionConnect}}

	first, err := s.SimulateWhatIf(context.Background(), testState(), "grow the east bed", actions, params)
	if err != nil {
		t.Fatalf("SimulateWhatIf: %v", err)
	}
	if first.Probability < 0 || first.Probability > 1 {
		t.Errorf("probability = %v, want [0,1]", first.Probability)
	}
	if first.Desirability < -1 || first.Desirability > 1 {
		t.Errorf("desirability = %v, want [-1,1]", first.Desirability)
	}
	if first.Hypothesis != "grow the east bed" {
		t.Errorf("hypothesis = %q", first.Hypothesis)
	}
	if first.ID == "" {
		t.Error("branch has no ID")
	}

	second, err := s.SimulateWhatIf(context.Background(), testState(), "grow the east bed", actions, params)
	if err != nil {
		t.Fatalf("SimulateWhatIf: %v", err)
	}
	if !reflect.DeepEqual(first.Outcomes, second.Outcomes) {
		t.Error("same seed produced different aggregated outcomes")
	}
	if first.Probability != second.Probability || first.Desirability != second.Desirability {
		t.Error("same seed produced different scores")
	}
}

func TestSimulateWhatIf_ZeroHorizonBoundary(t *testing.T) {
	s := testSimulator(testModel())
	branch, err := s.SimulateWhatIf(context.Background(), testState(), "do nothing", nil,
		Parameters{TimeHorizon: 0, MonteCarloRuns: 1})
	if err != nil {
		t.Fatalf("SimulateWhatIf: %v", err)
	}
	if len(branch.Outcomes) != 0 {
		t.Errorf("outcomes = %d, want 0 (no natural-evolution steps at zero horizon)", len(branch.Outcomes))
	}
	if branch.Truncated {
		t.Error("zero-horizon branch marked truncated")
	}
}

func TestSimulateWhatIf_AllRunsFail(t *testing.T) {
	s := testSimulator(testModel())
	_, err := s.SimulateWhatIf(context.Background(), testState(), "bad plan",
		[]Action{{Type: "terraform"}}, Parameters{MonteCarloRuns: 3})

	var ae *AggregationError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *AggregationError", err)
	}
	if ae.Runs != 3 || len(ae.Errs) != 3 {
		t.Errorf("AggregationError = %+v, want 3 failed runs", ae)
	}
}

func TestSimulateWhatIf_TimeoutTruncates(t *testing.T) {
	s := testSimulator(testModel())
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // budget already exhausted

	branch, err := s.SimulateWhatIf(ctx, testState(), "long view",
		[]Action{{Type: ActionPlant}}, Parameters{TimeHorizon: time.Hour, MonteCarloRuns: 2})
	if err != nil {
		t.Fatalf("SimulateWhatIf on expired budget: %v", err)
	}
	if !branch.Truncated {
		t.Error("expired budget did not mark the branch truncated")
	}
}

func TestProbability_NegativeAlignmentClampsToZero(t *testing.T) {
	// With no glyph-count curve the expected growth ratio is 1.0; an
	// actual ratio of 5 drives the alignment factor to -3. The literal
	// formula lets the product go negative and only the final clamp
	// rescues it.
	s := testSimulator(model.New())
	outcomes := []Outcome{{State: garden.Metrics{GlyphCount: 5}}}
	if p := s.probability(outcomes, 1); p != 0 {
		t.Errorf("probability = %v, want 0 after clamping a negative product", p)
	}
}

func TestDesirability_ConstraintPenalties(t *testing.T) {
	final := &Outcome{State: garden.Metrics{
		GlyphCount:        10,
		TotalLove:         8,
		ConnectionDensity: 1.2,
		DiversityIndex:    0.4,
	}}

	base := desirability(final, nil)
	if base <= 0 {
		t.Fatalf("healthy final state desirability = %v, want > 0", base)
	}

	maxGlyphs := 5
	minLove := 20.0
	penalized := desirability(final, &Constraints{MaxGlyphs: &maxGlyphs, MinLove: &minLove})
	if got, want := penalized, clampTest(base-1.0); !almostEqual(got, want) {
		t.Errorf("penalized desirability = %v, want %v", got, want)
	}

	// Density 1.2 over 10 glyphs is 12 connections; requiring 20 violates.
	required := 20
	penalized = desirability(final, &Constraints{RequiredConnections: &required})
	if got, want := penalized, clampTest(base-0.5); !almostEqual(got, want) {
		t.Errorf("connection-constrained desirability = %v, want %v", got, want)
	}
}

func TestDesirability_EmptyBranch(t *testing.T) {
	if d := desirability(nil, nil); d != 0 {
		t.Errorf("desirability of empty branch = %v, want 0", d)
	}
}

func TestGenerateAlternatives(t *testing.T) {
	s := testSimulator(testModel())
	branches, err := s.GenerateAlternatives(context.Background(), testState(),
		Parameters{TimeHorizon: 15 * time.Minute, MonteCarloRuns: 3, Seed: 11})
	if err != nil {
		t.Fatalf("GenerateAlternatives: %v", err)
	}
	if len(branches) != 3 {
		t.Fatalf("branches = %d, want 3", len(branches))
	}

	want := []string{"aggressive growth", "deep connections", "rapid mutation"}
	for i, b := range branches {
		if b.Hypothesis != want[i] {
			t.Errorf("branch %d hypothesis = %q, want %q", i, b.Hypothesis, want[i])
		}
		if b.Probability < 0 || b.Probability > 1 {
			t.Errorf("branch %d probability = %v, want [0,1]", i, b.Probability)
		}
		if b.Desirability < -1 || b.Desirability > 1 {
			t.Errorf("branch %d desirability = %v, want [-1,1]", i, b.Desirability)
		}
		if len(b.Outcomes) == 0 {
			t.Errorf("branch %d has no outcomes", i)
		}
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func clampTest(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
