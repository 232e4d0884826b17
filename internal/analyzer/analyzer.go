// Package analyzer trains a prediction model from the recorded garden
// history. It extracts trigger→outcome patterns from adjacent timeline
// points, fits simple growth curves to tracked metrics, discovers event
// correlations, and identifies the garden's critical mass.
package analyzer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/model"
	"github.com/mossline/gardenseer/internal/rng"
)

// Config holds the tunable thresholds of the analyzer.
type Config struct {
	// MinPatternProbability is the retention floor: extracted patterns at
	// or below this probability are discarded. Default: 0.3.
	MinPatternProbability float64

	// TriggerPrefixLen is the number of leading trigger characters used as
	// the consolidation group key. Default: 20.
	TriggerPrefixLen int

	// CorrelationMinCount is the co-occurrence count a pair of event types
	// must exceed to be recorded as correlated. Default: 2.
	CorrelationMinCount int

	// RateEpsilon is the rate-difference threshold below which a metric's
	// growth is classified as exponential. Default: 0.1.
	RateEpsilon float64

	// Seed seeds the source used for chaotic trajectory sampling.
	Seed int64
}

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() Config {
	return Config{
		MinPatternProbability: 0.3,
		TriggerPrefixLen:      20,
		CorrelationMinCount:   2,
		RateEpsilon:           0.1,
	}
}

// Analyzer trains prediction models and answers point predictions against
// a trained model.
type Analyzer struct {
	cfg  Config
	log  *slog.Logger
	rand *rng.Source
}

// New creates an Analyzer. A nil logger falls back to slog.Default.
func New(cfg Config, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{
		cfg:  cfg,
		log:  log,
		rand: rng.New(cfg.Seed),
	}
}

// trackedMetrics are the metrics growth curves are fitted for.
var trackedMetrics = []string{garden.MetricGlyphCount, garden.MetricTotalLove}

// Train converts an ordered historical timeline into a prediction model.
// Malformed timelines (out-of-order timestamps) fail with *model.InputError.
// Timelines with fewer than two points skip pattern extraction and
// correlation discovery entirely and yield degenerate low-confidence growth
// curves instead of failing.
func (a *Analyzer) Train(points []garden.TimelinePoint) (*model.PredictionModel, error) {
	if err := validateOrder(points); err != nil {
		return nil, &model.InputError{Source: "timeline", Err: err}
	}

	m := model.New()
	for _, metric := range trackedMetrics {
		m.GrowthCurves[metric] = fitGrowthCurve(points, metric, a.cfg.RateEpsilon)
	}

	if len(points) < 2 {
		a.log.Warn("timeline too short for pattern extraction",
			"points", len(points))
		return m, nil
	}

	m.Patterns = a.consolidate(a.extractPatterns(points))
	m.Correlations = a.findCorrelations(points)
	m.CriticalMass = findCriticalMass(points)

	a.log.Debug("model trained",
		"patterns", len(m.Patterns),
		"correlations", len(m.Correlations),
		"criticalMass", m.CriticalMass)
	return m, nil
}

// validateOrder rejects timelines whose timestamps are not non-decreasing.
func validateOrder(points []garden.TimelinePoint) error {
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp.Before(points[i-1].Timestamp) {
			return fmt.Errorf("point %d (%s) precedes point %d (%s)",
				i, points[i].Timestamp.Format(time.RFC3339),
				i-1, points[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// extractPatterns forms the trigger×outcome cross product of every adjacent
// pair of timeline points that both carry events, classifies each pair, and
// retains only patterns above the probability floor.
func (a *Analyzer) extractPatterns(points []garden.TimelinePoint) []model.Pattern {
	var patterns []model.Pattern
	for i := 0; i < len(points)-1; i++ {
		cur, next := points[i], points[i+1]
		if len(cur.Events) == 0 || len(next.Events) == 0 {
			continue
		}
		delta := next.Timestamp.Sub(cur.Timestamp)
		for _, trigger := range cur.Events {
			for _, outcome := range next.Events {
				prob, radius := classifyPair(trigger, outcome)
				if prob <= a.cfg.MinPatternProbability {
					continue
				}
				patterns = append(patterns, model.Pattern{
					Type:         patternType(outcome.Type),
					Trigger:      eventText(trigger),
					Outcome:      eventText(outcome),
					Probability:  prob,
					TimeToEffect: delta,
					ImpactRadius: radius,
				})
			}
		}
	}
	return patterns
}

// classifyPair maps a (trigger, outcome) event pair to a probability and
// impact radius using the fixed heuristic table.
func classifyPair(trigger, outcome garden.Event) (prob, radius float64) {
	switch {
	case trigger.Type == "birth" && outcome.Type == "connection":
		return 0.7, 0.3
	case trigger.Type == "connection" && outcome.Type == "connection":
		return 0.8, 0.5
	case trigger.Impact > 0.7 && outcome.Type == "mutation":
		return 0.6, 0.7
	default:
		return 0.1, 0.1
	}
}

// patternType derives the pattern classification from the outcome event type.
func patternType(outcomeType string) model.PatternType {
	switch outcomeType {
	case "birth", "connection":
		return model.PatternGrowth
	case "mutation":
		return model.PatternMutation
	case "death":
		return model.PatternDecay
	default:
		return model.PatternConnection
	}
}

// eventText is the human-readable form of an event used as a pattern's
// trigger or outcome string.
func eventText(e garden.Event) string {
	if e.Description != "" {
		return e.Description
	}
	return e.Type
}

// consolidate groups patterns by (type, trigger prefix) and replaces each
// group with a single pattern holding the group's arithmetic means. The
// trigger and outcome strings come from the group's first member.
func (a *Analyzer) consolidate(patterns []model.Pattern) []model.Pattern {
	type group struct {
		rep    model.Pattern
		prob   float64
		effect time.Duration
		radius float64
		n      int
	}

	var order []string
	groups := make(map[string]*group)
	for _, p := range patterns {
		trigger := p.Trigger
		if len(trigger) > a.cfg.TriggerPrefixLen {
			trigger = trigger[:a.cfg.TriggerPrefixLen]
		}
		key := string(p.Type) + "|" + trigger
		g, ok := groups[key]
		if !ok {
			g = &group{rep: p}
			groups[key] = g
			order = append(order, key)
		}
		g.prob += p.Probability
		g.effect += p.TimeToEffect
		g.radius += p.ImpactRadius
		g.n++
	}

	out := make([]model.Pattern, 0, len(order))
	for _, key := range order {
		g := groups[key]
		p := g.rep
		p.Probability = g.prob / float64(g.n)
		p.TimeToEffect = g.effect / time.Duration(g.n)
		p.ImpactRadius = g.radius / float64(g.n)
		out = append(out, p)
	}
	return out
}

// fitGrowthCurve classifies a metric's trajectory from its first, middle,
// and last timeline points. Timelines with fewer than three points, or with
// coincident sample timestamps, yield a fixed low-confidence exponential
// curve with a nominal 0.1 growth rate.
func fitGrowthCurve(points []garden.TimelinePoint, metric string, eps float64) model.GrowthCurve {
	degenerate := model.GrowthCurve{
		Type:               model.CurveExponential,
		Parameters:         []float64{0.1},
		ConfidenceInterval: 0.1,
	}
	if len(points) < 3 {
		return degenerate
	}

	first := points[0]
	mid := points[len(points)/2]
	last := points[len(points)-1]

	firstSpan := mid.Timestamp.Sub(first.Timestamp).Hours()
	secondSpan := last.Timestamp.Sub(mid.Timestamp).Hours()
	totalSpan := last.Timestamp.Sub(first.Timestamp).Hours()
	if firstSpan <= 0 || secondSpan <= 0 {
		return degenerate
	}

	firstHalfRate := (mid.Metric(metric) - first.Metric(metric)) / firstSpan
	secondHalfRate := (last.Metric(metric) - mid.Metric(metric)) / secondSpan

	curveType := model.CurveExponential
	switch {
	case abs(firstHalfRate-secondHalfRate) < eps:
		curveType = model.CurveExponential
	case secondHalfRate < firstHalfRate*0.5:
		curveType = model.CurveLogistic
	case firstHalfRate < 0 || secondHalfRate < 0:
		curveType = model.CurveOscillating
	}

	overall := (last.Metric(metric) - first.Metric(metric)) / totalSpan
	return model.GrowthCurve{
		Type:               curveType,
		Parameters:         []float64{overall},
		ConfidenceInterval: 0.7,
	}
}

// findCorrelations tallies unordered pairs of event types that occur
// simultaneously. Pairs seen more than CorrelationMinCount times are
// recorded in both directions.
func (a *Analyzer) findCorrelations(points []garden.TimelinePoint) map[string][]string {
	counts := make(map[[2]string]int)
	for _, p := range points {
		if len(p.Events) < 2 {
			continue
		}
		for i := 0; i < len(p.Events); i++ {
			for j := i + 1; j < len(p.Events); j++ {
				t1, t2 := p.Events[i].Type, p.Events[j].Type
				if t1 > t2 {
					t1, t2 = t2, t1
				}
				counts[[2]string{t1, t2}]++
			}
		}
	}

	correlations := make(map[string][]string)
	add := func(from, to string) {
		for _, existing := range correlations[from] {
			if existing == to {
				return
			}
		}
		correlations[from] = append(correlations[from], to)
	}
	for pair, n := range counts {
		if n > a.cfg.CorrelationMinCount {
			add(pair[0], pair[1])
			add(pair[1], pair[0])
		}
	}
	return correlations
}

// findCriticalMass scans consecutive timeline points for the steepest
// glyph-count growth rate and returns the glyph count just before that
// peak.
func findCriticalMass(points []garden.TimelinePoint) float64 {
	var maxRate, criticalMass float64
	for i := 0; i < len(points)-1; i++ {
		span := points[i+1].Timestamp.Sub(points[i].Timestamp).Hours()
		if span <= 0 {
			continue
		}
		rate := (points[i+1].Metric(garden.MetricGlyphCount) - points[i].Metric(garden.MetricGlyphCount)) / span
		if rate > maxRate {
			maxRate = rate
			criticalMass = points[i].Metric(garden.MetricGlyphCount)
		}
	}
	return criticalMass
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// firstWord returns the lowercased first whitespace-separated word of s.
func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
