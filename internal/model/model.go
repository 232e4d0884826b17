// Package model defines the prediction model artifact produced by the
// pattern analyzer and consumed read-only by the future simulator. The
// artifact is JSON-serializable; the map-typed fields use explicit keyed
// maps so a saved model round-trips byte-for-byte through the artifact
// store.
package model

import "time"

// PatternType classifies a learned trigger→outcome tendency.
type PatternType string

const (
	PatternGrowth     PatternType = "growth"
	PatternConnection PatternType = "connection"
	PatternMutation   PatternType = "mutation"
	PatternDecay      PatternType = "decay"
)

// Pattern is one learned cause→effect tendency: when the trigger is
// observed, the outcome tends to follow after TimeToEffect with the given
// probability, affecting ImpactRadius of the garden.
type Pattern struct {
	Type         PatternType   `json:"type"`
	Trigger      string        `json:"trigger"`
	Outcome      string        `json:"outcome"`
	Probability  float64       `json:"probability"`
	TimeToEffect time.Duration `json:"timeToEffect"`
	ImpactRadius float64       `json:"impactRadius"`
}

// CurveType classifies a fitted growth curve.
type CurveType string

const (
	CurveExponential CurveType = "exponential"
	CurveLogistic    CurveType = "logistic"
	CurveOscillating CurveType = "oscillating"
	CurveChaotic     CurveType = "chaotic"
)

// GrowthCurve is a simple parametric fit of one metric's history.
// Parameters[0] holds the slope-like growth rate in units per hour.
type GrowthCurve struct {
	Type               CurveType `json:"type"`
	Parameters         []float64 `json:"parameters"`
	ConfidenceInterval float64   `json:"confidenceInterval"`
}

// Rate returns the curve's primary growth-rate parameter, or 0 if the
// curve carries no parameters.
func (c GrowthCurve) Rate() float64 {
	if len(c.Parameters) == 0 {
		return 0
	}
	return c.Parameters[0]
}

// PredictionModel is the trained artifact. It is owned by whichever
// component trains or loads it and must be treated as immutable for the
// duration of any simulation that reads it.
type PredictionModel struct {
	Patterns     []Pattern              `json:"patterns"`
	Correlations map[string][]string    `json:"correlations"`
	GrowthCurves map[string]GrowthCurve `json:"growthCurves"`
	CriticalMass float64                `json:"criticalMass"`
}

// New returns an empty model with initialized collections.
func New() *PredictionModel {
	return &PredictionModel{
		Patterns:     []Pattern{},
		Correlations: map[string][]string{},
		GrowthCurves: map[string]GrowthCurve{},
	}
}

// Curve returns the growth curve for the named metric.
func (m *PredictionModel) Curve(metric string) (GrowthCurve, bool) {
	c, ok := m.GrowthCurves[metric]
	return c, ok
}
