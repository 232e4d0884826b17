// Package simulate runs stochastic what-if simulations of future garden
// action sequences against a trained prediction model. Each Monte Carlo
// run is a pure, seed-parameterized function of (model, initial state,
// actions, horizon); runs execute concurrently and are combined at an
// aggregation barrier into a single scored branch.
package simulate

import (
	"time"

	"github.com/mossline/gardenseer/internal/garden"
)

// ActionType identifies an explicit intervention in a hypothesis.
type ActionType string

const (
	ActionPlant   ActionType = "plant"
	ActionConnect ActionType = "connect"
	ActionMutate  ActionType = "mutate"
	ActionPrune   ActionType = "prune"
	ActionNurture ActionType = "nurture"
)

// Action is one caller-specified intervention in a simulated future.
type Action struct {
	Type       ActionType     `json:"type"`
	Target     string         `json:"target,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitzero"`
}

// Outcome is one predicted step of a simulated future. Within a single run
// outcome timestamps are strictly increasing.
type Outcome struct {
	Timestamp time.Time      `json:"timestamp"`
	State     garden.Metrics `json:"state"`
	Events    []string       `json:"events"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// Constraints bound the desirable end states of a branch. Violations
// penalize desirability; they never abort a simulation.
type Constraints struct {
	MaxGlyphs           *int     `json:"maxGlyphs,omitempty"`
	MinLove             *float64 `json:"minLove,omitempty"`
	RequiredConnections *int     `json:"requiredConnections,omitempty"`
}

// Parameters configures one simulateWhatIf invocation.
type Parameters struct {
	TimeHorizon    time.Duration `json:"timeHorizon"`
	Branches       int           `json:"branches"`
	MonteCarloRuns int           `json:"monteCarloRuns"`
	Seed           int64         `json:"seed"`
	Constraints    *Constraints  `json:"constraints,omitempty"`
}

// Branch is one aggregated, scored hypothetical future. Outcomes are the
// per-step averages across all successful Monte Carlo runs; Probability is
// in [0,1] and Desirability in [-1,1]. Truncated marks a branch whose
// outcome sequence was cut short by the caller's wall-clock budget.
type Branch struct {
	ID            string    `json:"id"`
	Hypothesis    string    `json:"hypothesis"`
	StartingPoint time.Time `json:"startingPoint"`
	Actions       []Action  `json:"actions"`
	Outcomes      []Outcome `json:"outcomes"`
	Probability   float64   `json:"probability"`
	Desirability  float64   `json:"desirability"`
	Truncated     bool      `json:"truncated,omitempty"`
}

// FinalOutcome returns the last aggregated outcome, or nil for an empty
// branch.
func (b *Branch) FinalOutcome() *Outcome {
	if len(b.Outcomes) == 0 {
		return nil
	}
	return &b.Outcomes[len(b.Outcomes)-1]
}
