// Package mcp provides an MCP (Model Context Protocol) server for
// gardenseer.
package mcp

import (
	"github.com/mossline/gardenseer/internal/garden"
)

// GardenTrainInput defines the input for the garden_train tool.
type GardenTrainInput struct{}

// GardenTrainOutput defines the output for the garden_train tool.
type GardenTrainOutput struct {
	TimelinePoints int     `json:"timeline_points" jsonschema:"Number of timeline points analyzed"`
	Patterns       int     `json:"patterns" jsonschema:"Number of learned event patterns"`
	GrowthCurves   int     `json:"growth_curves" jsonschema:"Number of fitted growth curves"`
	Correlations   int     `json:"correlations" jsonschema:"Number of correlated event types"`
	CriticalMass   float64 `json:"critical_mass" jsonschema:"Glyph count at which growth accelerates"`
	Warning        string  `json:"warning,omitempty" jsonschema:"Advisory warning about training data quality"`
}

// ActionSpec is one intervention in a simulated hypothesis.
type ActionSpec struct {
	Type   string `json:"type" jsonschema:"Action type: plant, connect, mutate, prune, or nurture"`
	Target string `json:"target,omitempty" jsonschema:"Glyph ID the action targets (mutate, prune)"`
}

// GardenSimulateInput defines the input for the garden_simulate tool.
type GardenSimulateInput struct {
	Hypothesis          string       `json:"hypothesis" jsonschema:"Description of the hypothetical future"`
	Actions             []ActionSpec `json:"actions,omitempty" jsonschema:"Action sequence to apply before evolving"`
	Horizon             string       `json:"horizon,omitempty" jsonschema:"Simulated duration (e.g. '2h'; default from config)"`
	Runs                int          `json:"runs,omitempty" jsonschema:"Monte Carlo runs (default from config)"`
	Seed                int64        `json:"seed,omitempty" jsonschema:"Base seed; 0 derives from config or clock"`
	MaxGlyphs           *int         `json:"max_glyphs,omitempty" jsonschema:"Desirability constraint: maximum glyph count"`
	MinLove             *float64     `json:"min_love,omitempty" jsonschema:"Desirability constraint: minimum total love"`
	RequiredConnections *int         `json:"required_connections,omitempty" jsonschema:"Desirability constraint: minimum connection count"`
}

// BranchSummary is the condensed view of a simulated branch.
type BranchSummary struct {
	ID           string         `json:"id"`
	Hypothesis   string         `json:"hypothesis"`
	Probability  float64        `json:"probability"`
	Desirability float64        `json:"desirability"`
	Outcomes     int            `json:"outcomes"`
	Truncated    bool           `json:"truncated,omitempty"`
	FinalState   garden.Metrics `json:"final_state"`
	Events       []string       `json:"events,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

// GardenSimulateOutput defines the output for the garden_simulate tool.
type GardenSimulateOutput struct {
	Branch BranchSummary `json:"branch" jsonschema:"The aggregated scored branch"`
}

// GardenAlternativesInput defines the input for the garden_alternatives tool.
type GardenAlternativesInput struct {
	Horizon string `json:"horizon,omitempty" jsonschema:"Simulated duration (e.g. '2h'; default from config)"`
	Runs    int    `json:"runs,omitempty" jsonschema:"Monte Carlo runs per branch (default from config)"`
	Seed    int64  `json:"seed,omitempty" jsonschema:"Base seed; 0 derives from config or clock"`
}

// GardenAlternativesOutput defines the output for the garden_alternatives tool.
type GardenAlternativesOutput struct {
	Branches []BranchSummary `json:"branches" jsonschema:"One summary per alternative future"`
	Count    int             `json:"count" jsonschema:"Number of alternatives"`
}

// GardenNextEventInput defines the input for the garden_next_event tool.
type GardenNextEventInput struct {
	Recent []string `json:"recent,omitempty" jsonschema:"Recent event descriptions to match patterns against"`
}

// GardenNextEventOutput defines the output for the garden_next_event tool.
type GardenNextEventOutput struct {
	Event       string  `json:"event" jsonschema:"Predicted next event"`
	Probability float64 `json:"probability" jsonschema:"Probability of the prediction (0.0-1.0)"`
	Timeframe   string  `json:"timeframe" jsonschema:"Expected time until the event"`
}

// GardenTrajectoryInput defines the input for the garden_trajectory tool.
type GardenTrajectoryInput struct {
	Metric  string `json:"metric,omitempty" jsonschema:"Metric to project (default glyphCount)"`
	Horizon string `json:"horizon,omitempty" jsonschema:"Projection horizon (e.g. '2h'; default from config)"`
}

// GardenTrajectoryOutput defines the output for the garden_trajectory tool.
type GardenTrajectoryOutput struct {
	Metric  string    `json:"metric"`
	Horizon string    `json:"horizon"`
	Values  []float64 `json:"values" jsonschema:"Ten evenly spaced projected values; empty without a trained curve"`
}
