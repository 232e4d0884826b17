package analyzer

import (
	"math"
	"strings"
	"time"

	"github.com/mossline/gardenseer/internal/model"
)

// EventPrediction is the analyzer's answer to "what happens next".
type EventPrediction struct {
	Event       string        `json:"event"`
	Probability float64       `json:"probability"`
	Timeframe   time.Duration `json:"timeframe"`
}

// defaultPrediction is returned when no learned pattern matches the recent
// events.
var defaultPrediction = EventPrediction{
	Event:       "Continued organic growth",
	Probability: 0.8,
	Timeframe:   time.Hour,
}

// PredictNextEvent selects the learned pattern whose trigger matches the
// recent events and has the highest probability. A pattern matches when the
// first word of its trigger appears in any recent event description. With
// no match it returns the default organic-growth prediction.
func (a *Analyzer) PredictNextEvent(m *model.PredictionModel, recentEvents []string) EventPrediction {
	var best *model.Pattern
	for i := range m.Patterns {
		p := &m.Patterns[i]
		word := firstWord(p.Trigger)
		if word == "" {
			continue
		}
		for _, desc := range recentEvents {
			if strings.Contains(strings.ToLower(desc), word) {
				if best == nil || p.Probability > best.Probability {
					best = p
				}
				break
			}
		}
	}

	if best == nil {
		return defaultPrediction
	}
	return EventPrediction{
		Event:       best.Outcome,
		Probability: best.Probability,
		Timeframe:   best.TimeToEffect,
	}
}

// trajectorySteps is the fixed resolution of a growth trajectory.
const trajectorySteps = 10

// PredictGrowthTrajectory evaluates the metric's fitted curve at ten evenly
// spaced instants up to the horizon. Returns nil when the model has no
// curve for the metric.
func (a *Analyzer) PredictGrowthTrajectory(m *model.PredictionModel, metric string, horizon time.Duration) []float64 {
	curve, ok := m.Curve(metric)
	if !ok {
		return nil
	}

	rate := curve.Rate()
	values := make([]float64, 0, trajectorySteps)
	for step := 1; step <= trajectorySteps; step++ {
		t := horizon.Hours() * float64(step) / trajectorySteps
		var v float64
		switch curve.Type {
		case model.CurveExponential:
			v = math.Exp(rate * t)
		case model.CurveLogistic:
			v = 100 / (1 + math.Exp(-rate*t))
		case model.CurveOscillating:
			v = math.Sin(rate*t)*50 + 50
		case model.CurveChaotic:
			v = a.rand.Float64() * 100
		}
		values = append(values, v)
	}
	return values
}
