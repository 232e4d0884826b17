package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/model"
	"github.com/mossline/gardenseer/internal/rng"
)

// Fixed event and warning strings appended to predicted outcomes.
const (
	eventCriticalMass  = "Garden reaches critical mass - rapid expansion likely"
	eventLoveSaturated = "Love field saturated - harmonic resonance emerging"
	eventHighDiversity = "High diversity achieved - ecosystem stabilizing"

	warnOverpopulation = "Overpopulation risk - growth may become unsustainable"
	warnLoveDepletion  = "Love depletion - garden vitality declining"
	warnIsolation      = "Isolation risk - glyphs lack connections"
	warnMonoculture    = "Monoculture risk - low glyph diversity"
)

// runSingle executes one Monte Carlo run. It is a pure function of
// (model, initial state, actions, horizon, start, seed): the caller's
// snapshot is cloned, the virtual clock starts at start, each explicit
// action advances it by ActionInterval, and natural evolution then proceeds
// in EvolutionInterval steps until the horizon is reached. The returned
// truncated flag is set when ctx expired before the schedule completed.
func (s *Simulator) runSingle(ctx context.Context, seed int64, initial garden.Snapshot, actions []Action, horizon time.Duration, start time.Time) (outcomes []Outcome, truncated bool, err error) {
	r := rng.New(seed)
	state := initial.Clone()
	now := start

	for _, act := range actions {
		select {
		case <-ctx.Done():
			return outcomes, true, nil
		default:
		}

		now = now.Add(s.cfg.ActionInterval)
		state, err = s.applyAction(state, act, r)
		if err != nil {
			return nil, false, err
		}

		events := s.cascades(act, r)
		metrics := garden.ExtractMetrics(state)
		outcomes = append(outcomes, Outcome{
			Timestamp: now,
			State:     metrics,
			Events:    events,
			Warnings:  detectWarnings(metrics),
		})
	}

	for now.Sub(start) < horizon {
		select {
		case <-ctx.Done():
			return outcomes, true, nil
		default:
		}

		now = now.Add(s.cfg.EvolutionInterval)
		state = s.evolve(state, now.Sub(start), r)
		metrics := garden.ExtractMetrics(state)
		outcomes = append(outcomes, Outcome{
			Timestamp: now,
			State:     metrics,
			Events:    s.naturalEvents(metrics),
			Warnings:  detectWarnings(metrics),
		})
	}

	return outcomes, false, nil
}

// applyAction returns a new snapshot with the action applied. A mutate or
// prune whose target glyph is missing is a no-op, not an error.
func (s *Simulator) applyAction(state garden.Snapshot, act Action, r *rng.Source) (garden.Snapshot, error) {
	next := state.Clone()

	switch act.Type {
	case ActionPlant:
		next.Glyphs = append(next.Glyphs, garden.Glyph{
			ID:   fmt.Sprintf("sim-%x", r.Uint64()),
			Type: garden.GlyphSeed,
			Genetics: garden.Genetics{
				LoveFactor:    r.Range(0.5, 1.0),
				ResonanceFreq: r.Range(200, 800),
			},
		})

	case ActionConnect:
		if len(next.Glyphs) >= 2 {
			next.Connections = append(next.Connections, garden.Connection{
				Source:   next.Glyphs[0].ID,
				Target:   next.Glyphs[1].ID,
				Strength: r.Range(0.5, 1.0),
			})
		}

	case ActionMutate:
		for i := range next.Glyphs {
			if next.Glyphs[i].ID == act.Target {
				next.Glyphs[i].Genetics.LoveFactor *= 1.2
				next.Glyphs[i].Type = garden.GlyphEntity
				break
			}
		}

	case ActionNurture:
		for i := range next.Glyphs {
			lf := next.Glyphs[i].Genetics.LoveFactor * 1.1
			if lf > 1.0 {
				lf = 1.0
			}
			next.Glyphs[i].Genetics.LoveFactor = lf
		}

	case ActionPrune:
		if act.Target != "" {
			next = pruneGlyph(next, act.Target)
		}

	default:
		return garden.Snapshot{}, fmt.Errorf("unknown action type %q", act.Type)
	}

	return next, nil
}

// pruneGlyph removes the glyph and any connections touching it.
func pruneGlyph(state garden.Snapshot, id string) garden.Snapshot {
	glyphs := state.Glyphs[:0:0]
	for _, g := range state.Glyphs {
		if g.ID != id {
			glyphs = append(glyphs, g)
		}
	}
	conns := state.Connections[:0:0]
	for _, c := range state.Connections {
		if c.Source != id && c.Target != id {
			conns = append(conns, c)
		}
	}
	state.Glyphs = glyphs
	state.Connections = conns
	return state
}

// cascades draws against every growth pattern after a plant action; each
// pattern whose draw lands under its probability contributes its outcome
// as a predicted event.
func (s *Simulator) cascades(act Action, r *rng.Source) []string {
	events := []string{}
	if act.Type != ActionPlant {
		return events
	}
	for _, p := range s.model.Patterns {
		if p.Type != model.PatternGrowth {
			continue
		}
		if r.Float64() < p.Probability {
			events = append(events, p.Outcome)
		}
	}
	return events
}

// evolve applies natural growth: the glyph-count curve's rate scales the
// current population by 1 + rate*elapsedMillis/1_000_000 and newly grown
// glyphs sprout as seeds. A model with no glyph-count curve evolves
// nothing.
func (s *Simulator) evolve(state garden.Snapshot, elapsed time.Duration, r *rng.Source) garden.Snapshot {
	curve, ok := s.model.Curve(garden.MetricGlyphCount)
	if !ok {
		return state
	}

	growthFactor := 1 + curve.Rate()*float64(elapsed.Milliseconds())/1_000_000
	target := int(float64(len(state.Glyphs)) * growthFactor)
	if target <= len(state.Glyphs) {
		return state
	}

	next := state.Clone()
	for i := len(next.Glyphs); i < target; i++ {
		next.Glyphs = append(next.Glyphs, garden.Glyph{
			ID:   fmt.Sprintf("grown-%d-%x", i, r.Uint64()),
			Type: garden.GlyphSeed,
			Genetics: garden.Genetics{
				LoveFactor: r.Range(0.3, 0.9),
			},
		})
	}
	return next
}

// naturalEvents predicts emergent milestones from the current metrics.
func (s *Simulator) naturalEvents(m garden.Metrics) []string {
	events := []string{}
	if m.GlyphCount > s.model.CriticalMass {
		events = append(events, eventCriticalMass)
	}
	if m.TotalLove > m.GlyphCount*0.9 {
		events = append(events, eventLoveSaturated)
	}
	if m.DiversityIndex > 0.5 {
		events = append(events, eventHighDiversity)
	}
	return events
}

// detectWarnings flags unhealthy states. Each condition yields at most one
// fixed warning string; several may co-occur.
func detectWarnings(m garden.Metrics) []string {
	var warnings []string
	if m.GlyphCount > 100 {
		warnings = append(warnings, warnOverpopulation)
	}
	if m.TotalLove < m.GlyphCount*0.2 {
		warnings = append(warnings, warnLoveDepletion)
	}
	if m.ConnectionDensity < 0.5 {
		warnings = append(warnings, warnIsolation)
	}
	if m.DiversityIndex < 0.2 {
		warnings = append(warnings, warnMonoculture)
	}
	return warnings
}
