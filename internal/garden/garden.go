// Package garden defines the garden state model shared by the pattern
// analyzer and the future simulator: glyphs, connections, state snapshots,
// historical timeline points, and the metrics derived from a snapshot.
package garden

import "time"

// GlyphType identifies the lifecycle stage of a glyph.
type GlyphType string

const (
	GlyphSeed   GlyphType = "seed"
	GlyphEntity GlyphType = "entity"
)

// Metric names tracked across the historical timeline and fitted with
// growth curves.
const (
	MetricGlyphCount = "glyphCount"
	MetricTotalLove  = "totalLove"
)

// Genetics holds the heritable attributes of a glyph.
type Genetics struct {
	LoveFactor    float64 `json:"loveFactor"`
	ResonanceFreq float64 `json:"resonanceFreq,omitempty"`
}

// Glyph is a single entity in the garden.
type Glyph struct {
	ID       string    `json:"id"`
	Type     GlyphType `json:"type"`
	Genetics Genetics  `json:"genetics"`
}

// Connection is a weighted relationship between two glyphs.
type Connection struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
}

// Snapshot is the full garden state at one instant. Snapshots are treated
// as values: simulation steps never mutate a snapshot they did not create,
// they clone and evolve the clone.
type Snapshot struct {
	Glyphs      []Glyph      `json:"glyphs"`
	Connections []Connection `json:"connections"`
}

// Clone returns a deep copy of the snapshot. Mutating the copy never
// affects the original.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Glyphs:      make([]Glyph, len(s.Glyphs)),
		Connections: make([]Connection, len(s.Connections)),
	}
	copy(out.Glyphs, s.Glyphs)
	copy(out.Connections, s.Connections)
	return out
}

// Metrics is the scalar summary of a snapshot. GlyphCount is a float so
// that cross-run averaging during aggregation keeps fractional precision.
type Metrics struct {
	GlyphCount        float64 `json:"glyphCount"`
	TotalLove         float64 `json:"totalLove"`
	ConnectionDensity float64 `json:"connectionDensity"`
	DiversityIndex    float64 `json:"diversityIndex"`
}

// ExtractMetrics computes the metric summary of a snapshot. It is a pure
// function of the snapshot value.
func ExtractMetrics(s Snapshot) Metrics {
	m := Metrics{GlyphCount: float64(len(s.Glyphs))}

	types := make(map[GlyphType]struct{})
	for _, g := range s.Glyphs {
		m.TotalLove += g.Genetics.LoveFactor
		types[g.Type] = struct{}{}
	}

	if len(s.Glyphs) > 0 {
		m.ConnectionDensity = float64(len(s.Connections)) / float64(len(s.Glyphs))
		m.DiversityIndex = float64(len(types)) / float64(len(s.Glyphs))
	}
	return m
}

// Event is a discrete occurrence recorded on the historical timeline.
type Event struct {
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	Impact      float64 `json:"impact,omitempty"`
}

// TimelinePoint is one historical observation: a timestamp with the events
// that occurred and the metric values measured at that moment.
type TimelinePoint struct {
	Timestamp time.Time          `json:"timestamp"`
	Events    []Event            `json:"events,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Metric returns the named metric value at this point, or 0 if it was not
// recorded.
func (p TimelinePoint) Metric(name string) float64 {
	return p.Metrics[name]
}
