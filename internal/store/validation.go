package store

import (
	"fmt"

	"github.com/mossline/gardenseer/internal/garden"
)

// ValidateSnapshot checks the structural integrity of a garden snapshot:
// unique glyph IDs, connection endpoints that reference existing glyphs,
// and factors within their documented bounds.
func ValidateSnapshot(s garden.Snapshot) error {
	ids := make(map[string]struct{}, len(s.Glyphs))
	for i, g := range s.Glyphs {
		if g.ID == "" {
			return fmt.Errorf("glyph %d has empty id", i)
		}
		if _, dup := ids[g.ID]; dup {
			return fmt.Errorf("duplicate glyph id %q", g.ID)
		}
		ids[g.ID] = struct{}{}
		if g.Genetics.LoveFactor < 0 {
			return fmt.Errorf("glyph %q has negative loveFactor %v", g.ID, g.Genetics.LoveFactor)
		}
	}

	for i, c := range s.Connections {
		if _, ok := ids[c.Source]; !ok {
			return fmt.Errorf("connection %d references missing source glyph %q", i, c.Source)
		}
		if _, ok := ids[c.Target]; !ok {
			return fmt.Errorf("connection %d references missing target glyph %q", i, c.Target)
		}
		if c.Strength < 0 || c.Strength > 1 {
			return fmt.Errorf("connection %d strength %v outside [0,1]", i, c.Strength)
		}
	}
	return nil
}
