package simulate

import (
	"context"

	"github.com/mossline/gardenseer/internal/garden"
)

// canonicalBranchCount is the number of fixed comparison scenarios.
const canonicalBranchCount = 3

// GenerateAlternatives simulates the three canonical hypotheses against the
// current state and returns their branches in canonical order; ranking by
// desirability is left to the caller.
func (s *Simulator) GenerateAlternatives(ctx context.Context, state garden.Snapshot, params Parameters) ([]*Branch, error) {
	mutateTarget := ""
	if len(state.Glyphs) > 0 {
		mutateTarget = state.Glyphs[0].ID
	}

	scenarios := []struct {
		hypothesis string
		actions    []Action
	}{
		{
			hypothesis: "aggressive growth",
			actions: []Action{
				{Type: ActionPlant},
				{Type: ActionNurture},
				{Type: ActionPlant},
				{Type: ActionNurture},
				{Type: ActionPlant},
			},
		},
		{
			hypothesis: "deep connections",
			actions: []Action{
				{Type: ActionConnect},
				{Type: ActionNurture},
				{Type: ActionConnect},
			},
		},
		{
			hypothesis: "rapid mutation",
			actions: []Action{
				{Type: ActionMutate, Target: mutateTarget},
				{Type: ActionPlant},
				{Type: ActionMutate, Target: mutateTarget},
			},
		},
	}

	branches := make([]*Branch, 0, canonicalBranchCount)
	for _, sc := range scenarios {
		branch, err := s.SimulateWhatIf(ctx, state, sc.hypothesis, sc.actions, params)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	return branches, nil
}
