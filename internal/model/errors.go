package model

import "fmt"

// InputError reports malformed or unreadable input at a collaborator
// boundary: a model artifact, a state snapshot, or a recorded timeline
// that cannot be decoded or fails structural validation.
type InputError struct {
	Source string // "model", "state", or "timeline"
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s input: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
