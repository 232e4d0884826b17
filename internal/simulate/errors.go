package simulate

import (
	"errors"
	"fmt"
)

// AggregationError reports that every Monte Carlo run of a simulation
// failed, leaving nothing to aggregate. Individual run failures are
// otherwise absorbed by excluding the run.
type AggregationError struct {
	Runs int
	Errs []error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("all %d simulation runs failed: %v", e.Runs, errors.Join(e.Errs...))
}

func (e *AggregationError) Unwrap() []error { return e.Errs }
