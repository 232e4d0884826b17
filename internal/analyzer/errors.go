package analyzer

import "fmt"

// minTimelinePoints is the shortest timeline pattern extraction can work
// with.
const minTimelinePoints = 2

// InsufficientDataError reports a timeline too short for meaningful pattern
// or curve extraction. Train degrades gracefully instead of returning it;
// callers use CheckTimeline to surface the condition as a warning.
type InsufficientDataError struct {
	Points int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("timeline has %d points, need at least %d for pattern extraction", e.Points, minTimelinePoints)
}

// CheckTimeline reports whether the timeline is long enough for full
// training. It returns *InsufficientDataError when it is not.
func CheckTimeline(points int) error {
	if points < minTimelinePoints {
		return &InsufficientDataError{Points: points}
	}
	return nil
}
