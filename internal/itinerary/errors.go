package itinerary

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation names an unknown event.
	ErrNotFound = errors.New("event not found")

	// ErrOverlap is returned when a change would make two visits on the same day overlap.
	ErrOverlap = errors.New("events overlap")

	// ErrOutOfBounds is returned when a change would leave the trip's days or the daily window.
	ErrOutOfBounds = errors.New("event outside schedulable range")

	// ErrInvalidSchedule is returned when a bulk replacement is rejected.
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// OverlapError names the two visits that would collide.
type OverlapError struct {
	EventID       string
	ConflictingID string
	Day           int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%v: %s and %s on day %d", ErrOverlap, e.EventID, e.ConflictingID, e.Day)
}

func (e *OverlapError) Unwrap() error {
	return ErrOverlap
}
