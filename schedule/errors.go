package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSchedule is returned when an interval list and a value list
	// cannot be paired up, or a value is not a number.
	ErrMalformedSchedule = errors.New("malformed schedule")

	// ErrPhaseInNotConserved is returned when phase-in fractions do not sum to one.
	ErrPhaseInNotConserved = errors.New("phase-in fractions do not sum to 1")
)

// MalformedScheduleError carries the raw inputs of a schedule that could not
// be resolved.
type MalformedScheduleError struct {
	Intervals string
	Values    string
	Reason    string
}

func (e *MalformedScheduleError) Error() string {
	return fmt.Sprintf("malformed schedule (intervals %q, values %q): %s",
		e.Intervals, e.Values, e.Reason)
}

func (e *MalformedScheduleError) Unwrap() error {
	return ErrMalformedSchedule
}
