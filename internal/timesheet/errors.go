package timesheet

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned when a time, duration or date token does not match the grammar.
	ErrFormat = errors.New("invalid format")

	// ErrOrdering is returned when a time resolves before the floor even after the 12-hour shift.
	ErrOrdering = errors.New("cannot travel back in time")

	// ErrOverlap is returned when two unmarked entries cover the same time.
	ErrOverlap = errors.New("overlapping entries")

	// ErrUnrecognized is returned when no line handler claims a non-blank line.
	ErrUnrecognized = errors.New("unrecognized line")
)

// LineError carries the offending line and the engine state it was read in.
type LineError struct {
	Number      int
	Line        string
	DayInEffect bool
	Err         error
}

func (e *LineError) Error() string {
	msg := fmt.Sprintf("line %d %q: %v", e.Number, e.Line, e.Err)
	if !e.DayInEffect {
		msg += " (no day currently in effect)"
	}
	return msg
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Warning is a non-fatal problem, such as an unknown pragma.
type Warning struct {
	Number  int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Number, w.Message)
}
