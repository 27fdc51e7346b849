package timesheet

import (
	"strconv"
	"strings"
	"time"
)

// Entry is one parsed time line. Start and End are offsets from midnight of Day.
type Entry struct {
	Day      Date
	Start    time.Duration
	End      *time.Duration // nil while the entry is still open
	Explicit *time.Duration // "(H:MM)" marker, nil when absent or ignored
	Notes    string
}

// Span returns End-Start, or false for an open entry.
func (e *Entry) Span() (time.Duration, bool) {
	if e.End == nil {
		return 0, false
	}
	return *e.End - e.Start, true
}

// String renders the entry without a duration prefix.
func (e *Entry) String() string {
	return e.Format(nil, FormatTimeSpan)
}

// Format renders "(<shown>) <start>, <end>, <notes>". The prefix is written only
// when shown is non-nil, the end only when present.
func (e *Entry) Format(shown *time.Duration, f DurationFormat) string {
	var sb strings.Builder
	if shown != nil {
		sb.WriteByte('(')
		sb.WriteString(FormatDuration(*shown, f))
		sb.WriteString(") ")
	}
	sb.WriteString(formatClock(e.Start))
	sb.WriteString(", ")
	if e.End != nil {
		sb.WriteString(formatClock(*e.End))
		sb.WriteString(", ")
	}
	sb.WriteString(e.Notes)
	return sb.String()
}

// formatClock writes a time of day as "3a", "3:05p" or "12p".
func formatClock(offset time.Duration) string {
	hour := int(offset / time.Hour)
	minute := int((offset % time.Hour) / time.Minute)

	suffix := "a"
	if hour >= 12 {
		suffix = "p"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}

	s := strconv.Itoa(h)
	if minute > 0 {
		s += ":" + twoDigits(minute)
	}
	return s + suffix
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
