package timesheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day24 = 24 * time.Hour

// entryPattern captures: 1 explicit duration, 2 start, 3 end, 4 notes after end, 5 notes without end.
// Notes swallow the rest of the line, commas included.
var entryPattern = regexp.MustCompile(
	`^\*?(?:\((\d{1,2}[:.]\d{2})\)\s*)?` +
		`(\d{1,2}(?::\d{2})?(?:[aApP][mM]?)?)\s*` +
		`(?:,\s*(?:(\d{1,2}(?::\d{2})?(?:[aApP][mM]?)?)\s*(?:,(.*))?|(.*)))?$`)

var clockPattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(?:([aApP])[mM]?)?$`)

// Matches reports whether s has the shape of a time entry.
func Matches(s string) bool {
	return entryPattern.MatchString(strings.TrimSpace(s))
}

// Parse reads "[(H:MM)] start[, end[, notes]]" for day. The start must not
// resolve before floor; the end must not resolve before the start. Bare hours
// try the morning reading first and fall back to the afternoon one.
func Parse(s string, day Date, floor time.Duration, ignoreExplicit bool) (*Entry, error) {
	m := entryPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("%w: %q is not a time entry", ErrFormat, s)
	}

	entry := &Entry{Day: day}

	if m[1] != "" && !ignoreExplicit {
		d, err := parseExplicitDuration(m[1])
		if err != nil {
			return nil, err
		}
		entry.Explicit = &d
	}

	start, err := resolveClock(m[2], floor, "start", false)
	if err != nil {
		return nil, err
	}
	entry.Start = start

	notes := m[5]
	if m[3] != "" {
		end, err := resolveClock(m[3], start, "end", true)
		if err != nil {
			return nil, err
		}
		entry.End = &end
		notes = m[4]
	}

	entry.Notes = strings.TrimSpace(notes)
	return entry, nil
}

// resolveClock turns a clock token into an offset from midnight no earlier
// than floor. For an end time (after) a bare hour equal to the floor prefers
// the reading twelve hours later, so "9, 9" spans noon; an end that still
// equals the start is a zero-length entry.
func resolveClock(token string, floor time.Duration, label string, after bool) (time.Duration, error) {
	offset, ambiguous, err := parseClock(token)
	if err != nil {
		return 0, err
	}
	if offset > floor || (offset == floor && !after) {
		return offset, nil
	}
	if ambiguous {
		shifted := offset + 12*time.Hour
		if shifted < day24 && shifted >= floor {
			return shifted, nil
		}
	}
	if offset == floor {
		return offset, nil
	}
	return 0, fmt.Errorf("%w: %s %s is before %s", ErrOrdering, label, token, formatClock(floor))
}

// parseClock reads "h", "h:mm", "ha", "h:mmpm" and so on. Hours 1-12 without a
// suffix are ambiguous; 0 and 13-23 are taken literally.
func parseClock(token string) (time.Duration, bool, error) {
	m := clockPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, false, fmt.Errorf("%w: %q is not a time", ErrFormat, token)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, false, fmt.Errorf("%w: %q has invalid minutes", ErrFormat, token)
	}

	ambiguous := false
	switch strings.ToLower(m[3]) {
	case "a":
		if hour < 1 || hour > 12 {
			return 0, false, fmt.Errorf("%w: %q has invalid hour", ErrFormat, token)
		}
		if hour == 12 {
			hour = 0
		}
	case "p":
		if hour < 1 || hour > 12 {
			return 0, false, fmt.Errorf("%w: %q has invalid hour", ErrFormat, token)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, false, fmt.Errorf("%w: %q has invalid hour", ErrFormat, token)
		}
		ambiguous = hour >= 1 && hour <= 12
	}

	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, ambiguous, nil
}
