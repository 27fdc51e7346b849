package timesheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DurationFormat selects how durations are rendered in entry prefixes and totals.
type DurationFormat int

const (
	// FormatTimeSpan renders "H:MM".
	FormatTimeSpan DurationFormat = iota
	// FormatDecimal renders decimal hours, e.g. "1.50".
	FormatDecimal
)

// String returns the pragma spelling of the format.
func (f DurationFormat) String() string {
	switch f {
	case FormatDecimal:
		return "Decimal"
	default:
		return "TimeSpan"
	}
}

// ParseDurationFormat accepts the pragma spellings "TimeSpan" and "Decimal" (case-insensitive).
func ParseDurationFormat(s string) (DurationFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timespan":
		return FormatTimeSpan, nil
	case "decimal":
		return FormatDecimal, nil
	default:
		return FormatTimeSpan, fmt.Errorf("unknown duration format %q (expected TimeSpan or Decimal)", s)
	}
}

// FormatDuration renders d in the given format. Hours are never wrapped at 24,
// and zero or negative durations render as zero.
func FormatDuration(d time.Duration, f DurationFormat) string {
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)

	switch f {
	case FormatDecimal:
		fraction := math.Round(float64(minutes)/60*100) / 100
		return strconv.FormatFloat(float64(hours)+fraction, 'f', 2, 64)
	default:
		return fmt.Sprintf("%d:%02d", hours, minutes)
	}
}

// parseExplicitDuration reads the body of a "(H:MM)" or "(H.MM)" marker.
// The dotted form is decimal hours, so "1.50" is an hour and a half.
func parseExplicitDuration(s string) (time.Duration, error) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hours, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q", ErrFormat, s)
		}
		minutes, err := strconv.Atoi(s[i+1:])
		if err != nil || minutes > 59 {
			return 0, fmt.Errorf("%w: duration %q has invalid minutes", ErrFormat, s)
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}

	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0, fmt.Errorf("%w: duration %q", ErrFormat, s)
	}
	hours, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q", ErrFormat, s)
	}
	hundredths, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q", ErrFormat, s)
	}
	minutes := math.Round(float64(hundredths) * 60 / 100)
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

func sumDurations(spans []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range spans {
		total += d
	}
	return total
}
