package timesheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDateFormat is the layout dates are re-emitted in, e.g. "Tuesday, May 01, 2012".
const DefaultDateFormat = "Monday, January 02, 2006"

// Date is a calendar day with no time of day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the Date for year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar day t falls on in its own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Format renders the day with a Go time layout.
func (d Date) Format(layout string) string {
	return d.Time().Format(layout)
}

func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", int(d.Month), d.Day, d.Year)
}

var monthDayPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?$`)

// ParseDate accepts M/d, MM/dd, M/dd and MM/d, each optionally followed by /yy
// or /yyyy, and finally the display layout. Missing years come from today.
// The second result reports whether the text looked like a date at all; a
// date-shaped string naming an impossible day returns true and an ErrFormat error.
func ParseDate(s string, layout string, today Date) (Date, bool, error) {
	s = strings.TrimSpace(s)
	if m := monthDayPattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := today.Year
		switch len(m[3]) {
		case 2:
			yy, _ := strconv.Atoi(m[3])
			year = expandTwoDigitYear(yy)
		case 4:
			year, _ = strconv.Atoi(m[3])
		}
		d := Date{Year: year, Month: time.Month(month), Day: day}
		if !d.valid() {
			return Date{}, true, fmt.Errorf("%w: %q is not a calendar date", ErrFormat, s)
		}
		return d, true, nil
	}

	if layout == "" {
		return Date{}, false, nil
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, false, nil
	}
	return DateOf(t), true, nil
}

// expandTwoDigitYear pivots at 2029 the same way common calendar settings do.
func expandTwoDigitYear(yy int) int {
	if yy <= 29 {
		return 2000 + yy
	}
	return 1900 + yy
}

func (d Date) valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return DateOf(d.Time()) == d
}
