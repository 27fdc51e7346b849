package timesheet

import (
	"bufio"
	"io"
	"time"
)

// EntrySummary is a finalized entry and the duration it contributed.
type EntrySummary struct {
	Entry    *Entry
	Duration time.Duration // counted toward the day; zero for open entries
	Excluded time.Duration // time carved out by exclusions
	Counted  bool
}

// DaySummary describes one finalized day.
type DaySummary struct {
	Date    Date
	Entries []EntrySummary
	Total   time.Duration
}

// WeekSummary describes one finalized week total.
type WeekSummary struct {
	Start Date
	Days  int
	Total time.Duration
}

// Result is the outcome of one run.
type Result struct {
	// Lines is the normalized output.
	Lines []string

	// Success is false when a graceful run stopped on an unrecognized line.
	Success bool

	// Unrecognized is the line that stopped the run, and Remainder the unread
	// input after it. Both are passed through verbatim by WriteTo.
	Unrecognized string
	Remainder    []string

	Days     []DaySummary
	Weeks    []WeekSummary
	Warnings []Warning

	// Issues are the line errors recovered from in graceful mode.
	Issues []*LineError
}

// WriteTo writes Lines and then Remainder, each terminated by a newline.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, group := range [][]string{r.Lines, r.Remainder} {
		for _, line := range group {
			m, err := bw.WriteString(line + "\n")
			n += int64(m)
			if err != nil {
				return n, err
			}
		}
	}
	return n, bw.Flush()
}

// Total returns the sum of all finalized day totals.
func (r *Result) Total() time.Duration {
	var total time.Duration
	for _, d := range r.Days {
		total += d.Total
	}
	return total
}
