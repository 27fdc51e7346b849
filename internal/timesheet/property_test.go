package timesheet

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// generatedSheet is a random but valid timesheet and the totals it should produce.
type generatedSheet struct {
	text      string
	dayTotals []time.Duration
}

func genSheet(t *rapid.T) generatedSheet {
	var sb strings.Builder
	var sheet generatedSheet
	notes := rapid.StringMatching(`[a-z]{0,8}( [a-z]{1,8})?`)

	days := rapid.IntRange(1, 4).Draw(t, "days")
	for d := 0; d < days; d++ {
		fmt.Fprintf(&sb, "5/%d\n", d+1)

		var total time.Duration
		var excluded [24 * 60]bool
		cursor := 0
		prevStart, prevEnd := -1, -1 // last closed entry with a length, if it is also the last entry
		entries := rapid.IntRange(0, 5).Draw(t, "entries")
		for i := 0; i < entries; i++ {
			// A bridged entry starts where the previous one ends, with an
			// exclusion between them that reaches into both.
			bridge := prevStart >= 0 && rapid.IntRange(0, 3).Draw(t, "bridge") == 0
			start := cursor
			if !bridge {
				start += rapid.IntRange(0, 90).Draw(t, "gap")
			}
			length := rapid.IntRange(0, 180).Draw(t, "length")
			if bridge && length == 0 {
				length = 1
			}
			end := start + length
			if end >= 24*60 {
				break
			}
			startTok := formatClock(time.Duration(start) * time.Minute)
			note := notes.Draw(t, "notes")

			if !bridge && rapid.IntRange(0, 4).Draw(t, "open") == 0 {
				fmt.Fprintf(&sb, "%s, %s\n", startTok, note)
				cursor = start
				prevStart, prevEnd = -1, -1
				continue
			}

			if bridge {
				xs := prevStart + rapid.IntRange(0, prevEnd-prevStart-1).Draw(t, "bridge_start")
				xe := start + rapid.IntRange(1, length).Draw(t, "bridge_end")
				fmt.Fprintf(&sb, "#-- %s, %s, break\n",
					formatClock(time.Duration(xs)*time.Minute), formatClock(time.Duration(xe)*time.Minute))
				markExcluded(&excluded, xs, xe)
			}

			fmt.Fprintf(&sb, "%s, %s, %s\n", startTok, formatClock(time.Duration(end)*time.Minute), note)
			total += time.Duration(length) * time.Minute

			if length >= 2 && rapid.Bool().Draw(t, "exclude") {
				xs := start + rapid.IntRange(0, length-2).Draw(t, "excl_offset")
				xe := xs + rapid.IntRange(1, end-xs).Draw(t, "excl_length")
				fmt.Fprintf(&sb, "#-- %s, %s, break\n",
					formatClock(time.Duration(xs)*time.Minute), formatClock(time.Duration(xe)*time.Minute))
				markExcluded(&excluded, xs, xe)
			}

			cursor = end
			prevStart, prevEnd = -1, -1
			if length > 0 {
				prevStart, prevEnd = start, end
			}
		}

		// Every exclusion lies inside the entries it applies to, so the
		// union is subtracted once.
		for _, x := range excluded {
			if x {
				total -= time.Minute
			}
		}

		sheet.dayTotals = append(sheet.dayTotals, total)
		if rapid.Bool().Draw(t, "day_line") {
			sb.WriteString("\nDay: 0:00\n\n")
		}
	}

	sheet.text = sb.String()
	return sheet
}

func markExcluded(excluded *[24 * 60]bool, from, to int) {
	for m := from; m < to; m++ {
		excluded[m] = true
	}
}

func runSheet(t *rapid.T, input string) *Result {
	p, err := NewProcessor(Options{Now: fixedNow})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	res, err := p.Process(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Process(%q): %v", input, err)
	}
	return res
}

func joinLines(res *Result) string {
	var sb strings.Builder
	_, _ = res.WriteTo(&sb)
	return sb.String()
}

// Feature: timetxt, Property 1: a normalized file is a fixed point
func TestProperty_Idempotence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sheet := genSheet(t)

		first := joinLines(runSheet(t, sheet.text))
		second := joinLines(runSheet(t, first))
		if first != second {
			t.Fatalf("second run changed output\ninput:\n%s\nfirst:\n%s\nsecond:\n%s", sheet.text, first, second)
		}
	})
}

// Feature: timetxt, Property 2: day totals are spans minus exclusions; the week sums the days
func TestProperty_TotalCorrectness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sheet := genSheet(t)
		res := runSheet(t, sheet.text)

		if len(res.Days) != len(sheet.dayTotals) {
			t.Fatalf("got %d days, want %d", len(res.Days), len(sheet.dayTotals))
		}
		var week time.Duration
		for i, want := range sheet.dayTotals {
			if res.Days[i].Total != want {
				t.Fatalf("day %d total = %v, want %v\n%s", i, res.Days[i].Total, want, sheet.text)
			}
			week += want
		}

		wantLine := "Week: " + FormatDuration(week, FormatTimeSpan)
		if last := res.Lines[len(res.Lines)-1]; last != wantLine {
			t.Fatalf("last line = %q, want %q", last, wantLine)
		}
	})
}

// Feature: timetxt, Property 3: overlapping exclusions are subtracted once
func TestProperty_ExclusionUnion(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.IntRange(0, 600).Draw(t, "start")
		end := start + rapid.IntRange(0, 600).Draw(t, "length")

		var exclusions []Exclusion
		covered := make(map[int]bool)
		n := rapid.IntRange(0, 6).Draw(t, "n")
		for i := 0; i < n; i++ {
			xs := rapid.IntRange(0, 1300).Draw(t, "xs")
			xe := xs + rapid.IntRange(0, 120).Draw(t, "xlen")
			exclusions = append(exclusions, Exclusion{
				Start: time.Duration(xs) * time.Minute,
				End:   time.Duration(xe) * time.Minute,
			})
			for m := max(xs, start); m < min(xe, end); m++ {
				covered[m] = true
			}
		}

		got := excludedWithin(time.Duration(start)*time.Minute, time.Duration(end)*time.Minute, exclusions)
		want := time.Duration(len(covered)) * time.Minute
		if got != want {
			t.Fatalf("excludedWithin = %v, want %v", got, want)
		}
	})
}

// Feature: timetxt, Property 4: totals never wrap at 24 hours
func TestProperty_DurationCarry(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hours := rapid.IntRange(0, 500).Draw(t, "hours")
		minutes := rapid.IntRange(0, 59).Draw(t, "minutes")
		d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute

		want := fmt.Sprintf("%d:%02d", hours, minutes)
		if got := FormatDuration(d, FormatTimeSpan); got != want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", d, got, want)
		}

		back, err := parseExplicitDuration(FormatDuration(d, FormatDecimal))
		if err != nil {
			t.Fatalf("parseExplicitDuration: %v", err)
		}
		if back != d {
			t.Fatalf("decimal round trip = %v, want %v", back, d)
		}
	})
}

func TestExcludedWithin_Example(t *testing.T) {
	got := excludedWithin(10*time.Minute, 25*time.Minute, []Exclusion{
		{Start: 10 * time.Minute, End: 20 * time.Minute},
		{Start: 15 * time.Minute, End: 25 * time.Minute},
	})
	if got != 15*time.Minute {
		t.Fatalf("excludedWithin = %v, want 15m", got)
	}
}
