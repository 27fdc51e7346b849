package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestView_Plain(t *testing.T) {
	tmp := isolate(t)
	sheet := filepath.Join(tmp, "time.txt")
	writeSheet(t, sheet, sampleSheet+"#!bogus=1\n")

	out, err := executeCommand(rootCmd, "view", "--plain", "--earliest-start", "7", sheet)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	for _, want := range []string{
		"Total:     7:00",
		"Tue 2012-05-01    7:00",
		"3:00  9a, 12p, coding",
		"week of 2012-05-01     7:00",
		"unknown pragma",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := readSheet(t, sheet); got != sampleSheet+"#!bogus=1\n" {
		t.Errorf("view modified the timesheet:\n%s", got)
	}
}

func TestView_NonExistentFile(t *testing.T) {
	tmp := isolate(t)
	missing := filepath.Join(tmp, "does-not-exist.txt")

	out, err := executeCommand(rootCmd, "view", "--plain", missing)
	if err == nil {
		t.Fatal("expected an error for non-existent file, got nil")
	}
	combined := out + err.Error()
	expected := "file not found: " + missing
	if !strings.Contains(combined, expected) {
		t.Errorf("expected error to contain %q, got: %q", expected, combined)
	}
}

// genSheet builds a small timesheet of whole-hour entries over a few days.
func genSheet(t *rapid.T) string {
	var sb strings.Builder
	days := rapid.IntRange(0, 4).Draw(t, "days")
	for d := 0; d < days; d++ {
		fmt.Fprintf(&sb, "5/%d/2012\n", d+1)
		hour := 0
		n := rapid.IntRange(0, 3).Draw(t, "entries")
		for e := 0; e < n; e++ {
			length := rapid.IntRange(1, 3).Draw(t, "length")
			fmt.Fprintf(&sb, "%d:00, %d:00\n", hour, hour+length)
			hour += length
		}
	}
	return sb.String()
}

// Feature: timetxt, Property 12: View section order
func TestViewSectionOrder(t *testing.T) {
	sectionHeaders := []string{
		"## Summary",
		"## Days",
		"## Weeks",
		"## Issues",
	}

	rapid.Check(t, func(rt *rapid.T) {
		tmp := isolate(t)
		sheet := filepath.Join(tmp, "time.txt")
		writeSheet(t, sheet, genSheet(rt))

		output, err := executeCommand(rootCmd, "view", "--plain", sheet)
		if err != nil {
			rt.Fatalf("view: %v", err)
		}

		positions := make([]int, len(sectionHeaders))
		for i, header := range sectionHeaders {
			pos := strings.Index(output, header)
			if pos == -1 {
				rt.Fatalf("section header %q not found in output:\n%s", header, output)
			}
			positions[i] = pos
		}
		for i := 0; i < len(positions)-1; i++ {
			if positions[i] >= positions[i+1] {
				rt.Errorf("section %q does not appear before %q in output:\n%s",
					sectionHeaders[i], sectionHeaders[i+1], output)
			}
		}
	})
}
