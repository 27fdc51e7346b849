package timesheet

import (
	"fmt"
	"strconv"
	"strings"
)

const pragmaPrefix = "#!"

// settings are the per-run switches that pragma lines can change.
type settings struct {
	preserveBlankLines      bool
	ignoreExistingDurations bool
	durationFormat          DurationFormat
}

// parsePragma splits "#!name=value". ok is false when line is not a pragma at all.
func parsePragma(line string) (name, value string, ok bool) {
	if !strings.HasPrefix(line, pragmaPrefix) {
		return "", "", false
	}
	body := strings.TrimPrefix(line, pragmaPrefix)
	name, value, _ = strings.Cut(body, "=")
	return strings.TrimSpace(name), strings.TrimSpace(value), true
}

// apply sets one pragma. Names are matched case-insensitively.
func (s *settings) apply(name, value string) error {
	switch strings.ToLower(name) {
	case "preserveblanklines":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("pragma %s: invalid value %q", name, value)
		}
		s.preserveBlankLines = b
	case "ignoreexistingdurations":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("pragma %s: invalid value %q", name, value)
		}
		s.ignoreExistingDurations = b
	case "durationformat":
		f, err := ParseDurationFormat(value)
		if err != nil {
			return fmt.Errorf("pragma %s: %w", name, err)
		}
		s.durationFormat = f
	case "":
		return fmt.Errorf("pragma without a name")
	default:
		return fmt.Errorf("unknown pragma %q", name)
	}
	return nil
}
