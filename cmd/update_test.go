package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fakeyudi/timetxt/internal/fileupdate"
	"github.com/fakeyudi/timetxt/internal/timesheet"
)

func TestUpdate_Stdout(t *testing.T) {
	tmp := isolate(t)
	sheet := filepath.Join(tmp, "time.txt")
	writeSheet(t, sheet, sampleSheet)

	out, err := executeCommand(rootCmd, "update", "--earliest-start", "7", sheet)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out != sampleUpdated {
		t.Errorf("output:\n%s\nwant:\n%s", out, sampleUpdated)
	}
	if got := readSheet(t, sheet); got != sampleSheet {
		t.Errorf("input file modified without --in-place:\n%s", got)
	}
}

func TestUpdate_OutFile(t *testing.T) {
	tmp := isolate(t)
	sheet := filepath.Join(tmp, "time.txt")
	dest := filepath.Join(tmp, "out.txt")
	writeSheet(t, sheet, sampleSheet)

	out, err := executeCommand(rootCmd, "update", "--earliest-start", "7", "--out", dest, sheet)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out != "" {
		t.Errorf("unexpected output: %q", out)
	}
	if got := readSheet(t, dest); got != sampleUpdated {
		t.Errorf("out file:\n%s\nwant:\n%s", got, sampleUpdated)
	}
}

func TestUpdate_InPlaceWithBackup(t *testing.T) {
	tmp := isolate(t)
	sheet := filepath.Join(tmp, "time.txt")
	backups := filepath.Join(tmp, "backups")
	writeSheet(t, sheet, sampleSheet)

	out, err := executeCommand(rootCmd, "update", "--earliest-start", "7",
		"--in-place", "--backup", "--backup-dir", backups, sheet)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(out, "Updated "+sheet+" (1 days, 7:00 total)") {
		t.Errorf("output = %q", out)
	}
	if got := readSheet(t, sheet); got != sampleUpdated {
		t.Errorf("rewritten file:\n%s\nwant:\n%s", got, sampleUpdated)
	}

	entries, err := os.ReadDir(backups)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".backup.txt") {
		t.Fatalf("backups = %v", entries)
	}
	if got := readSheet(t, filepath.Join(backups, entries[0].Name())); got != sampleSheet {
		t.Errorf("backup content:\n%s", got)
	}
}

func TestUpdate_OutAndInPlaceConflict(t *testing.T) {
	tmp := isolate(t)
	sheet := filepath.Join(tmp, "time.txt")
	writeSheet(t, sheet, sampleSheet)

	_, err := executeCommand(rootCmd, "update", "--in-place", "--out", filepath.Join(tmp, "x.txt"), sheet)
	if err == nil || !strings.Contains(err.Error(), "cannot be used together") {
		t.Fatalf("err = %v, want flag conflict", err)
	}
}

func TestUpdate_StrictFailsWithoutOutput(t *testing.T) {
	tmp := isolate(t)
	sheet := filepath.Join(tmp, "time.txt")
	writeSheet(t, sheet, "5/1/2012\n3p, 2p\n")

	out, err := executeCommand(rootCmd, "update", "--strict", sheet)
	if !errors.Is(err, timesheet.ErrOrdering) {
		t.Fatalf("err = %v, want ErrOrdering", err)
	}
	var le *timesheet.LineError
	if !errors.As(err, &le) || le.Number != 2 {
		t.Errorf("err = %v, want *LineError for line 2", err)
	}
	if strings.Contains(out, "Day:") {
		t.Errorf("strict failure still printed output:\n%s", out)
	}
}

func TestUpdate_GracefulAnnotatesAndWarns(t *testing.T) {
	tmp := isolate(t)
	sheet := filepath.Join(tmp, "time.txt")
	writeSheet(t, sheet, "5/1/2012\n9, 10\n3p, 2p\n")

	out, err := executeCommand(rootCmd, "update", sheet)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(out, "#ERROR: cannot travel back in time") || !strings.Contains(out, "#> 3p, 2p") {
		t.Errorf("bad line not annotated:\n%s", out)
	}
	if !strings.Contains(out, "warning: line 3: cannot travel back in time") {
		t.Errorf("missing warning line:\n%s", out)
	}
}

func TestUpdate_UnrecognizedLineIsIncomplete(t *testing.T) {
	tmp := isolate(t)
	sheet := filepath.Join(tmp, "time.txt")
	writeSheet(t, sheet, "5/1/2012\n9, 10\nnot a timesheet line\nkept as is\n")

	out, err := executeCommand(rootCmd, "update", sheet)
	if !errors.Is(err, fileupdate.ErrIncomplete) {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
	if !strings.Contains(out, "#ERROR: unrecognized line\nnot a timesheet line\nkept as is\n") {
		t.Errorf("remainder not passed through:\n%s", out)
	}
}

func TestUpdate_MissingFile(t *testing.T) {
	tmp := isolate(t)
	missing := filepath.Join(tmp, "nope.txt")

	_, err := executeCommand(rootCmd, "update", missing)
	if err == nil || !strings.Contains(err.Error(), "file not found: "+missing) {
		t.Fatalf("err = %v, want file not found", err)
	}
}

func TestUpdate_FindsTimesheetInHome(t *testing.T) {
	tmp := isolate(t)
	writeSheet(t, filepath.Join(tmp, "time.txt"), sampleSheet)

	out, err := executeCommand(rootCmd, "update", "--earliest-start", "7")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out != sampleUpdated {
		t.Errorf("output:\n%s\nwant:\n%s", out, sampleUpdated)
	}
}

func TestUpdate_NoTimesheetFound(t *testing.T) {
	isolate(t)
	_, err := executeCommand(rootCmd, "update")
	if err == nil || !strings.Contains(err.Error(), "no time.txt found") {
		t.Fatalf("err = %v, want no time.txt found", err)
	}
}
