package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/timetxt/internal/timesheet"
	"github.com/fakeyudi/timetxt/internal/tui"
)

var plainOutput bool

var headingStyle = lipgloss.NewStyle().Bold(true)

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Browse day and week totals of a timesheet",
	Long: `Processes the timesheet without changing it and shows its days, weeks
and problems. A TUI is used on a terminal; otherwise, or with --plain, a
plain text report is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveFile(args, false)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}
		defer f.Close()

		proc, err := newProcessor(true)
		if err != nil {
			return err
		}
		res, err := proc.Process(f)
		if err != nil {
			return err
		}

		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			printResult(cmd.OutOrStdout(), res)
			return nil
		}
		return tui.Run(res, path)
	},
}

// printResult writes a plain-text report.
func printResult(w io.Writer, res *timesheet.Result) {
	fmt.Fprintln(w, headingStyle.Render("## Summary"))
	fmt.Fprintf(w, "  Days:      %d\n", len(res.Days))
	fmt.Fprintf(w, "  Weeks:     %d\n", len(res.Weeks))
	fmt.Fprintf(w, "  Total:     %s\n", timesheet.FormatDuration(res.Total(), timesheet.FormatTimeSpan))
	if !res.Success {
		fmt.Fprintf(w, "  Stopped:   %q (%d lines not processed)\n", res.Unrecognized, len(res.Remainder))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, headingStyle.Render("## Days"))
	if len(res.Days) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range res.Days {
		fmt.Fprintf(w, "  %s  %6s\n", d.Date.Format("Mon 2006-01-02"),
			timesheet.FormatDuration(d.Total, timesheet.FormatTimeSpan))
		for _, es := range d.Entries {
			shown := "-"
			if es.Counted {
				shown = timesheet.FormatDuration(es.Duration, timesheet.FormatTimeSpan)
			}
			fmt.Fprintf(w, "      %6s  %s\n", shown, es.Entry)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, headingStyle.Render("## Weeks"))
	if len(res.Weeks) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, wk := range res.Weeks {
		fmt.Fprintf(w, "  week of %s  %7s\n", wk.Start.Format("2006-01-02"),
			timesheet.FormatDuration(wk.Total, timesheet.FormatTimeSpan))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, headingStyle.Render("## Issues"))
	if len(res.Issues) == 0 && len(res.Warnings) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, le := range res.Issues {
		fmt.Fprintf(w, "  line %d: %v\n", le.Number, le.Err)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  %s\n", warn)
	}
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
