package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/timetxt/internal/fileupdate"
	"github.com/fakeyudi/timetxt/internal/timesheet"
)

var (
	updateOut       string
	updateInPlace   bool
	updateBackup    bool
	updateBackupDir string
	updateStrict    bool
)

var updateCmd = &cobra.Command{
	Use:   "update [file]",
	Short: "Recalculate a timesheet and print it, or rewrite it in place",
	Long: `Reads a time.txt timesheet, normalizes dates and times, recalculates
entry durations and day and week totals, and writes the result.

Output goes to stdout unless --out or --in-place is given. Bad lines are
annotated with #ERROR comments; with --strict the first bad line fails the
run instead and nothing is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateOut != "" && updateInPlace {
			return errors.New("--out and --in-place cannot be used together")
		}
		if updateBackupDir != "" {
			cfg.BackupDir = updateBackupDir
		}

		path, err := resolveFile(args, false)
		if err != nil {
			return err
		}
		proc, err := newProcessor(!(updateStrict || cfg.Strict))
		if err != nil {
			return err
		}

		if updateInPlace {
			u, err := newUpdater(proc, updateBackup)
			if err != nil {
				return err
			}
			out, err := u.Update(cmd.Context(), path)
			if out != nil {
				printIssues(cmd.ErrOrStderr(), out.Result)
				if out.Backup != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Backup: %s\n", out.Backup)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", path, summary(out.Result))
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}
		defer f.Close()

		res, err := proc.Process(f)
		if err != nil {
			return err
		}

		dest := updateOut
		if dest == "" {
			dest = cfg.Output
		}
		if dest == "" {
			if _, err := res.WriteTo(cmd.OutOrStdout()); err != nil {
				return err
			}
		} else if err := fileupdate.WriteAtomic(dest, func(w io.Writer) error {
			_, err := res.WriteTo(w)
			return err
		}); err != nil {
			return err
		}

		printIssues(cmd.ErrOrStderr(), res)
		if !res.Success {
			return fmt.Errorf("%w: %q", fileupdate.ErrIncomplete, res.Unrecognized)
		}
		return nil
	},
}

// summary is the one-line result shown after a rewrite.
func summary(res *timesheet.Result) string {
	return fmt.Sprintf("%d days, %s total", len(res.Days),
		timesheet.FormatDuration(res.Total(), timesheet.FormatTimeSpan))
}

func init() {
	updateCmd.Flags().StringVarP(&updateOut, "out", "o", "", "write the result to this file")
	updateCmd.Flags().BoolVarP(&updateInPlace, "in-place", "i", false, "rewrite the timesheet itself")
	updateCmd.Flags().BoolVar(&updateBackup, "backup", false, "back up the timesheet before rewriting it in place")
	updateCmd.Flags().StringVar(&updateBackupDir, "backup-dir", "", "directory for backups (default: next to the file)")
	updateCmd.Flags().BoolVar(&updateStrict, "strict", false, "fail on the first bad line instead of annotating it")
	rootCmd.AddCommand(updateCmd)
}
