package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/timetxt/internal/fileupdate"
)

var (
	watchCreate    bool
	watchBackup    bool
	watchBackupDir string
)

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Keep a timesheet recalculated while you edit it",
	Long: `Rewrites the timesheet once, then again every time it is saved, until
interrupted. Without a file argument the configured file or the first
time.txt found in your Dropbox, home, data or Desktop folder is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchBackupDir != "" {
			cfg.BackupDir = watchBackupDir
		}
		path, err := resolveFile(args, watchCreate)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		proc, err := newProcessor(!cfg.Strict)
		if err != nil {
			return err
		}
		u, err := newUpdater(proc, watchBackup)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
		fmt.Fprintf(out, "Watching %s (ctrl+c to stop)\n", path)

		return u.Watch(ctx, path, func(o *fileupdate.Outcome, err error) {
			if o != nil {
				printIssues(errOut, o.Result)
			}
			switch {
			case errors.Is(err, fileupdate.ErrIncomplete):
				fmt.Fprintf(errOut, "warning: %v; the rest of the file was left as is\n", err)
			case err != nil:
				fmt.Fprintf(errOut, "error: %v\n", err)
			default:
				fmt.Fprintf(out, "%s  updated (%s)\n", o.ModTime.Format("15:04:05"), summary(o.Result))
			}
		})
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchCreate, "create", false, "create a time.txt when none is found")
	watchCmd.Flags().BoolVar(&watchBackup, "backup", false, "back up the timesheet before every rewrite")
	watchCmd.Flags().StringVar(&watchBackupDir, "backup-dir", "", "directory for backups (default: next to the file)")
	rootCmd.AddCommand(watchCmd)
}
