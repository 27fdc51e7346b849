package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/timetxt/internal/config"
	"github.com/fakeyudi/timetxt/internal/fileupdate"
	"github.com/fakeyudi/timetxt/internal/locate"
	"github.com/fakeyudi/timetxt/internal/timesheet"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger is built from --verbose and --log-file in PersistentPreRunE.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	verbose       bool
	logFile       string
	earliestStart int
	dateFormat    string
)

var logOutput io.Closer

var rootCmd = &cobra.Command{
	Use:          "timetxt",
	Short:        "Recalculate durations and totals in a time.txt timesheet",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}

		// Flags win over files and environment.
		if earliestStart >= 0 {
			h := earliestStart
			cfg.EarliestStart = &h
		}
		if dateFormat != "" {
			cfg.DateFormat = dateFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		return setupLogger(cmd.ErrOrStderr())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logOutput != nil {
			err := logOutput.Close()
			logOutput = nil
			return err
		}
		return nil
	},
}

// setupLogger writes errors to stderr, or everything from info up to
// --log-file. --verbose lowers either to debug.
func setupLogger(stderr io.Writer) error {
	var w io.Writer = stderr
	level := slog.LevelError
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logOutput = f
		w = f
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return nil
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveFile picks the timesheet to work on: the argument, then the
// configured file, then the first time.txt found in the usual places.
// With create set, a missing time.txt is created.
func resolveFile(args []string, create bool) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.File != "" {
		return cfg.File, nil
	}

	finder := locate.NewFinder(logger)
	path, err := finder.Find()
	if errors.Is(err, locate.ErrNotFound) {
		if create {
			return finder.Create()
		}
		return "", fmt.Errorf("%w; pass a file or set %s", err, config.EnvFile)
	}
	return path, err
}

func newProcessor(graceful bool) (*timesheet.Processor, error) {
	return timesheet.NewProcessor(timesheet.Options{
		DateFormat:    cfg.DateFormat,
		EarliestStart: cfg.EarliestStart,
		Graceful:      graceful,
		Logger:        logger,
	})
}

// newUpdater builds an in-place updater. Backups are taken when asked for
// or when a backup directory is configured.
func newUpdater(proc *timesheet.Processor, backup bool) (*fileupdate.Updater, error) {
	delay, err := cfg.Delay()
	if err != nil {
		return nil, err
	}
	return &fileupdate.Updater{
		Processor: proc,
		Backup:    backup || cfg.BackupDir != "",
		BackupDir: cfg.BackupDir,
		Attempts:  cfg.RetryAttempts,
		Delay:     delay,
		Logger:    logger,
	}, nil
}

// printIssues writes one warning line per recovered problem.
func printIssues(w io.Writer, res *timesheet.Result) {
	for _, le := range res.Issues {
		if errors.Is(le.Err, timesheet.ErrUnrecognized) {
			continue
		}
		fmt.Fprintf(w, "warning: line %d: %v\n", le.Number, le.Err)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to this file instead of stderr")
	rootCmd.PersistentFlags().IntVar(&earliestStart, "earliest-start", -1, "hour (0-11) before which a day's first bare time is read as pm")
	rootCmd.PersistentFlags().StringVar(&dateFormat, "date-format", "", "Go time layout for date headers")
}
