package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/timetxt/internal/timesheet"
)

// Environment variables that override file settings.
const (
	EnvFile          = "TIMETXT_FILE"
	EnvEarliestStart = "TIMETXT_EARLIEST_START"
	EnvDateFormat    = "TIMETXT_DATE_FORMAT"
	EnvBackupDir     = "TIMETXT_BACKUP_DIR"
)

// ProjectFile is the per-directory config file name.
const ProjectFile = ".timetxt.yaml"

// Config holds all configurable timetxt settings.
type Config struct {
	File          string `json:"file" yaml:"file"`                     // timesheet to update when no path is given
	Output        string `json:"output" yaml:"output"`                 // write here instead of stdout
	BackupDir     string `json:"backup_dir" yaml:"backup_dir"`         // back up before rewriting in place
	EarliestStart *int   `json:"earliest_start" yaml:"earliest_start"` // 0-11
	DateFormat    string `json:"date_format" yaml:"date_format"`       // Go layout for date headers
	Strict        bool   `json:"strict" yaml:"strict"`
	RetryAttempts int    `json:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay    string `json:"retry_delay" yaml:"retry_delay"` // e.g. "500ms"
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		DateFormat:    timesheet.DefaultDateFormat,
		RetryAttempts: 5,
		RetryDelay:    "500ms",
	}
}

// GlobalPath returns ~/.config/timetxt/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "timetxt", "config.json"), nil
}

// LoadGlobal reads ~/.config/timetxt/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .timetxt.yaml in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// LoadFile reads an explicit config file. The decoder is picked by extension.
func LoadFile(path string) (*Config, error) {
	cfg, err := loadFile(path, false)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
	}
	return cfg, nil
}

// loadFile reads and parses a config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	overlay(&result, global)
	overlay(&result, project)
	return result
}

func overlay(dst, src *Config) {
	if src == nil {
		return
	}
	if src.File != "" {
		dst.File = src.File
	}
	if src.Output != "" {
		dst.Output = src.Output
	}
	if src.BackupDir != "" {
		dst.BackupDir = src.BackupDir
	}
	if src.EarliestStart != nil {
		h := *src.EarliestStart
		dst.EarliestStart = &h
	}
	if src.DateFormat != "" {
		dst.DateFormat = src.DateFormat
	}
	if src.Strict {
		dst.Strict = true
	}
	if src.RetryAttempts != 0 {
		dst.RetryAttempts = src.RetryAttempts
	}
	if src.RetryDelay != "" {
		dst.RetryDelay = src.RetryDelay
	}
}

// ApplyEnv overrides settings from TIMETXT_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvFile); v != "" {
		c.File = v
	}
	if v := os.Getenv(EnvDateFormat); v != "" {
		c.DateFormat = v
	}
	if v := os.Getenv(EnvBackupDir); v != "" {
		c.BackupDir = v
	}
	if v := os.Getenv(EnvEarliestStart); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an hour", EnvEarliestStart, v)
		}
		c.EarliestStart = &h
	}
	return nil
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.EarliestStart != nil && (*c.EarliestStart < 0 || *c.EarliestStart > 11) {
		return fmt.Errorf("earliest_start: %d is out of range 0-11", *c.EarliestStart)
	}
	if strings.TrimSpace(c.DateFormat) == "" {
		return errors.New("date_format: must not be empty")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts: must be >= 1, got %d", c.RetryAttempts)
	}
	if _, err := c.Delay(); err != nil {
		return err
	}
	return nil
}

// Delay parses RetryDelay.
func (c *Config) Delay() (time.Duration, error) {
	if c.RetryDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("retry_delay: invalid duration %q", c.RetryDelay)
	}
	return d, nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
