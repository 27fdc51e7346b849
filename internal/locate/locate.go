// Package locate finds the user's time.txt when no path is given.
package locate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the timesheet file every searcher looks for.
const FileName = "time.txt"

// ErrNotFound is returned by Find when no searcher has a time.txt.
var ErrNotFound = errors.New("no time.txt found")

// Searcher is one place a time.txt may live.
type Searcher struct {
	Name        string // short name, e.g. "dropbox"
	Description string // e.g. "in your Dropbox folder"

	// Dir returns the folder to look in.
	Dir func() (string, error)

	// CanCreate allows Create to make Dir when it does not exist yet.
	CanCreate bool
}

// Finder walks its searchers in order.
type Finder struct {
	Searchers []Searcher
	Logger    *slog.Logger
}

// NewFinder returns a Finder over DefaultSearchers.
func NewFinder(logger *slog.Logger) *Finder {
	return &Finder{Searchers: DefaultSearchers(), Logger: logger}
}

// DefaultSearchers checks the Dropbox app folder, the home folder, the
// timetxt data directory and the Desktop, in that order.
func DefaultSearchers() []Searcher {
	return []Searcher{
		{
			Name:        "dropbox",
			Description: "in your Dropbox folder",
			Dir:         homeSub("Dropbox", "Apps", "time.txt"),
		},
		{
			Name:        "home",
			Description: "in your home folder",
			Dir:         os.UserHomeDir,
		},
		{
			Name:        "data",
			Description: "in your data directory",
			Dir:         DataDir,
			CanCreate:   true,
		},
		{
			Name:        "desktop",
			Description: "on your Desktop",
			Dir:         homeSub("Desktop"),
		},
	}
}

func homeSub(parts ...string) func() (string, error) {
	return func() (string, error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append([]string{home}, parts...)...), nil
	}
}

// DataDir returns the timetxt-specific XDG data directory.
// Path: $XDG_DATA_HOME/timetxt or ~/.local/share/timetxt
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "timetxt"), nil
}

func (f *Finder) log() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f.Logger
}

// Find returns the first existing time.txt.
func (f *Finder) Find() (string, error) {
	for _, s := range f.Searchers {
		log := f.log().With("searcher", s.Name)
		dir, err := s.Dir()
		if err != nil {
			log.Debug("searcher unavailable", "err", err)
			continue
		}
		path := filepath.Join(dir, FileName)
		log.Debug("searching for time.txt "+s.Description, "path", path)

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		log.Debug("found time.txt", "path", path)
		return path, nil
	}
	return "", ErrNotFound
}

// Create makes an empty time.txt with the first searcher whose folder exists
// or may be created. It refuses to overwrite an existing file.
func (f *Finder) Create() (string, error) {
	for _, s := range f.Searchers {
		dir, err := s.Dir()
		if err != nil {
			continue
		}

		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
		case s.CanCreate:
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("creating %s: %w", dir, err)
			}
		default:
			continue
		}

		path := filepath.Join(dir, FileName)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return "", fmt.Errorf("file %s already exists", path)
			}
			return "", err
		}
		if err := file.Close(); err != nil {
			return "", err
		}
		f.log().Info("created time.txt", "searcher", s.Name, "path", path)
		return path, nil
	}
	return "", errors.New("no location available for a new time.txt")
}
