package fileupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/fakeyudi/timetxt/internal/timesheet"
)

// ErrIncomplete is returned when a rewrite stopped at an unrecognized line.
// The file is still written: processed lines first, the rest verbatim.
var ErrIncomplete = errors.New("update stopped at an unrecognized line")

// Outcome describes one completed rewrite.
type Outcome struct {
	RunID   string
	Path    string
	Backup  string // empty when no backup was taken
	Result  *timesheet.Result
	ModTime time.Time
	Elapsed time.Duration
}

// Updater rewrites timesheet files in place. Updates to the same Updater are
// serialized, so concurrent change notifications cannot interleave rewrites.
type Updater struct {
	Processor *timesheet.Processor

	// Backup enables a copy of the file before each rewrite, placed in
	// BackupDir or next to the file when BackupDir is empty.
	Backup    bool
	BackupDir string

	// Attempts and Delay bound the retries around opening the file.
	Attempts int
	Delay    time.Duration

	Logger *slog.Logger
	Now    func() time.Time

	mu        sync.Mutex
	lastWrite map[string]fileStamp
}

// fileStamp identifies the content we last wrote to a file.
type fileStamp struct {
	mod  time.Time
	size int64
}

func (u *Updater) log() *slog.Logger {
	if u.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return u.Logger
}

func (u *Updater) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}

// Update backs up, reprocesses and rewrites path. When the run stops at an
// unrecognized line the file is still rewritten with the unread remainder
// passed through, and the returned error wraps ErrIncomplete.
func (u *Updater) Update(ctx context.Context, path string) (*Outcome, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.update(ctx, path)
}

func (u *Updater) update(ctx context.Context, path string) (*Outcome, error) {
	if u.Processor == nil {
		return nil, errors.New("updater has no processor")
	}

	out := &Outcome{RunID: uuid.NewString(), Path: path}
	log := u.log().With("run", out.RunID, "file", path)
	start := time.Now()

	if u.Backup {
		b, err := Backup(path, u.BackupDir, u.now())
		if err != nil {
			return nil, err
		}
		out.Backup = b
		log.Info("backed up timesheet", "backup", b)
	}

	log.Debug("updating timesheet")
	f, err := Retry(ctx, u.Attempts, u.Delay, func() (*os.File, error) {
		f, err := os.Open(path)
		if err != nil {
			log.Debug("open failed", "err", err)
		}
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	res, err := u.Processor.Process(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	out.Result = res

	if err := WriteAtomic(path, func(w io.Writer) error {
		_, err := res.WriteTo(w)
		return err
	}); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	out.ModTime = info.ModTime()
	out.Elapsed = time.Since(start)
	u.remember(path, info)

	if !res.Success {
		log.Warn("update incomplete", "line", res.Unrecognized, "remainder", len(res.Remainder))
		return out, fmt.Errorf("%w: %q", ErrIncomplete, res.Unrecognized)
	}
	log.Info("update complete", "elapsed", out.Elapsed, "days", len(res.Days), "issues", len(res.Issues))
	return out, nil
}

func (u *Updater) remember(path string, info os.FileInfo) {
	if u.lastWrite == nil {
		u.lastWrite = make(map[string]fileStamp)
	}
	u.lastWrite[path] = fileStamp{mod: info.ModTime(), size: info.Size()}
}

// changedSinceWrite reports whether path differs from our last rewrite in
// mtime or size.
func (u *Updater) changedSinceWrite(path string) bool {
	last, ok := u.lastWrite[path]
	if !ok {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.ModTime().Equal(last.mod) || info.Size() != last.size
}

// Watch rewrites path once and then again after every external change until
// ctx is cancelled. Each attempt is reported to report, which may be nil.
// Update failures do not stop the watch.
func (u *Updater) Watch(ctx context.Context, path string, report func(*Outcome, error)) error {
	if report == nil {
		report = func(*Outcome, error) {}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors that save by rename replace the file's inode.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	report(u.Update(ctx, abs))

	log := u.log().With("file", abs)
	log.Info("watching timesheet")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			u.mu.Lock()
			if u.changedSinceWrite(abs) {
				log.Debug("detected change", "op", event.Op.String())
				report(u.update(ctx, abs))
			}
			u.mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
			log.Warn("watcher error", "err", err)
		}
	}
}
