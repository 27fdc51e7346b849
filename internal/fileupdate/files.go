package fileupdate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BackupName returns "<base>.<yyyyMMdd_HHmmss>.<id>.backup.txt" for file.
// The id keeps two backups taken within the same second apart.
func BackupName(file string, now time.Time, id uuid.UUID) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return fmt.Sprintf("%s.%s.%s.backup.txt", base, now.Format("20060102_150405"), id.String()[:8])
}

// Backup copies file into dir, or next to file when dir is empty, and returns
// the backup path.
func Backup(file, dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = filepath.Dir(file)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	src, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("opening %s for backup: %w", file, err)
	}
	defer src.Close()

	dest := filepath.Join(dir, BackupName(file, now, uuid.New()))
	dst, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return dest, nil
}

// WriteAtomic writes through a temp file in the same directory and renames it
// over path, keeping path's permissions when it already exists.
func WriteAtomic(path string, write func(io.Writer) error) (err error) {
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if err = write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
