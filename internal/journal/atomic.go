package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var errEmptyPath = errors.New("journal path is empty")

// writeAtomic replaces path with data via a synced temp file and rename.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return errEmptyPath
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // path comes from config, not user input
		return fmt.Errorf("renaming temp file: %w", err)
	}
	committed = true

	// Best effort so the rename itself survives a crash.
	if d, err := os.Open(dir); err == nil { //nolint:gosec // dir derived from path
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
