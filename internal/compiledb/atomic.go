package compiledb

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a hidden temporary file next to path and
// renames it into place, so readers see either the old file or the whole
// new one. The temporary name ends in ".tmp" and never carries RecordExt.
func WriteFileAtomic(path string, data []byte) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	// CreateTemp uses 0600; records and databases are meant to be shared.
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()         //nolint:errcheck // Already failing; the chmod error is reported
		_ = os.Remove(tmpName) //nolint:errcheck // Best-effort cleanup
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()         //nolint:errcheck // Already failing; the write error is reported
		_ = os.Remove(tmpName) //nolint:errcheck // Best-effort cleanup
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // Best-effort cleanup
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // Best-effort cleanup
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
