// Package channel implements the file-backed slots shared with a remote driver:
// the single-command mailbox, the status token, and the existence-gated writes
// used by every sink the drone never creates itself.
package channel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// WriteIfExists replaces the content of path with data, but only when path
// already exists. It reports whether the file was written. A missing file is
// not an error.
func WriteIfExists(path string, data []byte) (bool, error) {
	// No O_CREATE: a sink that disappears between checks is still never created.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open '%s': %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, fmt.Errorf("failed to write '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close '%s': %w", path, err)
	}
	return true, nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ClearDirectory removes dir and everything below it. A missing directory is
// not an error.
func ClearDirectory(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear directory '%s': %w", dir, err)
	}
	return nil
}
