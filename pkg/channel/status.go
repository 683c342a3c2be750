package channel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Status tokens shared with the remote driver.
const (
	StatusOk  = "Ok"
	StatusBad = "Bad"
)

// StatusFile is the write-only status token sink. Writes only happen when the
// file was created beforehand by the driver.
type StatusFile struct {
	path string
}

// NewStatusFile creates a status sink backed by path.
func NewStatusFile(path string) *StatusFile {
	return &StatusFile{path: path}
}

// Report writes token. It reports whether the file existed and was written.
func (s *StatusFile) Report(token string) (bool, error) {
	return WriteIfExists(s.path, []byte(token))
}

// Read returns the current token for observers outside the drone core.
func (s *StatusFile) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read status file '%s': %w", s.path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
