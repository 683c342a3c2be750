package channel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// Sentinel is written into the command file once its content has been consumed.
const Sentinel = "-"

// ErrChannelBusy is returned by Submit while a previous command is still unread.
var ErrChannelBusy = errors.New("command channel holds an unread command")

// CommandFile is the single-slot command mailbox. The drone reads it with Take;
// remote writers use Submit.
//
// Take and Submit are serialized within this process only. Writers in other
// processes can still race with Take: a write landing between the read and the
// clear is lost.
type CommandFile struct {
	path string
	mu   sync.Mutex
}

// NewCommandFile creates a mailbox backed by path.
func NewCommandFile(path string) *CommandFile {
	return &CommandFile{path: path}
}

// Path returns the backing file path.
func (c *CommandFile) Path() string {
	return c.path
}

// Take returns the current content and overwrites the file with Sentinel. When
// the file does not exist it returns "" and leaves it absent. When the file
// cannot be cleared it returns "" so the command is never consumed twice.
func (c *CommandFile) Take() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read command file '%s': %w", c.path, err)
	}

	if _, err := WriteIfExists(c.path, []byte(Sentinel)); err != nil {
		return "", fmt.Errorf("failed to clear command file: %w", err)
	}
	return string(data), nil
}

// Peek returns the current content without consuming it.
func (c *CommandFile) Peek() (string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read command file '%s': %w", c.path, err)
	}
	return string(data), nil
}

// Submit writes command into the mailbox if it is empty, absent, or holds the
// sentinel. Otherwise it returns ErrChannelBusy.
func (c *CommandFile) Submit(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.Peek()
	if err != nil {
		return err
	}
	if trimmed := strings.TrimSpace(current); trimmed != "" && trimmed != Sentinel {
		return ErrChannelBusy
	}

	if err := os.WriteFile(c.path, []byte(command), 0644); err != nil {
		return fmt.Errorf("failed to write command file '%s': %w", c.path, err)
	}
	return nil
}
