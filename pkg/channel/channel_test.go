package channel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteIfExistsSkipsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "times.txt")

	written, err := WriteIfExists(path, []byte("1.0"))
	require.NoError(t, err)
	assert.False(t, written)
	assert.False(t, Exists(path), "missing sinks are never created")
}

func TestWriteIfExistsOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "times.txt")
	require.NoError(t, os.WriteFile(path, []byte("a much longer previous content\n"), 0644))

	written, err := WriteIfExists(path, []byte("new"))
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCommandFileTakeClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command.txt")
	require.NoError(t, os.WriteFile(path, []byte("MoveUp 2.0"), 0644))
	cf := NewCommandFile(path)

	content, err := cf.Take()
	require.NoError(t, err)
	assert.Equal(t, "MoveUp 2.0", content)

	content, err = cf.Take()
	require.NoError(t, err)
	assert.Equal(t, Sentinel, content, "second read sees the sentinel")
}

func TestCommandFileTakeMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command.txt")
	cf := NewCommandFile(path)

	content, err := cf.Take()
	require.NoError(t, err)
	assert.Equal(t, "", content)
	assert.False(t, Exists(path))
}

func TestCommandFileSubmit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command.txt")
	cf := NewCommandFile(path)

	require.NoError(t, cf.Submit("TurnLeft 30"))
	err := cf.Submit("TurnRight 30")
	assert.True(t, errors.Is(err, ErrChannelBusy))

	content, err := cf.Take()
	require.NoError(t, err)
	assert.Equal(t, "TurnLeft 30", content)

	require.NoError(t, cf.Submit("TurnRight 30"), "sentinel frees the slot")
	peeked, err := cf.Peek()
	require.NoError(t, err)
	assert.Equal(t, "TurnRight 30", peeked)
}

func TestStatusFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.txt")
	sf := NewStatusFile(path)

	written, err := sf.Report(StatusBad)
	require.NoError(t, err)
	assert.False(t, written)
	assert.False(t, Exists(path))

	require.NoError(t, os.WriteFile(path, nil, 0644))
	written, err = sf.Report(StatusBad)
	require.NoError(t, err)
	assert.True(t, written)

	_, err = sf.Report(StatusOk)
	require.NoError(t, err)
	token, err := sf.Read()
	require.NoError(t, err)
	assert.Equal(t, StatusOk, token)
}

func TestClearDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Screenshots")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "shot.png"), []byte("x"), 0644))

	require.NoError(t, ClearDirectory(dir))
	assert.False(t, Exists(dir))
	require.NoError(t, ClearDirectory(dir), "clearing twice is fine")
	require.NoError(t, ClearDirectory(""))
}
