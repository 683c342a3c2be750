package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries() Series {
	return Series{
		Times:      []float64{0, 0.25},
		Locations:  []mgl64.Vec3{{0, 0, 0}, {0.25, 0, 0}},
		Rotations:  []geom.Rotator{{}, {Yaw: 1.5}},
		Velocities: []mgl64.Vec3{{1, 0, 0}, {1, 0, 0}},
		Distances:  []float64{1000000, 42.5},
	}
}

func testPaths(dir string) Paths {
	return Paths{
		Trajectory: filepath.Join(dir, "trajectory.txt"),
		Times:      filepath.Join(dir, "times.txt"),
		Velocities: filepath.Join(dir, "velocities.txt"),
		Distances:  filepath.Join(dir, "distances.txt"),
	}
}

func TestFlushWritesExistingSinks(t *testing.T) {
	dir := t.TempDir()
	paths := testPaths(dir)
	for _, p := range []string{paths.Trajectory, paths.Times, paths.Velocities, paths.Distances} {
		require.NoError(t, os.WriteFile(p, []byte("stale line 1\nstale line 2\nstale line 3\n"), 0644))
	}

	result, err := NewExporter(paths, nil).Flush(testSeries())
	require.NoError(t, err)
	assert.Len(t, result.Written, 4)
	assert.Empty(t, result.Skipped)

	read := func(p string) string {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		return string(data)
	}

	assert.Equal(t, "0.0\n0.25\n", read(paths.Times))
	assert.Equal(t, "1000000.0\n42.5\n", read(paths.Distances))
	assert.Equal(t, "X=1.000 Y=0.000 Z=0.000\nX=1.000 Y=0.000 Z=0.000\n", read(paths.Velocities))
	assert.Equal(t,
		"X=0.000 Y=0.000 Z=0.000 P=0.000000 Y=0.000000 R=0.000000\n"+
			"X=0.250 Y=0.000 Z=0.000 P=0.000000 Y=1.500000 R=0.000000\n",
		read(paths.Trajectory))
}

func TestFlushSkipsMissingSinks(t *testing.T) {
	dir := t.TempDir()
	paths := testPaths(dir)
	require.NoError(t, os.WriteFile(paths.Times, nil, 0644))

	result, err := NewExporter(paths, nil).Flush(testSeries())
	require.NoError(t, err)
	assert.Equal(t, []string{paths.Times}, result.Written)
	assert.Len(t, result.Skipped, 3)

	for _, p := range []string{paths.Trajectory, paths.Velocities, paths.Distances} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "%s must not be created", p)
	}
}

func TestFlushEmptySeriesTruncates(t *testing.T) {
	dir := t.TempDir()
	paths := testPaths(dir)
	require.NoError(t, os.WriteFile(paths.Distances, []byte("1.0\n2.0\n"), 0644))

	_, err := NewExporter(paths, nil).Flush(Series{})
	require.NoError(t, err)

	data, err := os.ReadFile(paths.Distances)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFlushReportsUnwritableSink(t *testing.T) {
	dir := t.TempDir()
	paths := testPaths(dir)
	// A directory in place of a file cannot be opened for writing.
	require.NoError(t, os.Mkdir(paths.Times, 0755))
	require.NoError(t, os.WriteFile(paths.Distances, nil, 0644))

	result, err := NewExporter(paths, nil).Flush(testSeries())
	assert.Error(t, err)
	assert.Equal(t, []string{paths.Distances}, result.Written, "other sinks are still written")
}
