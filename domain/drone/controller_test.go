package drone

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/channel"
	"github.com/open-teleop/dronecontrols/pkg/config"
	"github.com/open-teleop/dronecontrols/pkg/export"
	"github.com/open-teleop/dronecontrols/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementCommandLifecycle(t *testing.T) {
	h := newHarness()
	h.commands.push("MoveForward 2.0")

	h.tick(1, 0.25)
	state := h.controller.State()
	require.True(t, state.Executing)
	assert.True(t, state.Recording)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, state.MotionVector)
	assert.Equal(t, []string{channel.StatusBad}, h.status.tokens)

	h.tick(6, 0.25)
	assert.True(t, h.controller.State().Executing)

	h.tick(1, 0.25)
	state = h.controller.State()
	assert.False(t, state.Executing)
	assert.False(t, state.Recording)
	assert.Equal(t, mgl64.Vec3{}, state.MotionVector)
	assert.Equal(t, []string{channel.StatusBad, channel.StatusOk}, h.status.tokens)

	// Inputs run on every tick after the dispatch tick.
	assert.Len(t, h.body.movements, 7)
	for _, m := range h.body.movements {
		assert.Equal(t, mgl64.Vec3{1, 0, 0}, m.Direction)
		assert.Equal(t, 1.0, m.Scale)
	}

	require.Len(t, h.exporter.flushed, 1)
	series := h.exporter.flushed[0]
	assert.Equal(t, 8, series.Len())
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75}, series.Times)
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, series.Locations[0])
	assert.Equal(t, mgl64.Vec3{7, 0, 0}, series.Locations[7])
	assert.Len(t, h.capturer.frames, 8)

	require.Len(t, h.recordings, 1)
	rec := h.recordings[0]
	assert.Equal(t, ReasonCommand, rec.Reason)
	assert.Equal(t, "MoveForward 2", rec.Command)
	assert.Equal(t, 0.0, rec.StartedAt)
	assert.Equal(t, 2.0, rec.EndedAt)
	assert.NotEmpty(t, rec.ID)

	require.Len(t, h.events, 2)
	assert.False(t, h.events[0].Finished)
	assert.True(t, h.events[1].Finished)
	assert.Equal(t, 0, h.controller.PendingTimers())
}

func TestMovementDirections(t *testing.T) {
	tests := []struct {
		line string
		want mgl64.Vec3
	}{
		{"MoveForward 1", mgl64.Vec3{1, 0, 0}},
		{"MoveBackward 1", mgl64.Vec3{-1, 0, 0}},
		{"MoveRight 1", mgl64.Vec3{0, 1, 0}},
		{"MoveLeft 1", mgl64.Vec3{0, -1, 0}},
		{"MoveUp 1", mgl64.Vec3{0, 0, 1}},
		{"MoveDown 1", mgl64.Vec3{0, 0, -1}},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			h := newHarness()
			h.commands.push(tc.line)
			h.tick(1, 0.25)

			got := h.controller.State().MotionVector
			assert.InDelta(t, tc.want.X(), got.X(), 1e-9)
			assert.InDelta(t, tc.want.Y(), got.Y(), 1e-9)
			assert.InDelta(t, tc.want.Z(), got.Z(), 1e-9)
		})
	}
}

func TestTurnCommandAppliesAfterDelay(t *testing.T) {
	h := newHarness()
	h.commands.push("TurnLeft 30")

	h.tick(1, 0.25)
	state := h.controller.State()
	require.True(t, state.Executing)
	assert.False(t, state.Recording)
	assert.Equal(t, -1.0, state.TurnRate)
	assert.Equal(t, 30.0, state.TargetAngleDelta)

	h.tick(4, 0.25)
	assert.Empty(t, h.body.yawInputs)
	assert.True(t, h.controller.State().Executing)

	h.tick(1, 0.25)
	require.Equal(t, []float64{-12}, h.body.yawInputs)
	assert.InDelta(t, -30, h.body.rotation.Yaw, 1e-9)
	assert.False(t, h.controller.State().Executing)
	assert.Empty(t, h.body.movements)
	assert.Empty(t, h.recordings)
	assert.Equal(t, []string{channel.StatusBad, channel.StatusOk}, h.status.tokens)

	// The export still runs and truncates the sinks with an empty series.
	require.Len(t, h.exporter.flushed, 1)
	assert.Equal(t, 0, h.exporter.flushed[0].Len())
}

func TestTurnAndRotateDirections(t *testing.T) {
	tests := []struct {
		line      string
		wantYaw   float64
		wantPitch float64
	}{
		{"TurnRight 90", 90, 0},
		{"TurnLeft 90", -90, 0},
		{"RotateForward 20", 0, 20},
		{"RotateBackward 20", 0, -20},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			h := newHarness()
			h.commands.push(tc.line)
			h.tick(8, 0.25)

			assert.False(t, h.controller.State().Executing)
			assert.InDelta(t, tc.wantYaw, h.body.rotation.Yaw, 1e-9)
			assert.InDelta(t, tc.wantPitch, h.body.rotation.Pitch, 1e-9)
		})
	}
}

func TestCommandsIgnoredWhileExecuting(t *testing.T) {
	h := newHarness()
	h.commands.push("MoveUp 1")
	h.tick(1, 0.25)
	reads := h.commands.reads

	h.commands.push("MoveDown 1")
	h.tick(2, 0.25)
	assert.Equal(t, reads, h.commands.reads, "channel must not be polled while executing")
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, h.controller.State().MotionVector)

	// After completion the queued command is picked up.
	h.tick(2, 0.25)
	assert.False(t, h.controller.State().Executing)
	h.tick(1, 0.25)
	assert.Equal(t, mgl64.Vec3{0, 0, -1}, h.controller.State().MotionVector)
}

func TestMalformedCommandsChangeNothing(t *testing.T) {
	for _, line := range []string{"MoveUp", "Jump 3", "MoveUp abc", "", "-"} {
		t.Run(line, func(t *testing.T) {
			h := newHarness()
			h.commands.push(line)
			h.tick(3, 0.25)

			assert.False(t, h.controller.State().Executing)
			assert.Empty(t, h.status.tokens)
			assert.Empty(t, h.exporter.flushed)
			assert.Equal(t, 0, h.controller.PendingTimers())
		})
	}
}

func TestZeroDurationCompletesSameTick(t *testing.T) {
	h := newHarness()
	h.commands.push("MoveRight 0")
	h.tick(1, 0.25)

	assert.False(t, h.controller.State().Executing)
	assert.Equal(t, []string{channel.StatusBad, channel.StatusOk}, h.status.tokens)
	require.Len(t, h.exporter.flushed, 1)
	assert.Equal(t, 1, h.exporter.flushed[0].Len())
}

func TestManualRecordToggle(t *testing.T) {
	h := newHarness()
	h.body.location = mgl64.Vec3{10, 10, 10}

	h.controller.Record()
	require.True(t, h.controller.State().Recording)
	h.body.location = mgl64.Vec3{12, 10, 10}
	h.tick(3, 0.5)
	h.controller.Record()

	assert.False(t, h.controller.State().Recording)
	require.Len(t, h.exporter.flushed, 1)
	series := h.exporter.flushed[0]
	assert.Equal(t, []float64{0, 0.5, 1}, series.Times)
	assert.Equal(t, mgl64.Vec3{2, 0, 0}, series.Locations[0])
	require.Len(t, h.recordings, 1)
	assert.Equal(t, ReasonManual, h.recordings[0].Reason)
	assert.Empty(t, h.status.tokens)
}

func TestRecordIgnoredWhileExecuting(t *testing.T) {
	h := newHarness()
	h.commands.push("MoveUp 1")
	h.tick(1, 0.25)

	h.controller.Record()
	assert.True(t, h.controller.State().Recording)
	assert.Empty(t, h.exporter.flushed)

	h.commands.push("TurnLeft 10")
	h.tick(4, 0.25)
	h.tick(1, 0.25)
	h.controller.Record()
	assert.False(t, h.controller.State().Recording)
	assert.True(t, h.controller.State().Executing)
}

func TestCommandInterruptsManualRecording(t *testing.T) {
	h := newHarness()
	h.controller.Record()
	h.tick(2, 0.25)

	h.commands.push("MoveUp 0.5")
	h.tick(1, 0.25)

	require.Len(t, h.recordings, 1)
	assert.Equal(t, ReasonManual, h.recordings[0].Reason)
	assert.Equal(t, 2, h.recordings[0].Series.Len())

	state := h.controller.State()
	assert.True(t, state.Executing)
	assert.True(t, state.Recording)
	assert.Equal(t, 1, h.controller.Recorder().Len())
}

func TestEachRecordingReanchors(t *testing.T) {
	h := newHarness()
	h.commands.push("MoveForward 1")
	h.tick(4, 0.25)
	require.False(t, h.controller.State().Executing)

	h.commands.push("MoveForward 1")
	h.tick(4, 0.25)

	require.Len(t, h.exporter.flushed, 2)
	second := h.exporter.flushed[1]
	assert.Equal(t, 0.0, second.Times[0])
	assert.Equal(t, mgl64.Vec3{}, second.Locations[0])
	loc, _ := h.controller.Recorder().Anchor()
	assert.Equal(t, mgl64.Vec3{3, 0, 0}, loc)
}

func TestManualTurns(t *testing.T) {
	h := newHarness()

	h.controller.HalfTurnLeft()
	assert.InDelta(t, -45, h.body.rotation.Yaw, 1e-9)
	h.controller.HalfTurnRight()
	h.controller.HalfTurnRight()
	assert.InDelta(t, 45, h.body.rotation.Yaw, 1e-9)
	h.controller.TurnAround()
	assert.InDelta(t, 225, h.body.rotation.Yaw, 1e-9)

	h.controller.TurnForward()
	assert.InDelta(t, 45, h.body.rotation.Pitch, 1e-9)
	h.controller.TurnBackward()
	assert.InDelta(t, 0, h.body.rotation.Pitch, 1e-9)
}

func TestManualAxes(t *testing.T) {
	h := newHarness()
	h.controller.MoveForwardAxis(0.5)
	h.controller.MoveRightAxis(-1)
	h.controller.MoveUpAxis(1)

	require.Len(t, h.body.movements, 3)
	assert.Equal(t, movementInput{mgl64.Vec3{1, 0, 0}, 0.5}, h.body.movements[0])
	assert.Equal(t, -1.0, h.body.movements[1].Scale)
	assert.InDelta(t, 1, h.body.movements[2].Direction.Z(), 1e-9)
}

func TestApplySettingsChangesRateAndDelay(t *testing.T) {
	h := newHarness()
	settings := config.DefaultSettings()
	settings.Motion.MoveRate = 0.5
	settings.Motion.TurnDelaySeconds = 0.5
	h.controller.ApplySettings(settings)

	h.commands.push("MoveUp 0.5")
	h.tick(2, 0.25)
	require.Len(t, h.body.movements, 1)
	assert.Equal(t, 0.5, h.body.movements[0].Scale)

	h.commands.push("TurnRight 10")
	h.tick(3, 0.25)
	assert.Len(t, h.body.yawInputs, 1)
	assert.False(t, h.controller.State().Executing)

	settings.Recorder.TraceLength = 500
	settings.Recorder.CaptureScreenshots = false
	h.controller.ApplySettings(settings)
	frames := len(h.capturer.frames)

	h.controller.Record()
	h.tick(2, 0.25)
	h.controller.Record()
	assert.Equal(t, []float64{500, 500}, h.controller.Recorder().Series().Distances)
	assert.Len(t, h.capturer.frames, frames, "capture disabled")

	settings.Recorder.CaptureScreenshots = true
	h.controller.ApplySettings(settings)
	h.controller.Record()
	h.tick(2, 0.25)
	assert.Len(t, h.capturer.frames, frames+2, "capture re-enabled")
}

func TestTraceLengthAppliesToNextRecording(t *testing.T) {
	h := newHarness()
	h.controller.Record()
	h.tick(1, 0.25)

	settings := config.DefaultSettings()
	settings.Recorder.TraceLength = 500
	h.controller.ApplySettings(settings)
	h.tick(1, 0.25)
	assert.Equal(t, []float64{DefaultTraceLength, DefaultTraceLength},
		h.controller.Recorder().Series().Distances)

	h.controller.Record()
	h.controller.Record()
	h.tick(1, 0.25)
	assert.Equal(t, []float64{500}, h.controller.Recorder().Series().Distances)
}

// failingCommands hands out a command it could not clear.
type failingCommands struct {
	reads int
}

func (f *failingCommands) Take() (string, error) {
	f.reads++
	return "TurnLeft 30", errors.New("clear failed")
}

func TestUnclearedCommandIsNotDispatched(t *testing.T) {
	body := newFakeBody()
	commands := &failingCommands{}
	status := &fakeStatus{}
	c := NewController(Dependencies{Body: body, Commands: commands, Status: status}, nil, nil)

	for i := 0; i < 40; i++ {
		c.Tick(0.25)
	}
	assert.Equal(t, 40, commands.reads)
	assert.False(t, c.State().Executing)
	assert.Empty(t, body.yawInputs)
	assert.Empty(t, status.tokens)
	assert.Equal(t, 0, c.PendingTimers())
}

func TestScreenshotsDisabled(t *testing.T) {
	body := newFakeBody()
	capturer := &fakeCapturer{}
	settings := config.DefaultSettings()
	settings.Recorder.CaptureScreenshots = false

	c := NewController(Dependencies{Body: body, Capturer: capturer}, settings, nil)
	c.Record()
	c.Tick(0.1)
	c.Tick(0.1)
	assert.Empty(t, capturer.frames)
	assert.Equal(t, 2, c.Recorder().Len())
}

func TestNewControllerRequiresBody(t *testing.T) {
	assert.Panics(t, func() { NewController(Dependencies{}, nil, nil) })
}

// TestFileChannelsEndToEnd drives the controller through real channel files.
func TestFileChannelsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }
	for _, name := range []string{"command.txt", "status.txt", "times.txt", "trajectory.txt", "distances.txt"} {
		require.NoError(t, os.WriteFile(path(name), nil, 0644))
	}
	// velocities.txt is absent and must stay absent.

	commands := channel.NewCommandFile(path("command.txt"))
	status := channel.NewStatusFile(path("status.txt"))
	exporter := export.NewExporter(export.Paths{
		Trajectory: path("trajectory.txt"),
		Times:      path("times.txt"),
		Velocities: path("velocities.txt"),
		Distances:  path("distances.txt"),
	}, nil)

	body := newFakeBody()
	body.rotation = geom.Rotator{Yaw: 90}
	c := NewController(Dependencies{
		Body:     body,
		Commands: commands,
		Status:   status,
		Exporter: exporter,
	}, nil, nil)

	require.NoError(t, commands.Submit("MoveRight 0.5"))
	c.Tick(0.25)

	got, err := commands.Peek()
	require.NoError(t, err)
	assert.Equal(t, channel.Sentinel, got)
	token, err := status.Read()
	require.NoError(t, err)
	assert.Equal(t, channel.StatusBad, token)

	c.Tick(0.25)
	token, err = status.Read()
	require.NoError(t, err)
	assert.Equal(t, channel.StatusOk, token)

	times, err := os.ReadFile(path("times.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0.0\n0.25\n", string(times))

	distances, err := os.ReadFile(path("distances.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1000000.0\n1000000.0\n", string(distances))

	trajectory, err := os.ReadFile(path("trajectory.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(trajectory), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "X=0.000 Y=0.000 Z=0.000 P=0.000000 Y=0.000000 R=0.000000", lines[0])

	_, err = os.Stat(path("velocities.txt"))
	assert.True(t, os.IsNotExist(err))

	// A second tick with no new command does nothing.
	c.Tick(0.25)
	token, err = status.Read()
	require.NoError(t, err)
	assert.Equal(t, channel.StatusOk, token)
}
