package drone

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/open-teleop/dronecontrols/pkg/channel"
	"github.com/open-teleop/dronecontrols/pkg/config"
	"github.com/open-teleop/dronecontrols/pkg/export"
	"github.com/open-teleop/dronecontrols/pkg/geom"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"github.com/open-teleop/dronecontrols/pkg/scheduler"
)

// DefaultTurnDelay is the fixed delay before a turn or rotate is applied.
const DefaultTurnDelay = 1.5

// Manual turn amounts in degrees.
const (
	turnAroundAngle = 180.0
	halfTurnAngle   = 45.0
	tiltAngle       = 45.0
)

// Recording end reasons.
const (
	ReasonCommand = "command"
	ReasonManual  = "manual"
)

// ExecutionState is the interpreter state between ticks.
type ExecutionState struct {
	Executing        bool         `json:"executing"`
	Recording        bool         `json:"recording"`
	MotionVector     mgl64.Vec3   `json:"motion_vector"`
	TurnRate         float64      `json:"turn_rate"`
	TargetAngleDelta float64      `json:"target_angle_delta"`
	TurnStart        geom.Rotator `json:"turn_start"`
}

// Recording is a finished, exported recording.
type Recording struct {
	ID        string        `json:"id"`
	Reason    string        `json:"reason"`
	Command   string        `json:"command,omitempty"`
	StartedAt float64       `json:"started_at"`
	EndedAt   float64       `json:"ended_at"`
	Series    export.Series `json:"-"`
	Sections  []Section     `json:"sections,omitempty"`
}

// CommandEvent describes a dispatch or completion.
type CommandEvent struct {
	Command  Command `json:"command"`
	Finished bool    `json:"finished"`
	Clock    float64 `json:"clock"`
}

// Hooks are optional observers called on the controller goroutine.
type Hooks struct {
	OnCommand   func(CommandEvent)
	OnRecording func(Recording)
}

// Dependencies are the collaborators of a Controller. Body is required; nil
// channels disable the corresponding I/O.
type Dependencies struct {
	Body     Body
	Commands CommandSource
	Status   StatusSink
	Exporter SeriesExporter
	Capturer Capturer
	Hooks    Hooks
}

// Controller interprets scripted commands and records the resulting motion.
// It is single-threaded: Tick, the timer callbacks it fires, and every manual
// action must run on the same goroutine.
type Controller struct {
	deps   Dependencies
	logger customlog.Logger

	moveRate       float64
	turnDelay      float64
	traceLength    float64
	captureEnabled bool
	camera         CameraRig

	timers   *scheduler.Scheduler
	recorder *Recorder
	state    ExecutionState

	active       Command
	commandTimer scheduler.Handle
	turnTimer    scheduler.Handle

	recordingStart float64
	dirty          bool
	frame          int
}

// NewController creates a controller in the idle state. settings may be nil to
// use config.DefaultSettings.
func NewController(deps Dependencies, settings *config.Settings, logger customlog.Logger) *Controller {
	if deps.Body == nil {
		panic("Body cannot be nil in NewController")
	}
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if logger == nil {
		logger = customlog.NewNopLogger()
	}

	c := &Controller{
		deps:     deps,
		logger:   logger,
		timers:   scheduler.New(),
		recorder: NewRecorder(settings.Recorder.TraceLength),
	}
	c.ApplySettings(settings)

	location := deps.Body.CameraLocation()
	rotation := deps.Body.CameraRotation()
	c.recorder.Reset(location, rotation)
	return c
}

// ApplySettings swaps the motion, recorder and camera tuning. In-flight timers
// keep the delay they were scheduled with and a running recording keeps its
// trace length until the next one starts.
func (c *Controller) ApplySettings(settings *config.Settings) {
	c.moveRate = settings.Motion.MoveRate
	c.turnDelay = settings.Motion.TurnDelaySeconds
	c.traceLength = settings.Recorder.TraceLength
	c.captureEnabled = settings.Recorder.CaptureScreenshots
	c.camera = CameraRig{
		MaxPitchAngle: settings.Camera.MaxPitchAngle,
		MaxRollAngle:  settings.Camera.MaxRollAngle,
		InterpSpeed:   settings.Camera.InterpSpeed,
	}
	if tuner, ok := c.deps.Body.(InputTuner); ok {
		tuner.SetInputScales(settings.Input.YawScale, settings.Input.PitchScale)
	}
}

// Tick advances the controller by deltaTime seconds: it applies motion or polls
// for a command, tilts the camera, samples while recording, then fires due timers.
func (c *Controller) Tick(deltaTime float64) {
	if c.state.Executing {
		if c.state.MotionVector != (mgl64.Vec3{}) {
			c.deps.Body.AddMovementInput(c.state.MotionVector, c.moveRate)
		}
	} else {
		c.PollAndDispatch()
	}

	c.camera.Update(c.deps.Body, deltaTime)

	if c.state.Recording {
		c.recorder.Sample(c.deps.Body, deltaTime)
		c.dirty = true
		c.capture()
	}

	c.timers.Advance(deltaTime)
}

// PollAndDispatch reads the command channel once and dispatches a recognised
// command. Unknown or malformed text is ignored.
func (c *Controller) PollAndDispatch() {
	if c.deps.Commands == nil {
		return
	}

	text, err := c.deps.Commands.Take()
	if err != nil {
		// An uncleared command would run again on the next poll.
		c.logger.Warnf("Reading command channel failed: %v", err)
		return
	}
	if text == "" || text == channel.Sentinel {
		return
	}

	cmd, ok := ParseCommand(text)
	if !ok {
		c.logger.Debugf("Ignoring unrecognised command text %q", text)
		return
	}
	c.dispatch(cmd)
}

func (c *Controller) dispatch(cmd Command) {
	c.logger.Infof("Dispatching command %s", cmd)
	if c.state.Recording {
		// A manual recording ends where the scripted command begins.
		c.state.Recording = false
		c.flush(ReasonManual, "")
	}
	c.reportStatus(channel.StatusBad)
	c.active = cmd
	c.state.Executing = true

	body := c.deps.Body
	switch {
	case cmd.Verb.IsMovement():
		c.startRecording()
		switch cmd.Verb {
		case MoveLeft:
			c.state.MotionVector = body.RightVector().Mul(-1)
		case MoveRight:
			c.state.MotionVector = body.RightVector()
		case MoveUp:
			c.state.MotionVector = body.UpVector()
		case MoveDown:
			c.state.MotionVector = body.UpVector().Mul(-1)
		case MoveForward:
			c.state.MotionVector = body.ForwardVector()
		case MoveBackward:
			c.state.MotionVector = body.ForwardVector().Mul(-1)
		}
		c.commandTimer = c.timers.SetTimer(cmd.Duration, c.CommandEnd)

	default:
		c.state.Recording = false
		c.state.TurnRate = 1
		if cmd.Verb == TurnLeft || cmd.Verb == RotateBackward {
			c.state.TurnRate = -1
		}
		c.state.TargetAngleDelta = cmd.Duration
		c.state.TurnStart = body.Orientation()
		if cmd.Verb.IsTurn() {
			c.turnTimer = c.timers.SetTimer(c.turnDelay, c.turnDrone)
		} else {
			c.turnTimer = c.timers.SetTimer(c.turnDelay, c.rotateDrone)
		}
	}

	if c.deps.Hooks.OnCommand != nil {
		c.deps.Hooks.OnCommand(CommandEvent{Command: cmd, Clock: c.timers.Now()})
	}
}

// turnDrone applies the whole yaw change at once and completes the command.
func (c *Controller) turnDrone() {
	c.timers.ClearTimer(&c.turnTimer)
	body := c.deps.Body
	body.AddYawInput(c.state.TurnRate * c.state.TargetAngleDelta / body.YawScale())
	c.CommandEnd()
}

// rotateDrone applies the whole pitch change at once and completes the command.
func (c *Controller) rotateDrone() {
	c.timers.ClearTimer(&c.turnTimer)
	body := c.deps.Body
	body.AddPitchInput(c.state.TurnRate * c.state.TargetAngleDelta / body.PitchScale())
	c.CommandEnd()
}

// CommandEnd cancels outstanding timers, returns to idle, exports the recording
// and reports "Ok".
func (c *Controller) CommandEnd() {
	c.timers.ClearTimer(&c.commandTimer)
	c.timers.ClearTimer(&c.turnTimer)

	finished := c.active
	c.state.Executing = false
	c.state.Recording = false
	c.state.MotionVector = mgl64.Vec3{}
	c.state.TurnRate = 0
	c.active = Command{}

	c.flush(ReasonCommand, finished.String())
	c.reportStatus(channel.StatusOk)

	c.logger.Infof("Command %s finished", finished)
	if c.deps.Hooks.OnCommand != nil {
		c.deps.Hooks.OnCommand(CommandEvent{Command: finished, Finished: true, Clock: c.timers.Now()})
	}
}

// Record toggles manual recording. Turning it on clears the buffers and
// re-anchors them at the current camera pose; turning it off exports. It does
// nothing while a scripted command is executing.
func (c *Controller) Record() {
	if c.state.Executing {
		c.logger.Debugf("Ignoring record toggle while command %s is executing", c.active)
		return
	}

	if c.state.Recording {
		c.state.Recording = false
		c.flush(ReasonManual, "")
		return
	}
	c.startRecording()
}

// StartSectionRecord opens a labelled section in the current recording.
func (c *Controller) StartSectionRecord(index int) {
	c.recorder.StartSection(index)
}

// StopSectionRecord closes the open section.
func (c *Controller) StopSectionRecord() {
	c.recorder.StopSection()
}

// MoveForwardAxis applies manual forward input in [-1, 1].
func (c *Controller) MoveForwardAxis(value float64) {
	c.deps.Body.AddMovementInput(c.deps.Body.ForwardVector(), value)
}

// MoveRightAxis applies manual sideways input in [-1, 1].
func (c *Controller) MoveRightAxis(value float64) {
	c.deps.Body.AddMovementInput(c.deps.Body.RightVector(), value)
}

// MoveUpAxis applies manual vertical input in [-1, 1].
func (c *Controller) MoveUpAxis(value float64) {
	c.deps.Body.AddMovementInput(c.deps.Body.UpVector(), value)
}

// TurnAround yaws the drone by 180 degrees.
func (c *Controller) TurnAround() {
	c.addYawDegrees(turnAroundAngle)
}

// HalfTurnLeft yaws the drone 45 degrees to the left.
func (c *Controller) HalfTurnLeft() {
	// Negative yaw turns left; the sign is the reverse of the legacy binding.
	c.addYawDegrees(-halfTurnAngle)
}

// HalfTurnRight yaws the drone 45 degrees to the right.
func (c *Controller) HalfTurnRight() {
	// Positive yaw turns right; the sign is the reverse of the legacy binding.
	c.addYawDegrees(halfTurnAngle)
}

// TurnForward pitches the drone up by 45 degrees.
func (c *Controller) TurnForward() {
	c.addPitchDegrees(tiltAngle)
}

// TurnBackward pitches the drone down by 45 degrees.
func (c *Controller) TurnBackward() {
	c.addPitchDegrees(-tiltAngle)
}

func (c *Controller) addYawDegrees(deg float64) {
	c.deps.Body.AddYawInput(deg / c.deps.Body.YawScale())
}

func (c *Controller) addPitchDegrees(deg float64) {
	c.deps.Body.AddPitchInput(deg / c.deps.Body.PitchScale())
}

// Body returns the controlled body.
func (c *Controller) Body() Body {
	return c.deps.Body
}

// State returns a copy of the execution state.
func (c *Controller) State() ExecutionState {
	return c.state
}

// Active returns the executing command; ok is false when idle.
func (c *Controller) Active() (Command, bool) {
	return c.active, c.state.Executing
}

// Recorder exposes the sample buffers.
func (c *Controller) Recorder() *Recorder {
	return c.recorder
}

// Clock returns the controller time in seconds.
func (c *Controller) Clock() float64 {
	return c.timers.Now()
}

// CommandTimeLeft returns the seconds until the active command's timer fires.
func (c *Controller) CommandTimeLeft() float64 {
	if c.timers.IsActive(c.commandTimer) {
		return c.timers.TimeLeft(c.commandTimer)
	}
	return c.timers.TimeLeft(c.turnTimer)
}

// PendingTimers returns the number of live timers.
func (c *Controller) PendingTimers() int {
	return c.timers.Pending()
}

func (c *Controller) startRecording() {
	c.state.Recording = true
	c.recorder.SetTraceLength(c.traceLength)
	c.recorder.Reset(c.deps.Body.CameraLocation(), c.deps.Body.CameraRotation())
	c.recordingStart = c.timers.Now()
	c.dirty = false
}

// flush exports the current buffers. Recording hooks only see recordings that
// gained samples since the previous flush.
func (c *Controller) flush(reason, command string) {
	c.recorder.StopSection()
	series := c.recorder.Series()

	if c.deps.Exporter != nil {
		if _, err := c.deps.Exporter.Flush(series); err != nil {
			c.logger.Warnf("Export failed: %v", err)
		}
	}

	if !c.dirty {
		return
	}
	c.dirty = false

	if c.deps.Hooks.OnRecording != nil {
		c.deps.Hooks.OnRecording(Recording{
			ID:        uuid.NewString(),
			Reason:    reason,
			Command:   command,
			StartedAt: c.recordingStart,
			EndedAt:   c.timers.Now(),
			Series:    series,
			Sections:  c.recorder.Sections(),
		})
	}
}

func (c *Controller) reportStatus(token string) {
	if c.deps.Status == nil {
		return
	}
	if _, err := c.deps.Status.Report(token); err != nil {
		c.logger.Warnf("Writing status %q failed: %v", token, err)
	}
}

func (c *Controller) capture() {
	if c.deps.Capturer == nil || !c.captureEnabled {
		return
	}
	if err := c.deps.Capturer.Capture(c.frame); err != nil {
		c.logger.Debugf("Screenshot %d failed: %v", c.frame, err)
	}
	c.frame++
}
