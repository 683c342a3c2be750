package drone

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/config"
	"github.com/open-teleop/dronecontrols/pkg/geom"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"github.com/sasha-s/go-deadlock"
)

// DefaultActionQueueSize bounds the manual actions waiting for the next tick.
const DefaultActionQueueSize = 64

// Action is a manual operation run on the controller goroutine.
type Action func(c *Controller)

// Snapshot is a read-only view of the drone taken at the end of a tick.
type Snapshot struct {
	Tick            uint64         `json:"tick"`
	Clock           float64        `json:"clock"`
	State           ExecutionState `json:"state"`
	Command         *Command       `json:"command,omitempty"`
	CommandTimeLeft float64        `json:"command_time_left"`
	Location        mgl64.Vec3     `json:"location"`
	Orientation     geom.Rotator   `json:"orientation"`
	Velocity        mgl64.Vec3     `json:"velocity"`
	CameraRotation  geom.Rotator   `json:"camera_rotation"`
	Samples         int            `json:"samples"`
	RecordingTime   float64        `json:"recording_time"`
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// TickHz is the fixed tick rate; zero uses config.DefaultTickHz.
	TickHz    int
	QueueSize int
	// OnTick is called on the runner goroutine after every tick.
	OnTick func(Snapshot)
}

// Runner owns a Controller and drives it from a single goroutine at a fixed
// rate. Other goroutines interact with it through Do and Snapshot only.
type Runner struct {
	controller *Controller
	logger     customlog.Logger

	period    time.Duration
	deltaTime float64
	actions   chan Action
	onTick    func(Snapshot)

	running atomic.Bool
	stopped atomic.Bool

	mu       deadlock.RWMutex
	snapshot Snapshot
	ticks    uint64
}

// NewRunner creates a runner for controller. It does not start ticking until
// Run is called.
func NewRunner(controller *Controller, opts RunnerOptions, logger customlog.Logger) *Runner {
	if controller == nil {
		panic("Controller cannot be nil in NewRunner")
	}
	if logger == nil {
		logger = customlog.NewNopLogger()
	}
	hz := opts.TickHz
	if hz <= 0 {
		hz = config.DefaultTickHz
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultActionQueueSize
	}

	r := &Runner{
		controller: controller,
		logger:     logger,
		period:     time.Second / time.Duration(hz),
		deltaTime:  1 / float64(hz),
		actions:    make(chan Action, queueSize),
		onTick:     opts.OnTick,
	}
	r.snapshot = r.capture()
	return r
}

// DeltaTime returns the fixed tick length in seconds.
func (r *Runner) DeltaTime() float64 {
	return r.deltaTime
}

// Run ticks until ctx is cancelled. Actions submitted after Run returns fail
// with ErrRunnerStopped.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return nil
	}
	defer r.stopped.Store(true)

	r.logger.Infof("Drone runner started at %v per tick", r.period)
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Infof("Drone runner stopped after %d ticks", r.Snapshot().Tick)
			return nil
		case <-ticker.C:
			// Wall-clock jitter is ignored so that timings stay exact.
			r.Step(r.deltaTime)
		}
	}
}

// Step runs one tick of deltaTime seconds on the calling goroutine: queued
// actions first, then the controller, then the body integration. It must not
// be called concurrently with Run.
func (r *Runner) Step(deltaTime float64) {
	r.drain()

	r.controller.Tick(deltaTime)
	if integrator, ok := r.controller.Body().(Integrator); ok {
		integrator.Step(deltaTime)
	}

	snap := r.capture()
	r.mu.Lock()
	r.ticks++
	snap.Tick = r.ticks
	r.snapshot = snap
	r.mu.Unlock()

	if r.onTick != nil {
		r.onTick(snap)
	}
}

// Do queues action for the start of the next tick.
func (r *Runner) Do(action Action) error {
	if r.stopped.Load() {
		return ErrRunnerStopped
	}
	select {
	case r.actions <- action:
		return nil
	default:
		return ErrActionQueueFull
	}
}

// ApplySettings queues a settings change.
func (r *Runner) ApplySettings(settings *config.Settings) error {
	return r.Do(func(c *Controller) {
		c.ApplySettings(settings)
	})
}

// Snapshot returns the state published by the most recent tick.
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

func (r *Runner) drain() {
	for {
		select {
		case action := <-r.actions:
			action(r.controller)
		default:
			return
		}
	}
}

func (r *Runner) capture() Snapshot {
	c := r.controller
	body := c.Body()
	snap := Snapshot{
		Clock:           c.Clock(),
		State:           c.State(),
		CommandTimeLeft: c.CommandTimeLeft(),
		Location:        body.Location(),
		Orientation:     body.Orientation(),
		Velocity:        body.Velocity(),
		CameraRotation:  body.CameraRotation(),
		Samples:         c.Recorder().Len(),
		RecordingTime:   c.Recorder().RecordingTime(),
	}
	if cmd, ok := c.Active(); ok {
		snap.Command = &cmd
	}
	return snap
}
