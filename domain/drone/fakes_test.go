package drone

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/channel"
	"github.com/open-teleop/dronecontrols/pkg/export"
	"github.com/open-teleop/dronecontrols/pkg/geom"
)

type movementInput struct {
	Direction mgl64.Vec3
	Scale     float64
}

// fakeBody is a scripted Body that records every control input.
type fakeBody struct {
	location       mgl64.Vec3
	rotation       geom.Rotator
	velocity       mgl64.Vec3
	cameraOffset   mgl64.Vec3
	cameraRelative geom.Rotator
	yawScale       float64
	pitchScale     float64

	hitDistance float64
	hit         bool

	movements   []movementInput
	yawInputs   []float64
	pitchInputs []float64
}

func newFakeBody() *fakeBody {
	return &fakeBody{yawScale: 2.5, pitchScale: -1.75}
}

func (b *fakeBody) ForwardVector() mgl64.Vec3 { return b.rotation.Forward() }

func (b *fakeBody) RightVector() mgl64.Vec3 {
	_, r, _ := b.rotation.Axes()
	return r
}

func (b *fakeBody) UpVector() mgl64.Vec3 {
	_, _, u := b.rotation.Axes()
	return u
}

func (b *fakeBody) Location() mgl64.Vec3      { return b.location }
func (b *fakeBody) Orientation() geom.Rotator { return b.rotation }
func (b *fakeBody) Velocity() mgl64.Vec3      { return b.velocity }

func (b *fakeBody) CameraLocation() mgl64.Vec3 { return b.location.Add(b.cameraOffset) }

func (b *fakeBody) CameraRotation() geom.Rotator {
	return b.rotation.Add(b.cameraRelative).Normalized()
}

func (b *fakeBody) CameraRelativeRotation() geom.Rotator     { return b.cameraRelative }
func (b *fakeBody) SetCameraRelativeRotation(r geom.Rotator) { b.cameraRelative = r }

func (b *fakeBody) YawScale() float64   { return b.yawScale }
func (b *fakeBody) PitchScale() float64 { return b.pitchScale }

func (b *fakeBody) AddMovementInput(direction mgl64.Vec3, scale float64) {
	b.movements = append(b.movements, movementInput{direction, scale})
	b.location = b.location.Add(direction.Mul(scale))
}

func (b *fakeBody) AddYawInput(value float64) {
	b.yawInputs = append(b.yawInputs, value)
	b.rotation.Yaw += value * b.yawScale
}

func (b *fakeBody) AddPitchInput(value float64) {
	b.pitchInputs = append(b.pitchInputs, value)
	b.rotation.Pitch += value * b.pitchScale
}

func (b *fakeBody) CastForwardRay(length float64) (float64, bool) {
	if b.hit && b.hitDistance < length {
		return b.hitDistance, true
	}
	return 0, false
}

// fakeCommands hands out queued lines, then the sentinel.
type fakeCommands struct {
	queue []string
	reads int
}

func (f *fakeCommands) push(line string) { f.queue = append(f.queue, line) }

func (f *fakeCommands) Take() (string, error) {
	f.reads++
	if len(f.queue) == 0 {
		return channel.Sentinel, nil
	}
	line := f.queue[0]
	f.queue = f.queue[1:]
	return line, nil
}

type fakeStatus struct {
	tokens []string
}

func (f *fakeStatus) Report(token string) (bool, error) {
	f.tokens = append(f.tokens, token)
	return true, nil
}

type fakeExporter struct {
	flushed []export.Series
}

func (f *fakeExporter) Flush(series export.Series) (export.Result, error) {
	f.flushed = append(f.flushed, series)
	return export.Result{}, nil
}

type fakeCapturer struct {
	frames []int
}

func (f *fakeCapturer) Capture(frame int) error {
	f.frames = append(f.frames, frame)
	return nil
}

type harness struct {
	body       *fakeBody
	commands   *fakeCommands
	status     *fakeStatus
	exporter   *fakeExporter
	capturer   *fakeCapturer
	recordings []Recording
	events     []CommandEvent
	controller *Controller
}

func newHarness() *harness {
	h := &harness{
		body:     newFakeBody(),
		commands: &fakeCommands{},
		status:   &fakeStatus{},
		exporter: &fakeExporter{},
		capturer: &fakeCapturer{},
	}
	h.controller = NewController(Dependencies{
		Body:     h.body,
		Commands: h.commands,
		Status:   h.status,
		Exporter: h.exporter,
		Capturer: h.capturer,
		Hooks: Hooks{
			OnCommand:   func(e CommandEvent) { h.events = append(h.events, e) },
			OnRecording: func(r Recording) { h.recordings = append(h.recordings, r) },
		},
	}, nil, nil)
	return h
}

func (h *harness) tick(n int, dt float64) {
	for i := 0; i < n; i++ {
		h.controller.Tick(dt)
	}
}
