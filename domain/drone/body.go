// Package drone is the scripted drone controller: it polls a command mailbox,
// turns commands into timed motions, tilts the camera, and records trajectory
// samples while moving.
package drone

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/export"
	"github.com/open-teleop/dronecontrols/pkg/geom"
)

// Body is the controlled vehicle as seen by the controller: a read-only pose
// sensor plus a control input sink. The host (an engine adapter or pkg/sim)
// implements it.
type Body interface {
	ForwardVector() mgl64.Vec3
	RightVector() mgl64.Vec3
	UpVector() mgl64.Vec3
	Location() mgl64.Vec3
	Orientation() geom.Rotator
	Velocity() mgl64.Vec3

	// CameraLocation and CameraRotation are the world pose of the camera.
	CameraLocation() mgl64.Vec3
	CameraRotation() geom.Rotator
	CameraRelativeRotation() geom.Rotator
	SetCameraRelativeRotation(r geom.Rotator)

	// YawScale and PitchScale are the factors the host multiplies yaw and pitch
	// input by before applying it.
	YawScale() float64
	PitchScale() float64

	AddMovementInput(direction mgl64.Vec3, scale float64)
	AddYawInput(value float64)
	AddPitchInput(value float64)

	// CastForwardRay traces from the body location along its forward vector and
	// returns the distance to the first surface hit.
	CastForwardRay(length float64) (distance float64, hit bool)
}

// CommandSource yields the pending command text and clears it.
type CommandSource interface {
	Take() (string, error)
}

// StatusSink receives the status token.
type StatusSink interface {
	Report(token string) (bool, error)
}

// SeriesExporter writes a finished recording to its sinks.
type SeriesExporter interface {
	Flush(series export.Series) (export.Result, error)
}

// Capturer takes one screenshot per recorded tick.
type Capturer interface {
	Capture(frame int) error
}

// InputTuner is implemented by bodies whose yaw and pitch input scales follow
// the drone settings.
type InputTuner interface {
	SetInputScales(yaw, pitch float64)
}

// Integrator is implemented by bodies that advance their own motion once per
// tick, after the controller has issued that tick's inputs.
type Integrator interface {
	Step(deltaTime float64)
}
