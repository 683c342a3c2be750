// Package sim is a headless stand-in for the engine: a kinematic flying body
// with a camera, a static world to trace the sight ray against, and a frame
// capturer.
package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/config"
	"github.com/open-teleop/dronecontrols/pkg/geom"
)

// maxPitch keeps the body short of looking straight up or down.
const maxPitch = 89.9

// Body is a kinematic flyer. Movement input accumulates between steps and is
// consumed by Step; yaw and pitch input apply immediately. It is not safe for
// concurrent use.
type Body struct {
	world *World

	maxSpeed     float64
	acceleration float64
	deceleration float64
	yawScale     float64
	pitchScale   float64

	location       mgl64.Vec3
	velocity       mgl64.Vec3
	rotation       geom.Rotator
	cameraOffset   mgl64.Vec3
	cameraRelative geom.Rotator
	pendingInput   mgl64.Vec3
}

// NewBody places a body at the configured start pose. world may be nil for an
// empty scene.
func NewBody(cfg config.SimulationConfig, settings *config.Settings, world *World) *Body {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if world == nil {
		world = &World{}
	}
	return &Body{
		world:        world,
		maxSpeed:     cfg.MaxSpeed,
		acceleration: cfg.Acceleration,
		deceleration: cfg.Deceleration,
		yawScale:     settings.Input.YawScale,
		pitchScale:   settings.Input.PitchScale,
		location:     mgl64.Vec3(cfg.StartLocation),
		rotation:     geom.Rotator{Yaw: cfg.StartYaw},
		cameraOffset: mgl64.Vec3(cfg.CameraOffset),
	}
}

// ForwardVector returns the unit vector the body faces.
func (b *Body) ForwardVector() mgl64.Vec3 {
	return b.rotation.Forward()
}

// RightVector returns the body's unit right vector.
func (b *Body) RightVector() mgl64.Vec3 {
	_, right, _ := b.rotation.Axes()
	return right
}

// UpVector returns the body's unit up vector.
func (b *Body) UpVector() mgl64.Vec3 {
	_, _, up := b.rotation.Axes()
	return up
}

// Location returns the world position of the body.
func (b *Body) Location() mgl64.Vec3 { return b.location }

// Orientation returns the body rotation in degrees.
func (b *Body) Orientation() geom.Rotator { return b.rotation }

// Velocity returns the current velocity in units per second.
func (b *Body) Velocity() mgl64.Vec3 { return b.velocity }

// CameraLocation applies the camera offset in the body frame.
func (b *Body) CameraLocation() mgl64.Vec3 {
	f, r, u := b.rotation.Axes()
	o := b.cameraOffset
	return b.location.Add(f.Mul(o.X())).Add(r.Mul(o.Y())).Add(u.Mul(o.Z()))
}

// CameraRotation composes the body rotation with the camera's relative tilt
// axis by axis, which is exact for the small tilt angles the rig produces.
func (b *Body) CameraRotation() geom.Rotator {
	return b.rotation.Add(b.cameraRelative).Normalized()
}

// CameraRelativeRotation returns the camera tilt relative to the body.
func (b *Body) CameraRelativeRotation() geom.Rotator { return b.cameraRelative }

// SetCameraRelativeRotation sets the camera tilt relative to the body.
func (b *Body) SetCameraRelativeRotation(r geom.Rotator) {
	b.cameraRelative = r
}

// YawScale returns the factor applied to yaw input.
func (b *Body) YawScale() float64 { return b.yawScale }

// PitchScale returns the factor applied to pitch input.
func (b *Body) PitchScale() float64 { return b.pitchScale }

// SetInputScales updates the yaw and pitch input factors.
func (b *Body) SetInputScales(yaw, pitch float64) {
	b.yawScale = yaw
	b.pitchScale = pitch
}

// AddMovementInput accumulates movement input until the next Step.
func (b *Body) AddMovementInput(direction mgl64.Vec3, scale float64) {
	b.pendingInput = b.pendingInput.Add(direction.Mul(scale))
}

// AddYawInput turns the body by value times the yaw scale.
func (b *Body) AddYawInput(value float64) {
	b.rotation.Yaw = geom.NormalizeAxis(b.rotation.Yaw + value*b.yawScale)
}

// AddPitchInput pitches the body by value times the pitch scale, clamped
// short of vertical.
func (b *Body) AddPitchInput(value float64) {
	b.rotation.Pitch = mgl64.Clamp(b.rotation.Pitch+value*b.pitchScale, -maxPitch, maxPitch)
}

// CastForwardRay traces from the body location along its forward vector.
func (b *Body) CastForwardRay(length float64) (float64, bool) {
	return b.world.Raycast(b.location, b.ForwardVector(), length)
}

// Step consumes the accumulated movement input: it accelerates toward the
// input direction, brakes when there is none, and moves the body.
func (b *Body) Step(deltaTime float64) {
	input := b.pendingInput
	b.pendingInput = mgl64.Vec3{}
	if l := input.Len(); l > 1 {
		input = input.Mul(1 / l)
	}

	if input.Len() > 0 {
		b.velocity = b.velocity.Add(input.Mul(b.acceleration * deltaTime))
		limit := b.maxSpeed * input.Len()
		if speed := b.velocity.Len(); speed > limit {
			b.velocity = b.velocity.Mul(limit / speed)
		}
	} else if speed := b.velocity.Len(); speed > 0 {
		reduced := speed - b.deceleration*deltaTime
		if reduced <= 0 {
			b.velocity = mgl64.Vec3{}
		} else {
			b.velocity = b.velocity.Mul(reduced / speed)
		}
	}

	b.location = b.location.Add(b.velocity.Mul(deltaTime))
}
