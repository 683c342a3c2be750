package drone

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/geom"
)

// CameraRig tilts the camera toward the direction of travel: pitch leans into
// forward motion and roll into sideways motion.
type CameraRig struct {
	MaxPitchAngle float64
	MaxRollAngle  float64
	InterpSpeed   float64
}

// Target returns the relative camera rotation the rig is easing toward for the
// given body state.
func (c CameraRig) Target(forward, right, velocity mgl64.Vec3) geom.Rotator {
	dir := geom.SafeNormal(velocity)
	return geom.Rotator{
		Pitch: -forward.Dot(dir) * c.MaxPitchAngle,
		Roll:  right.Dot(dir) * c.MaxRollAngle,
	}
}

// Update eases the body's camera one tick toward Target.
func (c CameraRig) Update(body Body, deltaTime float64) {
	current := body.CameraRelativeRotation()
	target := c.Target(body.ForwardVector(), body.RightVector(), body.Velocity())

	body.SetCameraRelativeRotation(geom.Rotator{
		Pitch: geom.InterpTo(current.Pitch, target.Pitch, deltaTime, c.InterpSpeed),
		Roll:  geom.InterpTo(current.Roll, target.Roll, deltaTime, c.InterpSpeed),
	})
}
