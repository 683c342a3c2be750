// Package geom holds the pose types shared by the drone core, the kinematic
// body and the exporters. Vectors are mgl64.Vec3 in a left-handed, Z-up frame
// (X forward, Y right); angles are degrees.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rotator is an orientation expressed as pitch, yaw and roll in degrees.
type Rotator struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// ZeroRotator is the identity orientation.
var ZeroRotator = Rotator{}

// NormalizeAxis maps an angle in degrees into (-180, 180].
func NormalizeAxis(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle > 180 {
		angle -= 360
	}
	return angle
}

// Normalized returns the rotator with every axis in (-180, 180].
func (r Rotator) Normalized() Rotator {
	return Rotator{
		Pitch: NormalizeAxis(r.Pitch),
		Yaw:   NormalizeAxis(r.Yaw),
		Roll:  NormalizeAxis(r.Roll),
	}
}

// Sub returns the component-wise difference r - o.
func (r Rotator) Sub(o Rotator) Rotator {
	return Rotator{Pitch: r.Pitch - o.Pitch, Yaw: r.Yaw - o.Yaw, Roll: r.Roll - o.Roll}
}

// Add returns the component-wise sum r + o.
func (r Rotator) Add(o Rotator) Rotator {
	return Rotator{Pitch: r.Pitch + o.Pitch, Yaw: r.Yaw + o.Yaw, Roll: r.Roll + o.Roll}
}

// NormalizedDelta is the shortest signed rotation taking from to r.
func NormalizedDelta(r, from Rotator) Rotator {
	return r.Sub(from).Normalized()
}

// Axes returns the forward, right and up unit vectors of the rotation.
func (r Rotator) Axes() (forward, right, up mgl64.Vec3) {
	sp, cp := math.Sincos(mgl64.DegToRad(r.Pitch))
	sy, cy := math.Sincos(mgl64.DegToRad(r.Yaw))
	sr, cr := math.Sincos(mgl64.DegToRad(r.Roll))

	forward = mgl64.Vec3{cp * cy, cp * sy, sp}
	right = mgl64.Vec3{sr*sp*cy - cr*sy, sr*sp*sy + cr*cy, -sr * cp}
	up = mgl64.Vec3{-(cr*sp*cy + sr*sy), cy*sr - cr*sp*sy, cr * cp}
	return forward, right, up
}

// Forward returns the forward unit vector of the rotation.
func (r Rotator) Forward() mgl64.Vec3 {
	f, _, _ := r.Axes()
	return f
}

// SafeNormal returns v scaled to unit length, or the zero vector when v is
// too short to normalize.
func SafeNormal(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-8 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// InterpTo moves current toward target at speed per second, snapping when the
// remaining distance is negligible. A non-positive speed jumps to target.
func InterpTo(current, target, deltaTime, speed float64) float64 {
	if speed <= 0 {
		return target
	}
	dist := target - current
	if dist*dist < 1e-8 {
		return target
	}
	step := dist * mgl64.Clamp(deltaTime*speed, 0, 1)
	return current + step
}
