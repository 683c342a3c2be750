package drone

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestCameraRigTarget(t *testing.T) {
	rig := CameraRig{MaxPitchAngle: 5, MaxRollAngle: 5, InterpSpeed: 5}
	forward := mgl64.Vec3{1, 0, 0}
	right := mgl64.Vec3{0, 1, 0}

	got := rig.Target(forward, right, mgl64.Vec3{10, 0, 0})
	assert.InDelta(t, -5, got.Pitch, 1e-9)
	assert.InDelta(t, 0, got.Roll, 1e-9)

	got = rig.Target(forward, right, mgl64.Vec3{0, -3, 0})
	assert.InDelta(t, 0, got.Pitch, 1e-9)
	assert.InDelta(t, -5, got.Roll, 1e-9)

	got = rig.Target(forward, right, mgl64.Vec3{})
	assert.Equal(t, 0.0, got.Pitch)
	assert.Equal(t, 0.0, got.Roll)
}

func TestCameraRigUpdateEases(t *testing.T) {
	rig := CameraRig{MaxPitchAngle: 5, MaxRollAngle: 5, InterpSpeed: 5}
	body := newFakeBody()
	body.velocity = mgl64.Vec3{1, 0, 0}

	rig.Update(body, 0.1)
	first := body.cameraRelative.Pitch
	assert.Less(t, first, 0.0)
	assert.Greater(t, first, -5.0)

	for i := 0; i < 200; i++ {
		rig.Update(body, 0.1)
	}
	assert.InDelta(t, -5, body.cameraRelative.Pitch, 1e-3)
	assert.Equal(t, 0.0, body.cameraRelative.Yaw)
}
