// Package telemetry turns per-tick drone snapshots and controller events into
// wire messages and fans them out to subscribers.
package telemetry

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/open-teleop/dronecontrols/domain/drone"
	fb "github.com/open-teleop/dronecontrols/pkg/flatbuffers/drone/telemetry"
	"github.com/open-teleop/dronecontrols/pkg/geom"
)

// Topics published by the controller.
const (
	TopicPose      = "drone.telemetry.pose"
	TopicCommand   = "drone.event.command"
	TopicRecording = "drone.event.recording"
	TopicSettings  = "drone.event.settings"
)

// DecodedFrame is a pose frame read back from the wire.
type DecodedFrame struct {
	Topic       string
	TimestampNs int64
	Snapshot    drone.Snapshot
}

// EncodeFrame serializes snap as a Frame flatbuffer.
func EncodeFrame(snap drone.Snapshot, topic string, at time.Time) []byte {
	builder := flatbuffers.NewBuilder(256)
	topicOffset := builder.CreateString(topic)
	var commandOffset flatbuffers.UOffsetT
	if snap.Command != nil {
		commandOffset = builder.CreateString(snap.Command.String())
	}

	fb.FrameStart(builder)
	fb.FrameAddTopic(builder, topicOffset)
	fb.FrameAddTimestampNs(builder, at.UnixNano())
	fb.FrameAddTick(builder, snap.Tick)
	fb.FrameAddClock(builder, snap.Clock)
	fb.FrameAddExecuting(builder, snap.State.Executing)
	fb.FrameAddRecording(builder, snap.State.Recording)
	if snap.Command != nil {
		fb.FrameAddCommand(builder, commandOffset)
	}
	fb.FrameAddCommandTimeLeft(builder, snap.CommandTimeLeft)
	fb.FrameAddLocation(builder, createVec3(builder, snap.Location))
	fb.FrameAddOrientation(builder, createRotation(builder, snap.Orientation))
	fb.FrameAddVelocity(builder, createVec3(builder, snap.Velocity))
	fb.FrameAddCameraRotation(builder, createRotation(builder, snap.CameraRotation))
	fb.FrameAddSamples(builder, int32(snap.Samples))
	fb.FrameAddRecordingTime(builder, snap.RecordingTime)
	frame := fb.FrameEnd(builder)

	builder.Finish(frame)
	return builder.FinishedBytes()
}

// DecodeFrame parses a Frame flatbuffer. Truncated or corrupt input yields an
// error instead of a panic.
func DecodeFrame(data []byte) (decoded DecodedFrame, err error) {
	if len(data) < flatbuffers.SizeUOffsetT {
		return DecodedFrame{}, fmt.Errorf("telemetry frame too short: %d bytes", len(data))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt telemetry frame: %v", r)
		}
	}()

	frame := fb.GetRootAsFrame(data, 0)
	snap := drone.Snapshot{
		Tick:  frame.Tick(),
		Clock: frame.Clock(),
		State: drone.ExecutionState{
			Executing: frame.Executing(),
			Recording: frame.Recording(),
		},
		CommandTimeLeft: frame.CommandTimeLeft(),
		Location:        readVec3(frame.Location(nil)),
		Orientation:     readRotation(frame.Orientation(nil)),
		Velocity:        readVec3(frame.Velocity(nil)),
		CameraRotation:  readRotation(frame.CameraRotation(nil)),
		Samples:         int(frame.Samples()),
		RecordingTime:   frame.RecordingTime(),
	}
	if text := frame.Command(); text != nil {
		if cmd, ok := drone.ParseCommand(string(text)); ok {
			snap.Command = &cmd
		}
	}

	return DecodedFrame{
		Topic:       string(frame.Topic()),
		TimestampNs: frame.TimestampNs(),
		Snapshot:    snap,
	}, nil
}

func createVec3(builder *flatbuffers.Builder, v mgl64.Vec3) flatbuffers.UOffsetT {
	return fb.CreateVec3(builder, v.X(), v.Y(), v.Z())
}

func createRotation(builder *flatbuffers.Builder, r geom.Rotator) flatbuffers.UOffsetT {
	return fb.CreateRotation(builder, r.Pitch, r.Yaw, r.Roll)
}

func readVec3(v *fb.Vec3) mgl64.Vec3 {
	if v == nil {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{v.X(), v.Y(), v.Z()}
}

func readRotation(r *fb.Rotation) geom.Rotator {
	if r == nil {
		return geom.Rotator{}
	}
	return geom.Rotator{Pitch: r.Pitch(), Yaw: r.Yaw(), Roll: r.Roll()}
}
