package telemetry

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

type Rotation struct {
	_tab flatbuffers.Struct
}

func (rcv *Rotation) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Rotation) Table() flatbuffers.Table {
	return rcv._tab.Table
}

func (rcv *Rotation) Pitch() float64 {
	return rcv._tab.GetFloat64(rcv._tab.Pos + flatbuffers.UOffsetT(0))
}

func (rcv *Rotation) Yaw() float64 {
	return rcv._tab.GetFloat64(rcv._tab.Pos + flatbuffers.UOffsetT(8))
}

func (rcv *Rotation) Roll() float64 {
	return rcv._tab.GetFloat64(rcv._tab.Pos + flatbuffers.UOffsetT(16))
}

func CreateRotation(builder *flatbuffers.Builder, pitch float64, yaw float64, roll float64) flatbuffers.UOffsetT {
	builder.Prep(8, 24)
	builder.PrependFloat64(roll)
	builder.PrependFloat64(yaw)
	builder.PrependFloat64(pitch)
	return builder.Offset()
}
