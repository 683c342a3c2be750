package drone

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/export"
	"github.com/open-teleop/dronecontrols/pkg/geom"
)

// DefaultTraceLength is the sight ray length, also recorded when nothing is hit.
const DefaultTraceLength = 1000000.0

// Section marks a labelled span of samples inside one recording.
type Section struct {
	Index int `json:"index"`
	Start int `json:"start"`
	// End is exclusive; -1 while the section is still open.
	End int `json:"end"`
}

// Recorder buffers per-tick samples relative to a start anchor. All series
// always have the same length.
type Recorder struct {
	traceLength float64

	times      []float64
	locations  []mgl64.Vec3
	rotations  []geom.Rotator
	velocities []mgl64.Vec3
	distances  []float64
	sections   []Section

	recordingTime float64
	startLocation mgl64.Vec3
	startRotation geom.Rotator
}

// NewRecorder creates an empty recorder. A non-positive traceLength uses
// DefaultTraceLength.
func NewRecorder(traceLength float64) *Recorder {
	r := &Recorder{}
	r.SetTraceLength(traceLength)
	return r
}

// SetTraceLength changes the sight ray length used by later samples. A
// non-positive length uses DefaultTraceLength.
func (r *Recorder) SetTraceLength(traceLength float64) {
	if traceLength <= 0 {
		traceLength = DefaultTraceLength
	}
	r.traceLength = traceLength
}

// TraceLength returns the sight ray length.
func (r *Recorder) TraceLength() float64 {
	return r.traceLength
}

// Reset clears every buffer, zeroes the recording time and captures new anchors.
func (r *Recorder) Reset(location mgl64.Vec3, rotation geom.Rotator) {
	r.times = nil
	r.locations = nil
	r.rotations = nil
	r.velocities = nil
	r.distances = nil
	r.sections = nil
	r.recordingTime = 0
	r.startLocation = location
	r.startRotation = rotation
}

// Sample appends one sample taken from body, then advances the recording time
// by deltaTime.
func (r *Recorder) Sample(body Body, deltaTime float64) {
	r.velocities = append(r.velocities, body.Velocity())
	r.locations = append(r.locations, body.CameraLocation().Sub(r.startLocation))
	r.rotations = append(r.rotations, geom.NormalizedDelta(body.CameraRotation(), r.startRotation))
	r.times = append(r.times, r.recordingTime)
	r.recordingTime += deltaTime

	distance, hit := body.CastForwardRay(r.traceLength)
	if !hit {
		distance = r.traceLength
	}
	r.distances = append(r.distances, distance)
}

// Len returns the number of samples.
func (r *Recorder) Len() int {
	return len(r.times)
}

// RecordingTime returns the accumulated time of the current recording.
func (r *Recorder) RecordingTime() float64 {
	return r.recordingTime
}

// Anchor returns the record-start location and rotation.
func (r *Recorder) Anchor() (mgl64.Vec3, geom.Rotator) {
	return r.startLocation, r.startRotation
}

// StartSection opens a labelled section at the next sample, closing any open one.
func (r *Recorder) StartSection(index int) {
	r.StopSection()
	r.sections = append(r.sections, Section{Index: index, Start: r.Len(), End: -1})
}

// StopSection closes the open section, if any.
func (r *Recorder) StopSection() {
	if n := len(r.sections); n > 0 && r.sections[n-1].End < 0 {
		r.sections[n-1].End = r.Len()
	}
}

// Sections returns a copy of the section markers.
func (r *Recorder) Sections() []Section {
	return append([]Section(nil), r.sections...)
}

// Series returns a copy of the buffered samples.
func (r *Recorder) Series() export.Series {
	return export.Series{
		Times:      append([]float64(nil), r.times...),
		Locations:  append([]mgl64.Vec3(nil), r.locations...),
		Rotations:  append([]geom.Rotator(nil), r.rotations...),
		Velocities: append([]mgl64.Vec3(nil), r.velocities...),
		Distances:  append([]float64(nil), r.distances...),
	}
}
