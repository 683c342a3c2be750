package archive

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/domain/drone"
	"github.com/open-teleop/dronecontrols/pkg/export"
	"github.com/open-teleop/dronecontrols/pkg/geom"
)

type Entity struct {
	ID uint `gorm:"primaryKey" json:"-"`
}

// Recording is one exported recording.
type Recording struct {
	Entity

	UUID      string    `gorm:"unique;size:36" json:"id"`
	Reason    string    `gorm:"size:16;index" json:"reason"`
	Command   string    `gorm:"size:64" json:"command,omitempty"`
	StartedAt float64   `json:"started_at"`
	EndedAt   float64   `json:"ended_at"`
	CreatedAt time.Time `json:"created_at"`

	SampleCount int `json:"sample_count"`

	Samples  []Sample  `gorm:"constraint:OnDelete:CASCADE" json:"samples,omitempty"`
	Sections []Section `gorm:"constraint:OnDelete:CASCADE" json:"sections,omitempty"`
}

// Sample is one recorded tick. Location and rotation are relative to the
// recording's start anchor.
type Sample struct {
	Entity
	RecordingID uint `gorm:"not null;index" json:"-"`
	Seq         int  `gorm:"not null" json:"seq"`

	Time     float64 `json:"time"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Pitch    float64 `json:"pitch"`
	Yaw      float64 `json:"yaw"`
	Roll     float64 `json:"roll"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	VZ       float64 `json:"vz"`
	Distance float64 `json:"distance"`
}

// Section is a labelled span of samples.
type Section struct {
	Entity
	RecordingID uint `gorm:"not null;index" json:"-"`
	Index       int  `json:"index"`
	Start       int  `json:"start"`
	End         int  `json:"end"`
}

// fromDrone converts a finished recording into rows.
func fromDrone(rec drone.Recording) *Recording {
	s := rec.Series
	row := &Recording{
		UUID:        rec.ID,
		Reason:      rec.Reason,
		Command:     rec.Command,
		StartedAt:   rec.StartedAt,
		EndedAt:     rec.EndedAt,
		SampleCount: s.Len(),
		Samples:     make([]Sample, 0, s.Len()),
	}
	for i := 0; i < s.Len(); i++ {
		row.Samples = append(row.Samples, Sample{
			Seq:      i,
			Time:     s.Times[i],
			X:        s.Locations[i].X(),
			Y:        s.Locations[i].Y(),
			Z:        s.Locations[i].Z(),
			Pitch:    s.Rotations[i].Pitch,
			Yaw:      s.Rotations[i].Yaw,
			Roll:     s.Rotations[i].Roll,
			VX:       s.Velocities[i].X(),
			VY:       s.Velocities[i].Y(),
			VZ:       s.Velocities[i].Z(),
			Distance: s.Distances[i],
		})
	}
	for _, sec := range rec.Sections {
		row.Sections = append(row.Sections, Section{Index: sec.Index, Start: sec.Start, End: sec.End})
	}
	return row
}

// Series rebuilds the exportable series from the loaded samples.
func (r *Recording) Series() export.Series {
	var s export.Series
	for _, sample := range r.Samples {
		s.Times = append(s.Times, sample.Time)
		s.Locations = append(s.Locations, mgl64.Vec3{sample.X, sample.Y, sample.Z})
		s.Rotations = append(s.Rotations, geom.Rotator{Pitch: sample.Pitch, Yaw: sample.Yaw, Roll: sample.Roll})
		s.Velocities = append(s.Velocities, mgl64.Vec3{sample.VX, sample.VY, sample.VZ})
		s.Distances = append(s.Distances, sample.Distance)
	}
	return s
}
