// Package export serializes recorded drone samples into the plain-text series
// files read by post-processing tools.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/channel"
	"github.com/open-teleop/dronecontrols/pkg/geom"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
)

// Series is one recording: parallel per-tick samples of equal length.
type Series struct {
	Times      []float64
	Locations  []mgl64.Vec3
	Rotations  []geom.Rotator
	Velocities []mgl64.Vec3
	Distances  []float64
}

// Len returns the number of samples.
func (s Series) Len() int {
	return len(s.Times)
}

// Paths holds the sink file for each series.
type Paths struct {
	Trajectory string
	Times      string
	Velocities string
	Distances  string
}

// Result reports which sinks were written by Flush.
type Result struct {
	Written []string
	Skipped []string
}

// Exporter writes a Series to its sinks. Sinks are never created: a missing file
// is skipped.
type Exporter struct {
	paths  Paths
	logger customlog.Logger
}

// NewExporter creates an exporter for paths.
func NewExporter(paths Paths, logger customlog.Logger) *Exporter {
	if logger == nil {
		logger = customlog.NewNopLogger()
	}
	return &Exporter{
		paths:  paths,
		logger: logger,
	}
}

// Paths returns the configured sinks.
func (e *Exporter) Paths() Paths {
	return e.paths
}

// Flush overwrites every existing sink with its serialized series. A failure on
// one sink does not stop the others; all failures are joined into the returned
// error.
func (e *Exporter) Flush(series Series) (Result, error) {
	var result Result
	var errs []error

	sinks := []struct {
		path  string
		lines []string
	}{
		{e.paths.Times, TimeLines(series)},
		{e.paths.Trajectory, TrajectoryLines(series)},
		{e.paths.Velocities, VelocityLines(series)},
		{e.paths.Distances, DistanceLines(series)},
	}

	for _, sink := range sinks {
		if sink.path == "" {
			continue
		}
		written, err := channel.WriteIfExists(sink.path, []byte(joinLines(sink.lines)))
		if err != nil {
			e.logger.Warnf("Export to '%s' failed: %v", sink.path, err)
			errs = append(errs, err)
			continue
		}
		if written {
			result.Written = append(result.Written, sink.path)
		} else {
			e.logger.Debugf("Export sink '%s' does not exist, skipping", sink.path)
			result.Skipped = append(result.Skipped, sink.path)
		}
	}

	e.logger.Infof("Exported %d samples (%d sinks written, %d skipped)",
		series.Len(), len(result.Written), len(result.Skipped))

	if len(errs) > 0 {
		return result, fmt.Errorf("export incomplete: %w", errors.Join(errs...))
	}
	return result, nil
}

// TimeLines renders one recording time per line.
func TimeLines(s Series) []string {
	lines := make([]string, 0, len(s.Times))
	for _, t := range s.Times {
		lines = append(lines, geom.FormatFloat(t))
	}
	return lines
}

// DistanceLines renders one sight distance per line.
func DistanceLines(s Series) []string {
	lines := make([]string, 0, len(s.Distances))
	for _, d := range s.Distances {
		lines = append(lines, geom.FormatFloat(d))
	}
	return lines
}

// TrajectoryLines renders "location rotation" per line.
func TrajectoryLines(s Series) []string {
	lines := make([]string, 0, len(s.Locations))
	for i, loc := range s.Locations {
		var rot geom.Rotator
		if i < len(s.Rotations) {
			rot = s.Rotations[i]
		}
		lines = append(lines, geom.FormatVector(loc)+" "+rot.String())
	}
	return lines
}

// VelocityLines renders one velocity vector per line.
func VelocityLines(s Series) []string {
	lines := make([]string, 0, len(s.Velocities))
	for _, v := range s.Velocities {
		lines = append(lines, geom.FormatVector(v))
	}
	return lines
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
