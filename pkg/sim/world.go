package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/config"
)

// Box is an axis-aligned obstacle.
type Box struct {
	Name string
	Min  mgl64.Vec3
	Max  mgl64.Vec3
}

// World is the static scene the body's sight ray is traced against: an
// optional horizontal ground plane and a set of boxes.
type World struct {
	Ground *float64
	Boxes  []Box
}

// NewWorld builds a world from the simulation config.
func NewWorld(cfg config.SimulationConfig) *World {
	w := &World{}
	if cfg.GroundHeight != nil {
		h := *cfg.GroundHeight
		w.Ground = &h
	}
	for _, o := range cfg.Obstacles {
		w.Boxes = append(w.Boxes, Box{
			Name: o.Name,
			Min:  mgl64.Vec3(o.Min),
			Max:  mgl64.Vec3(o.Max),
		})
	}
	return w
}

// Raycast returns the distance along direction from origin to the nearest
// surface within length. direction must be a unit vector.
func (w *World) Raycast(origin, direction mgl64.Vec3, length float64) (float64, bool) {
	best := math.Inf(1)

	if w.Ground != nil && direction.Z() != 0 {
		t := (*w.Ground - origin.Z()) / direction.Z()
		if t >= 0 {
			best = t
		}
	}
	for _, b := range w.Boxes {
		if t, ok := b.intersect(origin, direction); ok && t < best {
			best = t
		}
	}

	if best > length {
		return 0, false
	}
	return best, true
}

// intersect is the slab test. A ray starting inside the box hits at 0.
func (b Box) intersect(origin, direction mgl64.Vec3) (float64, bool) {
	tmin, tmax := 0.0, math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		o, d := origin[axis], direction[axis]
		if d == 0 {
			if o < b.Min[axis] || o > b.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (b.Min[axis] - o) / d
		t2 := (b.Max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
