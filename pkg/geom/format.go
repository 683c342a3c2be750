package geom

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// FormatFloat renders f as the shortest decimal text that keeps at least one
// fractional digit ("2.0", "0.25", "1000000.0").
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// FormatVector renders v as "X=1.000 Y=2.000 Z=3.000".
func FormatVector(v mgl64.Vec3) string {
	return fmt.Sprintf("X=%3.3f Y=%3.3f Z=%3.3f", v.X(), v.Y(), v.Z())
}

// String renders r as "P=0.000000 Y=90.000000 R=0.000000".
func (r Rotator) String() string {
	return fmt.Sprintf("P=%f Y=%f R=%f", r.Pitch, r.Yaw, r.Roll)
}
