package sim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-teleop/dronecontrols/pkg/geom"
)

// FrameCapturer writes one pose record per captured frame into a screenshots
// directory, standing in for an engine screenshot.
type FrameCapturer struct {
	dir  string
	body *Body
}

// NewFrameCapturer creates a capturer for body writing into dir. The
// directory is created on the first capture.
func NewFrameCapturer(dir string, body *Body) *FrameCapturer {
	return &FrameCapturer{dir: dir, body: body}
}

// FrameName returns the file name used for frame.
func FrameName(frame int) string {
	return fmt.Sprintf("ScreenShot%05d.txt", frame)
}

// Capture writes the camera pose for frame.
func (f *FrameCapturer) Capture(frame int) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create screenshots directory '%s': %w", f.dir, err)
	}

	line := geom.FormatVector(f.body.CameraLocation()) + " " + f.body.CameraRotation().String() + "\n"
	path := filepath.Join(f.dir, FrameName(frame))
	if err := os.WriteFile(path, []byte(line), 0644); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", frame, err)
	}
	return nil
}
