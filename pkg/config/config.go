package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidSettings is wrapped by every settings validation failure.
	ErrInvalidSettings = errors.New("invalid drone settings")
	// ErrMalformedSettings is wrapped when settings YAML cannot be decoded.
	ErrMalformedSettings = errors.New("malformed drone settings")
)

// Settings represents the operational drone tuning. Unlike BootstrapConfig it can
// be replaced at runtime through the settings service.
type Settings struct {
	Version     string         `yaml:"version" json:"version"`
	SettingsID  string         `yaml:"settings_id" json:"settings_id"`
	LastUpdated string         `yaml:"lastUpdated" json:"lastUpdated"`
	DroneID     string         `yaml:"drone_id" json:"drone_id"`
	Motion      MotionConfig   `yaml:"motion" json:"motion"`
	Camera      CameraConfig   `yaml:"camera" json:"camera"`
	Recorder    RecorderConfig `yaml:"recorder" json:"recorder"`
	Input       InputConfig    `yaml:"input" json:"input"`
}

// MotionConfig holds scripted motion parameters
type MotionConfig struct {
	MoveRate         float64 `yaml:"move_rate" json:"move_rate"`
	TurnDelaySeconds float64 `yaml:"turn_delay_seconds" json:"turn_delay_seconds"`
}

// CameraConfig holds the tilt feedback parameters
type CameraConfig struct {
	MaxPitchAngle float64 `yaml:"max_pitch_angle" json:"max_pitch_angle"`
	MaxRollAngle  float64 `yaml:"max_roll_angle" json:"max_roll_angle"`
	InterpSpeed   float64 `yaml:"interp_speed" json:"interp_speed"`
}

// RecorderConfig holds sampling parameters
type RecorderConfig struct {
	TraceLength        float64 `yaml:"trace_length" json:"trace_length"`
	CaptureScreenshots bool    `yaml:"capture_screenshots" json:"capture_screenshots"`
}

// InputConfig holds the controller input scaling applied to yaw and pitch deltas
type InputConfig struct {
	YawScale   float64 `yaml:"yaw_scale" json:"yaw_scale"`
	PitchScale float64 `yaml:"pitch_scale" json:"pitch_scale"`
}

// DefaultSettings returns the tuning used when no settings file is present.
func DefaultSettings() *Settings {
	return &Settings{
		Version:    "1.0",
		SettingsID: "default",
		DroneID:    "drone",
		Motion: MotionConfig{
			MoveRate:         1.0,
			TurnDelaySeconds: 1.5,
		},
		Camera: CameraConfig{
			MaxPitchAngle: 5.0,
			MaxRollAngle:  5.0,
			InterpSpeed:   5.0,
		},
		Recorder: RecorderConfig{
			TraceLength:        1000000.0,
			CaptureScreenshots: true,
		},
		Input: InputConfig{
			YawScale:   2.5,
			PitchScale: -1.75,
		},
	}
}

// LoadSettings loads operational settings from the specified file path
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading settings file: %w", err)
	}

	return ParseSettings(data)
}

// ParseSettings parses YAML settings on top of DefaultSettings and validates
// the result.
func ParseSettings(data []byte) (*Settings, error) {
	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSettings, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks required fields and numeric ranges
func (s *Settings) Validate() error {
	if s.SettingsID == "" || s.Version == "" || s.DroneID == "" {
		return fmt.Errorf("%w: missing required fields (settings_id, version, drone_id)", ErrInvalidSettings)
	}
	if s.Motion.MoveRate <= 0 {
		return fmt.Errorf("%w: motion.move_rate must be positive", ErrInvalidSettings)
	}
	if s.Motion.TurnDelaySeconds < 0 {
		return fmt.Errorf("%w: motion.turn_delay_seconds must not be negative", ErrInvalidSettings)
	}
	if s.Recorder.TraceLength <= 0 {
		return fmt.Errorf("%w: recorder.trace_length must be positive", ErrInvalidSettings)
	}
	if s.Input.YawScale == 0 || s.Input.PitchScale == 0 {
		return fmt.Errorf("%w: input scales must be non-zero", ErrInvalidSettings)
	}
	return nil
}
