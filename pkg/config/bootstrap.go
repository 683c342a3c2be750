package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BootstrapFileName is the bootstrap configuration file inside the config directory.
const BootstrapFileName = "drone_config.yaml"

// Default file names used when the bootstrap config leaves them empty.
const (
	DefaultCommandFile    = "command.txt"
	DefaultStatusFile     = "status.txt"
	DefaultTrajectoryFile = "trajectory.txt"
	DefaultTimesFile      = "times.txt"
	DefaultVelocitiesFile = "velocities.txt"
	DefaultDistancesFile  = "distances.txt"
	DefaultScreenshotsDir = "Saved/Screenshots"
	DefaultTickHz         = 60

	// Kinematic body defaults, matching a flying character's movement.
	DefaultMaxSpeed     = 600.0
	DefaultAcceleration = 2048.0
	DefaultDeceleration = 2048.0
)

// BootstrapConfig holds the initial configuration loaded from drone_config.yaml
type BootstrapConfig struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	ZeroMQ     ZeroMQConfig     `yaml:"zeromq"`
	Files      FilesConfig      `yaml:"files"`
	Simulation SimulationConfig `yaml:"simulation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Data       DataConfig       `yaml:"data"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogPath    string `yaml:"log_path,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// ZeroMQConfig holds ZeroMQ settings. An empty RequestBindAddress disables the
// remote driver socket.
type ZeroMQConfig struct {
	RequestBindAddress string `yaml:"request_bind_address"`
	PublishBindAddress string `yaml:"publish_bind_address"`
	MessageBufferSize  int    `yaml:"message_buffer_size"`
}

// FilesConfig holds the paths of the file-backed channels. File names are
// resolved relative to Directory.
type FilesConfig struct {
	Directory      string `yaml:"directory"`
	Command        string `yaml:"command"`
	Status         string `yaml:"status"`
	Trajectory     string `yaml:"trajectory"`
	Times          string `yaml:"times"`
	Velocities     string `yaml:"velocities"`
	Distances      string `yaml:"distances"`
	ScreenshotsDir string `yaml:"screenshots_dir"`
}

// SimulationConfig holds tick loop settings and the headless body and world
type SimulationConfig struct {
	TickHz        int              `yaml:"tick_hz"`
	MaxSpeed      float64          `yaml:"max_speed"`
	Acceleration  float64          `yaml:"acceleration"`
	Deceleration  float64          `yaml:"deceleration"`
	StartLocation [3]float64       `yaml:"start_location"`
	StartYaw      float64          `yaml:"start_yaw"`
	CameraOffset  [3]float64       `yaml:"camera_offset"`
	GroundHeight  *float64         `yaml:"ground_height,omitempty"`
	Obstacles     []ObstacleConfig `yaml:"obstacles"`
}

// ObstacleConfig is an axis-aligned box in the simulated world.
type ObstacleConfig struct {
	Name string     `yaml:"name"`
	Min  [3]float64 `yaml:"min"`
	Max  [3]float64 `yaml:"max"`
}

// TelemetryConfig holds telemetry fan-out worker settings
type TelemetryConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// ArchiveConfig holds recording archive settings
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DataConfig holds data directory settings from bootstrap
type DataConfig struct {
	Directory        string `yaml:"directory"`
	SettingsFilename string `yaml:"settings_file"`
}

// Path joins a file name from FilesConfig with the configured directory.
func (f FilesConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.Directory, name)
}

// SettingsPath returns the full path of the operational settings file.
func (d DataConfig) SettingsPath() string {
	return filepath.Join(d.Directory, d.SettingsFilename)
}

// LoadBootstrapConfig loads the bootstrap configuration from drone_config.yaml
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFileName)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	return ParseBootstrapConfig(data, bootstrapConfigPath)
}

// ParseBootstrapConfig parses and validates bootstrap YAML. source is only used
// in error messages.
func ParseBootstrapConfig(data []byte, source string) (*BootstrapConfig, error) {
	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", source, err)
	}

	if bootstrapCfg.Files.Directory == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: files.directory")
	}
	if bootstrapCfg.Data.Directory == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.directory")
	}
	if bootstrapCfg.Data.SettingsFilename == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.settings_file")
	}
	if bootstrapCfg.Archive.Enabled && bootstrapCfg.Archive.Path == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: archive.path")
	}
	if bootstrapCfg.Simulation.TickHz < 0 {
		return nil, fmt.Errorf("invalid value in bootstrap config: simulation.tick_hz must not be negative")
	}
	for i, o := range bootstrapCfg.Simulation.Obstacles {
		for axis := 0; axis < 3; axis++ {
			if o.Min[axis] > o.Max[axis] {
				return nil, fmt.Errorf("invalid value in bootstrap config: simulation.obstacles[%d] min exceeds max", i)
			}
		}
	}

	bootstrapCfg.applyDefaults()
	return &bootstrapCfg, nil
}

// applyDefaults fills in empty file names and zero-valued tuning
func (c *BootstrapConfig) applyDefaults() {
	setDefault(&c.Files.Command, DefaultCommandFile)
	setDefault(&c.Files.Status, DefaultStatusFile)
	setDefault(&c.Files.Trajectory, DefaultTrajectoryFile)
	setDefault(&c.Files.Times, DefaultTimesFile)
	setDefault(&c.Files.Velocities, DefaultVelocitiesFile)
	setDefault(&c.Files.Distances, DefaultDistancesFile)
	setDefault(&c.Files.ScreenshotsDir, DefaultScreenshotsDir)

	if c.Simulation.TickHz == 0 {
		c.Simulation.TickHz = DefaultTickHz
	}
	if c.Simulation.MaxSpeed <= 0 {
		c.Simulation.MaxSpeed = DefaultMaxSpeed
	}
	if c.Simulation.Acceleration <= 0 {
		c.Simulation.Acceleration = DefaultAcceleration
	}
	if c.Simulation.Deceleration <= 0 {
		c.Simulation.Deceleration = DefaultDeceleration
	}
	if c.Telemetry.Workers <= 0 {
		c.Telemetry.Workers = 1
	}
	if c.Telemetry.QueueSize <= 0 {
		c.Telemetry.QueueSize = 256
	}
	if c.ZeroMQ.MessageBufferSize <= 0 {
		c.ZeroMQ.MessageBufferSize = 1000
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
