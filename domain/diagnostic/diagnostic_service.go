package diagnostic

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/dronecontrols/domain/drone"
	"github.com/open-teleop/dronecontrols/pkg/telemetry"
)

// SystemMetrics represents controller diagnostics information
type SystemMetrics struct {
	Timestamp     time.Time        `json:"timestamp"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Goroutines    int              `json:"goroutines"`
	DroneID       string           `json:"drone_id"`
	Drone         DroneStatus      `json:"drone"`
	Telemetry     TelemetryMetrics `json:"telemetry"`
	Archive       ArchiveStatus    `json:"archive"`
}

// DroneStatus summarises the latest runner snapshot
type DroneStatus struct {
	Tick      uint64  `json:"tick"`
	Clock     float64 `json:"clock"`
	Executing bool    `json:"executing"`
	Recording bool    `json:"recording"`
	Command   string  `json:"command,omitempty"`
	Samples   int     `json:"samples"`
}

// TelemetryMetrics mirrors the encoder pool counters
type TelemetryMetrics struct {
	Encoded     int64 `json:"encoded"`
	Errors      int64 `json:"errors"`
	Dropped     int64 `json:"dropped"`
	QueueLength int   `json:"queue_length"`
	AvgEncodeUs int64 `json:"avg_encode_us"`
	MaxEncodeUs int64 `json:"max_encode_us"`
	Sinks       int   `json:"sinks"`

	Topics []telemetry.TopicInfo `json:"topics,omitempty"`
}

// ArchiveStatus reports the recording archive
type ArchiveStatus struct {
	Enabled    bool   `json:"enabled"`
	Recordings int64  `json:"recordings"`
	Error      string `json:"error,omitempty"`
}

// SnapshotSource provides the latest drone snapshot
type SnapshotSource interface {
	Snapshot() drone.Snapshot
}

// RecordingCounter counts archived recordings
type RecordingCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Sources are the components a DiagnosticService reads. Any of them may be nil.
type Sources struct {
	DroneID string
	Runner  SnapshotSource
	Pool    *telemetry.Pool
	Hub     *telemetry.Hub
	Archive RecordingCounter
}

// DiagnosticService handles controller diagnostics
type DiagnosticService struct {
	mu      sync.RWMutex
	started time.Time
	sources Sources
	metrics SystemMetrics
}

// NewDiagnosticService creates a new diagnostic service instance
func NewDiagnosticService(sources Sources) *DiagnosticService {
	now := time.Now()
	return &DiagnosticService{
		started: now,
		sources: sources,
		metrics: SystemMetrics{Timestamp: now, DroneID: sources.DroneID},
	}
}

// SetDroneID updates the reported drone id after a settings change
func (s *DiagnosticService) SetDroneID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources.DroneID = id
}

// GetMetricsHandler handles API requests for controller metrics
func (s *DiagnosticService) GetMetricsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"metrics": s.Collect(c.UserContext()),
	})
}

// Collect refreshes and returns the current metrics
func (s *DiagnosticService) Collect(ctx context.Context) SystemMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	m := SystemMetrics{
		Timestamp:     now,
		UptimeSeconds: now.Sub(s.started).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		DroneID:       s.sources.DroneID,
	}

	if s.sources.Runner != nil {
		snap := s.sources.Runner.Snapshot()
		m.Drone = DroneStatus{
			Tick:      snap.Tick,
			Clock:     snap.Clock,
			Executing: snap.State.Executing,
			Recording: snap.State.Recording,
			Samples:   snap.Samples,
		}
		if snap.Command != nil {
			m.Drone.Command = snap.Command.String()
		}
	}

	if s.sources.Pool != nil {
		pm := s.sources.Pool.GetMetrics()
		m.Telemetry = TelemetryMetrics{
			Encoded:     pm.EncodedCount,
			Errors:      pm.ErrorCount,
			Dropped:     pm.DroppedCount,
			QueueLength: s.sources.Pool.GetQueueLength(),
			AvgEncodeUs: pm.EncodeTimeAvg,
			MaxEncodeUs: pm.EncodeTimeMax,
		}
	}
	if s.sources.Hub != nil {
		m.Telemetry.Sinks = s.sources.Hub.SinkCount()
		m.Telemetry.Topics = s.sources.Hub.Topics().GetTopicStats()
	}

	if s.sources.Archive != nil {
		m.Archive.Enabled = true
		n, err := s.sources.Archive.Count(ctx)
		if err != nil {
			m.Archive.Error = err.Error()
		}
		m.Archive.Recordings = n
	}

	s.metrics = m
	return m
}

// GetMetrics returns the most recently collected metrics
func (s *DiagnosticService) GetMetrics() SystemMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.metrics
}
