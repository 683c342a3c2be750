package telemetry

import (
	"errors"
	"time"

	"github.com/open-teleop/dronecontrols/domain/drone"
	"github.com/open-teleop/dronecontrols/pkg/config"
)

// ErrFeedRejected is returned when the pool is stopped or full.
var ErrFeedRejected = errors.New("telemetry pool rejected the message")

// Feed adapts the runner and controller hooks to pool submissions. Its methods
// never block, so they are safe to call from the tick goroutine.
type Feed struct {
	pool *Pool
	now  func() time.Time
}

// NewFeed creates a feed submitting to pool.
func NewFeed(pool *Pool) *Feed {
	return &Feed{pool: pool, now: time.Now}
}

// Pose submits a tick snapshot.
func (f *Feed) Pose(snap drone.Snapshot) {
	f.pool.Submit(PoseMessage(snap, f.now()))
}

// Command submits a dispatch or completion event.
func (f *Feed) Command(event drone.CommandEvent) {
	f.pool.Submit(CommandMessage(event, f.now()))
}

// Recording submits a finished recording summary.
func (f *Feed) Recording(rec drone.Recording) {
	f.pool.Submit(RecordingMessage(rec, f.now()))
}

// PublishSettingsUpdated announces new drone settings to every sink.
func (f *Feed) PublishSettingsUpdated(settings *config.Settings) error {
	if !f.pool.Submit(&Message{Topic: TopicSettings, At: f.now(), Event: settings}) {
		return ErrFeedRejected
	}
	return nil
}
