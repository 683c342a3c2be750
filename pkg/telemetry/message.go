package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/open-teleop/dronecontrols/domain/drone"
)

// Message is one item of telemetry waiting to be encoded. Pose messages carry
// a Snapshot; event messages carry Event.
type Message struct {
	Topic    string
	At       time.Time
	Snapshot *drone.Snapshot
	Event    interface{}
}

// Envelope is the JSON wrapper for event messages, shared with the ZeroMQ
// request socket.
type Envelope struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RecordingSummary is the event published when a recording is exported.
type RecordingSummary struct {
	ID        string          `json:"id"`
	Reason    string          `json:"reason"`
	Command   string          `json:"command,omitempty"`
	StartedAt float64         `json:"started_at"`
	EndedAt   float64         `json:"ended_at"`
	Samples   int             `json:"samples"`
	Sections  []drone.Section `json:"sections,omitempty"`
}

// PoseMessage wraps a tick snapshot.
func PoseMessage(snap drone.Snapshot, at time.Time) *Message {
	return &Message{Topic: TopicPose, At: at, Snapshot: &snap}
}

// CommandMessage wraps a dispatch or completion event.
func CommandMessage(event drone.CommandEvent, at time.Time) *Message {
	return &Message{Topic: TopicCommand, At: at, Event: event}
}

// RecordingMessage wraps a finished recording.
func RecordingMessage(rec drone.Recording, at time.Time) *Message {
	return &Message{Topic: TopicRecording, At: at, Event: RecordingSummary{
		ID:        rec.ID,
		Reason:    rec.Reason,
		Command:   rec.Command,
		StartedAt: rec.StartedAt,
		EndedAt:   rec.EndedAt,
		Samples:   rec.Series.Len(),
		Sections:  rec.Sections,
	}}
}

// Encode is the default MessageEncoder: pose frames become flatbuffers and
// events become JSON envelopes.
func Encode(msg *Message) ([]byte, error) {
	if msg.Snapshot != nil {
		return EncodeFrame(*msg.Snapshot, msg.Topic, msg.At), nil
	}
	if msg.Event == nil {
		return nil, fmt.Errorf("message for topic '%s' has no payload", msg.Topic)
	}

	data, err := json.Marshal(Envelope{
		Type:      msg.Topic,
		Timestamp: float64(msg.At.UnixNano()) / 1e9,
		Data:      msg.Event,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", msg.Topic, err)
	}
	return data, nil
}
