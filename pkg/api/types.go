package api

import (
	"strings"

	"github.com/open-teleop/dronecontrols/domain/drone"
)

// Vector3 carries the manual fly axes: X forward, Y right, Z up.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// CommandRequest submits a scripted command. Either Command holds a full
// "<verb> <duration>" line, or Verb and Duration are given separately.
type CommandRequest struct {
	Command  string   `json:"command,omitempty"`
	Verb     string   `json:"verb,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// Line returns the channel text for the request.
func (r CommandRequest) Line() string {
	if r.Command != "" {
		return strings.TrimSpace(r.Command)
	}
	if r.Duration == nil {
		return r.Verb
	}
	return drone.Command{Verb: drone.Verb(r.Verb), Duration: *r.Duration}.String()
}

// Control message types accepted by the control WebSocket and the manual
// endpoint.
const (
	ControlCommand = "command"
	ControlAxis    = "axis"
	ControlTurn    = "turn"
	ControlRecord  = "record"
)

// Discrete turns accepted in a ControlMsg.
const (
	TurnAround    = "turn_around"
	HalfTurnLeft  = "half_turn_left"
	HalfTurnRight = "half_turn_right"
	TurnForward   = "turn_forward"
	TurnBackward  = "turn_backward"
)

// Record actions accepted in a ControlMsg and by the record endpoint.
const (
	RecordToggle       = "toggle"
	RecordSectionStart = "section_start"
	RecordSectionStop  = "section_stop"
)

// ControlMsg is one manual control message. Axis input lasts a single tick, so
// drivers stream axis messages while a stick is held.
type ControlMsg struct {
	Type    string  `json:"type"`
	Command string  `json:"command,omitempty"`
	Axis    Vector3 `json:"axis"`
	Turn    string  `json:"turn,omitempty"`
	Action  string  `json:"action,omitempty"`
	Index   int     `json:"index,omitempty"`
}

// StateResponse is returned by the state and status endpoints.
type StateResponse struct {
	Status   string         `json:"status"`
	Snapshot drone.Snapshot `json:"snapshot"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
