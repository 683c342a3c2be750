package zeromq

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-teleop/dronecontrols/domain/drone"
	"github.com/open-teleop/dronecontrols/pkg/config"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
)

// CommandSubmitter writes a command line into the command channel.
type CommandSubmitter interface {
	Submit(command string) error
}

// StatusReader reads the current status token.
type StatusReader interface {
	Read() (string, error)
}

// DroneRunner is the part of the drone runner the handlers need.
type DroneRunner interface {
	Do(action drone.Action) error
	Snapshot() drone.Snapshot
}

// SettingsProvider returns the active drone settings.
type SettingsProvider interface {
	GetSettings() *config.Settings
}

// CommandRequest is the data of a COMMAND_REQUEST. Either Command holds a full
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

// CommandResponse is the data of a COMMAND_RESPONSE.
type CommandResponse struct {
	Accepted bool          `json:"accepted"`
	Command  drone.Command `json:"command"`
}

// StatusResponse is the data of a STATUS_RESPONSE.
type StatusResponse struct {
	Status   string         `json:"status"`
	Snapshot drone.Snapshot `json:"snapshot"`
}

// Record actions accepted in a RECORD_REQUEST.
const (
	RecordToggle       = "toggle"
	RecordSectionStart = "section_start"
	RecordSectionStop  = "section_stop"
)

// RecordRequest is the data of a RECORD_REQUEST.
type RecordRequest struct {
	Action string `json:"action"`
	Index  int    `json:"index,omitempty"`
}

// CommandHandler handles COMMAND_REQUEST messages by writing the command into
// the command channel, the same way any external driver would.
type CommandHandler struct {
	commands CommandSubmitter
	logger   customlog.Logger
}

// NewCommandHandler creates a new handler for command requests
func NewCommandHandler(commands CommandSubmitter, logger customlog.Logger) *CommandHandler {
	return &CommandHandler{commands: commands, logger: logger}
}

// HandleMessage validates and submits the command. A busy channel is reported
// as an error so the driver can retry.
func (h *CommandHandler) HandleMessage(msg *ZeroMQMessage) ([]byte, error) {
	var req CommandRequest
	if err := decodeData(msg, &req); err != nil {
		return nil, err
	}

	line := req.Line()
	cmd, ok := drone.ParseCommand(line)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognised command %q", ErrInvalidMessage, line)
	}
	if err := h.commands.Submit(line); err != nil {
		return nil, fmt.Errorf("failed to submit command %q: %w", line, err)
	}

	h.logger.Infof("Submitted remote command %s", cmd)
	return NewEnvelope(MsgTypeCommandResponse, CommandResponse{Accepted: true, Command: cmd})
}

// StatusHandler handles STATUS_REQUEST messages
type StatusHandler struct {
	status StatusReader
	runner DroneRunner
}

// NewStatusHandler creates a new handler for status requests
func NewStatusHandler(status StatusReader, runner DroneRunner) *StatusHandler {
	return &StatusHandler{status: status, runner: runner}
}

// HandleMessage returns the status token and the latest snapshot
func (h *StatusHandler) HandleMessage(msg *ZeroMQMessage) ([]byte, error) {
	token, err := h.status.Read()
	if err != nil {
		return nil, err
	}
	return NewEnvelope(MsgTypeStatusResponse, StatusResponse{
		Status:   token,
		Snapshot: h.runner.Snapshot(),
	})
}

// RecordHandler handles RECORD_REQUEST messages by queueing manual recorder
// actions on the runner
type RecordHandler struct {
	runner DroneRunner
	logger customlog.Logger
}

// NewRecordHandler creates a new handler for record requests
func NewRecordHandler(runner DroneRunner, logger customlog.Logger) *RecordHandler {
	return &RecordHandler{runner: runner, logger: logger}
}

// HandleMessage queues the requested recorder action
func (h *RecordHandler) HandleMessage(msg *ZeroMQMessage) ([]byte, error) {
	req := RecordRequest{Action: RecordToggle}
	if err := decodeData(msg, &req); err != nil {
		return nil, err
	}

	var action drone.Action
	switch req.Action {
	case RecordToggle:
		action = func(c *drone.Controller) { c.Record() }
	case RecordSectionStart:
		index := req.Index
		action = func(c *drone.Controller) { c.StartSectionRecord(index) }
	case RecordSectionStop:
		action = func(c *drone.Controller) { c.StopSectionRecord() }
	default:
		return nil, fmt.Errorf("%w: unknown record action %q", ErrInvalidMessage, req.Action)
	}

	if err := h.runner.Do(action); err != nil {
		return nil, err
	}
	h.logger.Debugf("Queued record action %s", req.Action)
	return NewEnvelope(MsgTypeRecordResponse, req)
}

// SettingsHandler handles SETTINGS_REQUEST messages
type SettingsHandler struct {
	settings SettingsProvider
}

// NewSettingsHandler creates a new handler for settings requests
func NewSettingsHandler(settings SettingsProvider) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// HandleMessage returns the active settings
func (h *SettingsHandler) HandleMessage(msg *ZeroMQMessage) ([]byte, error) {
	return NewEnvelope(MsgTypeSettingsResponse, h.settings.GetSettings())
}

// decodeData unmarshals the envelope data into v. Empty data leaves v as is.
func decodeData(msg *ZeroMQMessage, v interface{}) error {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// DriverDeps are the collaborators of the remote driver handlers.
type DriverDeps struct {
	Commands CommandSubmitter
	Status   StatusReader
	Runner   DroneRunner
	Settings SettingsProvider
}

// RegisterDriverHandlers registers the remote driver request handlers
func RegisterDriverHandlers(dispatcher *MessageDispatcher, deps DriverDeps, logger customlog.Logger) {
	dispatcher.RegisterHandler(MsgTypeCommandRequest, NewCommandHandler(deps.Commands, logger))
	dispatcher.RegisterHandler(MsgTypeStatusRequest, NewStatusHandler(deps.Status, deps.Runner))
	dispatcher.RegisterHandler(MsgTypeRecordRequest, NewRecordHandler(deps.Runner, logger))
	if deps.Settings != nil {
		dispatcher.RegisterHandler(MsgTypeSettingsRequest, NewSettingsHandler(deps.Settings))
	}
	logger.Infof("Registered remote driver handlers")
}
