package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/dronecontrols/domain/drone"
	"github.com/open-teleop/dronecontrols/pkg/channel"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
)

// errInvalidControl is wrapped by every rejected control message.
var errInvalidControl = errors.New("invalid control message")

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

// DroneHandler holds dependencies for the drone control endpoints.
type DroneHandler struct {
	commands CommandSubmitter
	status   StatusReader
	runner   DroneRunner
	logger   customlog.Logger
}

// NewDroneHandler creates a new handler for drone endpoints.
func NewDroneHandler(commands CommandSubmitter, status StatusReader, runner DroneRunner, logger customlog.Logger) *DroneHandler {
	if commands == nil || status == nil || runner == nil {
		panic("command channel, status channel and runner are required in NewDroneHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewDroneHandler")
	}
	return &DroneHandler{
		commands: commands,
		status:   status,
		runner:   runner,
		logger:   logger,
	}
}

// RegisterDroneRoutes registers the drone control endpoints with the Fiber app.
func RegisterDroneRoutes(app *fiber.App, h *DroneHandler) {
	group := app.Group("/api/v1/drone")
	group.Get("/state", h.handleGetState)
	group.Get("/status", h.handleGetStatus)
	group.Post("/command", h.handleSubmitCommand)
	group.Post("/record", h.handleRecord)
	group.Post("/manual", h.handleManual)

	h.logger.Infof("Registered drone API endpoints under /api/v1/drone")
}

func (h *DroneHandler) handleGetState(c *fiber.Ctx) error {
	token, err := h.status.Read()
	if err != nil {
		h.logger.Errorf("Failed to read status channel: %v", err)
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(StateResponse{Status: token, Snapshot: h.runner.Snapshot()})
}

func (h *DroneHandler) handleGetStatus(c *fiber.Ctx) error {
	token, err := h.status.Read()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"status": token})
}

// handleSubmitCommand writes a scripted command into the command channel. The
// channel only holds one command, so a second submission before the drone
// reads the first is rejected with 409.
func (h *DroneHandler) handleSubmitCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}

	cmd, err := h.submit(req.Line())
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"accepted": true,
		"command":  cmd,
	})
}

func (h *DroneHandler) handleRecord(c *fiber.Ctx) error {
	msg := ControlMsg{Type: ControlRecord, Action: RecordToggle}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&msg); err != nil {
			return errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		}
		msg.Type = ControlRecord
	}
	if err := h.control(msg); err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"queued": msg.Action})
}

func (h *DroneHandler) handleManual(c *fiber.Ctx) error {
	var msg ControlMsg
	if err := c.BodyParser(&msg); err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}
	if err := h.control(msg); err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"queued": msg.Type})
}

// submit validates line and writes it into the command channel.
func (h *DroneHandler) submit(line string) (drone.Command, error) {
	cmd, ok := drone.ParseCommand(line)
	if !ok {
		return drone.Command{}, fmt.Errorf("%w: unrecognised command %q", errInvalidControl, line)
	}
	if err := h.commands.Submit(line); err != nil {
		return drone.Command{}, err
	}
	h.logger.Infof("Submitted command %s", cmd)
	return cmd, nil
}

// control applies one control message: scripted commands go through the
// command channel, everything else is queued on the runner.
func (h *DroneHandler) control(msg ControlMsg) error {
	if msg.Type == ControlCommand {
		_, err := h.submit(msg.Command)
		return err
	}
	action, err := controlAction(msg)
	if err != nil {
		return err
	}
	return h.runner.Do(action)
}

// controlAction maps a manual control message onto a controller action.
func controlAction(msg ControlMsg) (drone.Action, error) {
	switch msg.Type {
	case ControlAxis:
		axis := msg.Axis
		return func(c *drone.Controller) {
			c.MoveForwardAxis(axis.X)
			c.MoveRightAxis(axis.Y)
			c.MoveUpAxis(axis.Z)
		}, nil
	case ControlTurn:
		switch msg.Turn {
		case TurnAround:
			return (*drone.Controller).TurnAround, nil
		case HalfTurnLeft:
			return (*drone.Controller).HalfTurnLeft, nil
		case HalfTurnRight:
			return (*drone.Controller).HalfTurnRight, nil
		case TurnForward:
			return (*drone.Controller).TurnForward, nil
		case TurnBackward:
			return (*drone.Controller).TurnBackward, nil
		}
		return nil, fmt.Errorf("%w: unknown turn %q", errInvalidControl, msg.Turn)
	case ControlRecord:
		switch msg.Action {
		case RecordToggle, "":
			return (*drone.Controller).Record, nil
		case RecordSectionStart:
			index := msg.Index
			return func(c *drone.Controller) { c.StartSectionRecord(index) }, nil
		case RecordSectionStop:
			return (*drone.Controller).StopSectionRecord, nil
		}
		return nil, fmt.Errorf("%w: unknown record action %q", errInvalidControl, msg.Action)
	}
	return nil, fmt.Errorf("%w: unknown type %q", errInvalidControl, msg.Type)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidControl):
		return http.StatusBadRequest
	case errors.Is(err, channel.ErrChannelBusy):
		return http.StatusConflict
	case errors.Is(err, drone.ErrRunnerStopped), errors.Is(err, drone.ErrActionQueueFull):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorJSON(c *fiber.Ctx, code int, err error) error {
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}
