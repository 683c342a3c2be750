package api

import (
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	syscall "syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"github.com/open-teleop/dronecontrols/pkg/telemetry"
)

// wsQueueSize bounds the frames buffered per telemetry client. Slow clients
// lose frames instead of stalling the telemetry workers.
const wsQueueSize = 64

// RegisterWebSocketRoutes registers the telemetry stream and the manual
// control socket.
func RegisterWebSocketRoutes(app *fiber.App, drones *DroneHandler, hub *telemetry.Hub, logger customlog.Logger) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/telemetry", websocket.New(func(conn *websocket.Conn) {
		TelemetryWebSocketHandler(conn, hub, logger)
	}))
	app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
		ControlWebSocketHandler(conn, drones, logger)
	}))

	logger.Infof("Registered WebSocket endpoints under /ws")
}

type wsFrame struct {
	topic   string
	payload []byte
}

// wsSink is the hub sink of one telemetry client.
type wsSink struct {
	topics  map[string]bool
	asJSON  bool
	out     chan wsFrame
	dropped atomic.Uint64
}

func newWSSink(topics string, asJSON bool) *wsSink {
	s := &wsSink{
		topics: make(map[string]bool),
		asJSON: asJSON,
		out:    make(chan wsFrame, wsQueueSize),
	}
	for _, t := range strings.Split(topics, ",") {
		if t = strings.TrimSpace(t); t != "" {
			s.topics[t] = true
		}
	}
	return s
}

// Publish queues payload for the client without blocking.
func (s *wsSink) Publish(topic string, payload []byte) error {
	if len(s.topics) > 0 && !s.topics[topic] {
		return nil
	}
	select {
	case s.out <- wsFrame{topic: topic, payload: payload}:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// render turns a frame into a WebSocket message. Pose frames are flatbuffers
// and go out as binary unless the client asked for JSON.
func (s *wsSink) render(f wsFrame) (int, []byte, error) {
	if f.topic != telemetry.TopicPose {
		return websocket.TextMessage, f.payload, nil
	}
	if !s.asJSON {
		return websocket.BinaryMessage, f.payload, nil
	}

	decoded, err := telemetry.DecodeFrame(f.payload)
	if err != nil {
		return 0, nil, err
	}
	data, err := json.Marshal(telemetry.Envelope{
		Type:      decoded.Topic,
		Timestamp: float64(decoded.TimestampNs) / float64(time.Second),
		Data:      decoded.Snapshot,
	})
	return websocket.TextMessage, data, err
}

// TelemetryWebSocketHandler streams telemetry to one client until it
// disconnects. Query parameters: topics (comma separated) and format=json.
func TelemetryWebSocketHandler(conn *websocket.Conn, hub *telemetry.Hub, logger customlog.Logger) {
	id := "ws-" + uuid.NewString()
	sink := newWSSink(conn.Query("topics"), conn.Query("format") == "json")
	hub.AddSink(id, sink)
	defer hub.RemoveSink(id)
	logger.Infof("Telemetry WebSocket connected: %s (%s)", conn.RemoteAddr(), id)

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			logger.Infof("Telemetry WebSocket disconnected: %s, %d frames dropped", conn.RemoteAddr(), sink.dropped.Load())
			return
		case f := <-sink.out:
			mt, data, err := sink.render(f)
			if err != nil {
				logger.Warnf("Failed to render %s for %s: %v", f.topic, id, err)
				continue
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				logger.Infof("Telemetry WebSocket write failed: %v", err)
				return
			}
		}
	}
}

// ControlWebSocketHandler handles incoming WebSocket control messages. Every
// message gets a JSON reply so drivers can see busy or rejected commands.
func ControlWebSocketHandler(conn *websocket.Conn, drones *DroneHandler, logger customlog.Logger) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	var (
		mt  int
		msg []byte
		err error
	)
	for {
		if mt, msg, err = conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("Control WS read error: %v", err)
			} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				logger.Infof("Control WS connection closed: %v", err)
			} else {
				logger.Infof("Control WS connection closed normally.")
			}
			break
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		reply := handleControlMessage(drones, msg)
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warnf("Failed to reply on Control WS: %v", err)
			break
		}
	}
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}

// controlReply answers one control message.
type controlReply struct {
	OK    bool   `json:"ok"`
	Type  string `json:"type,omitempty"`
	Error string `json:"error,omitempty"`
}

func handleControlMessage(drones *DroneHandler, raw []byte) controlReply {
	var msg ControlMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		drones.logger.Warnf("Failed to unmarshal control message from WS: %v. Message: %s", err, string(raw))
		return controlReply{Error: "invalid JSON: " + err.Error()}
	}
	if err := drones.control(msg); err != nil {
		return controlReply{Type: msg.Type, Error: err.Error()}
	}
	return controlReply{OK: true, Type: msg.Type}
}
