package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/open-teleop/dronecontrols/pkg/channel"
	"github.com/open-teleop/dronecontrols/pkg/config"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"github.com/pebbe/zmq4"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types
const (
	MsgTypeCommandRequest   = "COMMAND_REQUEST"
	MsgTypeCommandResponse  = "COMMAND_RESPONSE"
	MsgTypeStatusRequest    = "STATUS_REQUEST"
	MsgTypeStatusResponse   = "STATUS_RESPONSE"
	MsgTypeRecordRequest    = "RECORD_REQUEST"
	MsgTypeRecordResponse   = "RECORD_RESPONSE"
	MsgTypeSettingsRequest  = "SETTINGS_REQUEST"
	MsgTypeSettingsResponse = "SETTINGS_RESPONSE"
	MsgTypeError            = "ERROR"
)

// socketTimeout bounds blocking socket calls so shutdown is never stuck.
const socketTimeout = 1 * time.Second

// ZeroMQMessage represents a generic message structure for ZeroMQ communication
type ZeroMQMessage struct {
	Type      string          `json:"type"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ErrorResponse represents an error response message
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageHandler defines the interface for handlers that process specific message types
type MessageHandler interface {
	HandleMessage(msg *ZeroMQMessage) ([]byte, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(msg *ZeroMQMessage) ([]byte, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(msg *ZeroMQMessage) ([]byte, error) {
	return f(msg)
}

// NewEnvelope serializes a msgType envelope stamped with the current time.
func NewEnvelope(msgType string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s data: %w", msgType, err)
	}
	out, err := json.Marshal(ZeroMQMessage{
		Type:      msgType,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		Data:      raw,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", msgType, err)
	}
	return out, nil
}

// errorCode maps handler errors onto HTTP-like status codes for the reply.
func errorCode(err error) int {
	switch {
	case errors.Is(err, channel.ErrChannelBusy):
		return 409
	case errors.Is(err, ErrUnknownMessageType):
		return 404
	case errors.Is(err, ErrInvalidMessage):
		return 400
	default:
		return 500
	}
}

// errorReply builds the ERROR envelope sent back for a failed request.
func errorReply(err error) []byte {
	data, _ := NewEnvelope(MsgTypeError, ErrorResponse{
		Message: err.Error(),
		Code:    errorCode(err),
	})
	return data
}

// MessageReceiver handles receiving messages from a ZeroMQ socket
type MessageReceiver struct {
	socket     *zmq4.Socket
	dispatcher *MessageDispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	mu         sync.Mutex
	running    bool
	wg         *sync.WaitGroup
}

// newMessageReceiver creates a new MessageReceiver bound to address
func newMessageReceiver(ctx *zmq4.Context, address string, dispatcher *MessageDispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.SetRcvtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.SetSndtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("MessageReceiver initialized on %s", address)

	return &MessageReceiver{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		wg:         wg,
	}, nil
}

func (r *MessageReceiver) isRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start begins the message receiving loop
func (r *MessageReceiver) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.socket.Close()
		r.logger.Infof("MessageReceiver started")

		for r.isRunning() {
			// Poll with a timeout so Stop is noticed promptly.
			sockets, err := r.poller.Poll(500 * time.Millisecond)
			if err != nil {
				if r.isRunning() {
					r.logger.Warnf("Error polling socket: %v", err)
				}
				continue
			}
			if len(sockets) == 0 {
				continue
			}

			msg, err := r.socket.RecvBytes(0)
			if err != nil {
				if r.isRunning() {
					r.logger.Warnf("Error receiving message: %v", err)
				}
				continue
			}

			r.logger.Debugf("Received message (%d bytes)", len(msg))

			response, err := r.dispatcher.Dispatch(msg)
			if err != nil {
				r.logger.Warnf("Error dispatching message: %v", err)
				response = errorReply(err)
			}

			// REP sockets must answer every request before receiving again.
			if _, err := r.socket.SendBytes(response, 0); err != nil && r.isRunning() {
				r.logger.Warnf("Error sending response: %v", err)
			}
		}
		r.logger.Infof("MessageReceiver stopped")
	}()
}

// Stop halts the message receiving loop. The socket is closed by the loop
// itself, since zmq sockets must not be used from two goroutines.
func (r *MessageReceiver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

// MessageSender handles sending messages to ZeroMQ sockets
type MessageSender struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

// newMessageSender creates a new MessageSender bound to address
func newMessageSender(ctx *zmq4.Context, address string, logger customlog.Logger) (*MessageSender, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	logger.Infof("MessageSender initialized on %s", address)

	return &MessageSender{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// PublishMessage sends a message with the given topic
func (s *MessageSender) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}

	// Topic frame first so subscribers can filter on it.
	if _, err := s.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Close cleans up resources
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// MessageDispatcher routes messages to the appropriate handlers
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	if logger == nil {
		logger = customlog.NewNopLogger()
	}
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Debugf("Registered handler for message type: %s", messageType)
}

// Dispatch parses a JSON envelope and routes it to the handler for its type
func (d *MessageDispatcher) Dispatch(data []byte) ([]byte, error) {
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}

	d.logger.Debugf("Dispatching message of type: %s", msg.Type)
	d.mu.RLock()
	handler, exists := d.handlers[msg.Type]
	d.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}
	return handler.HandleMessage(&msg)
}

// ZeroMQService owns the remote driver REP socket and the telemetry PUB
// socket. Either is optional: an empty bind address disables it.
type ZeroMQService struct {
	config     config.ZeroMQConfig
	ctx        *zmq4.Context
	receiver   *MessageReceiver
	sender     *MessageSender
	dispatcher *MessageDispatcher
	logger     customlog.Logger
	mu         sync.Mutex
	running    bool
	wg         sync.WaitGroup
}

// NewZeroMQService creates a new ZeroMQ service
func NewZeroMQService(cfg config.ZeroMQConfig, logger customlog.Logger) (*ZeroMQService, error) {
	if logger == nil {
		logger = customlog.NewNopLogger()
	}

	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	s := &ZeroMQService{
		config:     cfg,
		ctx:        ctx,
		dispatcher: NewMessageDispatcher(logger),
		logger:     logger,
	}

	if cfg.RequestBindAddress != "" {
		s.receiver, err = newMessageReceiver(ctx, cfg.RequestBindAddress, s.dispatcher, logger, &s.wg)
		if err != nil {
			ctx.Term()
			return nil, err
		}
	}

	if cfg.PublishBindAddress != "" {
		s.sender, err = newMessageSender(ctx, cfg.PublishBindAddress, logger)
		if err != nil {
			if s.receiver != nil {
				s.receiver.socket.Close()
			}
			ctx.Term()
			return nil, err
		}
		if cfg.MessageBufferSize > 0 {
			if err := s.sender.socket.SetSndhwm(cfg.MessageBufferSize); err != nil {
				logger.Warnf("Failed to set publish high-water mark: %v", err)
			}
		}
	}

	return s, nil
}

// Dispatcher exposes the request dispatcher
func (s *ZeroMQService) Dispatcher() *MessageDispatcher {
	return s.dispatcher
}

// RegisterHandler adds a handler for a specific message type
func (s *ZeroMQService) RegisterHandler(messageType string, handler MessageHandler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// RegisterHandlerFunc adds a handler function for a specific message type
func (s *ZeroMQService) RegisterHandlerFunc(messageType string, handler func(*ZeroMQMessage) ([]byte, error)) {
	s.dispatcher.RegisterHandler(messageType, HandlerFunc(handler))
}

// Start begins the ZeroMQ service
func (s *ZeroMQService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	s.running = true
	s.logger.Infof("Starting ZeroMQ service")
	if s.receiver != nil {
		s.receiver.Start()
	}
	return nil
}

// Stop halts the ZeroMQ service and releases its sockets. It is safe to call
// on a service that was never started.
func (s *ZeroMQService) Stop() {
	s.mu.Lock()
	if s.ctx == nil {
		s.mu.Unlock()
		return
	}
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	s.logger.Infof("Stopping ZeroMQ service")
	if s.receiver != nil {
		if wasRunning {
			s.receiver.Stop()
		} else {
			s.receiver.socket.Close()
		}
	}
	if s.sender != nil {
		s.sender.Close()
	}

	s.wg.Wait()

	s.mu.Lock()
	if err := s.ctx.Term(); err != nil {
		s.logger.Warnf("Failed to terminate ZMQ context: %v", err)
	}
	s.ctx = nil
	s.mu.Unlock()
	s.logger.Infof("ZeroMQ service stopped")
}

// Publish sends payload on topic through the PUB socket. It satisfies the
// telemetry sink interface.
func (s *ZeroMQService) Publish(topic string, payload []byte) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running || s.sender == nil {
		return ErrServiceClosed
	}
	return s.sender.PublishMessage(topic, payload)
}
