package zeromq

import (
	"context"
	"fmt"
	"syscall"
	"time"

	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"github.com/open-teleop/dronecontrols/pkg/telemetry"
	"github.com/pebbe/zmq4"
)

// PoseHandler receives decoded pose frames.
type PoseHandler func(frame telemetry.DecodedFrame)

// EventHandler receives raw JSON event envelopes.
type EventHandler func(topic string, payload []byte)

// TelemetrySubscriber connects a SUB socket to a controller's telemetry PUB
// socket and decodes what it receives.
type TelemetrySubscriber struct {
	address string
	topics  []string
	logger  customlog.Logger
}

// NewTelemetrySubscriber creates a subscriber for address. An empty topic list
// subscribes to everything.
func NewTelemetrySubscriber(address string, topics []string, logger customlog.Logger) *TelemetrySubscriber {
	if logger == nil {
		logger = customlog.NewNopLogger()
	}
	if len(topics) == 0 {
		topics = []string{""}
	}
	return &TelemetrySubscriber{address: address, topics: topics, logger: logger}
}

// Run receives until ctx is cancelled. Pose frames go to onPose, everything
// else to onEvent; either handler may be nil.
func (l *TelemetrySubscriber) Run(ctx context.Context, onPose PoseHandler, onEvent EventHandler) error {
	socket, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		return fmt.Errorf("failed to create SUB socket: %w", err)
	}
	defer socket.Close()

	if err := socket.SetLinger(0); err != nil {
		return fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.SetRcvtimeo(500 * time.Millisecond); err != nil {
		return fmt.Errorf("failed to set receive timeout: %w", err)
	}
	for _, topic := range l.topics {
		if err := socket.SetSubscribe(topic); err != nil {
			return fmt.Errorf("failed to subscribe to '%s': %w", topic, err)
		}
	}
	if err := socket.Connect(l.address); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", l.address, err)
	}

	l.logger.Infof("Telemetry subscriber connected to %s", l.address)
	for ctx.Err() == nil {
		parts, err := socket.RecvMessageBytes(0)
		if err != nil {
			// Receive timeouts let the loop notice cancellation.
			if zmq4.AsErrno(err) != zmq4.Errno(syscall.EAGAIN) {
				l.logger.Debugf("Error receiving telemetry: %v", err)
			}
			continue
		}
		if len(parts) != 2 {
			l.logger.Warnf("Ignoring telemetry message with %d frames", len(parts))
			continue
		}

		topic := string(parts[0])
		if topic == telemetry.TopicPose {
			frame, err := telemetry.DecodeFrame(parts[1])
			if err != nil {
				l.logger.Warnf("Dropping pose frame: %v", err)
				continue
			}
			if onPose != nil {
				onPose(frame)
			}
			continue
		}
		if onEvent != nil {
			onEvent(topic, parts[1])
		}
	}
	return nil
}
