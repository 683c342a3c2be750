package telemetry

import (
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"github.com/sasha-s/go-deadlock"
)

// Sink receives encoded telemetry.
type Sink interface {
	Publish(topic string, payload []byte) error
}

// Hub fans encoded results out to every registered sink.
type Hub struct {
	logger customlog.Logger
	topics *TopicRegistry
	mu     deadlock.RWMutex
	sinks  map[string]Sink
}

// NewHub creates an empty hub
func NewHub(logger customlog.Logger) *Hub {
	if logger == nil {
		logger = customlog.NewNopLogger()
	}
	return &Hub{
		logger: logger,
		topics: NewTopicRegistry(),
		sinks:  make(map[string]Sink),
	}
}

// AddSink registers sink under name, replacing any previous one.
func (h *Hub) AddSink(name string, sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks[name] = sink
}

// RemoveSink unregisters name.
func (h *Hub) RemoveSink(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sinks, name)
}

// SinkCount returns the number of registered sinks.
func (h *Hub) SinkCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}

// HandleResult publishes a successful result to every sink. A failing sink
// does not prevent delivery to the others.
func (h *Hub) HandleResult(result *EncodeResult) {
	if result == nil {
		h.logger.Errorf("Received nil EncodeResult")
		return
	}
	if result.Error != nil {
		return
	}
	h.topics.UpdateTopicStats(result.Topic, len(result.Payload), result.Timestamp)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for name, sink := range h.sinks {
		if err := sink.Publish(result.Topic, result.Payload); err != nil {
			h.logger.Warnf("Failed to publish %s to %s: %v", result.Topic, name, err)
		}
	}
}

// Topics returns the per-topic delivery counters.
func (h *Hub) Topics() *TopicRegistry {
	return h.topics
}
