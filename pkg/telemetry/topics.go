package telemetry

import (
	"sort"

	"github.com/sasha-s/go-deadlock"
)

// Payload encodings of the known topics.
const (
	EncodingFlatbuffers = "flatbuffers"
	EncodingJSON        = "json"
)

// TopicInfo holds metadata and delivery counters for a topic
type TopicInfo struct {
	Topic         string `json:"topic"`
	Encoding      string `json:"encoding"`
	StatCount     int64  `json:"count"`
	Bytes         int64  `json:"bytes"`
	LastPublished int64  `json:"last_published"`
}

// TopicRegistry maintains information about published topics
type TopicRegistry struct {
	topics map[string]*TopicInfo
	mu     deadlock.RWMutex
}

// NewTopicRegistry creates a registry preloaded with the drone topics
func NewTopicRegistry() *TopicRegistry {
	r := &TopicRegistry{topics: make(map[string]*TopicInfo)}
	r.topics[TopicPose] = &TopicInfo{Topic: TopicPose, Encoding: EncodingFlatbuffers}
	r.topics[TopicCommand] = &TopicInfo{Topic: TopicCommand, Encoding: EncodingJSON}
	r.topics[TopicRecording] = &TopicInfo{Topic: TopicRecording, Encoding: EncodingJSON}
	r.topics[TopicSettings] = &TopicInfo{Topic: TopicSettings, Encoding: EncodingJSON}
	return r
}

// GetTopicInfo gets a copy of the information for a topic
func (r *TopicRegistry) GetTopicInfo(topic string) (TopicInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return TopicInfo{}, false
	}
	return *info, true
}

// UpdateTopicStats counts one published payload of size bytes
func (r *TopicRegistry) UpdateTopicStats(topic string, size int, timestamp int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.topics[topic]
	if !exists {
		info = &TopicInfo{Topic: topic, Encoding: EncodingJSON}
		r.topics[topic] = info
	}
	info.StatCount++
	info.Bytes += int64(size)
	info.LastPublished = timestamp
}

// GetTopicStats returns every topic sorted by name
func (r *TopicRegistry) GetTopicStats() []TopicInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]TopicInfo, 0, len(r.topics))
	for _, info := range r.topics {
		stats = append(stats, *info)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Topic < stats[j].Topic })
	return stats
}
