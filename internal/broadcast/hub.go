// Package broadcast multicasts pipeline stage transitions to every
// connected structured-event subscriber.
//
// Delivery is at-most-once and best-effort: there is no buffering or
// replay, and a subscriber that connects after an event was published
// never receives it. A send failure drops only the failing subscriber.
package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/sanduskycurrent/scanner-stream/internal/logging"
)

// EventType identifies a pipeline stage transition frame.
type EventType string

const (
	EventConnection            EventType = "connection"
	EventTransmission          EventType = "transmission"
	EventRecordingSaved        EventType = "recording_saved"
	EventTranscriptionComplete EventType = "transcription_complete"
	EventIncidentSummary       EventType = "incident_summary"
)

// Envelope is the JSON frame pushed to subscribers.
type Envelope struct {
	Type    EventType `json:"type"`
	Data    any       `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Sink is one subscriber's transport. Send must be safe to call from
// multiple goroutines or the sink must serialize internally.
type Sink interface {
	Send(data []byte) error
	Close() error
}

// Hub owns the subscriber registry. All methods are safe for concurrent
// use; multicast iterates a snapshot so concurrent removal never races.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[Sink]struct{}
	logger      *slog.Logger
}

// NewHub creates an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[Sink]struct{}),
		logger:      logging.ForService("broadcast"),
	}
}

// Subscribe registers a sink and sends it the connection acknowledgement.
func (h *Hub) Subscribe(sink Sink) {
	h.mu.Lock()
	h.subscribers[sink] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Info("client connected", "subscribers", count)

	welcome, _ := json.Marshal(Envelope{
		Type:    EventConnection,
		Message: "Connected to scanner stream",
	})
	if err := sink.Send(welcome); err != nil {
		h.drop(sink, err)
	}
}

// Unsubscribe removes a sink from the registry. Removing a sink that is
// not registered is a no-op.
func (h *Hub) Unsubscribe(sink Sink) {
	h.mu.Lock()
	_, ok := h.subscribers[sink]
	delete(h.subscribers, sink)
	count := len(h.subscribers)
	h.mu.Unlock()

	if ok {
		h.logger.Info("client disconnected", "subscribers", count)
	}
}

// Publish multicasts one event to every currently-registered subscriber.
// A failing subscriber is dropped without affecting delivery to others.
func (h *Hub) Publish(eventType EventType, data any) {
	message, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("failed to encode broadcast event",
			"type", eventType, "error", err)
		return
	}

	for _, sink := range h.snapshot() {
		if err := sink.Send(message); err != nil {
			h.drop(sink, err)
		}
	}
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) snapshot() []Sink {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sinks := make([]Sink, 0, len(h.subscribers))
	for sink := range h.subscribers {
		sinks = append(sinks, sink)
	}
	return sinks
}

func (h *Hub) drop(sink Sink, err error) {
	h.logger.Debug("dropping subscriber after send failure", "error", err)
	h.Unsubscribe(sink)
	_ = sink.Close()
}
