// Package audiostream multicasts raw audio chunks to connected listeners.
//
// The chunk emission loop is lazy: it starts when the first listener
// arrives and self-terminates once the listener set returns to empty, so
// no work happens with zero listeners. Payloads are opaque byte frames.
package audiostream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sanduskycurrent/scanner-stream/internal/logging"
)

// frameInterval is the cadence of the simulated audio feed.
const frameInterval = 100 * time.Millisecond

// silentFrame is a minimal MP3 frame representing silence, used by the
// simulated feed. A production deployment replaces the frame source with
// the radio decoder's audio output.
var silentFrame = []byte{
	0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Listener receives audio chunks. A Write error marks the listener as
// disconnected and removes it from the hub.
type Listener interface {
	Write(chunk []byte) error
}

// Hub owns the listener registry and the emission loop lifecycle.
type Hub struct {
	mu        sync.Mutex
	listeners map[Listener]struct{}
	streaming bool
	logger    *slog.Logger

	// OnChunk, when set, observes every emitted chunk. The recorder uses
	// it to accumulate audio for the open capture session.
	OnChunk func(chunk []byte)
}

// NewHub creates an empty audio hub.
func NewHub() *Hub {
	return &Hub{
		listeners: make(map[Listener]struct{}),
		logger:    logging.ForService("audiostream"),
	}
}

// AddListener registers a listener and starts the emission loop if it is
// the first one. Delivery to the listener begins with the next frame.
func (h *Hub) AddListener(l Listener) {
	h.mu.Lock()
	h.listeners[l] = struct{}{}
	count := len(h.listeners)
	start := !h.streaming
	if start {
		h.streaming = true
	}
	h.mu.Unlock()

	h.logger.Info("audio client connected", "listeners", count)

	if start {
		go h.run()
	}
}

// RemoveListener drops a listener. It is called on sink-side disconnect
// detection; removing an unknown listener is a no-op.
func (h *Hub) RemoveListener(l Listener) {
	h.mu.Lock()
	_, ok := h.listeners[l]
	delete(h.listeners, l)
	count := len(h.listeners)
	h.mu.Unlock()

	if ok {
		h.logger.Info("audio client disconnected", "listeners", count)
	}
}

// Count returns the number of connected listeners.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Streaming reports whether the emission loop is currently running.
func (h *Hub) Streaming() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.streaming
}

// Broadcast delivers one chunk to every listener, dropping any listener
// whose write fails.
func (h *Hub) Broadcast(chunk []byte) {
	h.mu.Lock()
	snapshot := make([]Listener, 0, len(h.listeners))
	for l := range h.listeners {
		snapshot = append(snapshot, l)
	}
	h.mu.Unlock()

	for _, l := range snapshot {
		if err := l.Write(chunk); err != nil {
			h.logger.Debug("dropping audio listener after write failure", "error", err)
			h.RemoveListener(l)
		}
	}
}

// run is the emission loop. It checks the listener set at every tick and
// exits once the set is empty.
func (h *Hub) run() {
	h.logger.Info("starting audio stream")
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		if len(h.listeners) == 0 {
			h.streaming = false
			h.mu.Unlock()
			h.logger.Info("stopping audio stream, no listeners")
			return
		}
		h.mu.Unlock()

		if h.OnChunk != nil {
			h.OnChunk(silentFrame)
		}
		h.Broadcast(silentFrame)
	}
}
