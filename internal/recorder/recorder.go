// Package recorder manages the per-transmission audio capture window.
package recorder

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
	"github.com/sanduskycurrent/scanner-stream/internal/errors"
	"github.com/sanduskycurrent/scanner-stream/internal/logging"
)

// ErrSessionActive is returned when a capture session is already open.
// The scanner is a single-channel feed, so at most one session exists.
var ErrSessionActive = errors.NewStd("recording session already active")

// Recorder tracks one active capture session and finalizes it into
// recording metadata. All methods are safe for concurrent use.
type Recorder struct {
	mu             sync.Mutex
	recording      bool
	chunks         [][]byte
	startedAt      time.Time
	transmissionID string
	watchdog       *time.Timer

	maxSession time.Duration
	ds         datastore.Interface
	logger     *slog.Logger

	// OnForceClose receives metadata and captured audio for sessions
	// closed by the session watchdog rather than by the normal capture
	// window.
	OnForceClose func(*datastore.Recording, []byte)
}

// New creates a Recorder persisting metadata to ds. ds may be nil, in
// which case metadata is kept in memory only.
func New(settings conf.RecordingSettings, ds datastore.Interface) *Recorder {
	return &Recorder{
		maxSession: settings.MaxSession,
		ds:         ds,
		logger:     logging.ForService("recorder"),
	}
}

// Start opens a capture session for the given transmission id. It fails
// with ErrSessionActive if a session is already open.
func (r *Recorder) Start(transmissionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return errors.New(fmt.Errorf("%w: current=%s requested=%s",
			ErrSessionActive, r.transmissionID, transmissionID)).
			Component("recorder").
			Category(errors.CategoryState).
			Build()
	}

	r.recording = true
	r.chunks = nil
	r.startedAt = time.Now()
	r.transmissionID = transmissionID

	if r.maxSession > 0 {
		r.watchdog = time.AfterFunc(r.maxSession, func() { r.forceClose(transmissionID) })
	}

	r.logger.Info("started recording transmission", "id", transmissionID)
	return nil
}

// AddChunk appends an audio chunk to the open session. It is a no-op when
// no session is open.
func (r *Recorder) AddChunk(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	r.chunks = append(r.chunks, chunk)
}

// Recording reports whether a capture session is currently open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Stop closes the open session and returns its metadata together with the
// captured audio. Calling Stop with no open session returns nil metadata:
// there is nothing to finalize. Metadata is persisted best-effort; a
// persistence failure is logged and the metadata still returned.
func (r *Recorder) Stop() (*datastore.Recording, []byte, error) {
	r.mu.Lock()

	if !r.recording {
		r.mu.Unlock()
		return nil, nil, nil
	}

	if r.watchdog != nil {
		r.watchdog.Stop()
		r.watchdog = nil
	}

	r.recording = false
	duration := time.Since(r.startedAt).Seconds()
	metadata := &datastore.Recording{
		ID:        r.transmissionID,
		Filename:  fmt.Sprintf("%s_%d.mp3", r.transmissionID, time.Now().UnixMilli()),
		Duration:  duration,
		Timestamp: time.Now(),
		Size:      len(r.chunks),
	}

	var audio []byte
	for _, chunk := range r.chunks {
		audio = append(audio, chunk...)
	}

	r.chunks = nil
	r.transmissionID = ""
	r.mu.Unlock()

	if r.ds != nil {
		if err := r.ds.SaveRecording(metadata); err != nil {
			// best-effort persistence, the pipeline continues in memory
			r.logger.Error("failed to persist recording metadata",
				"id", metadata.ID, "error", err)
		}
	}

	r.logger.Info("saved recording",
		"filename", metadata.Filename,
		"duration", fmt.Sprintf("%.1fs", metadata.Duration),
		"chunks", metadata.Size)

	return metadata, audio, nil
}

// forceClose closes a session left open past the maximum session duration.
func (r *Recorder) forceClose(transmissionID string) {
	r.mu.Lock()
	stale := r.recording && r.transmissionID == transmissionID
	r.mu.Unlock()
	if !stale {
		return
	}

	r.logger.Warn("forcing close of stale recording session",
		"id", transmissionID, "max_session", r.maxSession)

	metadata, audio, err := r.Stop()
	if err != nil || metadata == nil {
		return
	}
	if r.OnForceClose != nil {
		r.OnForceClose(metadata, audio)
	}
}
