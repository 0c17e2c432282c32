// Package transcriber converts completed recordings into timestamped text.
//
// The primary path calls an external speech-to-text completion endpoint.
// Any failure there falls back to a deterministic mock transcription so the
// pipeline never stalls on a transcription error.
package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
	"github.com/sanduskycurrent/scanner-stream/internal/errors"
	"github.com/sanduskycurrent/scanner-stream/internal/logging"
)

// mock transcription texts, matched to the canned transmission table.
var mockTexts = []string{
	"Unit 12 responding to traffic accident at intersection",
	"Engine 3 on scene, smoke showing from second floor",
	"Medic 1 transporting patient, ETA 5 minutes",
	"All units clear, returning to station",
	"Request additional backup at location",
	"Subject in custody, no injuries reported",
	"Fire under control, beginning overhaul",
	"Cancel response, false alarm confirmed",
}

const mockConfidence = 0.85

// whisperResponse is the JSON body returned by the transcription endpoint.
type whisperResponse struct {
	Text string `json:"text"`
}

// Service transcribes recordings and persists every result.
type Service struct {
	settings   conf.TranscriptionSettings
	enabled    bool
	httpClient *http.Client
	ds         datastore.Interface
	logger     *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a transcription service. With no API key configured the
// remote path is disabled and every transcription is a mock.
func New(settings conf.TranscriptionSettings, ds datastore.Interface) *Service {
	logger := logging.ForService("transcriber")
	if settings.APIKey != "" {
		logger.Info("whisper transcription service initialized")
	} else {
		logger.Info("whisper transcription disabled, no API key")
	}
	return &Service{
		settings:   settings,
		enabled:    settings.APIKey != "",
		httpClient: &http.Client{Timeout: settings.Timeout},
		ds:         ds,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Transcribe converts a completed recording into a transcription. audio
// holds the captured chunks concatenated; it may be empty for mock feeds.
// duration is the recording duration in seconds, attached to real
// transcriptions (mocks draw their own from a bounded random range).
// The result, real or mock, is persisted before being returned.
func (s *Service) Transcribe(ctx context.Context, audio []byte, transmissionID string, duration float64) *datastore.Transcription {
	if !s.enabled {
		return s.mockTranscription(transmissionID)
	}

	text, err := s.requestTranscription(ctx, audio, transmissionID)
	if err != nil {
		s.logger.Error("transcription request failed, using mock fallback",
			"id", transmissionID, "error", err)
		return s.mockTranscription(transmissionID)
	}

	transcription := &datastore.Transcription{
		ID:   transmissionID,
		Text: text,
		// Whisper does not report confidence, placeholder value
		Confidence: 0.95,
		Duration:   duration,
		Timestamp:  time.Now(),
	}
	s.save(transcription)
	return transcription
}

// requestTranscription posts the audio to the speech-to-text endpoint.
func (s *Service) requestTranscription(ctx context.Context, audio []byte, transmissionID string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", transmissionID+".mp3")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	_ = writer.WriteField("model", s.settings.Model)
	_ = writer.WriteField("response_format", "json")
	_ = writer.WriteField("language", s.settings.Language)
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.settings.Endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.settings.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.New(err).
			Component("transcriber").
			Category(errors.CategoryNetwork).
			Context("endpoint", s.settings.Endpoint).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Newf("transcription API returned %d: %s", resp.StatusCode, respBody).
			Component("transcriber").
			Category(errors.CategoryTranscription).
			Build()
	}

	var parsed whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.New(fmt.Errorf("malformed transcription response: %w", err)).
			Component("transcriber").
			Category(errors.CategoryTranscription).
			Build()
	}
	if parsed.Text == "" {
		return "", errors.Newf("transcription response missing text").
			Component("transcriber").
			Category(errors.CategoryTranscription).
			Build()
	}
	return parsed.Text, nil
}

// mockTranscription produces a deterministic fallback transcription.
func (s *Service) mockTranscription(transmissionID string) *datastore.Transcription {
	s.mu.Lock()
	text := mockTexts[s.rng.Intn(len(mockTexts))]
	duration := 3 + s.rng.Float64()*5
	s.mu.Unlock()

	transcription := &datastore.Transcription{
		ID:         transmissionID,
		Text:       text,
		Confidence: mockConfidence,
		Duration:   duration,
		Timestamp:  time.Now(),
		IsMock:     true,
	}
	s.save(transcription)
	return transcription
}

// save persists a transcription best-effort.
func (s *Service) save(tr *datastore.Transcription) {
	if s.ds == nil {
		return
	}
	if err := s.ds.SaveTranscription(tr); err != nil {
		s.logger.Error("failed to persist transcription", "id", tr.ID, "error", err)
		return
	}
	s.logger.Debug("saved transcription", "id", tr.ID, "mock", tr.IsMock)
}
