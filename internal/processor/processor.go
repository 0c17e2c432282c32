// Package processor coordinates the transmission-processing pipeline.
//
// For each transmission the stages run strictly in order: record →
// transcribe → classify → publish/broadcast. Across transmissions there is
// no ordering guarantee; each lifecycle runs in its own goroutine and is
// independently latency-bound by its external calls.
package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/sanduskycurrent/scanner-stream/internal/broadcast"
	"github.com/sanduskycurrent/scanner-stream/internal/classifier"
	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
	"github.com/sanduskycurrent/scanner-stream/internal/logging"
	"github.com/sanduskycurrent/scanner-stream/internal/mqtt"
	"github.com/sanduskycurrent/scanner-stream/internal/observability"
	"github.com/sanduskycurrent/scanner-stream/internal/publisher"
	"github.com/sanduskycurrent/scanner-stream/internal/recorder"
	"github.com/sanduskycurrent/scanner-stream/internal/scanner"
	"github.com/sanduskycurrent/scanner-stream/internal/transcriber"
)

// Processor ties the pipeline stages together.
type Processor struct {
	Settings    *conf.Settings
	Source      *scanner.Source
	Recorder    *recorder.Recorder
	Transcriber *transcriber.Service
	Classifier  *classifier.Service
	Queue       *publisher.Queue
	Hub         *broadcast.Hub
	MQTTClient  mqtt.Client
	Metrics     *observability.Metrics

	logger *slog.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	pending map[string]scanner.Transmission // open-session transmissions by id
}

// New wires a processor from its stages. MQTTClient and Metrics may be nil.
func New(settings *conf.Settings, src *scanner.Source, rec *recorder.Recorder,
	tr *transcriber.Service, cl *classifier.Service, q *publisher.Queue,
	hub *broadcast.Hub, mqttClient mqtt.Client, metrics *observability.Metrics) *Processor {

	p := &Processor{
		Settings:    settings,
		Source:      src,
		Recorder:    rec,
		Transcriber: tr,
		Classifier:  cl,
		Queue:       q,
		Hub:         hub,
		MQTTClient:  mqttClient,
		Metrics:     metrics,
		logger:      logging.ForService("processor"),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		pending:     make(map[string]scanner.Transmission),
	}

	// Sessions closed by the watchdog continue through the pipeline the
	// same way normally closed ones do.
	rec.OnForceClose = func(metadata *datastore.Recording, audio []byte) {
		tx := p.takePending(metadata.ID)
		p.finishRecording(context.Background(), tx, metadata, audio)
	}

	return p
}

// Run consumes the transmission source until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	transmissions := make(chan scanner.Transmission)
	go p.Source.Run(ctx, transmissions)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("processor stopped")
			return
		case tx := <-transmissions:
			if p.Metrics != nil {
				p.Metrics.TransmissionsTotal.WithLabelValues(string(tx.Kind)).Inc()
			}
			p.logger.Info("broadcasting transmission",
				"id", tx.ID, "message", tx.Message)
			p.Hub.Publish(broadcast.EventTransmission, tx)
			go p.handleTransmission(ctx, tx)
		}
	}
}

// handleTransmission drives one transmission through its capture window
// and the downstream stages.
func (p *Processor) handleTransmission(ctx context.Context, tx scanner.Transmission) {
	if err := p.Recorder.Start(tx.ID); err != nil {
		// single-channel feed: a session is already open, ignore this one
		p.logger.Warn("skipping recording, session already active",
			"id", tx.ID, "error", err)
		return
	}
	p.setPending(tx)

	select {
	case <-ctx.Done():
		return
	case <-time.After(p.captureWindow()):
	}

	metadata, audio, err := p.Recorder.Stop()
	if err != nil || metadata == nil {
		p.takePending(tx.ID)
		return
	}
	p.takePending(tx.ID)
	p.finishRecording(ctx, tx, metadata, audio)
}

// finishRecording runs the post-capture stages for one recording.
func (p *Processor) finishRecording(ctx context.Context, tx scanner.Transmission, metadata *datastore.Recording, audio []byte) {
	p.Hub.Publish(broadcast.EventRecordingSaved, metadata)

	transcription := p.Transcriber.Transcribe(ctx, audio, metadata.ID, metadata.Duration)
	if p.Metrics != nil {
		p.Metrics.TranscriptionsTotal.WithLabelValues(strconv.FormatBool(transcription.IsMock)).Inc()
	}
	p.Hub.Publish(broadcast.EventTranscriptionComplete, transcription)

	summary := p.Classifier.Classify(ctx, transcription, tx)
	if p.Metrics != nil {
		p.Metrics.ClassificationsTotal.WithLabelValues(strconv.FormatBool(summary.WorthPosting)).Inc()
	}

	if !summary.WorthPosting {
		p.logger.Info("filtered out routine chatter",
			"id", transcription.ID, "text", truncate(transcription.Text, 50))
		return
	}

	p.logger.Info("newsworthy incident",
		"id", summary.ID,
		"category", summary.Category,
		"severity", summary.Severity)
	p.Hub.Publish(broadcast.EventIncidentSummary, summary)
	p.Queue.Enqueue(summary)
	p.republish(ctx, summary)
}

// republish pushes a summary to the MQTT topic when configured. Failures
// are logged and never interrupt the pipeline.
func (p *Processor) republish(ctx context.Context, summary *classifier.IncidentSummary) {
	if p.MQTTClient == nil || !p.Settings.Realtime.MQTT.Enabled {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		p.logger.Error("failed to encode incident for MQTT", "id", summary.ID, "error", err)
		return
	}
	if err := p.MQTTClient.Publish(ctx, p.Settings.Realtime.MQTT.Topic, string(payload)); err != nil {
		p.logger.Error("failed to republish incident to MQTT",
			"id", summary.ID, "error", err)
	}
}

// captureWindow returns a jittered recording window within the configured
// range.
func (p *Processor) captureWindow() time.Duration {
	rec := p.Settings.Realtime.Recording
	spread := rec.WindowMax - rec.WindowMin
	if spread <= 0 {
		return rec.WindowMin
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return rec.WindowMin + time.Duration(p.rng.Int63n(int64(spread)))
}

func (p *Processor) setPending(tx scanner.Transmission) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[tx.ID] = tx
}

func (p *Processor) takePending(id string) scanner.Transmission {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx := p.pending[id]
	delete(p.pending, id)
	return tx
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
