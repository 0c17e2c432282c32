// Package realtime implements the command running the live pipeline.
package realtime

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sanduskycurrent/scanner-stream/internal/audiostream"
	"github.com/sanduskycurrent/scanner-stream/internal/broadcast"
	"github.com/sanduskycurrent/scanner-stream/internal/classifier"
	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
	"github.com/sanduskycurrent/scanner-stream/internal/httpserver"
	"github.com/sanduskycurrent/scanner-stream/internal/logging"
	"github.com/sanduskycurrent/scanner-stream/internal/mqtt"
	"github.com/sanduskycurrent/scanner-stream/internal/observability"
	"github.com/sanduskycurrent/scanner-stream/internal/processor"
	"github.com/sanduskycurrent/scanner-stream/internal/publisher"
	"github.com/sanduskycurrent/scanner-stream/internal/recorder"
	"github.com/sanduskycurrent/scanner-stream/internal/scanner"
	"github.com/sanduskycurrent/scanner-stream/internal/transcriber"
)

const shutdownTimeout = 10 * time.Second

// Command returns the realtime subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "realtime",
		Short: "Run the scanner transmission pipeline and its broadcast surfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunRealtime(settings)
		},
	}
}

// RunRealtime wires the pipeline and serves it until interrupted.
func RunRealtime(settings *conf.Settings) error {
	logger := logging.ForService("realtime")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	ds := datastore.New(settings)
	if err := ds.Open(); err != nil {
		// best-effort persistence: run with in-memory state only
		logger.Error("failed to open datastore, continuing without persistence", "error", err)
		ds = nil
	} else {
		defer func() { _ = ds.Close() }()
	}

	hub := broadcast.NewHub()
	audioHub := audiostream.NewHub()
	rec := recorder.New(settings.Realtime.Recording, ds)
	audioHub.OnChunk = rec.AddChunk

	trService := transcriber.New(settings.Realtime.Transcription, ds)
	clService := classifier.New(settings.Realtime.Classification)

	publerClient := publisher.NewPublerClient(settings.Realtime.Publisher)
	queue := publisher.NewQueue(settings.Realtime.Publisher, publerClient, metrics)
	defer func() { _ = publisher.Close() }()

	var mqttClient mqtt.Client
	if settings.Realtime.MQTT.Enabled {
		mqttClient, err = mqtt.NewClient(settings)
		if err != nil {
			return fmt.Errorf("failed to create MQTT client: %w", err)
		}
		connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mqttClient.Connect(connectCtx); err != nil {
			logger.Error("initial MQTT connection failed, republishing degraded", "error", err)
		}
		cancel()
		defer mqttClient.Disconnect()
	}

	src := scanner.NewSource(settings.Scanner)
	proc := processor.New(settings, src, rec, trService, clService, queue, hub, mqttClient, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go proc.Run(ctx)
	if settings.Realtime.Publisher.Enabled {
		go queue.Run(ctx)
	}
	if ds != nil {
		go datastore.RetentionSweep(ctx, ds, settings.Realtime.Retention, func(deleted int64) {
			metrics.RetentionDeletedTotal.Add(float64(deleted))
		})
	}

	server := httpserver.New(settings, ds, hub, audioHub, clService, metrics)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
