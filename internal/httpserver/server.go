// Package httpserver exposes the pipeline's fan-out and query surfaces.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sanduskycurrent/scanner-stream/internal/audiostream"
	"github.com/sanduskycurrent/scanner-stream/internal/broadcast"
	"github.com/sanduskycurrent/scanner-stream/internal/classifier"
	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
	"github.com/sanduskycurrent/scanner-stream/internal/logging"
	"github.com/sanduskycurrent/scanner-stream/internal/observability"
)

// Server hosts the websocket, audio stream, and query endpoints.
type Server struct {
	Echo       *echo.Echo
	Settings   *conf.Settings
	DS         datastore.Interface
	Hub        *broadcast.Hub
	AudioHub   *audiostream.Hub
	Classifier *classifier.Service
	Metrics    *observability.Metrics

	logger *slog.Logger
}

// New initializes the HTTP server with the given collaborators.
func New(settings *conf.Settings, ds datastore.Interface, hub *broadcast.Hub,
	audioHub *audiostream.Hub, cl *classifier.Service, metrics *observability.Metrics) *Server {

	s := &Server{
		Echo:       echo.New(),
		Settings:   settings,
		DS:         ds,
		Hub:        hub,
		AudioHub:   audioHub,
		Classifier: cl,
		Metrics:    metrics,
		logger:     logging.ForService("httpserver"),
	}

	s.Echo.HideBanner = true
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.CORS())

	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	s.Echo.GET("/ws", s.handleWebSocket)
	s.Echo.GET("/stream", s.handleAudioStream)
	s.Echo.GET("/health", s.handleHealth)
	s.Echo.GET("/recordings", s.handleRecordings)
	s.Echo.GET("/transcriptions", s.handleTranscriptions)
	s.Echo.GET("/incidents", s.handleIncidents)
	if s.Metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}

// Start begins listening and serving HTTP requests. It blocks until the
// server stops.
func (s *Server) Start() error {
	s.logger.Info("scanner service running", "port", s.Settings.WebServer.Port)
	err := s.Echo.Start(":" + s.Settings.WebServer.Port)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
