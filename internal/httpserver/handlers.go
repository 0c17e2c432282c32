package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
)

const queryLimit = 50

// healthResponse is the body of the health endpoint.
type healthResponse struct {
	Status       string `json:"status"`
	WSClients    int    `json:"wsClients"`
	AudioClients int    `json:"audioClients"`
	Timestamp    string `json:"timestamp"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:       "ok",
		WSClients:    s.Hub.Count(),
		AudioClients: s.AudioHub.Count(),
		Timestamp:    time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleRecordings(c echo.Context) error {
	if s.DS == nil {
		return c.JSON(http.StatusOK, []datastore.Recording{})
	}
	recordings, err := s.DS.GetRecordings(queryLimit)
	if err != nil {
		s.logger.Error("error reading recordings", "error", err)
		return c.JSON(http.StatusOK, []datastore.Recording{})
	}
	return c.JSON(http.StatusOK, recordings)
}

func (s *Server) handleTranscriptions(c echo.Context) error {
	if s.DS == nil {
		return c.JSON(http.StatusOK, []datastore.Transcription{})
	}
	transcriptions, err := s.DS.GetTranscriptions(queryLimit)
	if err != nil {
		s.logger.Error("error reading transcriptions", "error", err)
		return c.JSON(http.StatusOK, []datastore.Transcription{})
	}
	return c.JSON(http.StatusOK, transcriptions)
}

func (s *Server) handleIncidents(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Classifier.Recent(queryLimit))
}
