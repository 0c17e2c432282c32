package httpserver

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// audioListener adapts a chunked HTTP response to the audiostream.Listener
// interface. A failed or completed response reports errors on Write, which
// drops the listener from the hub.
type audioListener struct {
	mu      sync.Mutex
	writer  http.ResponseWriter
	flusher http.Flusher
	done    <-chan struct{}
}

func (a *audioListener) Write(chunk []byte) error {
	select {
	case <-a.done:
		return http.ErrHandlerTimeout
	default:
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.writer.Write(chunk); err != nil {
		return err
	}
	a.flusher.Flush()
	return nil
}

// handleAudioStream attaches the client to the audio hub as a long-lived
// chunked response and blocks until the client disconnects.
func (s *Server) handleAudioStream(c echo.Context) error {
	response := c.Response()
	flusher, ok := response.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	header := response.Header()
	header.Set(echo.HeaderContentType, "audio/mpeg")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	response.WriteHeader(http.StatusOK)
	flusher.Flush()

	done := c.Request().Context().Done()
	listener := &audioListener{
		writer:  response.Writer,
		flusher: flusher,
		done:    done,
	}

	s.AudioHub.AddListener(listener)
	s.updateClientGauges()
	defer func() {
		s.AudioHub.RemoveListener(listener)
		s.updateClientGauges()
	}()

	<-done
	return nil
}
