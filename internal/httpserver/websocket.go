package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is handled by Echo middleware
		return true
	},
}

// wsSink adapts a websocket connection to the broadcast.Sink interface.
// Writes are serialized; gorilla connections allow only one writer.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsSink) Send(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsSink) Close() error {
	return w.conn.Close()
}

// handleWebSocket upgrades the connection and registers it as a
// structured-event subscriber. The read pump exists only to detect
// disconnects; client messages are discarded.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	sink := &wsSink{conn: conn}
	s.Hub.Subscribe(sink)
	s.updateClientGauges()

	go func() {
		defer func() {
			s.Hub.Unsubscribe(sink)
			_ = conn.Close()
			s.updateClientGauges()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

func (s *Server) updateClientGauges() {
	if s.Metrics == nil {
		return
	}
	s.Metrics.WSClients.Set(float64(s.Hub.Count()))
	s.Metrics.AudioClients.Set(float64(s.AudioHub.Count()))
}
