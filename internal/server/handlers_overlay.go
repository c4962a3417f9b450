package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // OBS browser sources send no Origin header worth checking
	},
}

func (s *Server) handleOverlaySocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Warn("Failed to register overlay client", "error", err)
		return nil
	}

	// Read pump: blocks until the client disconnects. Inbound frames are
	// ignored, the overlay is a listener.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(conn)

	return nil //nolint:nilerr // ReadMessage err is block-scoped; outer err is nil
}
