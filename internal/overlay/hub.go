// Package overlay fans play/stop frames out to connected browser-source
// clients over websockets. The hub is a single-goroutine actor: all state
// lives inside run() and every operation arrives as a command on one
// channel.
package overlay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/metrics"
)

const (
	maxClients   = 50
	writeTimeout = 5 * time.Second
)

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn  *websocket.Conn
	errCh chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	data []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdClientCount struct {
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Frames ---

type playFrame struct {
	Type string              `json:"type"`
	Play domain.PlaySnapshot `json:"play"`
}

type stopFrame struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// --- Hub ---

// Hub implements domain.OverlayPublisher.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[*websocket.Conn]*clientWriter
}

func NewHub() *Hub {
	hub := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[*websocket.Conn]*clientWriter),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.conn)
		case cmdBroadcast:
			h.handleBroadcast(c.data)
		case cmdClientCount:
			c.replyCh <- len(h.clients)
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if len(h.clients) >= maxClients {
		slog.Warn("Rejecting overlay client: max clients reached", "max_clients", maxClients)
		c.conn.Close()
		c.errCh <- fmt.Errorf("max overlay clients (%d) reached", maxClients)
		return
	}

	h.clients[c.conn] = newClientWriter(c.conn)
	metrics.OverlayClients.Set(float64(len(h.clients)))
	slog.Debug("Overlay client registered", "total_clients", len(h.clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	metrics.OverlayClients.Set(float64(len(h.clients)))
	slog.Debug("Overlay client unregistered", "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(data []byte) {
	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		select {
		case cw.sendCh <- data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow overlay client")
		metrics.OverlaySlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	for conn, cw := range h.clients {
		cw.stop()
		delete(h.clients, conn)
	}
	metrics.OverlayClients.Set(0)
}

// --- Public API ---

// Register adds an overlay client connection.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister removes an overlay client connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{conn: conn}
}

// NotifyPlay broadcasts a play frame to every client. Fire-and-forget:
// marshal errors are logged, slow clients are evicted, nothing retries.
func (h *Hub) NotifyPlay(snapshot domain.PlaySnapshot) {
	data, err := json.Marshal(playFrame{Type: "play", Play: snapshot})
	if err != nil {
		slog.Error("Failed to marshal play frame", "error", err)
		return
	}
	h.cmdCh <- cmdBroadcast{data: data}
}

// NotifyStop broadcasts a stop frame for the given command.
func (h *Hub) NotifyStop(command string) {
	data, err := json.Marshal(stopFrame{Type: "stop", Command: command})
	if err != nil {
		slog.Error("Failed to marshal stop frame", "error", err)
		return
	}
	h.cmdCh <- cmdBroadcast{data: data}
}

// ClientCount returns the number of connected overlay clients.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{replyCh: replyCh}
	return <-replyCh
}

// Stop closes all client connections and shuts the hub down.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
