package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is sent to clients via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
}

const writeTimeout = 5 * time.Second

// ReloadServer manages WebSocket connections for live reload. It
// implements http.Handler.
type ReloadServer struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
	lastErr  *ReloadMessage
}

// NewReloadServer creates a new reload server.
func NewReloadServer(logger *slog.Logger) *ReloadServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadServer{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger.With("component", "reload"),
	}
}

// ServeHTTP upgrades the connection and holds it until the client leaves.
// A client connecting while the last build is broken is sent the error
// immediately.
func (r *ReloadServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Debug("upgrade failed", "error", err)
		return
	}

	r.mu.Lock()
	r.clients[conn] = true
	pending := r.lastErr
	r.mu.Unlock()

	if pending != nil {
		r.send(conn, *pending)
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	r.remove(conn)
}

// NotifyReload tells every client to reload.
func (r *ReloadServer) NotifyReload() {
	r.setLastErr(nil)
	r.broadcast(ReloadMessage{Type: ReloadTypeFull})
}

// NotifyError sends a build error to every client.
func (r *ReloadServer) NotifyError(errMsg string) {
	msg := ReloadMessage{Type: ReloadTypeError, Error: errMsg}
	r.setLastErr(&msg)
	r.broadcast(msg)
}

// ClearError clears the error state on every client.
func (r *ReloadServer) ClearError() {
	r.setLastErr(nil)
	r.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

func (r *ReloadServer) setLastErr(msg *ReloadMessage) {
	r.mu.Lock()
	r.lastErr = msg
	r.mu.Unlock()
}

// broadcast sends a message to all connected clients.
func (r *ReloadServer) broadcast(msg ReloadMessage) {
	r.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	for _, client := range clients {
		r.send(client, msg)
	}
}

func (r *ReloadServer) send(conn *websocket.Conn, msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteMessage(websocket.TextMessage, data)
	r.writeMu.Unlock()

	if err != nil {
		r.remove(conn)
	}
}

func (r *ReloadServer) remove(conn *websocket.Conn) {
	r.mu.Lock()
	delete(r.clients, conn)
	r.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for client := range r.clients {
		client.Close()
		delete(r.clients, client)
	}
}
