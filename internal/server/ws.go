package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/mudra/internal/engine"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StateHub pushes engine snapshots to websocket clients. Publish never blocks:
// each client holds at most one pending message and a newer snapshot replaces it.
type StateHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	last    []byte
}

// NewStateHub creates an empty hub.
func NewStateHub() *StateHub {
	return &StateHub{
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Publish sends snap to every connected client.
func (h *StateHub) Publish(snap engine.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		log.Debug().Err(err).Msg("failed to encode snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = msg
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// Drop the stale pending snapshot in favour of the new one.
			select {
			case <-ch:
			default:
			}
			ch <- msg
		}
	}
}

// Clients returns the number of connected clients.
func (h *StateHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StateHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	send := make(chan []byte, 1)
	h.mu.Lock()
	h.clients[conn] = send
	if h.last != nil {
		send <- h.last
	}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Reading detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}
}
