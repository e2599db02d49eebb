package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/matt-grain/claude-code-kanban/internal/domain/events"
	"github.com/matt-grain/claude-code-kanban/internal/domain/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Local viewer tool; any origin may connect.
		return true
	},
}

// Handler upgrades HTTP requests to streaming connections and wires
// each client into the event hub.
type Handler struct {
	hub ports.EventHub

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHandler creates a streaming handler bound to the hub.
func NewHandler(hub ports.EventHub) *Handler {
	return &Handler{
		hub:     hub,
		clients: make(map[string]*Client),
	}
}

// ServeHTTP handles the websocket upgrade for one viewer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := NewClient(conn, func(id string) {
		h.hub.Unsubscribe(id)
		h.removeClient(id)
	})

	h.mu.Lock()
	h.clients[client.ID()] = client
	h.mu.Unlock()

	h.hub.Subscribe(NewClientSubscriber(client))

	log.Info().
		Str("client_id", client.ID()).
		Str("remote_addr", conn.RemoteAddr().String()).
		Msg("client connected")

	client.Start()

	// Synthetic first event so clients can tell an open, quiet stream
	// from one that never opened.
	if data, err := events.NewConnectedEvent(client.ID()).ToJSON(); err == nil {
		client.Send(data)
	}
}

// Shutdown closes every connected client.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		client.Close()
	}
	h.clients = make(map[string]*Client)
}

// ClientCount returns the number of connected clients.
func (h *Handler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Handler) removeClient(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
	log.Info().Str("client_id", id).Msg("client disconnected")
}
