package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when sending to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is what the hub needs from a connection.
type ClientInterface interface {
	ID() string
	WorkspaceID() int32
	Send(data []byte) error
	Close() error
}

// Hub tracks live WebSocket connections grouped by workspace. Events for a
// workspace fan out to every connection in that group and nowhere else.
// Safe for concurrent use.
type Hub struct {
	workspaces map[int32]map[string]ClientInterface
	mu         sync.RWMutex
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{
		workspaces: make(map[int32]map[string]ClientInterface),
	}
}

// Register adds a client to its workspace group.
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := client.WorkspaceID()
	clientID := client.ID()

	if h.workspaces[workspaceID] == nil {
		h.workspaces[workspaceID] = make(map[string]ClientInterface)
	}

	h.workspaces[workspaceID][clientID] = client

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client. Unknown clients are ignored.
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := client.WorkspaceID()
	clientID := client.ID()

	clients, ok := h.workspaces[workspaceID]
	if !ok {
		return
	}
	if _, exists := clients[clientID]; !exists {
		return
	}

	delete(clients, clientID)
	if len(clients) == 0 {
		delete(h.workspaces, workspaceID)
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", clientID).
		Msg("WebSocket client unregistered")
}

// Broadcast sends an event to every client in the workspace. Sends run on
// their own goroutines so one slow client cannot stall the rest.
func (h *Hub) Broadcast(workspaceID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.workspaces[workspaceID]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Snapshot under the read lock; sends happen outside it.
	recipients := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		recipients = append(recipients, client)
	}
	h.mu.RUnlock()

	for _, client := range recipients {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Int32("workspace_id", workspaceID).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("event_type", event.Type).
		Int("client_count", len(recipients)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients connected to a workspace
func (h *Hub) ClientCount(workspaceID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.workspaces[workspaceID]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the number of connected clients across all workspaces
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.workspaces {
		total += len(clients)
	}
	return total
}

// Shutdown closes every connection and empties the hub. Used during
// graceful server shutdown.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	var all []ClientInterface
	for _, clients := range h.workspaces {
		for _, client := range clients {
			all = append(all, client)
		}
	}
	h.workspaces = make(map[int32]map[string]ClientInterface)
	h.mu.Unlock()

	for _, client := range all {
		if err := client.Close(); err != nil {
			log.Debug().Err(err).Str("client_id", client.ID()).Msg("Close on shutdown failed")
		}
	}

	if len(all) > 0 {
		log.Info().Int("client_count", len(all)).Msg("WebSocket hub shut down")
	}
}
