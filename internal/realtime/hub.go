package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/rankparty/internal/dependencies/notifier"
	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/protocol"
)

// Hub holds the connections subscribed to a single room
type Hub struct {
	roomCode model.RoomCode
	clients  map[*Client]bool
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewHub creates a new Hub for a room
func NewHub(roomCode model.RoomCode, logger *slog.Logger) *Hub {
	return &Hub{
		roomCode: roomCode,
		clients:  make(map[*Client]bool),
		logger:   logger.With(slog.String("room", string(roomCode))),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client registered",
		slog.String("conn_id", string(client.id)),
		slog.Int("total_clients", clientCount))
}

// Unregister removes a client from the hub and returns how many remain
func (h *Hub) Unregister(client *Client) int {
	h.mu.Lock()
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client unregistered",
		slog.String("conn_id", string(client.id)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
	return clientCount
}

// Broadcast queues a message on every client. Fan-out happens on the caller's
// goroutine so frames keep the order the room produced them in.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	sentCount := 0
	droppedCount := 0
	for client := range h.clients {
		if client.enqueue(message) {
			sentCount++
		} else {
			droppedCount++
		}
	}
	h.mu.RUnlock()

	if droppedCount > 0 {
		h.logger.Warn("ws broadcast partial failure",
			slog.Int("sent", sentCount),
			slog.Int("dropped", droppedCount))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager tracks every live connection and the room hubs they belong to.
// It is the Notifier the room controller publishes through.
type HubManager struct {
	hubs    map[model.RoomCode]*Hub
	clients map[model.ConnID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

// Ensure HubManager implements Notifier
var _ notifier.Notifier = (*HubManager)(nil)

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:    make(map[model.RoomCode]*Hub),
		clients: make(map[model.ConnID]*Client),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// AddClient makes a connection addressable by its ID
func (m *HubManager) AddClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.id] = client
}

// RemoveClient forgets a connection and drops it from its room's hub
func (m *HubManager) RemoveClient(client *Client) {
	m.mu.Lock()
	delete(m.clients, client.id)
	m.mu.Unlock()

	if code := client.Room(); code != "" {
		m.Leave(code, client)
	}
	client.close()
}

// Join subscribes a client to a room's broadcasts, creating the hub if needed
func (m *HubManager) Join(code model.RoomCode, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[code]
	if !ok {
		hub = NewHub(code, m.logger)
		m.hubs[code] = hub
	}
	hub.Register(client)
}

// Leave unsubscribes a client, removing the hub once it is empty
func (m *HubManager) Leave(code model.RoomCode, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[code]
	if !ok {
		return
	}
	if hub.Unregister(client) == 0 {
		delete(m.hubs, code)
		m.logger.Info("ws hub removed", slog.String("room", string(code)))
	}
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(code model.RoomCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// ConnectionCount returns the number of live connections
func (m *HubManager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Broadcast delivers an event to every connection in the event's room
func (m *HubManager) Broadcast(event model.Event) {
	hub := m.GetHub(event.RoomCode)
	if hub == nil {
		return
	}
	message, ok := m.encode(event)
	if !ok {
		return
	}
	hub.Broadcast(message)
}

// Send delivers an event to a single connection
func (m *HubManager) Send(connID model.ConnID, event model.Event) {
	m.mu.RLock()
	client, ok := m.clients[connID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	message, ok := m.encode(event)
	if !ok {
		return
	}
	if !client.enqueue(message) {
		m.logger.Warn("ws message dropped - client buffer full",
			slog.String("conn_id", string(connID)),
			slog.String("type", string(event.Type)))
	}
}

// CloseAll disconnects every client, for shutdown
func (m *HubManager) CloseAll() {
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	m.logger.Info("ws connections closed", slog.Int("count", len(clients)))
}

func (m *HubManager) encode(event model.Event) ([]byte, bool) {
	message, err := protocol.EncodeEvent(event)
	if err != nil {
		m.logger.Error("ws failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return nil, false
	}
	return message, true
}
