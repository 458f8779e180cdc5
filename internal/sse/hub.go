package sse

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/mindgym/internal/model"
)

// Hub fans out messages to the SSE clients of a single session
type Hub struct {
	token   model.SessionToken
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a session
func NewHub(token model.SessionToken, logger *slog.Logger) *Hub {
	return &Hub{
		token:      token,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("session", shortToken(token))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. It returns once Close is called.
func (h *Hub) Run() {
	h.logger.Debug("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered", slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("sse client unregistered",
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.deliver(message)

		case <-h.done:
			// Flush anything queued before the close, e.g. a final logout event
			for pending := true; pending; {
				select {
				case message := <-h.broadcast:
					h.deliver(message)
				default:
					pending = false
				}
			}
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Debug("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	sentCount := 0
	droppedCount := 0
	for client := range h.clients {
		select {
		case client.send <- message:
			sentCount++
		default:
			droppedCount++
		}
	}
	h.mu.RUnlock()
	if droppedCount > 0 {
		h.logger.Warn("sse broadcast partial failure",
			slog.Int("sent", sentCount),
			slog.Int("dropped", droppedCount))
	}
}

// Register adds a client to the hub. It reports false if the hub is closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// BroadcastEvent sends an SSE event with a name and data
func (h *Hub) BroadcastEvent(eventName, data string) {
	h.Broadcast(formatSSEMessage(eventName, data))
}

// Close shuts down the hub. Safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// Done is closed when the hub shuts down
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message with event name and data.
// Each line of multi-line data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager owns one hub per session with connected clients
type HubManager struct {
	hubs   map[model.SessionToken]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.SessionToken]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a session, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(token model.SessionToken) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[token]; ok {
		return hub
	}

	hub := NewHub(token, m.logger)
	m.hubs[token] = hub
	go hub.Run()
	return hub
}

// Attach registers a new client with the session's hub. A hub that closed
// between lookup and registration is replaced once. Returns nil if the
// client could not be registered.
func (m *HubManager) Attach(token model.SessionToken) *Client {
	for attempt := 0; attempt < 2; attempt++ {
		hub := m.GetOrCreateHub(token)
		client := NewClient(hub)
		if hub.Register(client) {
			return client
		}
		m.forget(token, hub)
	}
	return nil
}

// forget drops hub from the map if it is still the session's current hub
func (m *HubManager) forget(token model.SessionToken, hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hubs[token] == hub {
		delete(m.hubs, token)
	}
}

// GetHub returns the hub for a session, or nil if it doesn't exist
func (m *HubManager) GetHub(token model.SessionToken) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[token]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(token model.SessionToken) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[token]; ok {
		hub.Close()
		delete(m.hubs, token)
		m.logger.Debug("sse hub removed", slog.String("session", shortToken(token)))
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removedCount := 0
	for token, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, token)
			removedCount++
		}
	}
	if removedCount > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", removedCount))
	}
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, token)
	}
}

// HubCount returns the number of open hubs
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

func shortToken(token model.SessionToken) string {
	const keep = 10
	if len(token) <= keep {
		return string(token)
	}
	return string(token[:keep])
}
