package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"neurofleet-console/internal/gateway"
)

// Hub tracks live telemetry connections per login session. A session may
// hold several (one per tab); sessions of the same user are kept apart.
type Hub struct {
	sessions map[string]map[*Client]struct{}
	mu       sync.Mutex
}

// sessionEnded is the last frame a connection gets when its session is
// invalidated; the browser navigates to Redirect.
type sessionEnded struct {
	Type     string `json:"type"`
	Redirect string `json:"redirect"`
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*Client]struct{})}
}

// removeLocked drops client and closes its send channel. It reports whether
// the client was still registered.
func (h *Hub) removeLocked(client *Client) bool {
	set, ok := h.sessions[client.SessionID]
	if !ok {
		return false
	}
	if _, ok := set[client]; !ok {
		return false
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.sessions, client.SessionID)
	}
	close(client.send)
	client.stop()
	return true
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.sessions {
		n += len(set)
	}
	return n
}

// Register adds a client. It takes effect before it returns so the first
// snapshot is never dropped.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.sessions[client.SessionID] == nil {
		h.sessions[client.SessionID] = make(map[*Client]struct{})
	}
	h.sessions[client.SessionID][client] = struct{}{}
	total := h.countLocked()
	h.mu.Unlock()
	log.Printf("✅ [WEBSOCKET] Client connected: user %s (%s), %d open", client.UserID, client.UserRole, total)
}

// Unregister removes a client; repeated calls are harmless.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.removeLocked(client) {
		log.Printf("🔴 [WEBSOCKET] Client disconnected: user %s, %d open", client.UserID, h.countLocked())
	}
}

// SendToClient queues data for one connection. It reports false when the
// client is gone or its buffer is full (the client is then dropped).
func (h *Hub) SendToClient(client *Client, data interface{}) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal message: %v", err)
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[client.SessionID][client]; !ok {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		h.removeLocked(client)
		log.Printf("⚠️ Client buffer full, disconnecting: %s", client.UserID)
		return false
	}
}

// DisconnectSession closes every connection opened under sessionID after
// telling it the session has ended. An empty id matches nothing.
func (h *Hub) DisconnectSession(sessionID string, redirect string) int {
	if sessionID == "" {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for client := range h.sessions[sessionID] {
		if h.endLocked(client, redirect) {
			n++
		}
	}
	if n > 0 {
		log.Printf("🔐 [WEBSOCKET] Closed %d stream(s) for session %s", n, sessionID)
	}
	return n
}

// End closes one connection after telling it the session has ended.
func (h *Hub) End(client *Client, redirect string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.endLocked(client, redirect)
}

func (h *Hub) endLocked(client *Client, redirect string) bool {
	farewell, _ := json.Marshal(sessionEnded{Type: "session_invalidated", Redirect: redirect})
	if _, ok := h.sessions[client.SessionID][client]; !ok {
		return false
	}
	select {
	case client.send <- farewell:
	default:
	}
	return h.removeLocked(client)
}

// Subscribe closes a session's streams whenever the gateway invalidates
// it. It returns the unsubscribe function.
func (h *Hub) Subscribe(bus *gateway.InvalidationBus, redirect string) func() {
	return bus.Subscribe(func(ev gateway.InvalidationEvent) {
		h.DisconnectSession(ev.SessionID, redirect)
	})
}
