package ws

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
	"github.com/gofiber/websocket/v2"
)

// Conn is the connection handle the hub tracks. *websocket.Conn satisfies
// it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteJSON(v interface{}) error
	Close() error
}

// ClientConnection wraps a connection with metadata
type ClientConnection struct {
	Conn        Conn
	UserID      uint
	ConnectedAt time.Time
}

// Hub is the presence directory: the process-wide map of user ID to live
// connection. It starts empty, is rebuilt empty on restart, and every
// register/unregister pushes the full online snapshot to all connections.
type Hub struct {
	clients    map[uint]*ClientConnection
	clientsMux sync.RWMutex
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]*ClientConnection),
	}
}

// Register adds a client connection. A second registration for the same
// user replaces the first: last connect wins, the stale socket is closed.
func (h *Hub) Register(userID uint, conn Conn) {
	h.clientsMux.Lock()
	if prev, exists := h.clients[userID]; exists {
		_ = prev.Conn.Close()
	}
	h.clients[userID] = &ClientConnection{
		Conn:        conn,
		UserID:      userID,
		ConnectedAt: time.Now(),
	}
	count := len(h.clients)
	h.clientsMux.Unlock()

	log.Printf("User %d connected to hub (total: %d)", userID, count)
	h.broadcastOnlineSnapshot()
}

// Unregister removes whatever connection the user has. Safe to call for a
// user that is not registered.
func (h *Hub) Unregister(userID uint) {
	h.drop(userID, nil)
}

// Drop removes the user's connection only if it is still the given one,
// so a stale disconnect cannot evict a newer registration.
func (h *Hub) Drop(userID uint, conn Conn) {
	h.drop(userID, conn)
}

func (h *Hub) drop(userID uint, conn Conn) {
	h.clientsMux.Lock()
	client, exists := h.clients[userID]
	if exists && (conn == nil || client.Conn == conn) {
		delete(h.clients, userID)
	} else {
		exists = false
	}
	count := len(h.clients)
	h.clientsMux.Unlock()

	if exists {
		log.Printf("User %d disconnected from hub (total: %d)", userID, count)
		h.broadcastOnlineSnapshot()
	}
}

// Lookup returns the user's live connection, if any.
func (h *Hub) Lookup(userID uint) (Conn, bool) {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	client, exists := h.clients[userID]
	if !exists {
		return nil, false
	}
	return client.Conn, true
}

// IsOnline checks if a user is connected
func (h *Hub) IsOnline(userID uint) bool {
	_, exists := h.Lookup(userID)
	return exists
}

// ListOnline returns the currently connected user IDs, ascending.
func (h *Hub) ListOnline() []uint {
	h.clientsMux.RLock()
	users := make([]uint, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	h.clientsMux.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every connected user.
func (h *Hub) Broadcast(event service.Event) {
	h.clientsMux.RLock()
	targets := make([]*ClientConnection, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.clientsMux.RUnlock()

	h.send(targets, event)
}

// BroadcastToUsers delivers an event to each listed user that currently
// holds a connection. Offline users are silently skipped: no queue, no
// retry, no acknowledgment. The persisted record is the durable copy.
func (h *Hub) BroadcastToUsers(userIDs []uint, event service.Event) {
	h.clientsMux.RLock()
	targets := make([]*ClientConnection, 0, len(userIDs))
	for _, userID := range userIDs {
		if client, exists := h.clients[userID]; exists {
			targets = append(targets, client)
		}
	}
	h.clientsMux.RUnlock()

	h.send(targets, event)
}

func (h *Hub) send(targets []*ClientConnection, event service.Event) {
	if len(targets) == 0 {
		return
	}
	jsonData, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event.Type, err)
		return
	}

	for _, client := range targets {
		if err := client.Conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			log.Printf("Error sending %s to user %d: %v", event.Type, client.UserID, err)
			// Connection is dead; dropping it also refreshes the snapshot.
			h.Drop(client.UserID, client.Conn)
		}
	}
}

func (h *Hub) broadcastOnlineSnapshot() {
	h.Broadcast(service.Event{
		Type:    service.EventOnlineUsers,
		Payload: service.OnlineUsersPayload{UserIDs: h.ListOnline()},
	})
}
