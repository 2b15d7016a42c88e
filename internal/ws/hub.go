package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/techwave453-del/CYA-kenya/internal/models"
	"github.com/techwave453-del/CYA-kenya/internal/observability"
)

// Broadcaster fans chat events out to every connected client. Delivery is
// best-effort and at-most-once; clients that miss events catch up through
// the polling API.
type Broadcaster interface {
	BroadcastMessage(msg models.Message)
	BroadcastDeletion(messageID string)
	BroadcastClear()
	BroadcastReaction(messageID, emoji, username string, added bool)
	BroadcastUserOnline(username string)
	BroadcastUserOffline(username string)
}

// Hub maintains the set of active websocket connections for the single
// community chat room.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]ConnInfo
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]ConnInfo)}
}

// Add registers a websocket connection.
func (h *Hub) Add(conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = info
}

// Remove drops a websocket connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Emit writes the event to every connected client. Connections that fail
// the write are closed and evicted.
func (h *Hub) Emit(event models.ChatEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	observability.IncBroadcast(event.Type)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.Remove(conn)
			observability.IncWSEvent("ws_error")
		}
	}
}

// SendTo writes the event to a single connection.
func (h *Hub) SendTo(conn *websocket.Conn, event models.ChatEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("websocket write error: %v", err)
		conn.Close()
		h.Remove(conn)
		observability.IncWSEvent("ws_error")
	}
}

// BroadcastMessage announces a newly stored message.
func (h *Hub) BroadcastMessage(msg models.Message) {
	h.Emit(models.ChatEvent{Type: models.EventNewMessage, Message: &msg})
}

// BroadcastDeletion announces a hard-deleted message.
func (h *Hub) BroadcastDeletion(messageID string) {
	h.Emit(models.ChatEvent{Type: models.EventMessageDeleted, MessageID: messageID})
}

// BroadcastClear announces that the whole chat was wiped.
func (h *Hub) BroadcastClear() {
	h.Emit(models.ChatEvent{Type: models.EventChatCleared})
}

// BroadcastReaction announces a toggled reaction.
func (h *Hub) BroadcastReaction(messageID, emoji, username string, added bool) {
	event := models.EventReactionRemoved
	if added {
		event = models.EventReactionAdded
	}
	h.Emit(models.ChatEvent{Type: event, MessageID: messageID, Emoji: emoji, Username: username})
}

// BroadcastUserOnline announces a user's first live connection.
func (h *Hub) BroadcastUserOnline(username string) {
	h.Emit(models.ChatEvent{Type: models.EventUserOnline, Username: username})
}

// BroadcastUserOffline announces that a user's last connection closed.
func (h *Hub) BroadcastUserOffline(username string) {
	h.Emit(models.ChatEvent{Type: models.EventUserOffline, Username: username})
}

func onlineUsersEvent(users []string) models.ChatEvent {
	return models.ChatEvent{Type: models.EventOnlineUsers, Users: users}
}

var _ Broadcaster = (*Hub)(nil)
