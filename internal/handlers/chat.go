package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/techwave453-del/CYA-kenya/internal/models"
	"github.com/techwave453-del/CYA-kenya/internal/presence"
	"github.com/techwave453-del/CYA-kenya/internal/repositories"
	"github.com/techwave453-del/CYA-kenya/internal/telemetry"
	"github.com/techwave453-del/CYA-kenya/internal/ws"
)

// ChatHandler serves the community chat REST surface.
type ChatHandler struct {
	repo        repositories.MessageRepository
	broadcaster ws.Broadcaster
	typing      *presence.TypingTracker
	tracker     *presence.Tracker
	audit       *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(repo repositories.MessageRepository, broadcaster ws.Broadcaster, typing *presence.TypingTracker, tracker *presence.Tracker, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		repo:        repo,
		broadcaster: broadcaster,
		typing:      typing,
		tracker:     tracker,
		audit:       audit,
	}
}

// GetMessages returns the retained message window, oldest-first.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	msgs, err := h.repo.ListRecent(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chat messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message and broadcasts it.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
		ReplyTo string `json:"replyTo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}

	username := c.GetString("username")
	role := c.GetString("role")

	msg, err := h.repo.Append(c.Request.Context(), username, role, req.Message, req.ReplyTo)
	if err != nil {
		if errors.Is(err, repositories.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	h.broadcaster.BroadcastMessage(msg)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// GetMessagesSince returns messages created after the given timestamp; the
// polling fallback for clients without a live websocket.
func (h *ChatHandler) GetMessagesSince(c *gin.Context) {
	raw, err := url.QueryUnescape(c.Param("timestamp"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timestamp"})
		return
	}
	since, err := parseTimestamp(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timestamp"})
		return
	}

	msgs, err := h.repo.ListSince(c.Request.Context(), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// ClearMessages wipes the whole chat. Registered before the /:id route.
func (h *ChatHandler) ClearMessages(c *gin.Context) {
	username := c.GetString("username")
	role := c.GetString("role")

	if err := h.repo.Clear(c.Request.Context(), role); err != nil {
		if errors.Is(err, repositories.ErrNotAllowed) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to clear messages"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear messages"})
		return
	}

	h.broadcaster.BroadcastClear()
	h.audit.Emit(c.Request.Context(), "chat_cleared", "all messages removed", requestIDFromContext(c), username)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All messages cleared"})
}

// DeleteMessage hard-deletes a single message (owner or privileged role).
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	id := c.Param("id")
	username := c.GetString("username")
	role := c.GetString("role")

	if err := h.repo.Delete(c.Request.Context(), id, username, role); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		case errors.Is(err, repositories.ErrNotAllowed):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this message"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		}
		return
	}

	h.broadcaster.BroadcastDeletion(id)
	if models.IsPrivileged(role) {
		h.audit.Emit(c.Request.Context(), "message_deleted", fmt.Sprintf("message %s removed", id), requestIDFromContext(c), username)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleReaction flips the caller's emoji reaction on a message.
func (h *ChatHandler) ToggleReaction(c *gin.Context) {
	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Emoji required"})
		return
	}

	id := c.Param("id")
	username := c.GetString("username")

	reactions, added, err := h.repo.ToggleReaction(c.Request.Context(), id, username, req.Emoji)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add reaction"})
		return
	}

	h.broadcaster.BroadcastReaction(id, req.Emoji, username, added)
	c.JSON(http.StatusOK, gin.H{"success": true, "reactions": reactions})
}

// SetTyping records or clears the caller's typing signal.
func (h *ChatHandler) SetTyping(c *gin.Context) {
	var req struct {
		IsTyping bool `json:"isTyping"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	username := c.GetString("username")
	if req.IsTyping {
		h.typing.Set(username)
	} else {
		h.typing.Clear(username)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetTypingUsers returns who is composing right now, minus the caller.
func (h *ChatHandler) GetTypingUsers(c *gin.Context) {
	active := h.typing.Active(c.GetString("username"))
	typingUsers := make(map[string]bool, len(active))
	for _, u := range active {
		typingUsers[u] = true
	}
	c.JSON(http.StatusOK, gin.H{"typingUsers": typingUsers})
}

// GetOnlineUsers mirrors the onlineUsers realtime event for poll-only
// clients.
func (h *ChatHandler) GetOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"onlineUsers": h.tracker.Online()})
}

// parseTimestamp accepts RFC3339 with or without sub-second precision.
func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
