package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/techwave453-del/CYA-kenya/internal/auth"
	"github.com/techwave453-del/CYA-kenya/internal/observability"
	"github.com/techwave453-del/CYA-kenya/internal/presence"
	"github.com/techwave453-del/CYA-kenya/internal/rabbitmq"
)

// clientFrame is a message sent by a client over the websocket.
type clientFrame struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	ID       string `json:"id,omitempty"`
}

// Handler upgrades chat websocket connections and runs their read loop.
type Handler struct {
	hub         *Hub
	broadcaster Broadcaster
	tracker     *presence.Tracker
	jwtSecret   []byte
	publisher   rabbitmq.Publisher
}

// NewHandler constructs a websocket Handler. broadcaster is usually the hub
// itself, or a bridge wrapping it.
func NewHandler(hub *Hub, broadcaster Broadcaster, tracker *presence.Tracker, jwtSecret []byte, publisher rabbitmq.Publisher) *Handler {
	return &Handler{hub: hub, broadcaster: broadcaster, tracker: tracker, jwtSecret: jwtSecret, publisher: publisher}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client. The connection
// starts anonymous; an authenticate frame binds it to a username. When the
// request carries a valid bearer token, its username overrides whatever the
// authenticate frame claims.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("cya-kenya/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	tokenUsername := h.usernameFromToken(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		ConnectedAt: time.Now(),
	}
	h.hub.Add(conn, info)
	h.tracker.Connect(info.ConnID)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, "ws_connect", info, "")

	go h.readLoop(conn, info, tokenUsername)
}

func (h *Handler) readLoop(conn *websocket.Conn, info ConnInfo, tokenUsername string) {
	var closeReason string
	defer func() {
		h.hub.Remove(conn)
		if username, last := h.tracker.Disconnect(info.ConnID); last {
			h.broadcaster.BroadcastUserOffline(username)
		}
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(context.Background(), "ws_disconnect", info, closeReason)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "authenticate":
			username := frame.Username
			if tokenUsername != "" {
				username = tokenUsername
			}
			if username == "" {
				continue
			}
			if first := h.tracker.Authenticate(info.ConnID, username); first {
				h.broadcaster.BroadcastUserOnline(username)
			}
			h.hub.SendTo(conn, onlineUsersEvent(h.tracker.Online()))

		case "requestOnlineUsers":
			h.hub.SendTo(conn, onlineUsersEvent(h.tracker.Online()))

		case "messageDeleted":
			// Client-initiated notification after its own REST delete
			// succeeded; relayed so other clients learn without polling.
			if frame.ID != "" {
				h.broadcaster.BroadcastDeletion(frame.ID)
			}
		}
	}
}

func (h *Handler) usernameFromToken(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
	} else {
		parts := strings.SplitN(token, " ", 2)
		if len(parts) != 2 {
			return ""
		}
		token = parts[1]
	}
	if token == "" {
		return ""
	}

	claims, err := auth.ParseToken(h.jwtSecret, token)
	if err != nil {
		return ""
	}
	return claims.Username
}

func (h *Handler) publishLifecycle(ctx context.Context, event string, info ConnInfo, reason string) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.Publish(ctx, "chat.ws", map[string]interface{}{
		"event":       event,
		"conn_id":     info.ConnID,
		"ip":          info.IP,
		"request_id":  info.RequestID,
		"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
		"reason":      reason,
	})
	if err != nil {
		log.Printf("ws lifecycle publish failed: %v", err)
	}
}
