package models

// Event names broadcast over the realtime channel.
const (
	EventNewMessage      = "newMessage"
	EventMessageDeleted  = "messageDeleted"
	EventChatCleared     = "chatCleared"
	EventReactionAdded   = "reactionAdded"
	EventReactionRemoved = "reactionRemoved"
	EventUserOnline      = "userOnline"
	EventUserOffline     = "userOffline"
	EventOnlineUsers     = "onlineUsers"
)

// ChatEvent is broadcast through websockets.
type ChatEvent struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID string   `json:"messageId,omitempty"`
	Emoji     string   `json:"emoji,omitempty"`
	Username  string   `json:"username,omitempty"`
	Users     []string `json:"users,omitempty"`
}
