package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/techwave453-del/CYA-kenya/internal/models"
	"github.com/techwave453-del/CYA-kenya/internal/observability"
)

// Bridge mirrors every broadcast to a Redis channel so multiple service
// instances share one logical chat room. Events received from other
// instances are re-emitted locally only; cross-instance state (presence,
// typing) stays per-process.
type Bridge struct {
	hub        *Hub
	client     *redis.Client
	channel    string
	instanceID string
}

// envelope wraps a chat event with the publishing instance's identity so
// subscribers can skip their own messages.
type envelope struct {
	Origin string           `json:"origin"`
	Event  models.ChatEvent `json:"event"`
}

// NewBridge creates a bridge around hub publishing on channel.
func NewBridge(hub *Hub, client *redis.Client, channel string) *Bridge {
	return &Bridge{hub: hub, client: client, channel: channel, instanceID: uuid.NewString()}
}

// Run subscribes to the channel and re-emits foreign events until ctx is
// cancelled.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
				log.Printf("redis bridge decode error: %v", err)
				continue
			}
			if env.Origin == b.instanceID {
				continue
			}
			b.hub.Emit(env.Event)
		case <-ctx.Done():
			return
		}
	}
}

// emit fans out locally and mirrors the event to the channel.
func (b *Bridge) emit(event models.ChatEvent) {
	b.hub.Emit(event)

	data, err := json.Marshal(envelope{Origin: b.instanceID, Event: event})
	if err != nil {
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, data).Err(); err != nil {
		log.Printf("redis bridge publish error: %v", err)
		observability.IncBridgePublishError()
	}
}

func (b *Bridge) BroadcastMessage(msg models.Message) {
	b.emit(models.ChatEvent{Type: models.EventNewMessage, Message: &msg})
}

func (b *Bridge) BroadcastDeletion(messageID string) {
	b.emit(models.ChatEvent{Type: models.EventMessageDeleted, MessageID: messageID})
}

func (b *Bridge) BroadcastClear() {
	b.emit(models.ChatEvent{Type: models.EventChatCleared})
}

func (b *Bridge) BroadcastReaction(messageID, emoji, username string, added bool) {
	event := models.EventReactionRemoved
	if added {
		event = models.EventReactionAdded
	}
	b.emit(models.ChatEvent{Type: event, MessageID: messageID, Emoji: emoji, Username: username})
}

func (b *Bridge) BroadcastUserOnline(username string) {
	b.emit(models.ChatEvent{Type: models.EventUserOnline, Username: username})
}

func (b *Bridge) BroadcastUserOffline(username string) {
	b.emit(models.ChatEvent{Type: models.EventUserOffline, Username: username})
}

var _ Broadcaster = (*Bridge)(nil)
