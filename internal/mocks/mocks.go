package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/techwave453-del/CYA-kenya/internal/models"
	"github.com/techwave453-del/CYA-kenya/internal/repositories"
	"github.com/techwave453-del/CYA-kenya/internal/ws"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, username, role, content, replyTo string) (models.Message, error) {
	args := m.Called(ctx, username, role, content, replyTo)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListRecent(ctx context.Context) ([]models.Message, error) {
	args := m.Called(ctx)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListSince(ctx context.Context, t time.Time) ([]models.Message, error) {
	args := m.Called(ctx, t)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Delete(ctx context.Context, id, username, role string) error {
	args := m.Called(ctx, id, username, role)
	return args.Error(0)
}

func (m *MessageRepositoryMock) Clear(ctx context.Context, role string) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ToggleReaction(ctx context.Context, id, username, emoji string) (models.Reactions, bool, error) {
	args := m.Called(ctx, id, username, emoji)
	var reactions models.Reactions
	if val := args.Get(0); val != nil {
		reactions = val.(models.Reactions)
	}
	return reactions, args.Bool(1), args.Error(2)
}

func (m *MessageRepositoryMock) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) BroadcastMessage(msg models.Message) {
	m.Called(msg)
}

func (m *BroadcasterMock) BroadcastDeletion(messageID string) {
	m.Called(messageID)
}

func (m *BroadcasterMock) BroadcastClear() {
	m.Called()
}

func (m *BroadcasterMock) BroadcastReaction(messageID, emoji, username string, added bool) {
	m.Called(messageID, emoji, username, added)
}

func (m *BroadcasterMock) BroadcastUserOnline(username string) {
	m.Called(username)
}

func (m *BroadcasterMock) BroadcastUserOffline(username string) {
	m.Called(username)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ ws.Broadcaster = (*BroadcasterMock)(nil)
