package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/techwave453-del/CYA-kenya/internal/mocks"
	"github.com/techwave453-del/CYA-kenya/internal/models"
	"github.com/techwave453-del/CYA-kenya/internal/presence"
	"github.com/techwave453-del/CYA-kenya/internal/repositories"
)

func setupChatRouter(handler *ChatHandler, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("username", "alice")
		c.Set("role", role)
		c.Next()
	})
	r.GET("/api/chat", handler.GetMessages)
	r.POST("/api/chat", handler.PostMessage)
	r.GET("/api/chat/since/:timestamp", handler.GetMessagesSince)
	r.DELETE("/api/chat/clear", handler.ClearMessages)
	r.DELETE("/api/chat/:id", handler.DeleteMessage)
	r.POST("/api/chat/:id/reaction", handler.ToggleReaction)
	r.POST("/api/chat/typing", handler.SetTyping)
	r.GET("/api/chat/typing/users", handler.GetTypingUsers)
	r.GET("/api/chat/online", handler.GetOnlineUsers)
	return r
}

func newTestHandler(repo repositories.MessageRepository, broadcaster *mocks.BroadcasterMock) *ChatHandler {
	return NewChatHandler(repo, broadcaster, presence.NewTypingTracker(presence.TypingTimeout), presence.NewTracker(), nil)
}

func TestGetMessagesSuccess(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := newTestHandler(repo, new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	repo.On("ListRecent", mock.Anything).Return([]models.Message{{ID: "m1", Username: "alice", Content: "hi"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "m1", resp.Messages[0].ID)
	repo.AssertExpectations(t)
}

func TestGetMessagesRepoError(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := newTestHandler(repo, new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	repo.On("ListRecent", mock.Anything).Return(([]models.Message)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	repo.AssertExpectations(t)
}

func TestPostMessageSuccess(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	handler := newTestHandler(repo, broadcaster)
	router := setupChatRouter(handler, "general")

	stored := models.Message{ID: "m1", Username: "alice", Role: "general", Content: "hello"}
	repo.On("Append", mock.Anything, "alice", "general", "hello", "").Return(stored, nil).Once()
	broadcaster.On("BroadcastMessage", stored).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestPostMessageEmptyBody(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := newTestHandler(repo, new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	repo.On("Append", mock.Anything, "alice", "general", "   ", "").Return(models.Message{}, repositories.ErrEmptyMessage).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertExpectations(t)
}

func TestPostMessageWithReply(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	handler := newTestHandler(repo, broadcaster)
	router := setupChatRouter(handler, "general")

	stored := models.Message{ID: "m2", Username: "alice", Content: "agreed", ReplyTo: "m1", ReplyToUsername: "bob"}
	repo.On("Append", mock.Anything, "alice", "general", "agreed", "m1").Return(stored, nil).Once()
	broadcaster.On("BroadcastMessage", stored).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message":"agreed","replyTo":"m1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestGetMessagesSince(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := newTestHandler(repo, new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.On("ListSince", mock.Anything, since).Return([]models.Message{{ID: "m9"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chat/since/2026-01-02T03:04:05Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestGetMessagesSinceInvalidTimestamp(t *testing.T) {
	handler := newTestHandler(new(mocks.MessageRepositoryMock), new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	req := httptest.NewRequest(http.MethodGet, "/api/chat/since/notatime", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMessageForbidden(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := newTestHandler(repo, new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	repo.On("Delete", mock.Anything, "m1", "alice", "general").Return(repositories.ErrNotAllowed).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/chat/m1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	repo.AssertExpectations(t)
}

func TestDeleteMessageNotFound(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := newTestHandler(repo, new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	repo.On("Delete", mock.Anything, "nope", "alice", "general").Return(repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/chat/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}

func TestDeleteMessageSuccess(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	handler := newTestHandler(repo, broadcaster)
	router := setupChatRouter(handler, "general")

	repo.On("Delete", mock.Anything, "m1", "alice", "general").Return(nil).Once()
	broadcaster.On("BroadcastDeletion", "m1").Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/chat/m1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestClearMessagesForbiddenForGeneral(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := newTestHandler(repo, new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	repo.On("Clear", mock.Anything, "general").Return(repositories.ErrNotAllowed).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/chat/clear", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	repo.AssertExpectations(t)
}

func TestClearMessagesSuccess(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	handler := newTestHandler(repo, broadcaster)
	router := setupChatRouter(handler, "moderator")

	repo.On("Clear", mock.Anything, "moderator").Return(nil).Once()
	broadcaster.On("BroadcastClear").Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/chat/clear", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestToggleReactionSuccess(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	handler := newTestHandler(repo, broadcaster)
	router := setupChatRouter(handler, "general")

	repo.On("ToggleReaction", mock.Anything, "m1", "alice", "👍").Return(models.Reactions{"👍": {"alice"}}, true, nil).Once()
	broadcaster.On("BroadcastReaction", "m1", "👍", "alice", true).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chat/m1/reaction", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestToggleReactionMissingEmoji(t *testing.T) {
	handler := newTestHandler(new(mocks.MessageRepositoryMock), new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	req := httptest.NewRequest(http.MethodPost, "/api/chat/m1/reaction", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleReactionNotFound(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := newTestHandler(repo, new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	repo.On("ToggleReaction", mock.Anything, "nope", "alice", "👍").Return(nil, false, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chat/nope/reaction", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}

func TestTypingRoundTrip(t *testing.T) {
	handler := newTestHandler(new(mocks.MessageRepositoryMock), new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	req := httptest.NewRequest(http.MethodPost, "/api/chat/typing", bytes.NewBufferString(`{"isTyping":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// alice is excluded from her own typing list
	req = httptest.NewRequest(http.MethodGet, "/api/chat/typing/users", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TypingUsers map[string]bool `json:"typingUsers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.TypingUsers)

	// stopping removes the entry immediately
	req = httptest.NewRequest(http.MethodPost, "/api/chat/typing", bytes.NewBufferString(`{"isTyping":false}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetOnlineUsersEmpty(t *testing.T) {
	handler := newTestHandler(new(mocks.MessageRepositoryMock), new(mocks.BroadcasterMock))
	router := setupChatRouter(handler, "general")

	req := httptest.NewRequest(http.MethodGet, "/api/chat/online", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		OnlineUsers []string `json:"onlineUsers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.OnlineUsers)
}
