package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/techwave453-del/CYA-kenya/internal/mocks"
)

func TestAuditEmitBuildsEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "chat.audit", "cya-kenya-chat", "test")

	publisher.On("Publish", mock.Anything, "chat.audit", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.EventType == "audit_log" &&
			envelope.Username == "mod" &&
			envelope.Payload.Action == "chat_cleared"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "chat_cleared", "all messages removed", "req-1", "mod")
	publisher.AssertExpectations(t)
}

func TestAuditEmitNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "noop", "", "", "")
	})
}

func TestAuditEmitSwallowsPublishErrors(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "chat.audit", "cya-kenya-chat", "test")

	publisher.On("Publish", mock.Anything, "chat.audit", mock.Anything).Return(assert.AnError).Once()

	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "message_deleted", "message m1 removed", "req-2", "mod")
	})
	publisher.AssertExpectations(t)
}
