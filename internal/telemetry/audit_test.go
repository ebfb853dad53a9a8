package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-client/internal/mocks"
	"chat-client/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	var got telemetry.AuditEnvelope
	publisher.On("Publish", mock.Anything, "audit.chat_client", mock.Anything).
		Run(func(args mock.Arguments) {
			got = args.Get(2).(telemetry.AuditEnvelope)
		}).
		Return(nil).Once()

	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat_client", "chat-client", "test")
	userID := "u1"
	emitter.Emit(context.Background(), "INFO", "room joined", "req-1", &userID)

	publisher.AssertExpectations(t)
	require.Equal(t, 1, got.SchemaVersion)
	require.Equal(t, "audit_log", got.EventType)
	require.Equal(t, "chat-client", got.Service)
	require.Equal(t, "test", got.Environment)
	require.Equal(t, "req-1", got.RequestID)
	require.NotNil(t, got.UserID)
	require.Equal(t, "u1", *got.UserID)
	require.Equal(t, "INFO", got.Payload.Level)
	require.Equal(t, "room joined", got.Payload.Text)
	require.NotEmpty(t, got.OccurredAt)
}

func TestEmitToleratesPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat_client", "chat-client", "test")
	emitter.Emit(context.Background(), "ERROR", "message delete failed", "req-2", nil)

	publisher.AssertExpectations(t)
}

func TestNilEmitterAndNilPublisherDropEvents(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	emitter.Emit(context.Background(), "INFO", "noop", "req-3", nil)

	emitter = telemetry.NewAuditEmitter(nil, "audit.chat_client", "chat-client", "test")
	emitter.Emit(context.Background(), "INFO", "noop", "req-4", nil)
}
