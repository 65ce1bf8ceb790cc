package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"profile-service/internal/mocks"
)

func TestEmitAudit_PublishesEnvelope(t *testing.T) {
	pub := &mocks.MockPublisher{}
	pub.On("Publish", mock.Anything, AuditRoutingKey, mock.Anything).Return(nil)
	emitter := NewAuditEmitter(pub, "profile-service", "test", nil)

	userID := int64(7)
	emitter.EmitAudit(context.Background(), LevelInfo, "Friend request accepted", "req-1", &userID)

	pub.AssertCalled(t, "Publish", mock.Anything, AuditRoutingKey, mock.MatchedBy(func(e Envelope) bool {
		return e.Service == "profile-service" &&
			e.Environment == "test" &&
			e.RequestID == "req-1" &&
			e.EventType == "audit_log" &&
			e.EventID != "" &&
			e.UserID != nil && *e.UserID == 7 &&
			e.Payload.Level == LevelInfo &&
			e.Payload.Text == "Friend request accepted"
	}))
}

func TestEmitAudit_FailureIsLogged(t *testing.T) {
	pub := &mocks.MockPublisher{}
	pub.On("Publish", mock.Anything, AuditRoutingKey, mock.Anything).Return(errors.New("channel closed"))
	core, logs := observer.New(zap.WarnLevel)
	emitter := NewAuditEmitter(pub, "profile-service", "test", zap.New(core))

	emitter.EmitAudit(context.Background(), LevelError, "internal error", "req-2", nil)

	assert.Equal(t, 1, logs.FilterMessage("failed to publish audit log").Len())
}

func TestEmitAudit_NilEmitter(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.EmitAudit(context.Background(), LevelInfo, "x", "", nil)
	})
}
