package services

import (
	"context"

	"go.uber.org/zap"

	"profile-service/internal/observability"
	"profile-service/internal/rabbitmq"
)

// eventSink publishes domain events after a mutation has been committed.
// Delivery is best effort; a failure is logged and never fails the caller.
type eventSink struct {
	publisher rabbitmq.Publisher
	logger    *zap.Logger
}

func newEventSink(publisher rabbitmq.Publisher, logger *zap.Logger) eventSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = rabbitmq.NewNoopPublisher(logger)
	}
	return eventSink{publisher: publisher, logger: logger}
}

func (s eventSink) publish(ctx context.Context, routingKey string, event any) {
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		observability.IncAMQPPublishError()
		s.logger.Warn("failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
