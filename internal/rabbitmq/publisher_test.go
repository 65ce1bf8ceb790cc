package rabbitmq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNoopPublisherDropsEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	pub := NewNoopPublisher(zap.New(core))

	require.NoError(t, pub.Publish(context.Background(), BadgeAwarded, BadgeAwardedEvent{UserID: 1, Code: "FIRST_STEPS"}))
	require.NoError(t, pub.Close())

	entries := logs.FilterMessage("rabbitmq not configured; dropping event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, BadgeAwarded, entries[0].ContextMap()["routing_key"])
}

func TestClosedPublisherReturnsErrClosed(t *testing.T) {
	pub := &publisher{exchangeName: "app.events"}

	err := pub.Publish(context.Background(), FriendshipRemoved, FriendshipEvent{UserID: 1, FriendID: 2})
	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.NoError(t, pub.Close())
}
