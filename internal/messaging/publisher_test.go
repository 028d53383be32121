package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortkv/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
	closed     bool
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topic = topic
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.closed = true

	return m.closeErr
}

type publishTestEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes event successfully", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "test.topic")

		err := publish(context.Background(), &publishTestEvent{ID: "123", Name: "test"})

		require.NoError(t, err)
		assert.Equal(t, "test.topic", mock.topic)
		require.Len(t, mock.messages, 1)
		assert.JSONEq(t, `{"id":"123","name":"test"}`, string(mock.messages[0].Payload))
		assert.Equal(t, "test.topic", mock.messages[0].Metadata.Get(messaging.MetadataTopic))
		assert.NotEmpty(t, mock.messages[0].Metadata.Get(messaging.MetadataPublishedAt))
	})

	t.Run("returns error when publish fails", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("publish error")}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "test.topic")

		err := publish(context.Background(), &publishTestEvent{ID: "123"})

		assert.Error(t, err)
	})
}

func TestPublisherGroup(t *testing.T) {
	t.Run("returns underlying publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		assert.Equal(t, mock, group.Publisher())
		assert.True(t, group.Enabled())
	})

	t.Run("shuts down successfully", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		require.NoError(t, group.Shutdown())
		assert.True(t, mock.closed)
	})

	t.Run("returns error when close fails", func(t *testing.T) {
		mock := &mockPublisher{closeErr: errors.New("close error")}
		group := messaging.NewPublisherGroup(mock)

		assert.Error(t, group.Shutdown())
	})

	t.Run("disabled group publishes nothing", func(t *testing.T) {
		group := messaging.NewPublisherGroup(nil)
		publish := messaging.PublishFor[publishTestEvent](group, "test.topic")

		assert.False(t, group.Enabled())
		assert.NoError(t, publish(context.Background(), &publishTestEvent{ID: "1"}))
		assert.NoError(t, group.Shutdown())
	})

	t.Run("shared publisher is not closed by the group", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(messaging.SharedPublisher(mock))

		require.NoError(t, group.Shutdown())
		assert.False(t, mock.closed)
	})
}
