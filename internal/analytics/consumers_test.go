package analytics_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/shortkv/internal/analytics"
	"github.com/serroba/shortkv/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	mu       sync.Mutex
	channels map[string]chan *message.Message
	closed   bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{channels: map[string]chan *message.Message{
		analytics.TopicURLCreated:  make(chan *message.Message, 10),
		analytics.TopicURLAccessed: make(chan *message.Message, 10),
	}}
}

func (m *mockSubscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	return m.channels[topic], nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true

		for _, ch := range m.channels {
			close(ch)
		}
	}

	return nil
}

type recordingStore struct {
	mu       sync.Mutex
	created  []*analytics.URLCreatedEvent
	accessed []*analytics.URLAccessedEvent
}

func (s *recordingStore) SaveURLCreated(_ context.Context, e *analytics.URLCreatedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created = append(s.created, e)

	return nil
}

func (s *recordingStore) SaveURLAccessed(_ context.Context, e *analytics.URLAccessedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessed = append(s.accessed, e)

	return nil
}

func send(t *testing.T, ch chan *message.Message, event any) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	msg := message.NewMessage(uuid.NewString(), payload)
	ch <- msg

	return msg
}

func waitAck(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("message was nacked")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack")
	}
}

func TestRegisterConsumers(t *testing.T) {
	sub := newMockSubscriber()
	rec := &recordingStore{}

	group := messaging.NewConsumerGroup(sub, zap.NewNop())
	analytics.RegisterConsumers(group, rec, zap.NewNop())
	require.Equal(t, 2, group.Len())

	require.NoError(t, group.Start(context.Background()))

	created := send(t, sub.channels[analytics.TopicURLCreated], &analytics.URLCreatedEvent{
		Code:       "10wBU",
		RawURL:     "https://example.com",
		ExpireTime: 1_700_000_060_000,
	})
	accessed := send(t, sub.channels[analytics.TopicURLAccessed], &analytics.URLAccessedEvent{
		Code:     "10wBU",
		Referrer: "https://ref.example",
	})

	waitAck(t, created)
	waitAck(t, accessed)

	require.NoError(t, group.Shutdown())

	rec.mu.Lock()
	defer rec.mu.Unlock()

	require.Len(t, rec.created, 1)
	assert.Equal(t, int64(1_700_000_060_000), rec.created[0].ExpireTime)
	require.Len(t, rec.accessed, 1)
	assert.Equal(t, "https://ref.example", rec.accessed[0].Referrer)
}
