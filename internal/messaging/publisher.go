package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Metadata keys set on every published message.
const (
	MetadataTopic       = "topic"
	MetadataPublishedAt = "published_at"
)

// Publish is a function that publishes a typed event.
type Publish[T any] func(ctx context.Context, event *T) error

// NewPublishFunc creates a typed publish function for a specific topic.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(MetadataTopic, topic)
		msg.Metadata.Set(MetadataPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))
		msg.SetContext(ctx)

		return publisher.Publish(topic, msg)
	}
}

// NoopPublish discards every event. It is used when events are disabled.
func NoopPublish[T any]() Publish[T] {
	return func(context.Context, *T) error { return nil }
}

// PublisherGroup owns the publisher shared by every typed publish function.
type PublisherGroup struct {
	publisher message.Publisher
}

// NewPublisherGroup creates a new publisher group. A nil publisher disables publishing.
func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

// Enabled reports whether events are published at all.
func (g *PublisherGroup) Enabled() bool {
	return g.publisher != nil
}

// Publisher returns the underlying message publisher.
func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the underlying publisher.
func (g *PublisherGroup) Shutdown() error {
	if g.publisher == nil {
		return nil
	}

	return g.publisher.Close()
}

// PublishFor returns a typed publish function for topic, or a no-op one when
// the group is disabled.
func PublishFor[T any](g *PublisherGroup, topic string) Publish[T] {
	if !g.Enabled() {
		return NoopPublish[T]()
	}

	return NewPublishFunc[T](g.publisher, topic)
}
