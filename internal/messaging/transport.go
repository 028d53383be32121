package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// Transport names an event transport.
type Transport string

const (
	TransportNone      Transport = "none"
	TransportRedis     Transport = "redis"
	TransportGoChannel Transport = "gochannel"
)

// ParseTransport validates a transport name.
func ParseTransport(s string) (Transport, error) {
	switch t := Transport(s); t {
	case TransportNone, TransportRedis, TransportGoChannel:
		return t, nil
	default:
		return "", fmt.Errorf("unknown event transport %q", s)
	}
}

// NewRedisStreamPublisher publishes to Redis Streams named after topics.
func NewRedisStreamPublisher(client redis.UniversalClient, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, logger)
}

// NewRedisStreamSubscriber reads Redis Streams as a member of consumerGroup.
func NewRedisStreamSubscriber(
	client redis.UniversalClient, consumerGroup string, logger watermill.LoggerAdapter,
) (message.Subscriber, error) {
	return redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: consumerGroup,
	}, logger)
}

// NewGoChannel creates an in-process pub/sub usable as both publisher and
// subscriber.
func NewGoChannel(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
}

// Closing the wrappers below leaves the wrapped pub/sub open, so one
// GoChannel can back both a PublisherGroup and a ConsumerGroup while its
// owner closes it once.
type nopClosePublisher struct {
	message.Publisher
}

func (nopClosePublisher) Close() error { return nil }

type nopCloseSubscriber struct {
	message.Subscriber
}

func (nopCloseSubscriber) Close() error { return nil }

// SharedPublisher wraps p so closing the wrapper leaves p open.
func SharedPublisher(p message.Publisher) message.Publisher {
	return nopClosePublisher{Publisher: p}
}

// SharedSubscriber wraps s so closing the wrapper leaves s open.
func SharedSubscriber(s message.Subscriber) message.Subscriber {
	return nopCloseSubscriber{Subscriber: s}
}
