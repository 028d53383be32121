package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/shortkv/internal/analytics"
	analyticsstore "github.com/serroba/shortkv/internal/analytics/store"
	"github.com/serroba/shortkv/internal/messaging"
	"go.uber.org/zap"
)

// ConsumerSettings select how analytics events are consumed.
type ConsumerSettings struct {
	Transport messaging.Transport
	Group     string
	Analytics string
}

// GoChannel is the in-process pub/sub shared by publishers and consumers.
type GoChannel struct {
	*gochannel.GoChannel
}

// Shutdown closes the pub/sub.
func (g *GoChannel) Shutdown() error {
	return g.Close()
}

// GoChannelPackage provides the *GoChannel.
func GoChannelPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return &GoChannel{GoChannel: messaging.NewGoChannel(messaging.NewZapLogger(logger))}, nil
	})
}

// PublisherGroupPackage provides the *messaging.PublisherGroup for the
// configured event transport.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		transport, err := messaging.ParseTransport(opts.Events)
		if err != nil {
			return nil, err
		}

		switch transport {
		case messaging.TransportRedis:
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			publisher, err := messaging.NewRedisStreamPublisher(client, messaging.NewZapLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("create redis stream publisher: %w", err)
			}

			return messaging.NewPublisherGroup(publisher), nil

		case messaging.TransportGoChannel:
			pubsub, err := do.Invoke[*GoChannel](i)
			if err != nil {
				return nil, err
			}

			return messaging.NewPublisherGroup(messaging.SharedPublisher(pubsub)), nil

		default:
			return messaging.NewPublisherGroup(nil), nil
		}
	})
}

// ConsumerGroupPackage provides the *messaging.ConsumerGroup running the
// analytics consumers. It requires *ConsumerSettings.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		settings := do.MustInvoke[*ConsumerSettings](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var sink analytics.Store

		switch settings.Analytics {
		case "", AnalyticsNoop:
			sink = analyticsstore.NewNoop(logger)
		case AnalyticsRedis:
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			sink = analyticsstore.NewRedis(client)
		default:
			return nil, fmt.Errorf("unknown analytics store %q", settings.Analytics)
		}

		var group *messaging.ConsumerGroup

		switch settings.Transport {
		case messaging.TransportRedis:
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			subscriber, err := messaging.NewRedisStreamSubscriber(client, settings.Group, messaging.NewZapLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("create redis stream subscriber: %w", err)
			}

			group = messaging.NewConsumerGroup(subscriber, logger)

		case messaging.TransportGoChannel:
			pubsub, err := do.Invoke[*GoChannel](i)
			if err != nil {
				return nil, err
			}

			group = messaging.NewConsumerGroup(messaging.SharedSubscriber(pubsub), logger)

		default:
			return nil, fmt.Errorf("event transport %q cannot be consumed", settings.Transport)
		}

		analytics.RegisterConsumers(group, sink, logger)

		return group, nil
	})
}
