package analytics

import (
	"github.com/serroba/shortkv/internal/messaging"
	"go.uber.org/zap"
)

// RegisterConsumers adds one consumer per analytics topic to group, each
// persisting into store.
func RegisterConsumers(group *messaging.ConsumerGroup, store Store, logger *zap.Logger) {
	sub := group.Subscriber()

	group.Add(messaging.NewConsumer(sub, TopicURLCreated, store.SaveURLCreated, logger))
	group.Add(messaging.NewConsumer(sub, TopicURLAccessed, store.SaveURLAccessed, logger))
}
