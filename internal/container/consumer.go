package container

import (
	"github.com/caarlos0/env/v11"
	"github.com/samber/do"
	"github.com/serroba/shortkv/internal/messaging"
)

// ConsumerConfig configures the analytics consumer binary from the environment.
type ConsumerConfig struct {
	RedisAddr     string `env:"REDIS_ADDR"      envDefault:"localhost:6379"`
	LogFormat     string `env:"LOG_FORMAT"      envDefault:"console"`
	ConsumerGroup string `env:"CONSUMER_GROUP"  envDefault:"analytics"`
	Analytics     string `env:"ANALYTICS_STORE" envDefault:"redis"`
}

// LoadConsumerConfig reads ConsumerConfig from the environment.
func LoadConsumerConfig() (*ConsumerConfig, error) {
	var cfg ConsumerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Register provides the values the shared packages expect. The consumer
// always reads Redis Streams.
func (c *ConsumerConfig) Register(i *do.Injector) {
	do.ProvideValue(i, &Options{
		RedisAddr: c.RedisAddr,
		LogFormat: c.LogFormat,
	})
	do.ProvideValue(i, &ConsumerSettings{
		Transport: messaging.TransportRedis,
		Group:     c.ConsumerGroup,
		Analytics: c.Analytics,
	})
}
