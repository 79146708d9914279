// Package redis publishes call events to a Redis stream.
package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"callmonitor-bridge/internal/brokers"
	"callmonitor-bridge/internal/common/errors"
	"callmonitor-bridge/internal/common/logging"
)

// Publisher appends messages to a Redis stream with XADD.
type Publisher struct {
	config *Config
	client *redis.Client
	logger logging.Logger
}

var _ brokers.Publisher = (*Publisher)(nil)

// NewPublisher connects to Redis and verifies the connection with PING.
func NewPublisher(ctx context.Context, config *Config, logger logging.Logger) (*Publisher, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(err.Error())
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Address,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.Timeout,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.ConnectionError("failed to connect to Redis", err)
	}

	return &Publisher{
		config: config,
		client: client,
		logger: logger.WithFields(
			logging.String("broker", "redis"),
			logging.String("stream", config.Stream),
		),
	}, nil
}

// Name returns "redis"
func (p *Publisher) Name() string {
	return "redis"
}

// Publish adds the message to the configured stream.
func (p *Publisher) Publish(ctx context.Context, message *brokers.Message) error {
	fields := map[string]interface{}{
		"body":       string(message.Body),
		"timestamp":  message.Timestamp.UnixNano(),
		"message_id": message.MessageID,
	}

	if message.RoutingKey != "" {
		fields["kind"] = message.RoutingKey
	}

	for key, value := range message.Headers {
		fields["header_"+key] = value
	}

	args := &redis.XAddArgs{
		Stream: p.config.Stream,
		ID:     "*",
		Values: fields,
	}
	if p.config.StreamMaxLen > 0 {
		args.MaxLen = p.config.StreamMaxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return errors.ConnectionError("failed to publish message to Redis stream", err)
	}

	p.logger.Debug("Message published to Redis stream",
		logging.String("id", id),
		logging.String("message_id", message.MessageID),
	)
	return nil
}

// Health pings Redis.
func (p *Publisher) Health(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return errors.ConnectionError("Redis health check failed", err)
	}
	return nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
