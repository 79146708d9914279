// Package rabbitmq publishes call events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"strings"

	"github.com/streadway/amqp"

	"callmonitor-bridge/internal/brokers"
	"callmonitor-bridge/internal/common/errors"
	"callmonitor-bridge/internal/common/logging"
)

// Publisher sends each message to a durable topic exchange with the routing
// key "call.<kind>", e.g. call.ring.
type Publisher struct {
	config *Config
	pool   ConnectionPoolInterface
	logger logging.Logger
}

var _ brokers.Publisher = (*Publisher)(nil)

// NewPublisher dials RabbitMQ and returns a publisher.
func NewPublisher(config *Config, logger logging.Logger) (*Publisher, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(err.Error())
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	pool, err := NewConnectionPool(config.URL, config.PoolSize, logger)
	if err != nil {
		return nil, errors.ConnectionError("failed to connect to RabbitMQ", err).
			WithContext("url", config.GetConnectionString())
	}

	return NewPublisherWithPool(config, pool, logger), nil
}

// NewPublisherWithPool creates a publisher on an existing pool.
func NewPublisherWithPool(config *Config, pool ConnectionPoolInterface, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Publisher{
		config: config,
		pool:   pool,
		logger: logger.WithFields(
			logging.String("broker", "rabbitmq"),
			logging.String("exchange", config.Exchange),
		),
	}
}

// Name returns "rabbitmq"
func (p *Publisher) Name() string {
	return "rabbitmq"
}

// RoutingKey maps an event kind to its routing key.
func RoutingKey(kind string) string {
	if kind == "" {
		return "call.unknown"
	}
	return "call." + strings.ToLower(kind)
}

// Publish declares the exchange and publishes the message to it.
func (p *Publisher) Publish(ctx context.Context, message *brokers.Message) error {
	if err := ctx.Err(); err != nil {
		return errors.TimeoutError("rabbitmq publish", err)
	}

	client, err := p.pool.NewClient()
	if err != nil {
		return errors.ConnectionError("failed to get RabbitMQ channel", err)
	}
	defer client.Close()

	if err := client.ExchangeDeclare(p.config.Exchange, "topic", true, false, false, false, nil); err != nil {
		return errors.ConnectionError("failed to declare exchange", err)
	}

	headers := amqp.Table{}
	for k, v := range message.Headers {
		headers[k] = v
	}

	routingKey := RoutingKey(message.RoutingKey)
	err = client.Publish(p.config.Exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    message.MessageID,
		Timestamp:    message.Timestamp,
		Headers:      headers,
		Body:         message.Body,
	})
	if err != nil {
		return errors.ConnectionError("failed to publish message to RabbitMQ", err)
	}

	p.logger.Debug("Message published to RabbitMQ",
		logging.String("routing_key", routingKey),
		logging.String("message_id", message.MessageID),
	)
	return nil
}

// Health opens and closes a channel.
func (p *Publisher) Health(ctx context.Context) error {
	client, err := p.pool.NewClient()
	if err != nil {
		return errors.ConnectionError("RabbitMQ health check failed", err)
	}
	client.Close()
	return nil
}

// Close closes the connection pool.
func (p *Publisher) Close() error {
	p.pool.Close()
	return nil
}
