package rabbitmq

import (
	"github.com/streadway/amqp"
)

// ConnectionPoolInterface abstracts the connection pool for testing
type ConnectionPoolInterface interface {
	NewClient() (ClientInterface, error)
	Close()
}

// ClientInterface abstracts the AMQP channel for testing
type ClientInterface interface {
	Close()
	Publish(exchange, routingKey string, mandatory, immediate bool, msg amqp.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

var _ ConnectionPoolInterface = (*ConnectionPool)(nil)
var _ ClientInterface = (*Client)(nil)
