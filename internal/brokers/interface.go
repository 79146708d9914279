// Package brokers defines the outbound side of the bridge: every call event
// is offered to each configured Publisher.
package brokers

import (
	"context"
	"time"
)

// Publisher delivers messages to one message broker.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, message *Message) error
	Health(ctx context.Context) error
	Close() error
}

// Message is one outbound event.
type Message struct {
	MessageID  string
	RoutingKey string
	Headers    map[string]string
	Body       []byte
	Timestamp  time.Time
}
