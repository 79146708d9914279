// Package http provides the HTTP client used to talk to the gateway's TR-064
// service. Requests that are answered with a Digest challenge are retried
// once with RFC 2617 credentials.
package http

import (
	"time"
)

// Config holds configuration settings for the HTTP client.
type Config struct {
	// Timeout is the default per-request timeout when a Request sets none
	Timeout time.Duration

	// MaxConnections limits idle connections kept to the gateway
	MaxConnections int

	// KeepAlive specifies how long to keep idle connections alive
	KeepAlive time.Duration

	// TLSInsecure skips certificate verification; gateways ship self-signed certificates
	TLSInsecure bool
}

// Validate applies defaults for zero values.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}

	if c.MaxConnections <= 0 {
		c.MaxConnections = 4
	}

	if c.KeepAlive <= 0 {
		c.KeepAlive = 30 * time.Second
	}

	return nil
}

// DefaultConfig creates a configuration suited to a single LAN gateway.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        20 * time.Second,
		MaxConnections: 4,
		KeepAlive:      30 * time.Second,
	}
}
