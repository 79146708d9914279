package callmonitor

import (
	"fmt"
	"time"
)

// Config represents the configuration of the call monitor stream client
type Config struct {
	Host string `json:"host"` // Gateway host
	Port int    `json:"port"` // Call monitor port (1012, enabled by dialing #96*5*)

	ConnectTimeout time.Duration `json:"connect_timeout"` // Bound on a single TCP handshake
	IdleTimeout    time.Duration `json:"idle_timeout"`    // Read deadline; expiry alone keeps the connection

	BackoffInitial time.Duration `json:"backoff_initial"` // First reconnect delay
	BackoffMax     time.Duration `json:"backoff_max"`     // Reconnect delay cap

	KeepAliveIdle     time.Duration `json:"keepalive_idle"`
	KeepAliveInterval time.Duration `json:"keepalive_interval"`
	KeepAliveCount    int           `json:"keepalive_count"`

	QueueSize int `json:"queue_size"` // Lines buffered between reader and handler
}

// DefaultConfig returns default call monitor configuration
func DefaultConfig() *Config {
	return &Config{
		Host:              "fritz.box",
		Port:              1012,
		ConnectTimeout:    15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BackoffInitial:    5 * time.Second,
		BackoffMax:        120 * time.Second,
		KeepAliveIdle:     10 * time.Second,
		KeepAliveInterval: 5 * time.Second,
		KeepAliveCount:    3,
		QueueSize:         64,
	}
}

// Validate validates the configuration and fills zero values with defaults
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("call monitor host is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid call monitor port: %d", c.Port)
	}

	defaults := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaults.ConnectTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaults.IdleTimeout
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = defaults.BackoffInitial
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = defaults.BackoffMax
	}
	if c.BackoffMax < c.BackoffInitial {
		return fmt.Errorf("backoff max %v is below backoff initial %v", c.BackoffMax, c.BackoffInitial)
	}
	if c.KeepAliveIdle <= 0 {
		c.KeepAliveIdle = defaults.KeepAliveIdle
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = defaults.KeepAliveInterval
	}
	if c.KeepAliveCount <= 0 {
		c.KeepAliveCount = defaults.KeepAliveCount
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaults.QueueSize
	}

	return nil
}
