package rabbitmq

import (
	"fmt"
	"net/url"
)

type Config struct {
	URL      string `json:"url"`
	Exchange string `json:"exchange"`
	PoolSize int    `json:"pool_size"`
}

func (c *Config) Validate() error {
	if c.PoolSize <= 0 {
		c.PoolSize = 1
	}
	if c.PoolSize > 100 {
		return fmt.Errorf("RabbitMQ pool size must be at most 100, got %d", c.PoolSize)
	}

	if c.Exchange == "" {
		c.Exchange = "callmonitor"
	}

	if c.URL == "" {
		return fmt.Errorf("RabbitMQ URL is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") || u.Host == "" {
		return fmt.Errorf("invalid RabbitMQ URL")
	}

	return nil
}

func (c *Config) GetConnectionString() string {
	// Sanitize URL to remove credentials from logs
	if parsedURL, err := url.Parse(c.URL); err == nil {
		parsedURL.User = nil
		return fmt.Sprintf("rabbitmq://%s", parsedURL.Host)
	}
	return "rabbitmq://***"
}
