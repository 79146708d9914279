package redis

import (
	"fmt"
	"time"
)

type Config struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	Timeout      time.Duration
	Stream       string
	StreamMaxLen int64 // Maximum length of the stream (0 = no limit)
}

func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("Redis address is required")
	}

	if c.DB < 0 {
		return fmt.Errorf("invalid Redis DB: %d", c.DB)
	}

	// Set defaults
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}

	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}

	if c.Stream == "" {
		c.Stream = "callmonitor-events"
	}

	if c.StreamMaxLen < 0 {
		c.StreamMaxLen = 0
	}

	return nil
}

func (c *Config) GetConnectionString() string {
	if c.Password != "" {
		return fmt.Sprintf("redis://:***@%s/%d", c.Address, c.DB)
	}
	return fmt.Sprintf("redis://%s/%d", c.Address, c.DB)
}

func DefaultConfig() *Config {
	return &Config{
		Address:      "localhost:6379",
		PoolSize:     4,
		Timeout:      5 * time.Second,
		Stream:       "callmonitor-events",
		StreamMaxLen: 10000,
	}
}
