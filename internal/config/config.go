// Package config provides configuration management for the call monitor bridge.
// It handles loading configuration from environment variables with sensible defaults
// and validates the configuration to ensure the application starts safely.
//
// Environment Variables:
//
// Gateway:
//   - FRITZ_HOST: Gateway host (default: fritz.box)
//   - CALLMONITOR_PORT: Call monitor port (default: 1012)
//   - CALLMONITOR_CONNECT_TIMEOUT: TCP connect timeout (default: 15s)
//   - CALLMONITOR_IDLE_TIMEOUT: Read deadline while connected (default: 60s)
//   - CALLMONITOR_BACKOFF_INITIAL: First reconnect delay (default: 5s)
//   - CALLMONITOR_BACKOFF_MAX: Reconnect delay cap (default: 120s)
//   - CALLMONITOR_QUEUE_SIZE: Lines buffered for the handler (default: 64)
//
// Phonebook (TR-064):
//   - TR064_PORT: TR-064 port (default: 49000)
//   - TR064_USERNAME: Gateway user (required)
//   - TR064_PASSWORD: Gateway password (required)
//   - TR064_TIMEOUT: SOAP request timeout (default: 20s)
//   - PHONEBOOK_DOWNLOAD_TIMEOUT: Phonebook download timeout (default: 30s)
//   - PHONEBOOK_ID: Phonebook to load (default: 0)
//   - PHONEBOOK_PREFIXES: Comma separated dialing prefixes tried on lookup misses
//   - PHONEBOOK_REFRESH_SCHEDULE: Cron spec for periodic refresh (default: disabled)
//
// Outputs:
//   - HTTP_PORT: Status API port, empty disables the API (default: 8080)
//   - GATEWAY_API_RATE_PER_MINUTE: API requests per minute that reach the gateway, 0 disables the limit (default: 6)
//   - REDIS_ADDRESS: Redis address, empty disables stream publishing
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_STREAM: Stream name (default: callmonitor-events)
//   - RABBITMQ_URL: RabbitMQ URL, empty disables AMQP publishing
//   - RABBITMQ_EXCHANGE: Topic exchange (default: callmonitor)
//
// Logging:
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log file path, empty logs to stdout
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"callmonitor-bridge/internal/common/errors"
	"callmonitor-bridge/internal/common/validation"
)

// Config holds all configuration values for the bridge. All string fields
// correspond to environment variables.
//
// The configuration is loaded using Load() and must be validated using
// Validate() before the typed accessors are used.
type Config struct {
	// Gateway
	FritzHost                 string `env:"FRITZ_HOST" validate:"required"`
	CallMonitorPort           string `env:"CALLMONITOR_PORT" validate:"port"`
	CallMonitorConnectTimeout string `env:"CALLMONITOR_CONNECT_TIMEOUT" validate:"duration"`
	CallMonitorIdleTimeout    string `env:"CALLMONITOR_IDLE_TIMEOUT" validate:"duration"`
	CallMonitorBackoffInitial string `env:"CALLMONITOR_BACKOFF_INITIAL" validate:"duration"`
	CallMonitorBackoffMax     string `env:"CALLMONITOR_BACKOFF_MAX" validate:"duration"`
	CallMonitorQueueSize      string `env:"CALLMONITOR_QUEUE_SIZE" validate:"intmin=1"`

	// Phonebook
	TR064Port                string `env:"TR064_PORT" validate:"port"`
	TR064Username            string `env:"TR064_USERNAME" validate:"required"`
	TR064Password            string `env:"TR064_PASSWORD" validate:"required"`
	TR064Timeout             string `env:"TR064_TIMEOUT" validate:"duration"`
	PhonebookDownloadTimeout string `env:"PHONEBOOK_DOWNLOAD_TIMEOUT" validate:"duration"`
	PhonebookID              string `env:"PHONEBOOK_ID" validate:"intmin=0"`
	PhonebookPrefixes        string `env:"PHONEBOOK_PREFIXES"`
	PhonebookRefreshSchedule string `env:"PHONEBOOK_REFRESH_SCHEDULE" validate:"omitempty,cron_expression"`

	// Outputs
	HTTPPort         string `env:"HTTP_PORT" validate:"omitempty,port"`
	GatewayAPIRate   string `env:"GATEWAY_API_RATE_PER_MINUTE" validate:"intmin=0"`
	RedisAddress     string `env:"REDIS_ADDRESS" validate:"omitempty,hostname_port"`
	RedisPassword    string `env:"REDIS_PASSWORD"`
	RedisDB          string `env:"REDIS_DB" validate:"intmin=0,intmax=15"`
	RedisStream      string `env:"REDIS_STREAM"`
	RabbitMQURL      string `env:"RABBITMQ_URL" validate:"omitempty,url,startswith=amqp"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE"`

	// Logging
	LogLevel string `env:"LOG_LEVEL"`
	LogFile  string `env:"LOG_FILE"`
}

// Load creates a new Config with values from environment variables, using
// defaults for unset ones. It does not validate.
func Load() *Config {
	return &Config{
		FritzHost:                 getEnv("FRITZ_HOST", "fritz.box"),
		CallMonitorPort:           getEnv("CALLMONITOR_PORT", "1012"),
		CallMonitorConnectTimeout: getEnv("CALLMONITOR_CONNECT_TIMEOUT", "15s"),
		CallMonitorIdleTimeout:    getEnv("CALLMONITOR_IDLE_TIMEOUT", "60s"),
		CallMonitorBackoffInitial: getEnv("CALLMONITOR_BACKOFF_INITIAL", "5s"),
		CallMonitorBackoffMax:     getEnv("CALLMONITOR_BACKOFF_MAX", "120s"),
		CallMonitorQueueSize:      getEnv("CALLMONITOR_QUEUE_SIZE", "64"),

		TR064Port:                getEnv("TR064_PORT", "49000"),
		TR064Username:            getEnv("TR064_USERNAME", ""),
		TR064Password:            getEnv("TR064_PASSWORD", ""),
		TR064Timeout:             getEnv("TR064_TIMEOUT", "20s"),
		PhonebookDownloadTimeout: getEnv("PHONEBOOK_DOWNLOAD_TIMEOUT", "30s"),
		PhonebookID:              getEnv("PHONEBOOK_ID", "0"),
		PhonebookPrefixes:        getEnv("PHONEBOOK_PREFIXES", ""),
		PhonebookRefreshSchedule: getEnv("PHONEBOOK_REFRESH_SCHEDULE", ""),

		HTTPPort:         getEnvAllowEmpty("HTTP_PORT", "8080"),
		GatewayAPIRate:   getEnv("GATEWAY_API_RATE_PER_MINUTE", "6"),
		RedisAddress:     getEnv("REDIS_ADDRESS", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnv("REDIS_DB", "0"),
		RedisStream:      getEnv("REDIS_STREAM", "callmonitor-events"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "callmonitor"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty is getEnv for variables where an explicitly empty value
// means "disabled".
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, set := os.LookupEnv(key); set {
		return value
	}
	return defaultValue
}

// Validate checks required fields and the format of every value.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if c.BackoffMax() < c.BackoffInitial() {
		return errors.ConfigError("CALLMONITOR_BACKOFF_MAX must not be below CALLMONITOR_BACKOFF_INITIAL")
	}

	return nil
}

func mustDuration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}

func mustInt(value string) int {
	n, _ := strconv.Atoi(value)
	return n
}

// CallMonitorPortNumber returns CALLMONITOR_PORT.
func (c *Config) CallMonitorPortNumber() int { return mustInt(c.CallMonitorPort) }

// TR064PortNumber returns TR064_PORT.
func (c *Config) TR064PortNumber() int { return mustInt(c.TR064Port) }

// ConnectTimeout returns CALLMONITOR_CONNECT_TIMEOUT.
func (c *Config) ConnectTimeout() time.Duration { return mustDuration(c.CallMonitorConnectTimeout) }

// IdleTimeout returns CALLMONITOR_IDLE_TIMEOUT.
func (c *Config) IdleTimeout() time.Duration { return mustDuration(c.CallMonitorIdleTimeout) }

// BackoffInitial returns CALLMONITOR_BACKOFF_INITIAL.
func (c *Config) BackoffInitial() time.Duration { return mustDuration(c.CallMonitorBackoffInitial) }

// BackoffMax returns CALLMONITOR_BACKOFF_MAX.
func (c *Config) BackoffMax() time.Duration { return mustDuration(c.CallMonitorBackoffMax) }

// QueueSize returns CALLMONITOR_QUEUE_SIZE.
func (c *Config) QueueSize() int { return mustInt(c.CallMonitorQueueSize) }

// RequestTimeout returns TR064_TIMEOUT.
func (c *Config) RequestTimeout() time.Duration { return mustDuration(c.TR064Timeout) }

// DownloadTimeout returns PHONEBOOK_DOWNLOAD_TIMEOUT.
func (c *Config) DownloadTimeout() time.Duration { return mustDuration(c.PhonebookDownloadTimeout) }

// PhonebookIDNumber returns PHONEBOOK_ID.
func (c *Config) PhonebookIDNumber() int { return mustInt(c.PhonebookID) }

// GatewayAPIRatePerMinute returns GATEWAY_API_RATE_PER_MINUTE.
func (c *Config) GatewayAPIRatePerMinute() int { return mustInt(c.GatewayAPIRate) }

// RedisDBNumber returns REDIS_DB.
func (c *Config) RedisDBNumber() int { return mustInt(c.RedisDB) }

// Prefixes splits PHONEBOOK_PREFIXES, dropping empty entries and keeping order.
func (c *Config) Prefixes() []string {
	var out []string
	for _, p := range strings.Split(c.PhonebookPrefixes, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
