// Package circuitbreaker guards calls to the gateway's TR-064 service using
// Sony's gobreaker.
package circuitbreaker

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"callmonitor-bridge/internal/common/errors"
	"callmonitor-bridge/internal/common/logging"
)

// Config holds the configuration for a circuit breaker
type Config struct {
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures int
	// Timeout is how long the breaker stays open before going half-open
	Timeout time.Duration
	// MaxConcurrentRequests is the number of requests allowed while half-open
	MaxConcurrentRequests int
}

// DefaultConfig returns the configuration used for the TR-064 client
func DefaultConfig() Config {
	return Config{
		MaxFailures:           5,
		Timeout:               60 * time.Second,
		MaxConcurrentRequests: 1,
	}
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.MaxFailures <= 0 {
		return fmt.Errorf("MaxFailures must be positive, got %d", c.MaxFailures)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("Timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("MaxConcurrentRequests must be positive, got %d", c.MaxConcurrentRequests)
	}
	return nil
}

// State represents the current state of the circuit breaker
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Stats is the breaker summary exposed on the status endpoint
type Stats struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Failures  int    `json:"failures"`
	Successes int    `json:"successes"`
}

// Breaker wraps a gobreaker.CircuitBreaker
type Breaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker
}

// New creates a breaker. An invalid config falls back to DefaultConfig.
func New(name string, config Config, logger logging.Logger) *Breaker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	if err := config.Validate(); err != nil {
		logger.Warn("Invalid circuit breaker config, using defaults",
			logging.Field{Key: "error", Value: err.Error()},
			logging.Field{Key: "name", Value: name},
		)
		config = DefaultConfig()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(config.MaxConcurrentRequests),
		Interval:    time.Minute,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.MaxFailures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				logging.Field{Key: "breaker", Value: name},
				logging.Field{Key: "from", Value: from.String()},
				logging.Field{Key: "to", Value: to.String()},
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// The gateway answered; a malformed document says nothing about its health.
			return errors.IsType(err, errors.ErrTypeParse)
		},
	}

	return &Breaker{
		name:    name,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Execute runs fn within the circuit breaker. While open, fn is not called
// and a connection error is returned.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.ConnectionError(fmt.Sprintf("circuit breaker '%s' rejected the call", b.name), err)
	}

	return err
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	switch b.breaker.State() {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Stats returns current statistics
func (b *Breaker) Stats() Stats {
	counts := b.breaker.Counts()

	return Stats{
		Name:      b.name,
		State:     b.State().String(),
		Failures:  int(counts.TotalFailures),
		Successes: int(counts.TotalSuccesses),
	}
}
