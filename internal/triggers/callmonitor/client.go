// Package callmonitor keeps a connection to the gateway's call monitor port
// and hands every received line to a handler.
package callmonitor

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"callmonitor-bridge/internal/common/errors"
	"callmonitor-bridge/internal/common/logging"
	"callmonitor-bridge/internal/common/utils"
)

// ErrStopped is returned by Start on a client that has been stopped.
var ErrStopped = stderrors.New("call monitor client stopped")

// State is the connection state of a Client.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateStopped    State = "stopped"
)

// LineHandler receives lines in wire order, one call at a time.
type LineHandler func(line string)

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Client reads the call monitor stream and reconnects forever until stopped.
//
// One reader goroutine owns the socket and pushes lines into a bounded
// queue; a dispatcher goroutine drains the queue into the handler. A slow
// handler fills the queue and then holds back the reader, never drops lines.
type Client struct {
	config  *Config
	handler LineHandler
	logger  logging.Logger
	address string

	dial  dialFunc
	sleep func(ctx context.Context, d time.Duration) error

	mu      sync.RWMutex
	state   State
	started bool
	stopped bool
	cancel  context.CancelFunc
	lines   chan string
	wg      sync.WaitGroup
}

// New creates a stream client. The config is validated and defaulted.
func New(config *Config, handler LineHandler, logger logging.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(err.Error())
	}
	if handler == nil {
		return nil, errors.ConfigError("line handler is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	dialer := &net.Dialer{
		Timeout: config.ConnectTimeout,
		KeepAliveConfig: net.KeepAliveConfig{
			Enable:   true,
			Idle:     config.KeepAliveIdle,
			Interval: config.KeepAliveInterval,
			Count:    config.KeepAliveCount,
		},
	}

	return &Client{
		config:  config,
		handler: handler,
		logger:  logger.WithFields(logging.String("address", address)),
		address: address,
		dial:    dialer.DialContext,
		sleep:   utils.Sleep,
		state:   StateIdle,
	}, nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStopped {
		c.state = s
	}
}

// Start launches the background loop and returns immediately. Calling it
// again while running does nothing.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}
	if c.started {
		return nil
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.state = StateConnecting
	c.lines = make(chan string, c.config.QueueSize)

	c.wg.Add(2)
	go c.run(ctx)
	go c.dispatch()

	c.logger.Info("Call monitor client started")
	return nil
}

// Stop cancels any pending connect or read, closes the socket and waits
// until the reader and the dispatcher have exited. Lines already queued are
// still handed to the handler. Stop is safe to call more than once.
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.state = StateStopped
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.logger.Info("Call monitor client stopped")
	return nil
}

func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.lines)
	defer func() {
		c.mu.Lock()
		c.state = StateStopped
		c.mu.Unlock()
	}()

	backoff := utils.NewBackoff(c.config.BackoffInitial, c.config.BackoffMax)

	for ctx.Err() == nil {
		c.setState(StateConnecting)

		conn, err := c.dial(ctx, "tcp", c.address)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			delay := backoff.Next()
			c.logger.Warn("Failed to connect to call monitor",
				logging.Err(err),
				logging.Duration("retry_in", delay),
			)
			if c.sleep(ctx, delay) != nil {
				return
			}
			continue
		}

		backoff.Reset()
		c.setState(StateConnected)
		c.logger.Info("Connected to call monitor")

		err = c.readLoop(ctx, conn)
		if ctx.Err() != nil {
			return
		}

		delay := backoff.Next()
		c.logger.Warn("Call monitor connection lost",
			logging.Err(err),
			logging.Duration("retry_in", delay),
		)
		if c.sleep(ctx, delay) != nil {
			return
		}
	}
}

// readLoop reads from conn until it fails. The connection is closed on
// return and also as soon as ctx is cancelled, which unblocks Read.
func (c *Client) readLoop(ctx context.Context, conn net.Conn) error {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()
	defer conn.Close()

	var framer lineFramer
	buf := make([]byte, 4096)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.config.IdleTimeout)); err != nil {
			return errors.ConnectionError("failed to set read deadline", err)
		}

		n, err := conn.Read(buf)
		for _, line := range framer.feed(buf[:n]) {
			if err := c.enqueue(ctx, line); err != nil {
				return err
			}
		}

		switch {
		case err == nil:
		case stderrors.Is(err, os.ErrDeadlineExceeded):
			c.logger.Debug("No call monitor data within idle timeout",
				logging.Duration("idle_timeout", c.config.IdleTimeout))
		case stderrors.Is(err, io.EOF):
			if ferr := framer.finish(); ferr != nil {
				return ferr
			}
			return errors.ConnectionError("connection closed by gateway", err)
		default:
			return errors.ConnectionError(fmt.Sprintf("read from %s failed", c.address), err)
		}
	}
}

func (c *Client) enqueue(ctx context.Context, line string) error {
	select {
	case c.lines <- line:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) dispatch() {
	defer c.wg.Done()

	for line := range c.lines {
		c.handle(line)
	}
}

func (c *Client) handle(line string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Line handler panicked", fmt.Errorf("%v", r), logging.String("line", line))
		}
	}()
	c.handler(line)
}
