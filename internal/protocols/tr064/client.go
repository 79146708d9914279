// Package tr064 calls actions of the gateway's TR-064 SOAP interface and
// downloads the phonebooks it points to.
package tr064

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"callmonitor-bridge/internal/circuitbreaker"
	"callmonitor-bridge/internal/common/errors"
	"callmonitor-bridge/internal/common/logging"
	phttp "callmonitor-bridge/internal/protocols/http"
)

const (
	// ContactService is the phonebook service type.
	ContactService = "urn:dslforum-org:service:X_AVM-DE_OnTel:1"
	// ContactControlPath is the control URL of ContactService.
	ContactControlPath = "/upnp/control/x_contact"
)

// Config holds the connection settings for the TR-064 interface.
type Config struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Timeout         time.Duration
	DownloadTimeout time.Duration
	Breaker         circuitbreaker.Config
}

// Client talks to one gateway. Every call goes through a circuit breaker
// so a gateway that is down is not hammered by scheduled refreshes.
type Client struct {
	config  Config
	baseURL string
	http    *phttp.Client
	breaker *circuitbreaker.Breaker
	logger  logging.Logger
}

// NewClient creates a TR-064 client.
func NewClient(config Config, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if config.Host == "" {
		return nil, errors.ConfigError("TR-064 host is required")
	}
	if config.Port <= 0 {
		config.Port = 49000
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	if config.DownloadTimeout <= 0 {
		config.DownloadTimeout = 30 * time.Second
	}
	if config.Breaker == (circuitbreaker.Config{}) {
		config.Breaker = circuitbreaker.DefaultConfig()
	}

	httpClient, err := phttp.NewClient(&phttp.Config{Timeout: config.Timeout})
	if err != nil {
		return nil, err
	}

	return &Client{
		config:  config,
		baseURL: "http://" + net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		http:    httpClient,
		breaker: circuitbreaker.New("tr064", config.Breaker, logger),
		logger:  logger.WithFields(logging.String("host", config.Host)),
	}, nil
}

func (c *Client) auth() phttp.AuthConfig {
	return &phttp.DigestAuth{Username: c.config.Username, Password: c.config.Password}
}

// Call invokes action on service at controlPath and returns the raw response body.
func (c *Client) Call(ctx context.Context, service, controlPath, action string, args ...Arg) ([]byte, error) {
	body, err := buildEnvelope(service, action, args)
	if err != nil {
		return nil, err
	}

	var resp []byte
	err = c.breaker.Execute(func() error {
		var callErr error
		resp, callErr = c.http.Do(ctx, &phttp.Request{
			Method: "POST",
			URL:    c.baseURL + controlPath,
			Headers: map[string]string{
				"Content-Type": `text/xml; charset="utf-8"`,
				"SOAPAction":   fmt.Sprintf(`"%s#%s"`, service, action),
			},
			Body:    body,
			Auth:    c.auth(),
			Timeout: c.config.Timeout,
		})
		return callErr
	})
	if err != nil {
		c.logger.Warn("TR-064 call failed", logging.String("action", action), logging.Err(err))
		return nil, err
	}

	c.logger.Debug("TR-064 call completed", logging.String("action", action))
	return resp, nil
}

// PhonebookURL returns the download URL of phonebook id.
func (c *Client) PhonebookURL(ctx context.Context, id int) (string, error) {
	resp, err := c.Call(ctx, ContactService, ContactControlPath, "GetPhonebook",
		Arg{Name: "NewPhonebookID", Value: strconv.Itoa(id)})
	if err != nil {
		return "", err
	}
	return responseField(resp, "NewPhonebookURL")
}

// PhonebookList returns the ids of all phonebooks on the gateway.
func (c *Client) PhonebookList(ctx context.Context) ([]int, error) {
	resp, err := c.Call(ctx, ContactService, ContactControlPath, "GetPhonebookList")
	if err != nil {
		return nil, err
	}

	list, err := responseField(resp, "NewPhonebookList")
	if err != nil {
		return nil, err
	}

	ids := []int{}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.ParseError("invalid phonebook id", err).WithContext("value", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DownloadPhonebook fetches a phonebook document. The URL usually carries
// a session id, but digest credentials are supplied if the gateway asks.
func (c *Client) DownloadPhonebook(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.http.Do(ctx, &phttp.Request{
			Method:  "GET",
			URL:     url,
			Auth:    c.auth(),
			Timeout: c.config.DownloadTimeout,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Phonebook downloaded", logging.Int("bytes", len(data)))
	return data, nil
}

// BreakerStats reports the state of the circuit breaker.
func (c *Client) BreakerStats() circuitbreaker.Stats {
	return c.breaker.Stats()
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}
