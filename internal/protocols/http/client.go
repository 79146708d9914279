package http

import (
	"bytes"
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"callmonitor-bridge/internal/common/errors"
	"callmonitor-bridge/internal/common/utils"
)

// Request describes a single HTTP exchange.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Auth    AuthConfig
	Timeout time.Duration
}

// Client performs requests and answers Digest challenges.
type Client struct {
	config     *Config
	httpClient *http.Client
	cnonce     func() (string, error)
}

// NewClient creates a client from config. A nil config uses DefaultConfig.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid HTTP config: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxConnections,
		MaxIdleConnsPerHost: config.MaxConnections,
		IdleConnTimeout:     config.KeepAlive,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.TLSInsecure,
		},
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Transport: transport},
		cnonce: func() (string, error) {
			return utils.GenerateRandomID(32)
		},
	}, nil
}

// Do sends the request. When the response is 401 and the request carries
// DigestAuth, the challenge is answered and the request sent exactly once more.
// The body of a 2xx response is returned.
func (c *Client) Do(ctx context.Context, request *Request) ([]byte, error) {
	timeout := request.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, header, body, err := c.roundTrip(ctx, request, "")
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		digest, ok := request.Auth.(*DigestAuth)
		if !ok {
			return nil, statusError(status, request.URL)
		}

		authorization, err := c.answerChallenge(request, digest, header.Values("WWW-Authenticate"))
		if err != nil {
			return nil, err
		}

		status, _, body, err = c.roundTrip(ctx, request, authorization)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status > 299 {
		return nil, statusError(status, request.URL)
	}

	return body, nil
}

func (c *Client) answerChallenge(request *Request, auth *DigestAuth, challenges []string) (string, error) {
	var header string
	for _, v := range challenges {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "digest") {
			header = v
			break
		}
	}
	if header == "" {
		got := strings.Join(challenges, ", ")
		if got == "" {
			got = "none"
		}
		return "", errors.ProtocolError(fmt.Sprintf("expected Digest challenge, got: %s", got))
	}

	challenge, err := ParseChallenge(header)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(request.URL)
	if err != nil {
		return "", errors.InternalError("invalid request URL", err)
	}

	cnonce, err := c.cnonce()
	if err != nil {
		return "", errors.InternalError("failed to generate cnonce", err)
	}

	return challenge.Authorization(request.method(), u.RequestURI(), auth.Username, auth.Password, cnonce), nil
}

func (c *Client) roundTrip(ctx context.Context, request *Request, authorization string) (int, http.Header, []byte, error) {
	var bodyReader io.Reader
	if request.Body != nil {
		bodyReader = bytes.NewReader(request.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, request.method(), request.URL, bodyReader)
	if err != nil {
		return 0, nil, nil, errors.InternalError("failed to create HTTP request", err)
	}

	for key, value := range request.Headers {
		httpReq.Header.Set(key, value)
	}

	switch {
	case authorization != "":
		httpReq.Header.Set("Authorization", authorization)
	case request.Auth != nil:
		if basic, ok := request.Auth.(*BasicAuth); ok {
			httpReq.Header.Set("Authorization", BasicAuthHeader(basic.Username, basic.Password))
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, nil, transportError(request.URL, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, nil, nil, transportError(request.URL, err)
	}

	return httpResp.StatusCode, httpResp.Header, body, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func statusError(status int, target string) error {
	code := strconv.Itoa(status)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return errors.AuthError(fmt.Sprintf("request rejected with status %d", status)).
			WithCode(code).WithContext("url", redact(target))
	}
	return errors.ProtocolError(fmt.Sprintf("unexpected status %d", status)).
		WithCode(code).WithContext("url", redact(target))
}

func transportError(target string, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.TimeoutError("http request", err).WithContext("url", redact(target))
	}
	return errors.ConnectionError("http request failed", err).WithContext("url", redact(target))
}

// redact drops the query string, which can carry session ids.
func redact(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
