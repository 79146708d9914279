package http

import (
	"encoding/base64"
)

// AuthConfig describes how a Request authenticates.
type AuthConfig interface {
	GetType() string
}

// BasicAuth sends credentials up front in an Authorization header.
type BasicAuth struct {
	Username string
	Password string
}

// GetType returns "basic"
func (b *BasicAuth) GetType() string {
	return "basic"
}

// DigestAuth answers a 401 Digest challenge with RFC 2617 credentials.
// Nothing is sent until the server asks.
type DigestAuth struct {
	Username string
	Password string
}

// GetType returns "digest"
func (d *DigestAuth) GetType() string {
	return "digest"
}

// BasicAuthHeader returns the value of an Authorization header for HTTP Basic auth.
func BasicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
