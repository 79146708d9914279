package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callmonitor-bridge/internal/common/errors"
)

const testNonce = "b5aa1f2c0e7d"

// digestServer answers every request without a valid Digest Authorization
// with a 401 challenge and counts the requests it receives.
func digestServer(t *testing.T, user, pass string, requests *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)

		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Add("WWW-Authenticate", `Basic realm="HTTPS Access"`)
			w.Header().Add("WWW-Authenticate", `Digest realm="F!Box SOAP-Auth", nonce="`+testNonce+`", algorithm=MD5, qop="auth"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		params := parseAuthParams(auth[len("Digest "):])
		ch := &Challenge{Realm: "F!Box SOAP-Auth", Nonce: testNonce, QOP: "auth", Algorithm: "MD5"}
		want := ch.Response(r.Method, r.URL.RequestURI(), user, pass, params["nc"], params["cnonce"])
		if params["response"] != want || params["uri"] != r.URL.RequestURI() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(append([]byte("ok:"), body...))
	}))
}

func TestClientDigestRetry(t *testing.T) {
	var requests int32
	server := digestServer(t, "admin", "secret", &requests)
	defer server.Close()

	client, err := NewClient(nil)
	require.NoError(t, err)
	defer client.Close()

	body, err := client.Do(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    server.URL + "/upnp/control/x_contact?sid=1",
		Body:   []byte("payload"),
		Auth:   &DigestAuth{Username: "admin", Password: "secret"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ok:payload", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestClientWrongPassword(t *testing.T) {
	var requests int32
	server := digestServer(t, "admin", "secret", &requests)
	defer server.Close()

	client, err := NewClient(nil)
	require.NoError(t, err)

	_, err = client.Do(context.Background(), &Request{
		URL:  server.URL + "/",
		Auth: &DigestAuth{Username: "admin", Password: "wrong"},
	})
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrTypeAuth))
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests), "exactly one retry")
}

func TestClientNoChallengeSingleRequest(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("public"))
	}))
	defer server.Close()

	client, err := NewClient(nil)
	require.NoError(t, err)

	body, err := client.Do(context.Background(), &Request{
		URL:  server.URL + "/phonebook.lua?sid=abc",
		Auth: &DigestAuth{Username: "admin", Password: "secret"},
	})
	require.NoError(t, err)

	assert.Equal(t, "public", string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestClientNonDigestChallenge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Basic realm="x"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(nil)
	require.NoError(t, err)

	_, err = client.Do(context.Background(), &Request{
		URL:  server.URL,
		Auth: &DigestAuth{Username: "u", Password: "p"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeProtocol))
}

func TestClientUnsupportedAlgorithm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Digest realm="x", nonce="n", algorithm=SHA-256`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(nil)
	require.NoError(t, err)

	_, err = client.Do(context.Background(), &Request{
		URL:  server.URL,
		Auth: &DigestAuth{Username: "u", Password: "p"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeProtocol))
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		status  int
		errType errors.ErrorType
	}{
		{http.StatusForbidden, errors.ErrTypeAuth},
		{http.StatusInternalServerError, errors.ErrTypeProtocol},
		{http.StatusNotFound, errors.ErrTypeProtocol},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client, err := NewClient(nil)
			require.NoError(t, err)

			_, err = client.Do(context.Background(), &Request{URL: server.URL})
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType))
		})
	}
}

func TestClientBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, err := NewClient(nil)
	require.NoError(t, err)

	body, err := client.Do(context.Background(), &Request{URL: server.URL, Auth: &BasicAuth{Username: "u", Password: "p"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(nil)
	require.NoError(t, err)

	_, err = client.Do(context.Background(), &Request{URL: server.URL, Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeTimeout))
}

func TestClientConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()

	client, err := NewClient(nil)
	require.NoError(t, err)

	_, err = client.Do(context.Background(), &Request{URL: target})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConnection))
}
