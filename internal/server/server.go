package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"callmonitor-bridge/internal/common/logging"
)

// Server represents the status API HTTP server
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   logging.Logger
}

// New creates a new server instance listening on addr, e.g. ":8080"
func New(handler http.Handler, addr string, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger.WithFields(logging.String("component", "http_server")),
	}
}

// Start binds the listen address and serves in the background. A bind
// failure is returned; later serve failures are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("HTTP server listening", logging.String("addr", ln.Addr().String()))

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.srv.Addr
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
