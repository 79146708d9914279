// Package handlers serves the status and phonebook HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"callmonitor-bridge/internal/brokers"
	"callmonitor-bridge/internal/circuitbreaker"
	"callmonitor-bridge/internal/common/errors"
	"callmonitor-bridge/internal/common/logging"
	"callmonitor-bridge/internal/monitor"
	"callmonitor-bridge/internal/phonebook"
	"callmonitor-bridge/internal/triggers/callmonitor"
)

// StatusSource reports the monitor state.
type StatusSource interface {
	Snapshot() monitor.Snapshot
}

// Stream reports the call monitor connection state.
type Stream interface {
	State() callmonitor.State
}

// Directory answers number lookups.
type Directory interface {
	Lookup(number string) (*phonebook.Contact, bool)
	Contacts() []*phonebook.Contact
}

// Gateway is the TR-064 side of the API.
type Gateway interface {
	PhonebookList(ctx context.Context) ([]int, error)
	BreakerStats() circuitbreaker.Stats
}

// RefreshFunc reloads the phonebook and returns the number of indexed entries.
type RefreshFunc func(ctx context.Context) (int, error)

// Handlers holds the components exposed over HTTP.
type Handlers struct {
	status     StatusSource
	stream     Stream
	directory  Directory
	gateway    Gateway
	refresh    RefreshFunc
	publishers []brokers.Publisher
	logger     logging.Logger
}

// Deps lists the collaborators of Handlers.
type Deps struct {
	Status     StatusSource
	Stream     Stream
	Directory  Directory
	Gateway    Gateway
	Refresh    RefreshFunc
	Publishers []brokers.Publisher
	Logger     logging.Logger
}

func New(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handlers{
		status:     deps.Status,
		stream:     deps.Stream,
		directory:  deps.Directory,
		gateway:    deps.Gateway,
		refresh:    deps.Refresh,
		publishers: deps.Publishers,
		logger:     logger.WithFields(logging.String("component", "http_api")),
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps gateway failures to 502 and timeouts to 504.
func (h *Handlers) writeError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusBadGateway
	switch errors.GetType(err) {
	case errors.ErrTypeTimeout:
		status = http.StatusGatewayTimeout
	case errors.ErrTypeInternal, "":
		status = http.StatusInternalServerError
	}
	h.logger.Warn(msg, logging.Err(err), logging.Int("status", status))
	writeJSON(w, status, errorResponse{Error: msg, Type: string(errors.GetType(err))})
}
