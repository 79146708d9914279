package handlers

import (
	"context"
	"net/http"
	"time"

	"callmonitor-bridge/internal/circuitbreaker"
	"callmonitor-bridge/internal/monitor"
	"callmonitor-bridge/internal/triggers/callmonitor"
)

const healthCheckTimeout = 2 * time.Second

type publisherHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Stream     callmonitor.State    `json:"stream"`
	Monitor    monitor.Snapshot     `json:"monitor"`
	Breaker    circuitbreaker.Stats `json:"breaker"`
	Publishers []publisherHealth    `json:"publishers"`
}

// Health reports 200 while the call monitor stream is connected and 503 otherwise.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	state := h.stream.State()
	status := http.StatusOK
	if state != callmonitor.StateConnected {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"status": string(state),
	})
}

// Status returns the monitor snapshot together with stream, breaker and publisher health.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := statusResponse{
		Stream:     h.stream.State(),
		Monitor:    h.status.Snapshot(),
		Breaker:    h.gateway.BreakerStats(),
		Publishers: make([]publisherHealth, 0, len(h.publishers)),
	}
	for _, p := range h.publishers {
		ph := publisherHealth{Name: p.Name(), Healthy: true}
		if err := p.Health(ctx); err != nil {
			ph.Healthy = false
			ph.Error = err.Error()
		}
		resp.Publishers = append(resp.Publishers, ph)
	}

	writeJSON(w, http.StatusOK, resp)
}
