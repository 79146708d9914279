package app

import (
	"github.com/gorilla/mux"

	"callmonitor-bridge/internal/common/logging"
	"callmonitor-bridge/internal/handlers"
	"callmonitor-bridge/internal/middleware"
	"callmonitor-bridge/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers, limiter *ratelimit.Limiter, logger logging.Logger) {
	// Add logging middleware to all routes
	router.Use(middleware.Logging(logger))

	router.HandleFunc("/health", h.Health).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.Status).Methods("GET")
	api.HandleFunc("/lookup/{number}", h.Lookup).Methods("GET")
	api.HandleFunc("/phonebook.vcf", h.ExportPhonebook).Methods("GET")

	// Endpoints that call the gateway share one rate limit
	gateway := api.NewRoute().Subrouter()
	gateway.Use(limiter.HTTPMiddleware)
	gateway.HandleFunc("/phonebook/refresh", h.RefreshPhonebook).Methods("POST")
	gateway.HandleFunc("/phonebooks", h.ListPhonebooks).Methods("GET")
}
