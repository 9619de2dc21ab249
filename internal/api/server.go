// Package api exposes the operator-facing HTTP surface and the realtime
// websocket endpoint. It is a thin collaborator over the aggregation
// core: request validation and status mapping live here, semantics live
// in the engine, monitor, store and versioning packages.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/wnt/memetrack/internal/apperr"
	"github.com/wnt/memetrack/internal/broadcast"
	"github.com/wnt/memetrack/internal/monitor"
	"github.com/wnt/memetrack/internal/store"
	"github.com/wnt/memetrack/internal/versioning"
)

// Server wires the HTTP surface to the core components.
type Server struct {
	store    *store.Store
	monitor  *monitor.Monitor
	versions *versioning.Service
	hub      *broadcast.Hub
	logger   zerolog.Logger
}

// NewServer creates a Server.
func NewServer(st *store.Store, mon *monitor.Monitor, versions *versioning.Service, hub *broadcast.Hub, logger zerolog.Logger) *Server {
	return &Server{
		store:    st,
		monitor:  mon,
		versions: versions,
		hub:      hub,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/accounts/bulk-import", s.handleBulkImport).Methods(http.MethodPost)
	api.HandleFunc("/accounts/add", s.handleAddAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", s.handleDeleteAccount).Methods(http.MethodDelete)
	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)

	api.HandleFunc("/monitoring/start", s.handleStartMonitoring).Methods(http.MethodPost)
	api.HandleFunc("/monitoring/stop", s.handleStopMonitoring).Methods(http.MethodPost)

	api.HandleFunc("/alerts/name", s.handleListNameAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/name/{id}/deactivate", s.handleDeactivateNameAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/ca", s.handleListCAAlerts).Methods(http.MethodGet)

	api.HandleFunc("/dashboard/stats", s.handleDashboardStats).Methods(http.MethodGet)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)

	api.HandleFunc("/versions/create", s.handleCreateVersion).Methods(http.MethodPost)
	api.HandleFunc("/versions/{id}/restore", s.handleRestoreVersion).Methods(http.MethodPost)
	api.HandleFunc("/versions", s.handleListVersions).Methods(http.MethodGet)

	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods(http.MethodPost)

	api.HandleFunc("/blacklist", s.handleListBlacklist).Methods(http.MethodGet)
	api.HandleFunc("/blacklist", s.handleAddBlacklistItem).Methods(http.MethodPost)
	api.HandleFunc("/blacklist/{id}", s.handleDeleteBlacklistItem).Methods(http.MethodDelete)

	api.HandleFunc("/ws", s.handleWebSocket)

	return r
}

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps the error taxonomy to HTTP statuses: validation 400,
// not found 404, conflict 409, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperr.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("Request failed")
	}
	s.writeJSON(w, status, map[string]string{"detail": err.Error()})
}

// decodeJSON decodes a request body, surfacing a validation error on
// malformed input.
func decodeJSON(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return apperr.Validation("body", "malformed JSON")
	}
	return nil
}
