package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wnt/memetrack/internal/apperr"
	"github.com/wnt/memetrack/internal/models"
)

// validateSettings checks the operator-supplied values. A zero max token
// age is legal: it admits only contracts with no measurable age yet.
func validateSettings(s models.Settings) error {
	switch {
	case s.MaxVersions < 1:
		return apperr.Validation("max_versions", "must be at least 1")
	case s.MinQuorumThreshold < 1:
		return apperr.Validation("min_quorum_threshold", "must be at least 1")
	case s.MaxTokenAgeMinutes < 0:
		return apperr.Validation("max_token_age_minutes", "must not be negative")
	}
	return nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings replaces the settings singleton wholesale. The
// monitoring flag is owned by the monitoring endpoints and preserved.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var incoming models.Settings
	if err := decodeJSON(r, &incoming); err != nil {
		s.writeError(w, err)
		return
	}

	if err := validateSettings(incoming); err != nil {
		s.writeError(w, err)
		return
	}

	current, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	incoming.MonitoringEnabled = current.MonitoringEnabled

	if err := s.store.ReplaceSettings(r.Context(), incoming); err != nil {
		s.writeError(w, err)
		return
	}
	saved, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info().Int("quorum", saved.MinQuorumThreshold).Int("max_versions", saved.MaxVersions).Msg("Settings updated")
	s.writeJSON(w, http.StatusOK, saved)
}

type blacklistRequest struct {
	Kind  string `json:"type"`
	Value string `json:"value"`
}

func (s *Server) handleAddBlacklistItem(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	req.Value = strings.TrimSpace(req.Value)
	if req.Value == "" {
		s.writeError(w, apperr.Validation("value", "must not be empty"))
		return
	}
	switch req.Kind {
	case models.BlacklistAccount, models.BlacklistWord, models.BlacklistDomain:
	default:
		s.writeError(w, apperr.Validation("type", "must be account, word or domain"))
		return
	}

	item := &models.BlacklistItem{Kind: req.Kind, Value: req.Value}
	if err := s.store.AddBlacklistItem(r.Context(), item); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleListBlacklist(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListBlacklist(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleDeleteBlacklistItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteBlacklistItem(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}
