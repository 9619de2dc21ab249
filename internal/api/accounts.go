package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wnt/memetrack/internal/apperr"
	"github.com/wnt/memetrack/internal/models"
	"github.com/wnt/memetrack/internal/utils"
)

// bulkImportLimit caps a single import request.
const bulkImportLimit = 200

type addAccountRequest struct {
	Handle      string `json:"username"`
	DisplayName string `json:"display_name"`
}

type bulkImportRequest struct {
	Text string `json:"text"`
}

type bulkImportResponse struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
	Total   int      `json:"total"`
}

// normalizeHandle strips decoration from a pasted handle.
func normalizeHandle(raw string) string {
	h := strings.TrimSpace(raw)
	h = strings.TrimPrefix(h, "@")
	if i := strings.LastIndex(h, "/"); i >= 0 {
		h = h[i+1:]
	}
	return h
}

// parseBulkHandles tokenizes pasted free-form text into distinct handles,
// silently capped at bulkImportLimit.
func parseBulkHandles(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r' || r == '\t' || r == ' '
	})
	handles := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if h := normalizeHandle(tok); h != "" {
			handles = append(handles, h)
		}
	}
	handles = utils.Unique(handles)
	if len(handles) > bulkImportLimit {
		handles = handles[:bulkImportLimit]
	}
	return handles
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	var req addAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	handle := normalizeHandle(req.Handle)
	if handle == "" {
		s.writeError(w, apperr.Validation("username", "must not be empty"))
		return
	}

	account := &models.TrackedAccount{
		Handle:      handle,
		DisplayName: req.DisplayName,
		IsActive:    true,
	}
	if err := s.store.CreateAccount(r.Context(), account); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info().Str("handle", handle).Msg("Account added")
	s.writeJSON(w, http.StatusCreated, account)
}

// handleBulkImport accepts free-form pasted text, one handle per token,
// and tracks every handle that is not already present. A snapshot is
// recorded when at least one account was added.
func (s *Server) handleBulkImport(w http.ResponseWriter, r *http.Request) {
	var req bulkImportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	handles := parseBulkHandles(req.Text)
	if len(handles) == 0 {
		s.writeError(w, apperr.Validation("text", "no handles found"))
		return
	}

	resp := bulkImportResponse{Added: []string{}, Skipped: []string{}}
	for _, handle := range handles {
		account := &models.TrackedAccount{Handle: handle, IsActive: true}
		err := s.store.CreateAccount(r.Context(), account)
		switch {
		case err == nil:
			resp.Added = append(resp.Added, handle)
		case errors.Is(err, apperr.ErrConflict):
			resp.Skipped = append(resp.Skipped, handle)
		default:
			s.writeError(w, err)
			return
		}
	}
	resp.Total = len(resp.Added)

	if len(resp.Added) > 0 {
		tag := fmt.Sprintf("Bulk imported %d accounts", len(resp.Added))
		if _, err := s.versions.CreateVersion(r.Context(), tag); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to snapshot after bulk import")
		}
	}

	s.logger.Info().Int("added", len(resp.Added)).Int("skipped", len(resp.Skipped)).Msg("Bulk import complete")
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteAccount(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) handleStartMonitoring(w http.ResponseWriter, r *http.Request) {
	if err := s.monitor.Start(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SetMonitoringEnabled(r.Context(), true); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist monitoring flag")
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "started", "monitoring": true})
}

func (s *Server) handleStopMonitoring(w http.ResponseWriter, r *http.Request) {
	s.monitor.Stop()
	if err := s.store.SetMonitoringEnabled(r.Context(), false); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist monitoring flag")
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "stopped", "monitoring": false})
}
