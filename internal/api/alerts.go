package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// handleListNameAlerts returns the active name alerts that have reached
// the configured quorum threshold. Sub-quorum sightings stay internal.
func (s *Server) handleListNameAlerts(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	alerts, err := s.store.ListQuorumNameAlerts(r.Context(), settings.MinQuorumThreshold)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleDeactivateNameAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeactivateNameAlert(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated", "id": id})
}

func (s *Server) handleListCAAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.ListCAAlerts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

type dashboardStats struct {
	TrackedAccounts  int64  `json:"tracked_accounts"`
	QuorumNameAlerts int64  `json:"name_alerts"`
	CAAlerts         int64  `json:"ca_alerts"`
	Monitoring       bool   `json:"monitoring"`
	Subscribers      int    `json:"subscribers"`
	Timestamp        string `json:"timestamp"`
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	accounts, err := s.store.CountActiveAccounts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	names, err := s.store.CountQuorumNameAlerts(r.Context(), settings.MinQuorumThreshold)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cas, err := s.store.CountCAAlerts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, dashboardStats{
		TrackedAccounts:  accounts,
		QuorumNameAlerts: names,
		CAAlerts:         cas,
		Monitoring:       s.monitor.Running(),
		Subscribers:      s.hub.SubscriberCount(),
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}

// handleExport streams the full application state as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.versions.CreateSnapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	filename := "memetrack-export-" + time.Now().UTC().Format("20060102-150405") + ".json"
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	s.writeJSON(w, http.StatusOK, snapshot)
}
