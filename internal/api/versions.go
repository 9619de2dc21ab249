package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

type createVersionRequest struct {
	Tag string `json:"tag"`
}

func (s *Server) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	var req createVersionRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}

	version, err := s.versions.CreateVersion(r.Context(), req.Tag)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info().Int("version", version.VersionNumber).Str("tag", version.Tag).Msg("Version created")
	s.writeJSON(w, http.StatusCreated, version)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.versions.ListVersions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, versions)
}

func (s *Server) handleRestoreVersion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.versions.Restore(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info().Str("version_id", id).Msg("Version restored")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "restored", "id": id})
}
