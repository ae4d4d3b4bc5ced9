package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/convoops/tagtrack/internal/domain"
)

// Dashboard handles GET /api/dashboard.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dashboard.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Reconciliation handles GET /api/reconciliation/{station}.
func (s *Server) Reconciliation(w http.ResponseWriter, r *http.Request) {
	station, ok := domain.ParseStation(chi.URLParam(r, "station"))
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown station "+chi.URLParam(r, "station"))
		return
	}

	report, err := s.reconcile.Reconcile(r.Context(), station)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
