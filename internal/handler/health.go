package handler

import "net/http"

// Health handles GET /healthz. It reports process liveness only; the
// record store and ticketing system are reachable or not per request.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
