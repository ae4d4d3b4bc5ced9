package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type addItemsRequest struct {
	EPCs []string `json:"epcs" validate:"required,min=1,dive,required"`
}

// AddBoxItems handles POST /api/boxes/{epc}/items.
func (s *Server) AddBoxItems(w http.ResponseWriter, r *http.Request) {
	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	box, err := s.boxes.AddItems(r.Context(), chi.URLParam(r, "epc"), req.EPCs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, box)
}

// BoxContents handles GET /api/boxes/{epc}.
func (s *Server) BoxContents(w http.ResponseWriter, r *http.Request) {
	contents, err := s.boxes.Contents(r.Context(), chi.URLParam(r, "epc"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contents)
}
