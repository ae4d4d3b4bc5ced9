package handler

import (
	"encoding/json"
	"net/http"
)

type dispatchRequest struct {
	EPCs           []string `json:"epcs" validate:"required,min=1,dive,required"`
	DispatchedBy   string   `json:"dispatched_by" validate:"required"`
	TrackingNumber string   `json:"tracking_number"`
	DispatchMethod string   `json:"dispatch_method"`
	Notes          string   `json:"notes"`
}

// Dispatch handles POST /api/dispatch: a forced final-dispatch bulk scan
// with shipping metadata folded into the scan notes.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := s.dispatch.ProcessDispatch(r.Context(), req.EPCs, req.DispatchedBy, req.TrackingNumber, req.DispatchMethod, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type handoverRequest struct {
	EPCs       []string `json:"epcs" validate:"required,min=1,dive,required"`
	HandoverBy string   `json:"handover_by" validate:"required"`
	HandoverTo string   `json:"handover_to" validate:"required"`
	Notes      string   `json:"notes"`
}

// Handover handles POST /api/handover: a forced handover bulk scan with
// the recipient recorded in the scan action.
func (s *Server) Handover(w http.ResponseWriter, r *http.Request) {
	var req handoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := s.dispatch.ProcessHandover(r.Context(), req.EPCs, req.HandoverBy, req.HandoverTo, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
