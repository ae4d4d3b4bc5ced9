package handler

import (
	"encoding/json"
	"net/http"

	"github.com/convoops/tagtrack/internal/domain"
)

type scanRequest struct {
	EPC       string `json:"epc" validate:"required"`
	Station   string `json:"station" validate:"required"`
	ScannedBy string `json:"scanned_by" validate:"required"`
	Action    string `json:"action"`
	Notes     string `json:"notes"`
}

// ProcessScan handles POST /api/scan.
func (s *Server) ProcessScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}
	station, ok := domain.ParseStation(req.Station)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown station "+req.Station)
		return
	}

	result, err := s.scans.ProcessScan(r.Context(), req.EPC, station, req.ScannedBy, req.Action, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type bulkScanRequest struct {
	EPCs      []string `json:"epcs" validate:"required,min=1,dive,required"`
	Station   string   `json:"station" validate:"required"`
	ScannedBy string   `json:"scanned_by" validate:"required"`
	Action    string   `json:"action"`
	Notes     string   `json:"notes"`
}

// ProcessBulkScan handles POST /api/scan/bulk.
// The response always carries one result per input EPC, in input order.
func (s *Server) ProcessBulkScan(w http.ResponseWriter, r *http.Request) {
	var req bulkScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}
	station, ok := domain.ParseStation(req.Station)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown station "+req.Station)
		return
	}

	result, err := s.scans.ProcessBulkScan(r.Context(), req.EPCs, station, req.ScannedBy, req.Action, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
