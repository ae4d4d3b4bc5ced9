package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/convoops/tagtrack/internal/domain"
)

type encodeTagRequest struct {
	EPC               string `json:"epc" validate:"required"`
	Type              string `json:"type" validate:"required,oneof=graduate box"`
	ConvocationNumber string `json:"convocation_number"`
	GraduateName      string `json:"graduate_name"`
	TitoTicketID      string `json:"tito_ticket_id"`
	TitoTicketSlug    string `json:"tito_ticket_slug"`
	BoxID             string `json:"box_id"`
	BoxLabel          string `json:"box_label"`
	EncodedBy         string `json:"encoded_by" validate:"required"`
}

// EncodeTag handles POST /api/tags: bonding a fresh tag to a certificate
// or box.
func (s *Server) EncodeTag(w http.ResponseWriter, r *http.Request) {
	var req encodeTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	tag, err := s.tags.Encode(r.Context(), domain.NewTag{
		EPC:               req.EPC,
		Type:              domain.TagType(req.Type),
		ConvocationNumber: req.ConvocationNumber,
		GraduateName:      req.GraduateName,
		TitoTicketID:      req.TitoTicketID,
		TitoTicketSlug:    req.TitoTicketSlug,
		BoxID:             req.BoxID,
		BoxLabel:          req.BoxLabel,
		EncodedBy:         req.EncodedBy,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// GetTag handles GET /api/tags/{epc}.
func (s *Server) GetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := s.tags.Get(r.Context(), chi.URLParam(r, "epc"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// ListTags handles GET /api/tags.
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
