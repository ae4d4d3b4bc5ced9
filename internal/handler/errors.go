package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/convoops/tagtrack/internal/domain"
)

// errorResponse is the JSON body every failed request returns.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// writeServiceError maps a service/repo error to an HTTP response via the
// domain sentinels. Unknown errors become an opaque 500; the details stay
// in the server log, not the response.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", userMessage(err))
	case errors.Is(err, domain.ErrDuplicateEPC):
		writeError(w, http.StatusConflict, "duplicate_epc", userMessage(err))
	case errors.Is(err, domain.ErrNotABox):
		writeError(w, http.StatusUnprocessableEntity, "not_a_box", userMessage(err))
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", userMessage(err))
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// writeValidationError maps go-playground/validator failures on a request
// struct to a 422 with the first offending field named.
func writeValidationError(w http.ResponseWriter, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		writeError(w, http.StatusUnprocessableEntity, "validation_error", fe.Field()+" failed on "+fe.Tag())
		return
	}
	writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
}

// wrapPrefix matches the operation-context prefixes services and repos put
// on wrapped errors, e.g. "service.ScanService.ProcessScan: ".
var wrapPrefix = regexp.MustCompile(`^(service|repo)\.[A-Za-z]+\.[A-Za-z]+: `)

// userMessage strips the internal wrapping prefixes from an error so the
// response carries only the human-readable part.
// e.g. "service.ScanService.ProcessScan: tag X not found, encode it first: not found"
// becomes "tag X not found, encode it first: not found".
func userMessage(err error) string {
	msg := err.Error()
	for {
		m := wrapPrefix.FindString(msg)
		if m == "" {
			return msg
		}
		msg = msg[len(m):]
	}
}
