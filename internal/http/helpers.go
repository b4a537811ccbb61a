package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"conti/internal/core"
	"conti/internal/log"
)

type errorResponse struct {
	Error        string   `json:"error"`
	MissingRates []string `json:"missingRates,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondError maps service errors onto status codes. Anything unexpected
// is logged and hidden behind a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *core.ValidationError
		gap *core.ConversionGapError
		be  *badRequestError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.As(err, &be):
		writeError(w, http.StatusBadRequest, be.msg)
	case errors.As(err, &gap):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: core.MissingRatesMessage, MissingRates: gap.Missing})
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found.")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}
