package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
)

const internalErrorMessage = "Ocorreu um erro no servidor ao processar a requisição."

// respondJSON writes the payload with the given status. Encoding failures are
// logged; the status line has already gone out by then.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response",
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
	}
}

// respondError maps domain errors onto status codes. Validation problems are
// safe to echo back; anything unexpected becomes a generic message so storage
// details never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromContext(r.Context())

	switch {
	case errors.Is(err, core.ErrValidation):
		respondJSON(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, core.ErrNotFound):
		respondJSON(w, r, http.StatusNotFound, map[string]string{"error": "Transação não encontrada."})
	default:
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		respondJSON(w, r, http.StatusInternalServerError, map[string]string{"error": internalErrorMessage})
	}
}
