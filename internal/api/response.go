package api

import (
	"encoding/json"
	"net/http"

	"shareit/internal/domain"
	"shareit/internal/logging"

	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type validationError struct {
	message string
	details map[string]string
}

func (e *validationError) Error() string { return e.message }

func writeValidationError(w http.ResponseWriter, err *validationError) {
	body := map[string]any{"error": err.message}
	if len(err.details) > 0 {
		body["details"] = err.details
	}
	writeJSON(w, http.StatusBadRequest, body)
}

// statusFor maps rule failures to HTTP codes. Anything else is internal.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrNotAvailable, domain.ErrInvalidState:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeServiceError reports a service failure. Internal errors are logged
// and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, fallback *zerolog.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logging.FromContext(r.Context(), fallback).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}
