// Package http provides HTTP handlers for the public feed endpoint, the
// widget management API and the social connection flow.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/feedgrid/feedgrid/internal/apperr"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error onto its taxonomy status code and a neutral
// message. Raw upstream error bodies never reach the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
	case errors.Is(err, apperr.ErrDuplicate):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already exists"})
	case errors.Is(err, apperr.ErrTokenExpired):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "token expired"})
	case errors.Is(err, apperr.ErrOAuth):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "authorization rejected"})
	case errors.Is(err, apperr.ErrDecryption):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "connection requires re-authorization"})
	case errors.Is(err, apperr.ErrUpstream):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream fetch failed"})
	case errors.Is(err, apperr.ErrConfiguration):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
