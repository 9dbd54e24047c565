// Package handlers is the HTTP boundary of the engine. Each handler owns its
// routes and registers them on the shared mux; request-scoped registry
// snapshots keep access decisions current with administrative edits.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moop-bio/moop-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceError maps service-layer sentinel errors onto HTTP responses. Error
// detail stays generic; specifics go to the log, not the caller.
func ServiceError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, apperrors.ErrQueryTooShort):
		return ErrorResponse(w, http.StatusBadRequest, "query_too_short", "search terms must be at least 3 characters")
	case errors.Is(err, apperrors.ErrQueryRejected):
		return ErrorResponse(w, http.StatusBadRequest, "query_rejected", "search text could not be processed")
	case errors.Is(err, apperrors.ErrNoOrganisms):
		return ErrorResponse(w, http.StatusBadRequest, "no_organisms", "no searchable organisms")
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return ErrorResponse(w, http.StatusServiceUnavailable, "store_unavailable", "organism store unavailable")
	case errors.Is(err, apperrors.ErrHierarchyCycle):
		return ErrorResponse(w, http.StatusInternalServerError, "data_integrity", "feature hierarchy could not be resolved")
	case errors.Is(err, apperrors.ErrInvalidLogin):
		return ErrorResponse(w, http.StatusUnauthorized, "invalid_login", "invalid username or password")
	case errors.Is(err, apperrors.ErrAccessDenied):
		return ErrorResponse(w, http.StatusForbidden, "access_denied", "access denied")
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
