// Package handlers exposes the portal core over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carelink/clinical-core/internal/access"
	"github.com/carelink/clinical-core/internal/patients"
	"github.com/carelink/clinical-core/internal/reports"
	"github.com/carelink/clinical-core/internal/vault"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// respondError maps the typed error taxonomy to HTTP statuses so callers
// can tell denials and conflicts apart from generic failures.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, access.ErrDenied):
		jsonError(w, "access denied", http.StatusForbidden)
	case errors.Is(err, reports.ErrValidation):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, reports.ErrReportNotFound),
		errors.Is(err, patients.ErrTokenNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, reports.ErrLockConflict):
		jsonError(w, "report is locked or being locked; refetch before retrying", http.StatusConflict)
	case errors.Is(err, reports.ErrInvalidTransition):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, vault.ErrDecrypt):
		jsonError(w, "stored record is unreadable", http.StatusInternalServerError)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
