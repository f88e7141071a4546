package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/carelink/clinical-core/internal/http/middleware"
	"github.com/carelink/clinical-core/internal/reports"
	"github.com/carelink/clinical-core/pkg/logging"
)

// ReportsHandler exposes the report lifecycle.
type ReportsHandler struct {
	service *reports.Service
	logger  *logging.Logger
}

// NewReportsHandler creates the handler.
func NewReportsHandler(service *reports.Service, logger *logging.Logger) *ReportsHandler {
	if service == nil {
		panic("handlers: reports service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportsHandler{service: service, logger: logger}
}

// Create opens a new report.
func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req reports.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	report, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// Get returns one report by id.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "reportID"))
	if id == "" {
		jsonError(w, "missing reportID", http.StatusBadRequest)
		return
	}

	report, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Update applies a partial mutation.
func (h *ReportsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "reportID"))
	if id == "" {
		jsonError(w, "missing reportID", http.StatusBadRequest)
		return
	}

	var patch reports.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	report, err := h.service.Update(r.Context(), actor, id, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Lock seals an approved report.
func (h *ReportsHandler) Lock(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "reportID"))
	if id == "" {
		jsonError(w, "missing reportID", http.StatusBadRequest)
		return
	}

	report, err := h.service.Lock(r.Context(), actor, id)
	if err != nil {
		h.logger.Warn("lock attempt failed", "report_id", id, "actor", actor.ID, "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListActive returns reports still open for mutation.
func (h *ReportsHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	active, err := h.service.ListActive(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": active})
}

// ListHistory returns every report, locked ones included.
func (h *ReportsHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	history, err := h.service.ListHistory(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": history})
}
