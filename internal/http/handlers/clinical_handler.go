package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carelink/clinical-core/internal/clinical"
	httpmiddleware "github.com/carelink/clinical-core/internal/http/middleware"
	"github.com/carelink/clinical-core/pkg/logging"
)

// ClinicalHandler accepts clinical query submissions.
type ClinicalHandler struct {
	service *clinical.Service
	logger  *logging.Logger
}

// NewClinicalHandler creates the handler.
func NewClinicalHandler(service *clinical.Service, logger *logging.Logger) *ClinicalHandler {
	if service == nil {
		panic("handlers: clinical service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ClinicalHandler{service: service, logger: logger}
}

// Submit runs the full pipeline for one submission.
func (h *ClinicalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var q clinical.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Submit(r.Context(), actor, q)
	if err != nil {
		h.logger.Error("clinical submission failed", "actor", actor.ID, "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
