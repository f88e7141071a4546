package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/carelink/clinical-core/internal/http/middleware"
	"github.com/carelink/clinical-core/internal/patients"
	"github.com/carelink/clinical-core/pkg/logging"
)

// PatientsHandler exposes tokenization and resolution.
type PatientsHandler struct {
	tokenizer *patients.Tokenizer
	logger    *logging.Logger
}

// NewPatientsHandler creates the handler.
func NewPatientsHandler(tokenizer *patients.Tokenizer, logger *logging.Logger) *PatientsHandler {
	if tokenizer == nil {
		panic("handlers: tokenizer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PatientsHandler{tokenizer: tokenizer, logger: logger}
}

// Tokenize exchanges a patient submission for an opaque token.
func (h *PatientsHandler) Tokenize(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var payload patients.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(payload.Symptoms) == 0 {
		jsonError(w, "at least one symptom is required", http.StatusBadRequest)
		return
	}

	token, err := h.tokenizer.Tokenize(r.Context(), actor, payload)
	if err != nil {
		h.logger.Error("tokenization failed", "actor", actor.ID, "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"token":    token,
		"provider": patients.AssignProvider(payload.Symptoms),
	})
}

// Resolve returns the payload bound to a token.
func (h *PatientsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		jsonError(w, "missing token", http.StatusBadRequest)
		return
	}

	payload, err := h.tokenizer.Resolve(r.Context(), actor, token)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
