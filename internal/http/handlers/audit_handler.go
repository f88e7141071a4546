package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/carelink/clinical-core/internal/access"
	"github.com/carelink/clinical-core/internal/audit"
	httpmiddleware "github.com/carelink/clinical-core/internal/http/middleware"
	"github.com/carelink/clinical-core/pkg/logging"
)

// AuditQuerier is the query surface of an audit trail.
type AuditQuerier interface {
	Query(ctx context.Context, authz audit.Authorizer, actor access.Principal, f audit.Filter) ([]audit.Entry, error)
}

// AuditHandler exposes privileged audit queries.
type AuditHandler struct {
	trail  AuditQuerier
	authz  audit.Authorizer
	logger *logging.Logger
}

// NewAuditHandler creates the handler.
func NewAuditHandler(trail AuditQuerier, authz audit.Authorizer, logger *logging.Logger) *AuditHandler {
	if trail == nil {
		panic("handlers: audit trail required")
	}
	if authz == nil {
		panic("handlers: authorizer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditHandler{trail: trail, authz: authz, logger: logger}
}

// Query filters the trail by actor, action, resource, decision, and time
// range. The trail itself re-checks authorization before returning rows.
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.PrincipalFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	f := audit.Filter{
		ActorID:  q.Get("actor"),
		Action:   q.Get("action"),
		Resource: q.Get("resource"),
		Decision: audit.Decision(q.Get("decision")),
	}
	if raw := q.Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			jsonError(w, "from must be RFC3339", http.StatusBadRequest)
			return
		}
		f.From = ts
	}
	if raw := q.Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			jsonError(w, "to must be RFC3339", http.StatusBadRequest)
			return
		}
		f.To = ts
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		f.Limit = n
	}

	entries, err := h.trail.Query(r.Context(), h.authz, actor, f)
	if err != nil {
		h.logger.Warn("audit query rejected", "actor", actor.ID, "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
