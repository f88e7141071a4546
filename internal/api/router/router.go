// Package router assembles the portal's HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carelink/clinical-core/internal/http/handlers"
	httpmiddleware "github.com/carelink/clinical-core/internal/http/middleware"
	"github.com/carelink/clinical-core/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	ClinicalHandler *handlers.ClinicalHandler
	ReportsHandler  *handlers.ReportsHandler
	PatientsHandler *handlers.PatientsHandler
	AuditHandler    *handlers.AuditHandler
	MetricsHandler  http.Handler

	// HMAC secret for clinician JWTs; empty disables the gated routes.
	ClinicianJWTSecret string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Group(func(gated chi.Router) {
		gated.Use(httpmiddleware.ClinicianJWT(cfg.ClinicianJWTSecret))

		if cfg.ClinicalHandler != nil {
			gated.Post("/api/clinical/queries", cfg.ClinicalHandler.Submit)
		}
		if cfg.ReportsHandler != nil {
			gated.Route("/api/reports", func(r chi.Router) {
				r.Post("/", cfg.ReportsHandler.Create)
				r.Get("/", cfg.ReportsHandler.ListActive)
				r.Get("/history", cfg.ReportsHandler.ListHistory)
				r.Get("/{reportID}", cfg.ReportsHandler.Get)
				r.Patch("/{reportID}", cfg.ReportsHandler.Update)
				r.Post("/{reportID}/lock", cfg.ReportsHandler.Lock)
			})
		}
		if cfg.PatientsHandler != nil {
			gated.Route("/api/patients", func(r chi.Router) {
				r.Post("/tokens", cfg.PatientsHandler.Tokenize)
				r.Get("/tokens/{token}", cfg.PatientsHandler.Resolve)
			})
		}
		if cfg.AuditHandler != nil {
			gated.Get("/api/audit", cfg.AuditHandler.Query)
		}
	})

	return r
}
