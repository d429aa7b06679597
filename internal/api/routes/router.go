package routes

import (
	"net/http"

	"github.com/zatekoja/cashflow-diagnosis/internal/api/handlers"
	"github.com/zatekoja/cashflow-diagnosis/internal/api/middleware"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	diagnosisHandler *handlers.DiagnosisHandler
	adminHandler     *handlers.AdminHandler

	allowedOrigins []string
	version        string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	diagnosisHandler *handlers.DiagnosisHandler,
	adminHandler *handlers.AdminHandler,
	allowedOrigins []string,
	version string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		diagnosisHandler: diagnosisHandler,
		adminHandler:     adminHandler,
		allowedOrigins:   allowedOrigins,
		version:          version,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok","version":"` + r.version + `"}`)); err != nil {
			return
		}
	})

	// Questionnaire is static per deployment
	r.mux.Handle("GET /api/questionnaire", middleware.ETag(http.HandlerFunc(r.diagnosisHandler.GetQuestionnaire)))

	// Diagnosis endpoints
	r.mux.HandleFunc("POST /api/diagnoses", r.diagnosisHandler.SubmitDiagnosis)
	r.mux.HandleFunc("GET /api/diagnoses/{id}", r.diagnosisHandler.GetDiagnosis)
	r.mux.HandleFunc("GET /api/diagnoses/{id}/report.pdf", r.diagnosisHandler.GetReport)

	// Admin endpoints
	if r.adminHandler != nil {
		r.mux.HandleFunc("GET /api/admin/events", r.adminHandler.ListEvents)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so preflight requests short-circuit first
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
