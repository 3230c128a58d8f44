package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"stocksentiment/pkg/sentiment"
)

// NewRouter builds the HTTP API router.
func NewRouter(core *sentiment.Core, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(logger))
	r.Use(recoveryLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	h := &handler{core: core, logger: logger}

	r.Get("/api/health", h.health)
	r.Get("/api/exchanges", h.getExchanges)

	// Analysis
	r.Post("/api/analyze", h.analyze)
	r.Post("/api/analyze/stream", h.analyzeStream)
	r.Post("/api/ingest", h.ingest)

	// Derived views of a finished analysis
	r.Post("/api/analytics", h.analytics)
	r.Post("/api/export/csv", h.exportCSV)
	r.Post("/api/share", h.share)

	// Model settings
	r.Get("/api/ai-settings", h.getAISettings)
	r.Put("/api/ai-settings", h.setAISettings)

	// Price alerts
	r.Get("/api/alerts", h.listAlerts)
	r.Route("/api/alerts/{exchange}/{symbol}", func(r chi.Router) {
		r.Get("/", h.getAlert)
		r.Put("/", h.setAlert)
		r.Delete("/", h.deleteAlert)
		r.Post("/check", h.checkAlert)
	})

	return r
}

type handler struct {
	core   *sentiment.Core
	logger *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
