// Package rest exposes the removal service over HTTP under /api.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog"
)

type RouterConfig struct {
	ServiceName    string
	LogJSON        bool
	LogLevel       string
	AllowedOrigins []string
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		ServiceName:    "broker-removal",
		LogLevel:       "info",
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter mounts the API and, when metrics is not nil, the Prometheus
// scrape endpoint.
func NewRouter(h *Handler, metrics http.Handler, cfg RouterConfig) http.Handler {
	accessLog := httplog.NewLogger(cfg.ServiceName, httplog.Options{
		JSON:     cfg.LogJSON,
		LogLevel: cfg.LogLevel,
		Concise:  true,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.Root)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.CreateUser)
			r.Get("/", h.ListUsers)
			r.Get("/{userID}", h.GetUser)
			r.Put("/{userID}", h.UpdateUser)
		})

		r.Get("/data-brokers", h.ListBrokers)
		r.Post("/data-brokers/initialize", h.InitializeBrokers)

		r.Route("/removal-requests", func(r chi.Router) {
			r.Post("/", h.CreateRequest)
			r.Get("/user/{userID}", h.ListRequests)
			r.Get("/summary/{userID}", h.Summary)
			r.Post("/bulk-create/{userID}", h.BulkCreate)
			r.Post("/process-automated/{userID}", h.ProcessAutomated)
			r.Post("/retry/{userID}/{brokerID}", h.Retry)
			r.Post("/complete/{userID}/{brokerID}", h.Complete)
			r.Get("/automation-status/{userID}", h.AutomationStatus)
		})

		r.Get("/manual-instructions/{userID}", h.ManualInstructions)
		r.Post("/manual-instructions/generate-email", h.GenerateEmail)
	})

	return r
}
