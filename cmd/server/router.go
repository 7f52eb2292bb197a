package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/phrazzld/agro-api/internal/api"
	apiMiddleware "github.com/phrazzld/agro-api/internal/api/middleware"
	"github.com/phrazzld/agro-api/internal/api/shared"
	"github.com/phrazzld/agro-api/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", shared.TraceIDHeader},
		ExposedHeaders: []string{shared.TraceIDHeader},
		MaxAge:         300,
	}))

	agroHandler := api.NewAgroHandler(app.advisor, app.recorder, app.logger)
	historyHandler := api.NewHistoryHandler(app.history, app.logger)

	r.Get("/health", agroHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/agro", func(r chi.Router) {
		// Model-backed endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(time.Duration(app.config.LLM.TimeoutSeconds) * time.Second))
			if limit := app.config.Server.RateLimitPerMinute; limit > 0 {
				r.Use(httprate.LimitByIP(limit, time.Minute))
			}
			r.Post("/ask", agroHandler.Ask)
			r.Post("/chat", agroHandler.Chat)
		})

		r.Get("/history", historyHandler.ListChats)
		r.Get("/sensors/history", historyHandler.ListSensorReadings)
	})

	return r
}
