// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/middleware"
	"github.com/vishnugarg323/PlayMetric/internal/service"
)

// RouterConfig configures the HTTP surface.
type RouterConfig struct {
	Middleware           ChiMiddlewareConfig
	SlowRequestThreshold time.Duration
	CompressionThreshold int
}

// DefaultRouterConfig returns the production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Middleware:           DefaultChiMiddlewareConfig(),
		SlowRequestThreshold: time.Second,
		CompressionThreshold: middleware.DefaultCompressionThreshold,
	}
}

// NewRouter mounts the health, analytics and metrics endpoints.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(svc *service.Service, cfg RouterConfig, logger zerolog.Logger) http.Handler {
	h := NewHandler(svc)
	mw := NewChiMiddleware(cfg.Middleware)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeBadRequest, "method not allowed")
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", h.Health)
		r.Get("/live", h.Live)
	})

	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.SlowRequests(cfg.SlowRequestThreshold, logger))
		r.Use(middleware.Compression(cfg.CompressionThreshold))

		r.Get("/overview", h.Overview)
		r.Get("/churn", h.Churn)
		r.Get("/levels", h.Levels)
		r.Get("/users/segments", h.Segments)
		r.Get("/users/{userID}", h.User)
		r.Get("/recommendations", h.Recommendations)
		r.Get("/insights", h.Insights)
		r.Get("/stats", h.Stats)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
