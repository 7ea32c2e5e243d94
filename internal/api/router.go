// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/revenuescope/revenuescope/internal/config"
	"github.com/revenuescope/revenuescope/internal/middleware"
)

// NewRouter assembles the chi router: global request-ID, real-IP, panic
// recovery and CORS; per-group rate limiting and prometheus
// instrumentation on the API routes.
func NewRouter(h *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	rateLimit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit > 0 {
		rateLimit = httprate.Limit(cfg.RateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP))
	}

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit)
		r.Use(middleware.PrometheusMetrics)

		r.Get("/stats", h.Stats)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/devices", h.AnalyticsDevices)
			r.Get("/traffic", h.AnalyticsTraffic)
			r.Get("/visits", h.AnalyticsVisits)
			r.Get("/geographic", h.AnalyticsGeographic)
		})

		r.Get("/segments", h.Segments)

		r.Route("/model", func(r chi.Router) {
			r.Get("/", h.ModelInfo)
			r.Post("/train", h.TrainModel)
			r.Post("/predict", h.Predict)
			r.Post("/predict/batch", h.PredictBatch)
			r.Post("/latency/benchmark", h.LatencyBenchmark)
			r.Get("/latency", h.LatencySnapshot)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound,
			"Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed,
			"Method not allowed", nil)
	})

	return r
}
