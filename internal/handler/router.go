// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Umar7799/course-project/internal/handler/api"
	"github.com/Umar7799/course-project/internal/metrics"
	"github.com/Umar7799/course-project/internal/middleware"
)

// RouterOptions controls the construction of the HTTP router.
type RouterOptions struct {
	API        *api.Handler
	Authorizer *middleware.Authorizer
	Health     *HealthHandler
	// Metrics is optional; without it /metrics is not served.
	Metrics     *metrics.Metrics
	CORSOrigins []string
	IsDev       bool
	// RateLimitRPS of zero disables the per-IP API limit.
	RateLimitRPS   float64
	RateLimitBurst int
}

// DefaultCORSOptions returns the CORS policy for the browser client.
func DefaultCORSOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles the chi router: shared middleware, health and metrics
// endpoints, and the API route table under /api.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(opts.IsDev)))
	r.Use(cors.Handler(DefaultCORSOptions(opts.CORSOrigins)))
	r.Use(middleware.RequestPath)

	if opts.Health != nil {
		r.Get("/health", opts.Health.Health)
		r.Get("/health/live", opts.Health.Liveness)
		r.Get("/health/ready", opts.Health.Readiness)
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(middleware.NewGlobalRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).Middleware())
		}
		opts.API.Mount(r, opts.Authorizer)
	})

	return r
}
