// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Config holds the HTTP surface knobs.
type Config struct {
	// CORSAllowedOrigins is empty by default, requiring explicit
	// configuration before browsers may call the API cross-origin.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" json:"cors_allowed_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests" json:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" json:"rate_limit_window"`

	// MaxUploadBytes bounds watch history upload bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" json:"max_upload_bytes"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CORSAllowedOrigins: []string{},
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
		MaxUploadBytes:     10 << 20,
	}
}

// NewRouter builds the HTTP handler tree: global middleware, the
// versioned API routes, and the Prometheus scrape endpoint.
func NewRouter(cfg Config, service Service, logger zerolog.Logger) http.Handler {
	h := NewHandler(service, cfg.MaxUploadBytes, logger)

	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(cfg.CORSAllowedOrigins))
	r.Use(RequestLogger(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/healthz", h.Health)

		r.Route("/profiles/{userID}", func(r chi.Router) {
			r.Post("/", h.CreateProfile)
			r.Get("/", h.GetProfile)
		})

		r.Post("/recommendations", h.Recommend)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
