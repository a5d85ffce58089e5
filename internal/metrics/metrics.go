// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package metrics registers the Prometheus instruments for the pipeline:
// profile builds, recommendation latency, candidate exclusions, and HTTP
// traffic. All collectors are registered on the default registry and
// served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProfileBuilds counts profile constructions by outcome
	// ("ok", "insufficient_history", "invalid_input", "error").
	ProfileBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinetaste_profile_builds_total",
			Help: "Total number of profile build attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ProfileBuildDuration tracks end-to-end profile build latency,
	// including embedding I/O.
	ProfileBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinetaste_profile_build_duration_seconds",
			Help:    "Duration of profile builds in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// RecommendationDuration tracks end-to-end recommendation latency.
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinetaste_recommendation_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// CandidatesMissingEmbedding counts candidates excluded from scoring
	// because no embedding was attached.
	CandidatesMissingEmbedding = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinetaste_candidates_missing_embedding_total",
			Help: "Total candidates excluded from scoring for lacking an embedding",
		},
	)

	// JustifierFailures counts justifier calls that failed or were
	// rejected by the circuit breaker. Failures degrade, never abort.
	JustifierFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinetaste_justifier_failures_total",
			Help: "Total justifier calls that failed or were short-circuited",
		},
	)

	// HTTPRequests counts API requests by method, route pattern, and
	// status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinetaste_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks per-route request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinetaste_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
