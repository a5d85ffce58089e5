// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinetaste/cinetaste/internal/fielddetect"
	"github.com/cinetaste/cinetaste/internal/profile"
	"github.com/cinetaste/cinetaste/internal/storage"
	"github.com/cinetaste/cinetaste/internal/taste"
)

// Service is the profile orchestrator the handlers delegate to.
type Service interface {
	BuildAndSave(ctx context.Context, userID string, records []fielddetect.Record) (*taste.Profile, error)
	Get(ctx context.Context, userID string) (*taste.Profile, error)
	Recommend(ctx context.Context, req profile.RecommendRequest) (*profile.RecommendResponse, error)
}

var validate = validator.New()

// Handler holds the HTTP handlers for the API endpoints.
type Handler struct {
	service Service
	logger  zerolog.Logger

	// maxUploadBytes bounds watch history upload bodies.
	maxUploadBytes int64
}

// NewHandler creates the API handler set.
func NewHandler(service Service, maxUploadBytes int64, logger zerolog.Logger) *Handler {
	return &Handler{
		service:        service,
		logger:         logger.With().Str("component", "api").Logger(),
		maxUploadBytes: maxUploadBytes,
	}
}

// TasteGroup is one taste cluster in a profile summary.
type TasteGroup struct {
	Size          int      `json:"size"`
	AverageRating float64  `json:"average_rating"`
	TopGenres     []string `json:"top_genres,omitempty"`
	TopCountries  []string `json:"top_countries,omitempty"`
}

// ProfileSummary is the API view of a stored profile. Embedding vectors
// never leave the server.
type ProfileSummary struct {
	UserID      string       `json:"user_id"`
	Movies      int          `json:"movies"`
	TasteGroups []TasteGroup `json:"taste_groups"`
	Summary     string       `json:"summary"`
	BuiltAt     time.Time    `json:"built_at"`
}

// CreateProfile handles POST /api/v1/profiles/{userID}: it accepts a JSON
// array of watch history records in any supported export shape, builds the
// taste profile, and persists it.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	var records []fielddetect.Record
	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		rw.BadRequest("request body must be a JSON array of watch history records")
		return
	}

	p, err := h.service.BuildAndSave(r.Context(), userID, records)
	if err != nil {
		h.writeServiceError(rw, userID, err)
		return
	}

	rw.Created(profileSummary(p))
}

// GetProfile handles GET /api/v1/profiles/{userID}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.writeServiceError(rw, userID, err)
		return
	}

	rw.Success(profileSummary(p))
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req profile.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("malformed recommendation request")
		return
	}
	if err := validate.Struct(&req); err != nil {
		rw.ValidationError("invalid recommendation request", validationDetails(err))
		return
	}

	resp, err := h.service.Recommend(r.Context(), req)
	if err != nil {
		h.writeServiceError(rw, req.UserID, err)
		return
	}

	rw.Success(resp)
}

// Health handles GET /api/v1/healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// writeServiceError maps orchestrator errors onto API status codes.
func (h *Handler) writeServiceError(rw *ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound), errors.Is(err, storage.ErrNotFound):
		rw.NotFound("no profile for user " + userID)
	case errors.Is(err, profile.ErrInsufficientHistory):
		rw.UnprocessableEntity(ErrCodeInsufficientHistory, err.Error())
	case errors.Is(err, taste.ErrInvalidInput):
		rw.BadRequest(err.Error())
	default:
		h.logger.Error().Err(err).Str("user_id", userID).Msg("request failed")
		rw.InternalError("an internal error occurred")
	}
}

func profileSummary(p *taste.Profile) ProfileSummary {
	groups := make([]TasteGroup, len(p.Centroids))
	for i, c := range p.Centroids {
		groups[i] = TasteGroup{
			Size:          c.Count,
			AverageRating: c.AverageRating,
			TopGenres:     c.TopGenres,
			TopCountries:  c.TopCountries,
		}
	}
	return ProfileSummary{
		UserID:      p.UserID,
		Movies:      len(p.History),
		TasteGroups: groups,
		Summary:     profile.Summarize(p),
		BuiltAt:     p.BuiltAt,
	}
}

// validationDetails flattens validator errors into field/rule pairs for the
// response envelope.
func validationDetails(err error) interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	details := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, map[string]string{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		})
	}
	return details
}
