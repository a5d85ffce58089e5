// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinetaste/cinetaste/internal/catalog"
	"github.com/cinetaste/cinetaste/internal/embedding"
	"github.com/cinetaste/cinetaste/internal/fielddetect"
	"github.com/cinetaste/cinetaste/internal/justify"
	"github.com/cinetaste/cinetaste/internal/metrics"
	"github.com/cinetaste/cinetaste/internal/storage"
	"github.com/cinetaste/cinetaste/internal/taste"
)

// RecommendRequest is one recommendation query.
type RecommendRequest struct {
	UserID   string         `json:"user_id" validate:"required"`
	Criteria taste.Criteria `json:"filters"`

	// K overrides the configured TopN when positive and smaller.
	K int `json:"k" validate:"gte=0"`
}

// Recommendation is one ranked, optionally justified item.
type Recommendation struct {
	Title         string   `json:"title"`
	Year          int      `json:"year"`
	Genres        []string `json:"genres"`
	Countries     []string `json:"countries"`
	Description   string   `json:"description,omitempty"`
	Score         float64  `json:"score"`
	Justification string   `json:"justification,omitempty"`
}

// RecommendResponse is the ranked list plus pipeline observability counts.
type RecommendResponse struct {
	Recommendations   []Recommendation `json:"recommendations"`
	TasteSummary      string           `json:"taste_summary"`
	MissingEmbeddings int              `json:"missing_embeddings"`
	Justified         bool             `json:"justified"`
}

// Service composes the collaborators behind the public API: profile builds
// go through the Builder and the store; recommendations go through
// catalog, filter, embedder, scorer, and justifier.
type Service struct {
	builder   *Builder
	store     storage.ProfileStore
	catalog   catalog.Provider
	embedder  embedding.Provider
	justifier justify.Justifier
	filter    *taste.Filter
	scorer    *taste.Scorer
	logger    zerolog.Logger
}

// NewService wires the orchestrator.
func NewService(
	builder *Builder,
	store storage.ProfileStore,
	cat catalog.Provider,
	embedder embedding.Provider,
	justifier justify.Justifier,
	tasteCfg *taste.Config,
	logger zerolog.Logger,
) *Service {
	return &Service{
		builder:   builder,
		store:     store,
		catalog:   cat,
		embedder:  embedder,
		justifier: justifier,
		filter:    taste.NewFilter(tasteCfg.Filter, logger),
		scorer:    taste.NewScorer(tasteCfg.Scoring, logger),
		logger:    logger.With().Str("component", "profile-service").Logger(),
	}
}

// BuildAndSave constructs a profile from uploaded records and persists it,
// replacing any existing profile for the user.
func (s *Service) BuildAndSave(ctx context.Context, userID string, records []fielddetect.Record) (*taste.Profile, error) {
	start := time.Now()

	p, err := s.builder.Build(ctx, userID, records)
	if err != nil {
		metrics.ProfileBuilds.WithLabelValues(buildOutcome(err)).Inc()
		return nil, err
	}
	if err := s.store.Save(ctx, p); err != nil {
		metrics.ProfileBuilds.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("save profile: %w", err)
	}

	metrics.ProfileBuilds.WithLabelValues("ok").Inc()
	metrics.ProfileBuildDuration.Observe(time.Since(start).Seconds())
	return p, nil
}

// Get loads a stored profile.
func (s *Service) Get(ctx context.Context, userID string) (*taste.Profile, error) {
	p, err := s.store.Load(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %q", ErrProfileNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Recommend runs the full pipeline: load profile, fetch candidates, filter
// against the watch history, embed survivors, score, and justify. A
// justifier failure degrades to an unannotated list; everything else is an
// error.
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResponse, error) {
	start := time.Now()

	p, err := s.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.catalog.FetchCandidates(ctx, req.Criteria)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	survivors := s.filter.Filter(candidates, p.History, req.Criteria)
	if err := s.attachEmbeddings(ctx, survivors); err != nil {
		return nil, err
	}

	result, err := s.scorer.Score(survivors, p.Centroids)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	metrics.CandidatesMissingEmbedding.Add(float64(result.MissingEmbeddings))

	ranked := result.Ranked
	if req.K > 0 && req.K < len(ranked) {
		ranked = ranked[:req.K]
	}

	summary := Summarize(p)
	resp := &RecommendResponse{
		Recommendations:   toRecommendations(ranked),
		TasteSummary:      summary,
		MissingEmbeddings: result.MissingEmbeddings,
	}

	justifications, err := s.justifier.Justify(ctx, summary, ranked)
	if err != nil {
		// The ranked list must never be blocked by the language model.
		metrics.JustifierFailures.Inc()
		s.logger.Warn().Err(err).Str("user_id", req.UserID).
			Msg("justifier unavailable, returning unannotated recommendations")
	} else {
		applyJustifications(resp.Recommendations, justifications)
		resp.Justified = true
	}

	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	s.logger.Info().Str("user_id", req.UserID).Int("candidates", len(candidates)).
		Int("survivors", len(survivors)).Int("ranked", len(ranked)).
		Bool("justified", resp.Justified).Msg("recommendations served")
	return resp, nil
}

// attachEmbeddings fills candidate embeddings in place. Candidates the
// provider cannot embed stay vectorless and are excluded by the scorer.
func (s *Service) attachEmbeddings(ctx context.Context, candidates []taste.CandidateItem) error {
	if len(candidates) == 0 {
		return nil
	}
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = EmbedText(c.Title, c.Description, c.Genres, c.Countries)
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed candidates: %w", err)
	}
	for i := range candidates {
		candidates[i].Embedding = vectors[i]
	}
	return nil
}

func toRecommendations(ranked []taste.ScoredCandidate) []Recommendation {
	out := make([]Recommendation, len(ranked))
	for i, r := range ranked {
		out[i] = Recommendation{
			Title:       r.Item.Title,
			Year:        r.Item.Year,
			Genres:      r.Item.Genres,
			Countries:   r.Item.Countries,
			Description: r.Item.Description,
			Score:       r.Score,
		}
	}
	return out
}

// applyJustifications matches justifications to recommendations by title
// and year; unmatched entries from the model are dropped.
func applyJustifications(recs []Recommendation, justifications []justify.Justification) {
	for _, j := range justifications {
		for i := range recs {
			if recs[i].Title == j.Title && recs[i].Year == j.Year {
				recs[i].Justification = j.Justification
				break
			}
		}
	}
}

func buildOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, taste.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
