// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package profile orchestrates the taste pipeline: it turns uploaded watch
// histories into persisted profiles and serves recommendation requests by
// composing the catalog, embedding, filtering, scoring, and justification
// collaborators. The taste core stays pure; all I/O lives here.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinetaste/cinetaste/internal/embedding"
	"github.com/cinetaste/cinetaste/internal/fielddetect"
	"github.com/cinetaste/cinetaste/internal/taste"
)

// BuilderConfig holds profile construction parameters.
type BuilderConfig struct {
	// HighRatedMin is the exclusive rating threshold for history items
	// used in profile construction. Items at or below it still count as
	// watched for deduplication, but do not shape the taste centroids.
	HighRatedMin float64 `json:"high_rated_min" koanf:"high_rated_min"`

	// MinHistory is the minimum number of valid high-rated items required
	// to build a profile.
	MinHistory int `json:"min_history" koanf:"min_history"`
}

// DefaultBuilderConfig returns builder defaults.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		HighRatedMin: 4,
		MinHistory:   5,
	}
}

// Builder turns raw uploaded history records into taste profiles.
type Builder struct {
	cfg       BuilderConfig
	weighter  *taste.Weighter
	clusterer *taste.Clusterer
	embedder  embedding.Provider
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBuilder creates a profile builder.
func NewBuilder(cfg BuilderConfig, tasteCfg *taste.Config, embedder embedding.Provider, logger zerolog.Logger) *Builder {
	return &Builder{
		cfg:       cfg,
		weighter:  taste.NewWeighter(tasteCfg.Weighting),
		clusterer: taste.NewClusterer(tasteCfg, logger),
		embedder:  embedder,
		logger:    logger.With().Str("component", "profile-builder").Logger(),
		now:       time.Now,
	}
}

// Build converts the records, embeds the high-rated items, and clusters
// them into a profile. Invalid records are logged and skipped; too few
// usable items is ErrInsufficientHistory.
func (b *Builder) Build(ctx context.Context, userID string, records []fielddetect.Record) (*taste.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user ID", taste.ErrInvalidInput)
	}

	history := b.convertRecords(records)
	b.logger.Info().Str("user_id", userID).Int("records", len(records)).
		Int("valid", len(history)).Msg("watch history converted")

	highRated := make([]taste.RatedItem, 0, len(history))
	for _, item := range history {
		if item.Rating > b.cfg.HighRatedMin {
			highRated = append(highRated, item)
		}
	}
	if len(highRated) < b.cfg.MinHistory {
		return nil, fmt.Errorf("%w: %d high-rated items, need %d",
			ErrInsufficientHistory, len(highRated), b.cfg.MinHistory)
	}

	texts := make([]string, len(highRated))
	for i, item := range highRated {
		texts[i] = EmbedText(item.Title, item.Description, item.Genres, item.Countries)
	}
	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed history: %w", err)
	}
	for i := range highRated {
		highRated[i].Embedding = vectors[i]
	}

	samples, err := b.weighter.WeightSamples(highRated, b.now())
	if err != nil {
		return nil, fmt.Errorf("weight history: %w", err)
	}

	centroids, err := b.clusterer.Cluster(samples)
	if err != nil {
		return nil, fmt.Errorf("cluster history: %w", err)
	}
	annotateCentroids(centroids, samples)

	profile := &taste.Profile{
		UserID:    userID,
		Centroids: centroids,
		History:   history,
		BuiltAt:   b.now().UTC(),
	}
	b.logger.Info().Str("user_id", userID).Int("high_rated", len(highRated)).
		Int("centroids", len(centroids)).Msg("profile built")
	return profile, nil
}

func (b *Builder) convertRecords(records []fielddetect.Record) []taste.RatedItem {
	history := make([]taste.RatedItem, 0, len(records))
	for i, rec := range records {
		item, err := fielddetect.Convert(rec)
		if err != nil {
			b.logger.Warn().Err(err).Int("record", i).Msg("skipping invalid history record")
			continue
		}
		history = append(history, item)
	}
	return history
}

// EmbedText composes the text submitted to the embedding provider for an
// item: title, synopsis, genres, and countries in one string.
func EmbedText(title, description string, genres, countries []string) string {
	parts := []string{title}
	if description != "" {
		parts = append(parts, description)
	}
	parts = append(parts, strings.Join(genres, " "), strings.Join(countries, " "))
	return strings.TrimSpace(strings.Join(parts, " "))
}
