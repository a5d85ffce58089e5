// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import (
	"fmt"
	"math"
	"time"

	"github.com/araddon/dateparse"
)

// Weighter computes per-item importance weights combining a rating factor
// and a recency factor. It is stateless and safe for concurrent use.
type Weighter struct {
	cfg WeightingConfig
}

// NewWeighter creates a Weighter with the given configuration.
func NewWeighter(cfg WeightingConfig) *Weighter {
	return &Weighter{cfg: cfg}
}

// Weight returns the importance weight for a rated item, always in (0, 1].
//
// The rating factor maps the rating scale onto [RatingFloor, 1] through a
// convex power curve, so the gap between a 9 and a 10 matters more than the
// gap between a 2 and a 3. Out-of-range ratings clamp to the scale bounds.
//
// The recency factor is a piecewise-linear curve over the watch year: full
// weight from FullWeightYear on, a gentle linear decay back to MidAnchorYear,
// a steeper decay back to OldAnchorYear, and FloorWeight below that. An empty
// watchedAt substitutes DefaultWatchedAt; a malformed one is an error.
func (w *Weighter) Weight(rating float64, watchedAt string, now time.Time) (float64, error) {
	year, err := w.watchYear(watchedAt, now)
	if err != nil {
		return 0, err
	}
	return w.ratingFactor(rating) * w.recencyFactor(year), nil
}

// WeightSamples computes weights for a full history in input order.
func (w *Weighter) WeightSamples(items []RatedItem, now time.Time) ([]WeightedSample, error) {
	samples := make([]WeightedSample, 0, len(items))
	for i, item := range items {
		weight, err := w.Weight(item.Rating, item.WatchedAt, now)
		if err != nil {
			return nil, fmt.Errorf("item %d (%q): %w", i, item.Title, err)
		}
		samples = append(samples, WeightedSample{Item: item, Weight: weight})
	}
	return samples, nil
}

func (w *Weighter) ratingFactor(rating float64) float64 {
	cfg := w.cfg
	r := math.Min(math.Max(rating, cfg.RatingMin), cfg.RatingMax)
	normalized := (r - cfg.RatingMin) / (cfg.RatingMax - cfg.RatingMin)
	return cfg.RatingFloor + (1-cfg.RatingFloor)*math.Pow(normalized, cfg.RatingExponent)
}

func (w *Weighter) recencyFactor(year int) float64 {
	cfg := w.cfg
	switch {
	case year >= cfg.FullWeightYear:
		return 1.0
	case year >= cfg.MidAnchorYear:
		span := float64(cfg.FullWeightYear - cfg.MidAnchorYear)
		frac := float64(year-cfg.MidAnchorYear) / span
		return cfg.MidWeight + (1-cfg.MidWeight)*frac
	case year >= cfg.OldAnchorYear:
		span := float64(cfg.MidAnchorYear - cfg.OldAnchorYear)
		frac := float64(year-cfg.OldAnchorYear) / span
		return cfg.FloorWeight + (cfg.MidWeight-cfg.FloorWeight)*frac
	default:
		return cfg.FloorWeight
	}
}

// watchYear resolves the watch year from the raw date string. Future dates
// clamp to the current year so clock skew in the history source cannot push
// a weight above the curve.
func (w *Weighter) watchYear(watchedAt string, now time.Time) (int, error) {
	if watchedAt == "" {
		watchedAt = w.cfg.DefaultWatchedAt
	}
	t, err := dateparse.ParseAny(watchedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: watched date %q: %v", ErrInvalidInput, watchedAt, err)
	}
	year := t.Year()
	if year > now.Year() {
		year = now.Year()
	}
	return year, nil
}
