// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import "fmt"

// Config contains all tunable parameters for the taste core.
// None of the thresholds below are hardcoded at call sites; callers obtain
// them here so deployments can tune behavior without code changes.
type Config struct {
	// Weighting contains rating/recency weighting parameters.
	Weighting WeightingConfig `json:"weighting" koanf:"weighting"`

	// Clustering contains size-adaptive clustering parameters.
	Clustering ClusteringConfig `json:"clustering" koanf:"clustering"`

	// Filter contains duplicate/fuzzy filter parameters.
	Filter FilterConfig `json:"filter" koanf:"filter"`

	// Scoring contains candidate scoring parameters.
	Scoring ScoringConfig `json:"scoring" koanf:"scoring"`

	// Seed is the random seed for k-means initialization.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed" koanf:"seed"`
}

// WeightingConfig contains parameters for the importance weighting model.
type WeightingConfig struct {
	// RatingMin and RatingMax bound the rating scale. Out-of-range ratings
	// are clamped to the nearest bound rather than rejected.
	// Defaults: 1.0 and 10.0.
	RatingMin float64 `json:"rating_min" koanf:"rating_min"`
	RatingMax float64 `json:"rating_max" koanf:"rating_max"`

	// RatingFloor is the weight assigned at the scale minimum. Low ratings
	// still carry some taste signal, so this is never zero.
	// Default: 0.15.
	RatingFloor float64 `json:"rating_floor" koanf:"rating_floor"`

	// RatingExponent shapes the convex rating curve.
	// Default: 1.5.
	RatingExponent float64 `json:"rating_exponent" koanf:"rating_exponent"`

	// FullWeightYear is the first watch year receiving full recency weight.
	// Default: 2020.
	FullWeightYear int `json:"full_weight_year" koanf:"full_weight_year"`

	// MidAnchorYear marks the start of the gentle decay segment
	// (MidAnchorYear..FullWeightYear decays linearly MidWeight..1.0).
	// Default: 1990.
	MidAnchorYear int `json:"mid_anchor_year" koanf:"mid_anchor_year"`

	// OldAnchorYear marks the start of the steep decay segment
	// (OldAnchorYear..MidAnchorYear decays linearly FloorWeight..MidWeight).
	// Years before it receive FloorWeight.
	// Default: 1975.
	OldAnchorYear int `json:"old_anchor_year" koanf:"old_anchor_year"`

	// MidWeight is the recency weight at MidAnchorYear.
	// Default: 0.85.
	MidWeight float64 `json:"mid_weight" koanf:"mid_weight"`

	// FloorWeight is the recency weight for the oldest items. Never zero.
	// Default: 0.3.
	FloorWeight float64 `json:"floor_weight" koanf:"floor_weight"`

	// DefaultWatchedAt substitutes for a missing watch date so items are
	// not penalized for incomplete metadata.
	// Default: "2023-01-01".
	DefaultWatchedAt string `json:"default_watched_at" koanf:"default_watched_at"`
}

// ClusteringConfig contains parameters for the size-adaptive clustering engine.
type ClusteringConfig struct {
	// SmallThreshold is the history size below which clustering is skipped
	// and a single weighted centroid is returned.
	// Default: 100.
	SmallThreshold int `json:"small_threshold" koanf:"small_threshold"`

	// MediumThreshold is the history size above which density-based
	// clustering is attempted before the k-means sweep.
	// Default: 500.
	MediumThreshold int `json:"medium_threshold" koanf:"medium_threshold"`

	// KMin and KMax bound the k-means sweep.
	// Defaults: 2 and 10.
	KMin int `json:"k_min" koanf:"k_min"`
	KMax int `json:"k_max" koanf:"k_max"`

	// Restarts is the number of seeded k-means initializations per k; the
	// run with the lowest inertia wins.
	// Default: 10.
	Restarts int `json:"restarts" koanf:"restarts"`

	// MaxIterations bounds Lloyd iterations per k-means run.
	// Default: 100.
	MaxIterations int `json:"max_iterations" koanf:"max_iterations"`

	// MinClusterSize is the minimum member count for a density-based
	// cluster; smaller groups are reassigned to noise.
	// Default: 10.
	MinClusterSize int `json:"min_cluster_size" koanf:"min_cluster_size"`

	// MinSamples is the density neighborhood size.
	// Default: 2.
	MinSamples int `json:"min_samples" koanf:"min_samples"`

	// NoiseThreshold is the maximum tolerated fraction of unclustered
	// points before the density result is discarded in favor of the
	// k-means sweep.
	// Default: 0.5.
	NoiseThreshold float64 `json:"noise_threshold" koanf:"noise_threshold"`
}

// FilterConfig contains parameters for the duplicate/fuzzy filter.
type FilterConfig struct {
	// FuzzyThreshold is the 0-100 title similarity at or above which a
	// candidate is considered a near-duplicate of a watched item.
	// Default: 85.
	FuzzyThreshold float64 `json:"fuzzy_threshold" koanf:"fuzzy_threshold"`

	// YearTolerance is the maximum release-year difference for a title
	// match to count as the same work. Same title beyond the tolerance is
	// treated as a different work (e.g. a remake).
	// Default: 1.
	YearTolerance int `json:"year_tolerance" koanf:"year_tolerance"`
}

// ScoringConfig contains parameters for the candidate scorer.
type ScoringConfig struct {
	// SoftmaxAlpha is the sharpness of the softmax aggregation across
	// centroids. Higher values favor the closest taste cluster; lower
	// values blend clusters toward a plain mean.
	// Default: 5.0.
	SoftmaxAlpha float64 `json:"softmax_alpha" koanf:"softmax_alpha"`

	// TopN is the number of ranked candidates to return.
	// Default: 10.
	TopN int `json:"top_n" koanf:"top_n"`

	// Epsilon floors vector norms before division so degenerate all-zero
	// embeddings cannot divide by zero.
	// Default: 1e-10.
	Epsilon float64 `json:"epsilon" koanf:"epsilon"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weighting: WeightingConfig{
			RatingMin:        1.0,
			RatingMax:        10.0,
			RatingFloor:      0.15,
			RatingExponent:   1.5,
			FullWeightYear:   2020,
			MidAnchorYear:    1990,
			OldAnchorYear:    1975,
			MidWeight:        0.85,
			FloorWeight:      0.3,
			DefaultWatchedAt: "2023-01-01",
		},
		Clustering: ClusteringConfig{
			SmallThreshold:  100,
			MediumThreshold: 500,
			KMin:            2,
			KMax:            10,
			Restarts:        10,
			MaxIterations:   100,
			MinClusterSize:  10,
			MinSamples:      2,
			NoiseThreshold:  0.5,
		},
		Filter: FilterConfig{
			FuzzyThreshold: 85,
			YearTolerance:  1,
		},
		Scoring: ScoringConfig{
			SoftmaxAlpha: 5.0,
			TopN:         10,
			Epsilon:      1e-10,
		},
		Seed: 42, // Default seed for determinism
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	w := c.Weighting
	if w.RatingMax <= w.RatingMin {
		return fmt.Errorf("weighting.rating_max must exceed rating_min, got %f <= %f", w.RatingMax, w.RatingMin)
	}
	if w.RatingFloor <= 0 || w.RatingFloor >= 1 {
		return fmt.Errorf("weighting.rating_floor must be in (0, 1), got %f", w.RatingFloor)
	}
	if w.RatingExponent <= 0 {
		return fmt.Errorf("weighting.rating_exponent must be positive, got %f", w.RatingExponent)
	}
	if w.FloorWeight <= 0 || w.FloorWeight > w.MidWeight || w.MidWeight > 1 {
		return fmt.Errorf("weighting anchors must satisfy 0 < floor_weight <= mid_weight <= 1, got %f, %f", w.FloorWeight, w.MidWeight)
	}
	if w.OldAnchorYear >= w.MidAnchorYear || w.MidAnchorYear >= w.FullWeightYear {
		return fmt.Errorf("weighting anchor years must be strictly increasing, got %d, %d, %d", w.OldAnchorYear, w.MidAnchorYear, w.FullWeightYear)
	}

	cl := c.Clustering
	if cl.SmallThreshold < 1 {
		return fmt.Errorf("clustering.small_threshold must be positive, got %d", cl.SmallThreshold)
	}
	if cl.MediumThreshold < cl.SmallThreshold {
		return fmt.Errorf("clustering.medium_threshold must be >= small_threshold, got %d < %d", cl.MediumThreshold, cl.SmallThreshold)
	}
	if cl.KMin < 2 {
		return fmt.Errorf("clustering.k_min must be at least 2, got %d", cl.KMin)
	}
	if cl.KMax < cl.KMin {
		return fmt.Errorf("clustering.k_max must be >= k_min, got %d < %d", cl.KMax, cl.KMin)
	}
	if cl.Restarts < 1 {
		return fmt.Errorf("clustering.restarts must be positive, got %d", cl.Restarts)
	}
	if cl.MaxIterations < 1 {
		return fmt.Errorf("clustering.max_iterations must be positive, got %d", cl.MaxIterations)
	}
	if cl.MinClusterSize < 2 {
		return fmt.Errorf("clustering.min_cluster_size must be at least 2, got %d", cl.MinClusterSize)
	}
	if cl.MinSamples < 1 {
		return fmt.Errorf("clustering.min_samples must be positive, got %d", cl.MinSamples)
	}
	if cl.NoiseThreshold < 0 || cl.NoiseThreshold > 1 {
		return fmt.Errorf("clustering.noise_threshold must be in [0, 1], got %f", cl.NoiseThreshold)
	}

	f := c.Filter
	if f.FuzzyThreshold < 0 || f.FuzzyThreshold > 100 {
		return fmt.Errorf("filter.fuzzy_threshold must be in [0, 100], got %f", f.FuzzyThreshold)
	}
	if f.YearTolerance < 0 {
		return fmt.Errorf("filter.year_tolerance must be non-negative, got %d", f.YearTolerance)
	}

	s := c.Scoring
	if s.SoftmaxAlpha < 0 {
		return fmt.Errorf("scoring.softmax_alpha must be non-negative, got %f", s.SoftmaxAlpha)
	}
	if s.TopN < 1 {
		return fmt.Errorf("scoring.top_n must be positive, got %d", s.TopN)
	}
	if s.Epsilon <= 0 {
		return fmt.Errorf("scoring.epsilon must be positive, got %g", s.Epsilon)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types
	return &Config{
		Weighting:  c.Weighting,
		Clustering: c.Clustering,
		Filter:     c.Filter,
		Scoring:    c.Scoring,
		Seed:       c.Seed,
	}
}
