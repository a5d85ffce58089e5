// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
)

// Clusterer groups weighted samples into taste centroids using a
// size-adaptive strategy. It holds no mutable state between calls and is
// safe for concurrent use; each Cluster call derives its own RNG from the
// configured seed.
type Clusterer struct {
	cfg    *Config
	logger zerolog.Logger
}

// clusterRule is one row of the size-adaptive policy table. Rules are
// evaluated in order; the first matching rule runs, and its optional
// fallback runs if the primary strategy declines the dataset.
type clusterRule struct {
	name     string
	matches  func(n int) bool
	run      func(samples []WeightedSample, rng *rand.Rand) ([]Centroid, error)
	fallback func(samples []WeightedSample, rng *rand.Rand) ([]Centroid, error)
}

// NewClusterer creates a Clusterer. A nil config uses DefaultConfig.
func NewClusterer(cfg *Config, logger zerolog.Logger) *Clusterer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Clusterer{
		cfg:    cfg,
		logger: logger.With().Str("component", "clusterer").Logger(),
	}
}

// Cluster partitions the samples into weighted centroids.
//
// Strategy selection by history size n:
//   - n < SmallThreshold: a single weighted-mean centroid. Too little data
//     to separate taste clusters reliably.
//   - n <= MediumThreshold: k-means sweep over k in [KMin, min(KMax, n-1)],
//     best silhouette wins, smallest k on ties.
//   - n > MediumThreshold: density-based clustering; if more than
//     NoiseThreshold of the points end up as noise the result is discarded
//     and the k-means sweep runs instead.
//
// Returns ErrInvalidInput for an empty history, a zero-dimensional or
// inconsistent embedding, or a non-positive total weight, and
// ErrClusteringFailed when every strategy is exhausted.
func (c *Clusterer) Cluster(samples []WeightedSample) ([]Centroid, error) {
	if err := c.validate(samples); err != nil {
		return nil, err
	}

	n := len(samples)
	rng := rand.New(rand.NewSource(c.cfg.Seed))

	for _, rule := range c.rules() {
		if !rule.matches(n) {
			continue
		}
		centroids, err := rule.run(samples, rng)
		if err != nil && rule.fallback != nil {
			c.logger.Warn().Err(err).Str("strategy", rule.name).Int("samples", n).
				Msg("primary clustering strategy failed, using fallback")
			centroids, err = rule.fallback(samples, rng)
		}
		if err != nil {
			return nil, err
		}
		c.logger.Debug().Str("strategy", rule.name).Int("samples", n).
			Int("centroids", len(centroids)).Msg("clustering complete")
		return centroids, nil
	}

	// Unreachable: the last rule matches every n.
	return nil, fmt.Errorf("%w: no strategy matched %d samples", ErrClusteringFailed, n)
}

func (c *Clusterer) rules() []clusterRule {
	cl := c.cfg.Clustering
	return []clusterRule{
		{
			name:    "single",
			matches: func(n int) bool { return n < cl.SmallThreshold },
			run: func(samples []WeightedSample, _ *rand.Rand) ([]Centroid, error) {
				members := make([]int, len(samples))
				for i := range members {
					members[i] = i
				}
				return []Centroid{buildCentroid(samples, members)}, nil
			},
		},
		{
			name:    "kmeans-sweep",
			matches: func(n int) bool { return n <= cl.MediumThreshold },
			run:     c.kmeansSweep,
		},
		{
			name:     "density",
			matches:  func(n int) bool { return true },
			run:      c.densityStrategy,
			fallback: c.kmeansSweep,
		},
	}
}

// kmeansSweep tries every k in the configured range and keeps the partition
// with the best silhouette score. Per-k failures are tolerated; only the
// whole sweep failing is an error.
func (c *Clusterer) kmeansSweep(samples []WeightedSample, rng *rand.Rand) ([]Centroid, error) {
	cl := c.cfg.Clustering
	vectors, weights := splitSamples(samples)

	kMax := cl.KMax
	if limit := len(samples) - 1; kMax > limit {
		kMax = limit
	}

	var (
		best      *kmeansResult
		bestScore = -2.0 // silhouette is bounded by [-1, 1]
		failures  int
	)
	for k := cl.KMin; k <= kMax; k++ {
		result, err := runKMeans(vectors, weights, k, cl.Restarts, cl.MaxIterations, rng)
		if err != nil {
			failures++
			c.logger.Debug().Err(err).Int("k", k).Msg("k-means run failed")
			continue
		}
		score := silhouetteScore(vectors, result.assignments, k)
		// Strict > keeps the smallest k on ties.
		if score > bestScore {
			bestScore = score
			best = result
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: all %d candidate k values failed", ErrClusteringFailed, failures)
	}

	c.logger.Debug().Int("k", best.k).Float64("silhouette", bestScore).Msg("selected partition")
	return centroidsFromAssignments(samples, best.assignments, best.k), nil
}

// densityStrategy clusters by density and rejects the result when too much
// of the history falls out as noise.
func (c *Clusterer) densityStrategy(samples []WeightedSample, _ *rand.Rand) ([]Centroid, error) {
	cl := c.cfg.Clustering
	vectors, _ := splitSamples(samples)

	labels, clusters := densityCluster(vectors, cl.MinClusterSize, cl.MinSamples)
	if clusters == 0 {
		return nil, fmt.Errorf("%w: density clustering found no clusters", ErrClusteringFailed)
	}

	noise := 0
	for _, l := range labels {
		if l == noiseLabel {
			noise++
		}
	}
	if frac := float64(noise) / float64(len(samples)); frac > cl.NoiseThreshold {
		return nil, fmt.Errorf("%w: density clustering marked %.0f%% of samples as noise",
			ErrClusteringFailed, frac*100)
	}

	return centroidsFromAssignments(samples, labels, clusters), nil
}

func (c *Clusterer) validate(samples []WeightedSample) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: empty history", ErrInvalidInput)
	}
	dim := samples[0].Item.Embedding.Dim()
	if dim == 0 {
		return fmt.Errorf("%w: sample 0 has no embedding", ErrInvalidInput)
	}
	total := 0.0
	for i, s := range samples {
		if d := s.Item.Embedding.Dim(); d != dim {
			return fmt.Errorf("%w: sample %d has dimension %d, expected %d", ErrInvalidInput, i, d, dim)
		}
		if s.Weight < 0 {
			return fmt.Errorf("%w: sample %d has negative weight %f", ErrInvalidInput, i, s.Weight)
		}
		total += s.Weight
	}
	if total <= 0 {
		return fmt.Errorf("%w: total sample weight is zero", ErrInvalidInput)
	}
	return nil
}

// centroidsFromAssignments builds one centroid per non-empty cluster.
// Noise labels are skipped; empty clusters are dropped rather than emitted
// as zero vectors.
func centroidsFromAssignments(samples []WeightedSample, labels []int, clusters int) []Centroid {
	memberSets := make([][]int, clusters)
	for i, l := range labels {
		if l == noiseLabel {
			continue
		}
		memberSets[l] = append(memberSets[l], i)
	}

	centroids := make([]Centroid, 0, clusters)
	for _, members := range memberSets {
		if len(members) == 0 {
			continue
		}
		centroids = append(centroids, buildCentroid(samples, members))
	}
	return centroids
}

// buildCentroid computes the weight-weighted mean vector and rating over
// the given member indices. A zero total weight degrades to a plain mean so
// a cluster of floor-weighted items still produces a usable centroid.
func buildCentroid(samples []WeightedSample, members []int) Centroid {
	dim := samples[members[0]].Item.Embedding.Dim()
	vec := make(Vector, dim)
	var totalWeight, ratingSum float64

	for _, idx := range members {
		s := samples[idx]
		totalWeight += s.Weight
		ratingSum += s.Weight * s.Item.Rating
		for d, x := range s.Item.Embedding {
			vec[d] += s.Weight * x
		}
	}

	if totalWeight <= 0 {
		for _, idx := range members {
			for d, x := range samples[idx].Item.Embedding {
				vec[d] += x
			}
			ratingSum += samples[idx].Item.Rating
		}
		totalWeight = float64(len(members))
	}

	for d := range vec {
		vec[d] /= totalWeight
	}

	return Centroid{
		Vector:        vec,
		AverageRating: ratingSum / totalWeight,
		Count:         len(members),
		Members:       append([]int(nil), members...),
	}
}

func splitSamples(samples []WeightedSample) ([]Vector, []float64) {
	vectors := make([]Vector, len(samples))
	weights := make([]float64, len(samples))
	for i, s := range samples {
		vectors[i] = s.Item.Embedding
		weights[i] = s.Weight
	}
	return vectors, weights
}
