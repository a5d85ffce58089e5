// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package taste implements the taste-profile core: weighting, clustering,
// duplicate filtering, and candidate scoring.
//
// # Pipeline
//
// A user's watch history flows through four stages:
//
//   - Weighting: each rated item receives an importance weight in (0, 1]
//     combining a rating factor and a recency factor.
//   - Clustering: weighted embeddings are grouped into taste centroids
//     using a size-adaptive strategy (single centroid, k-means sweep, or
//     density-based clustering with a k-means fallback).
//   - Filtering: candidate items that match watched items exactly or
//     approximately (fuzzy title match within a year tolerance) are removed.
//   - Scoring: surviving candidates are ranked against the centroids using
//     softmax-aggregated cosine similarity.
//
// # Design Principles
//
//   - Deterministic: randomized initialization is seeded (Config.Seed), so
//     identical inputs produce identical outputs.
//   - Pure: every stage is a synchronous, CPU-bound computation over its
//     inputs. No shared mutable state; all stages are safe for concurrent
//     use from multiple goroutines.
//   - Fail fast: malformed input (mismatched lengths, empty centroid sets,
//     unparseable dates) surfaces ErrInvalidInput to the caller. Clustering
//     exhaustion surfaces ErrClusteringFailed. The package never retries
//     internally; the orchestrator owns retry and user-facing policy.
//
// # Usage
//
//	cfg := taste.DefaultConfig()
//	clusterer := taste.NewClusterer(cfg, logger)
//
//	centroids, err := clusterer.Cluster(samples)
//	if err != nil {
//	    return err
//	}
//
//	scorer := taste.NewScorer(cfg.Scoring, logger)
//	result, err := scorer.Score(candidates, centroids)
package taste
