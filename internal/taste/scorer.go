// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
)

// Scorer ranks candidate items against taste centroids using
// softmax-aggregated cosine similarity. Stateless and safe for concurrent
// use.
type Scorer struct {
	cfg    ScoringConfig
	logger zerolog.Logger
}

// ScoreResult is the scorer's output: the ranked top candidates and the
// count of candidates excluded for lacking an embedding.
type ScoreResult struct {
	// Ranked holds at most TopN candidates, best first. Ties keep input
	// order.
	Ranked []ScoredCandidate `json:"ranked"`

	// MissingEmbeddings counts candidates silently excluded because no
	// embedding was attached. Surfaced for observability, never an error.
	MissingEmbeddings int `json:"missing_embeddings"`
}

// NewScorer creates a Scorer with the given configuration.
func NewScorer(cfg ScoringConfig, logger zerolog.Logger) *Scorer {
	return &Scorer{
		cfg:    cfg,
		logger: logger.With().Str("component", "scorer").Logger(),
	}
}

// Score ranks the candidates against the centroids.
//
// Each candidate's score aggregates its cosine similarity to every centroid
// through a softmax: score = sum_i softmax(alpha*sim_i) * sim_i. Sharpness
// alpha controls how much the nearest taste cluster dominates; alpha of
// zero degrades to the plain mean similarity.
//
// An empty centroid list is ErrInvalidInput: scoring without a profile is a
// caller bug, not an empty result. Candidates without an embedding are
// excluded and counted in the result. An empty candidate list yields an
// empty ranking.
func (s *Scorer) Score(candidates []CandidateItem, centroids []Centroid) (*ScoreResult, error) {
	if len(centroids) == 0 {
		return nil, fmt.Errorf("%w: no centroids to score against", ErrInvalidInput)
	}
	dim := centroids[0].Vector.Dim()
	for i, c := range centroids {
		if c.Vector.Dim() != dim {
			return nil, fmt.Errorf("%w: centroid %d has dimension %d, expected %d",
				ErrInvalidInput, i, c.Vector.Dim(), dim)
		}
	}

	centroidNorms := make([]float64, len(centroids))
	for i, c := range centroids {
		centroidNorms[i] = s.flooredNorm(c.Vector)
	}

	result := &ScoreResult{Ranked: make([]ScoredCandidate, 0, len(candidates))}
	sims := make([]float64, len(centroids))
	for _, cand := range candidates {
		if cand.Embedding.Dim() == 0 {
			result.MissingEmbeddings++
			continue
		}
		if cand.Embedding.Dim() != dim {
			return nil, fmt.Errorf("%w: candidate %q has dimension %d, expected %d",
				ErrInvalidInput, cand.Title, cand.Embedding.Dim(), dim)
		}

		candNorm := s.flooredNorm(cand.Embedding)
		for i, c := range centroids {
			sims[i] = dot(cand.Embedding, c.Vector) / (candNorm * centroidNorms[i])
		}
		result.Ranked = append(result.Ranked, ScoredCandidate{
			Item:  cand,
			Score: softmaxAggregate(sims, s.cfg.SoftmaxAlpha),
		})
	}

	// Stable sort preserves input order among equal scores.
	sort.SliceStable(result.Ranked, func(i, j int) bool {
		return result.Ranked[i].Score > result.Ranked[j].Score
	})
	if len(result.Ranked) > s.cfg.TopN {
		result.Ranked = result.Ranked[:s.cfg.TopN]
	}

	s.logger.Debug().Int("candidates", len(candidates)).Int("centroids", len(centroids)).
		Int("missing_embeddings", result.MissingEmbeddings).Int("ranked", len(result.Ranked)).
		Msg("scored candidates")
	return result, nil
}

// softmaxAggregate computes sum_i softmax(alpha*sims_i) * sims_i using the
// max-shift trick for numeric stability.
func softmaxAggregate(sims []float64, alpha float64) float64 {
	maxSim := sims[0]
	for _, s := range sims[1:] {
		if s > maxSim {
			maxSim = s
		}
	}

	var expSum, weighted float64
	for _, s := range sims {
		e := math.Exp(alpha * (s - maxSim))
		expSum += e
		weighted += e * s
	}
	return weighted / expSum
}

// flooredNorm returns the Euclidean norm floored at Epsilon so degenerate
// all-zero vectors yield near-zero similarity instead of dividing by zero.
func (s *Scorer) flooredNorm(v Vector) float64 {
	n := math.Sqrt(dot(v, v))
	if n < s.cfg.Epsilon {
		return s.cfg.Epsilon
	}
	return n
}

func dot(a, b Vector) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
