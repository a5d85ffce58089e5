// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import "time"

// Vector is a dense embedding produced by an external embedding provider.
// Vectors are immutable once created and comparable only at equal length.
type Vector []float64

// Dim returns the dimensionality of the vector.
func (v Vector) Dim() int {
	return len(v)
}

// RatedItem is an item the user has watched and rated.
type RatedItem struct {
	// ID is an optional provider-side identifier.
	ID string `json:"id,omitempty"`

	// Title is the item title as supplied by the history source.
	Title string `json:"title"`

	// Year is the release year.
	Year int `json:"year"`

	// Duration is the runtime in minutes.
	Duration int `json:"duration"`

	// Genres is the set of genre names.
	Genres []string `json:"genres"`

	// Countries is the set of production country codes.
	Countries []string `json:"countries"`

	// Description is the free-text synopsis.
	Description string `json:"description,omitempty"`

	// Rating is the user's rating on the 1-10 scale.
	Rating float64 `json:"rating"`

	// WatchedAt is the watch date in any parseable form. Empty means the
	// source did not record one; a fixed recent default is substituted so
	// the item is not penalized for missing metadata.
	WatchedAt string `json:"watched_at,omitempty"`

	// Embedding is the item's vector, attached by the orchestrator before
	// clustering. The core never computes embeddings itself.
	Embedding Vector `json:"embedding,omitempty"`
}

// WeightedSample pairs a rated item with its precomputed importance weight.
// Weights are computed once per item before clustering and never mutated.
type WeightedSample struct {
	Item   RatedItem `json:"item"`
	Weight float64   `json:"weight"`
}

// Centroid is a weighted average embedding representing a taste cluster.
// Once computed it is immutable; profiles are rebuilt wholesale, never
// incrementally updated.
type Centroid struct {
	// Vector is the weight-weighted mean of member embeddings. It has the
	// same dimensionality as the member embeddings.
	Vector Vector `json:"vector"`

	// AverageRating is the weight-weighted mean of member ratings.
	AverageRating float64 `json:"average_rating"`

	// Count is the number of member items.
	Count int `json:"count"`

	// TopGenres and TopCountries are the most frequent attributes among
	// member items, annotated after clustering so summaries survive
	// persistence without the member indices.
	TopGenres    []string `json:"top_genres,omitempty"`
	TopCountries []string `json:"top_countries,omitempty"`

	// Members holds indices into the clustering input, used for building
	// human-readable taste summaries. Omitted from persisted profiles.
	Members []int `json:"-"`
}

// Profile is a user's taste profile: an ordered list of centroids plus the
// rated-item history used to build them. Replaced wholesale on re-upload.
type Profile struct {
	UserID    string      `json:"user_id"`
	Centroids []Centroid  `json:"centroids"`
	History   []RatedItem `json:"history,omitempty"`
	BuiltAt   time.Time   `json:"built_at"`
}

// CandidateItem is a catalog item not yet rated by the user.
type CandidateItem struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Duration    int      `json:"duration"`
	Genres      []string `json:"genres"`
	Countries   []string `json:"countries"`
	Description string   `json:"description,omitempty"`

	// Embedding is assigned during scoring; candidates without one are
	// excluded from ranking (counted, not an error).
	Embedding Vector `json:"embedding,omitempty"`
}

// ScoredCandidate is the scorer's output unit. Ordering is by score
// descending; ties break by stable input order (first seen wins).
type ScoredCandidate struct {
	Item  CandidateItem `json:"item"`
	Score float64       `json:"score"`
}
