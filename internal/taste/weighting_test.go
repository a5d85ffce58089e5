// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestWeighter_RatingMonotonicity(t *testing.T) {
	w := NewWeighter(DefaultConfig().Weighting)

	prev := -1.0
	for rating := 1.0; rating <= 10.0; rating++ {
		weight, err := w.Weight(rating, "2023-05-01", testNow)
		if err != nil {
			t.Fatalf("Weight(%f) error: %v", rating, err)
		}
		if weight <= prev {
			t.Errorf("Weight(%f) = %f, want > %f (monotone in rating)", rating, weight, prev)
		}
		if weight <= 0 || weight > 1 {
			t.Errorf("Weight(%f) = %f, want in (0, 1]", rating, weight)
		}
		prev = weight
	}
}

func TestWeighter_RatingBounds(t *testing.T) {
	w := NewWeighter(DefaultConfig().Weighting)

	tests := []struct {
		name   string
		rating float64
		want   float64
	}{
		{"scale minimum hits floor", 1, 0.15},
		{"scale maximum hits full weight", 10, 1.0},
		{"below scale clamps to floor", -3, 0.15},
		{"above scale clamps to full weight", 42, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.Weight(tt.rating, "2023-05-01", testNow)
			if err != nil {
				t.Fatalf("Weight() error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Weight(%f) = %f, want %f", tt.rating, got, tt.want)
			}
		})
	}
}

func TestWeighter_RecencyCurve(t *testing.T) {
	w := NewWeighter(DefaultConfig().Weighting)

	// Rating 10 isolates the recency factor.
	tests := []struct {
		name      string
		watchedAt string
		want      float64
	}{
		{"recent year gets full weight", "2023-01-15", 1.0},
		{"full-weight anchor year", "2020-07-01", 1.0},
		{"mid anchor year", "1990-03-01", 0.85},
		{"midpoint of gentle decay", "2005-01-01", 0.925},
		{"old anchor year", "1975-01-01", 0.3},
		{"ancient year floors", "1950-01-01", 0.3},
		{"future date clamps to now", "2999-01-01", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.Weight(10, tt.watchedAt, testNow)
			if err != nil {
				t.Fatalf("Weight() error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Weight(10, %q) = %f, want %f", tt.watchedAt, got, tt.want)
			}
		})
	}
}

func TestWeighter_MissingDateUsesDefault(t *testing.T) {
	w := NewWeighter(DefaultConfig().Weighting)

	missing, err := w.Weight(8, "", testNow)
	if err != nil {
		t.Fatalf("Weight with empty date error: %v", err)
	}
	explicit, err := w.Weight(8, "2023-01-01", testNow)
	if err != nil {
		t.Fatalf("Weight with default date error: %v", err)
	}
	if missing != explicit {
		t.Errorf("empty date weight = %f, want same as default date (%f)", missing, explicit)
	}
}

func TestWeighter_MalformedDate(t *testing.T) {
	w := NewWeighter(DefaultConfig().Weighting)

	_, err := w.Weight(8, "not a date at all", testNow)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Weight with malformed date error = %v, want ErrInvalidInput", err)
	}
}

func TestWeighter_WeightSamples(t *testing.T) {
	w := NewWeighter(DefaultConfig().Weighting)

	items := []RatedItem{
		{Title: "A", Rating: 9, WatchedAt: "2024-01-01"},
		{Title: "B", Rating: 5, WatchedAt: "2022-06-15"},
		{Title: "C", Rating: 7, WatchedAt: ""},
	}

	samples, err := w.WeightSamples(items, testNow)
	if err != nil {
		t.Fatalf("WeightSamples() error: %v", err)
	}
	if len(samples) != len(items) {
		t.Fatalf("len(samples) = %d, want %d", len(samples), len(items))
	}
	for i, s := range samples {
		if s.Item.Title != items[i].Title {
			t.Errorf("sample %d title = %q, want %q (input order preserved)", i, s.Item.Title, items[i].Title)
		}
		if s.Weight <= 0 || s.Weight > 1 {
			t.Errorf("sample %d weight = %f, want in (0, 1]", i, s.Weight)
		}
	}

	t.Run("malformed item aborts with context", func(t *testing.T) {
		bad := append(items, RatedItem{Title: "D", Rating: 6, WatchedAt: "???"})
		_, err := w.WeightSamples(bad, testNow)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("WeightSamples error = %v, want ErrInvalidInput", err)
		}
	})
}
