// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import (
	"reflect"
	"testing"
)

func titlesOf(items []CandidateItem) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Title
	}
	return out
}

func TestFilter_WatchedDeduplication(t *testing.T) {
	f := NewFilter(DefaultConfig().Filter, testLogger())

	watched := []RatedItem{
		{Title: "The Matrix", Year: 1999, Rating: 9},
		{Title: "Amélie", Year: 2001, Rating: 8},
		{Title: "Interstellar", Year: 2014, Rating: 9},
	}

	tests := []struct {
		name      string
		candidate CandidateItem
		wantKept  bool
	}{
		{
			name:      "exact watched title and year dropped",
			candidate: CandidateItem{Title: "The Matrix", Year: 1999},
			wantKept:  false,
		},
		{
			name:      "case and punctuation variants dropped",
			candidate: CandidateItem{Title: "the matrix!", Year: 1999},
			wantKept:  false,
		},
		{
			name:      "year within tolerance dropped",
			candidate: CandidateItem{Title: "The Matrix", Year: 2000},
			wantKept:  false,
		},
		{
			name:      "sequel with distinct title kept",
			candidate: CandidateItem{Title: "The Matrix Reloaded", Year: 2003},
			wantKept:  true,
		},
		{
			name:      "diacritic variant dropped",
			candidate: CandidateItem{Title: "Amelie", Year: 2001},
			wantKept:  false,
		},
		{
			name:      "near-typo title dropped by fuzzy pass",
			candidate: CandidateItem{Title: "Interstelar", Year: 2014},
			wantKept:  false,
		},
		{
			name:      "same title far outside year tolerance kept as remake",
			candidate: CandidateItem{Title: "The Matrix", Year: 2026},
			wantKept:  true,
		},
		{
			name:      "unrelated title kept",
			candidate: CandidateItem{Title: "Arrival", Year: 2016},
			wantKept:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Filter([]CandidateItem{tt.candidate}, watched, Criteria{})
			kept := len(got) == 1
			if kept != tt.wantKept {
				t.Errorf("Filter kept=%v, want %v for %q (%d)", kept, tt.wantKept,
					tt.candidate.Title, tt.candidate.Year)
			}
		})
	}
}

func TestFilter_OrderAndSelfDedup(t *testing.T) {
	f := NewFilter(DefaultConfig().Filter, testLogger())

	candidates := []CandidateItem{
		{Title: "Arrival", Year: 2016},
		{Title: "Dune", Year: 2021},
		{Title: "Arrival", Year: 2016}, // duplicate, first occurrence wins
		{Title: "Blade Runner 2049", Year: 2017},
	}

	got := f.Filter(candidates, nil, Criteria{})
	want := []string{"Arrival", "Dune", "Blade Runner 2049"}
	if !reflect.DeepEqual(titlesOf(got), want) {
		t.Errorf("Filter() = %v, want %v", titlesOf(got), want)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	f := NewFilter(DefaultConfig().Filter, testLogger())

	watched := []RatedItem{{Title: "The Matrix", Year: 1999}}
	candidates := []CandidateItem{
		{Title: "The Matrix", Year: 1999},
		{Title: "Arrival", Year: 2016, Genres: []string{"Sci-Fi"}},
		{Title: "Dune", Year: 2021, Genres: []string{"Sci-Fi"}},
		{Title: "Arrival", Year: 2016, Genres: []string{"Sci-Fi"}},
	}
	crit := Criteria{Genres: []string{"Sci-Fi"}}

	once := f.Filter(candidates, watched, crit)
	twice := f.Filter(once, watched, crit)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Filter not idempotent: %v then %v", titlesOf(once), titlesOf(twice))
	}
}

func TestFilter_Criteria(t *testing.T) {
	f := NewFilter(DefaultConfig().Filter, testLogger())

	candidates := []CandidateItem{
		{Title: "A", Year: 2020, Duration: 120, Genres: []string{"Drama"}, Countries: []string{"US"}},
		{Title: "B", Year: 2021, Duration: 95, Genres: []string{"Comedy"}, Countries: []string{"FR"}},
		{Title: "C", Year: 2020, Duration: 180, Genres: []string{"Drama", "Comedy"}, Countries: []string{"US", "GB"}},
	}

	tests := []struct {
		name string
		crit Criteria
		want []string
	}{
		{"empty criteria keeps everything", Criteria{}, []string{"A", "B", "C"}},
		{"genre intersection", Criteria{Genres: []string{"comedy"}}, []string{"B", "C"}},
		{"year membership", Criteria{Years: []int{2020}}, []string{"A", "C"}},
		{"duration capped at longest requested", Criteria{Durations: []int{90, 130}}, []string{"A", "B"}},
		{"country intersection", Criteria{Countries: []string{"GB", "FR"}}, []string{"B", "C"}},
		{
			"combined criteria",
			Criteria{Genres: []string{"Drama"}, Years: []int{2020}, Durations: []int{150}},
			[]string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Filter(candidates, nil, tt.crit)
			if !reflect.DeepEqual(titlesOf(got), tt.want) {
				t.Errorf("Filter() = %v, want %v", titlesOf(got), tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Matrix", "thematrix"},
		{"Amélie", "amelie"},
		{"WALL·E", "walle"},
		{"Se7en", "se7en"},
		{"  Spaces  and-Dashes! ", "spacesanddashes"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFuzzyRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "interstellar", "interstellar", 100, 100},
		{"single-character typo", "interstelar", "interstellar", 85, 100},
		{"distinct titles", "thematrix", "thematrixreloaded", 0, 60},
		{"both empty", "", "", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fuzzyRatio(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("fuzzyRatio(%q, %q) = %f, want in [%f, %f]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}
