// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Filter removes candidates the user has already watched, matching exactly
// on normalized titles and approximately via fuzzy title similarity, both
// gated by a release-year tolerance. Stateless and safe for concurrent use.
type Filter struct {
	cfg    FilterConfig
	logger zerolog.Logger
}

// Criteria are optional attribute constraints applied after deduplication.
// A zero-value field means no constraint on that attribute.
type Criteria struct {
	// Genres keeps candidates sharing at least one of the listed genres.
	Genres []string `json:"genres,omitempty"`

	// Years keeps candidates released in one of the listed years.
	Years []int `json:"years,omitempty"`

	// Durations keeps candidates whose runtime does not exceed the longest
	// listed duration.
	Durations []int `json:"durations,omitempty"`

	// Countries keeps candidates produced in at least one listed country.
	Countries []string `json:"countries,omitempty"`
}

// NewFilter creates a Filter with the given configuration.
func NewFilter(cfg FilterConfig, logger zerolog.Logger) *Filter {
	return &Filter{
		cfg:    cfg,
		logger: logger.With().Str("component", "filter").Logger(),
	}
}

// Filter returns the candidates that survive watched-item deduplication and
// the attribute criteria, preserving input order with no duplicates.
//
// Matching runs in two passes. Pass one drops candidates whose normalized
// title equals a watched title with a release year within YearTolerance.
// Pass two drops candidates whose title is fuzzily similar (ratio at or
// above FuzzyThreshold) to a watched title, again within the year
// tolerance. The year gate keeps remakes: the same title decades apart is a
// different work. Finally the survivors are self-deduplicated by
// (normalized title, year), first occurrence winning.
func (f *Filter) Filter(candidates []CandidateItem, watched []RatedItem, crit Criteria) []CandidateItem {
	type watchedKey struct {
		title string
		year  int
	}
	watchedExact := make(map[string][]int, len(watched))
	watchedNorm := make([]watchedKey, 0, len(watched))
	for _, w := range watched {
		nt := normalizeTitle(w.Title)
		if nt == "" {
			continue
		}
		watchedExact[nt] = append(watchedExact[nt], w.Year)
		watchedNorm = append(watchedNorm, watchedKey{title: nt, year: w.Year})
	}

	dropped := 0
	seen := make(map[watchedKey]struct{}, len(candidates))
	out := make([]CandidateItem, 0, len(candidates))

candidates:
	for _, cand := range candidates {
		nt := normalizeTitle(cand.Title)

		for _, year := range watchedExact[nt] {
			if yearWithin(cand.Year, year, f.cfg.YearTolerance) {
				dropped++
				continue candidates
			}
		}

		for _, w := range watchedNorm {
			if !yearWithin(cand.Year, w.year, f.cfg.YearTolerance) {
				continue
			}
			if fuzzyRatio(nt, w.title) >= f.cfg.FuzzyThreshold {
				dropped++
				continue candidates
			}
		}

		if !MatchesCriteria(cand, crit) {
			continue
		}

		key := watchedKey{title: nt, year: cand.Year}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cand)
	}

	f.logger.Debug().Int("candidates", len(candidates)).Int("watched", len(watched)).
		Int("dropped_as_watched", dropped).Int("survivors", len(out)).Msg("filtered candidates")
	return out
}

// MatchesCriteria reports whether a candidate satisfies the attribute
// constraints. Callers that fetch candidates use it to pre-filter before
// the deduplication passes run.
func MatchesCriteria(c CandidateItem, crit Criteria) bool {
	if len(crit.Genres) > 0 && !intersects(c.Genres, crit.Genres) {
		return false
	}
	if len(crit.Years) > 0 {
		found := false
		for _, y := range crit.Years {
			if c.Year == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(crit.Durations) > 0 {
		max := crit.Durations[0]
		for _, d := range crit.Durations[1:] {
			if d > max {
				max = d
			}
		}
		if c.Duration > max {
			return false
		}
	}
	if len(crit.Countries) > 0 && !intersects(c.Countries, crit.Countries) {
		return false
	}
	return true
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func yearWithin(a, b, tolerance int) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// fuzzyRatio returns a 0-100 similarity between two already-normalized
// titles based on Levenshtein distance over the longer string. Identical
// strings score 100; two empty strings count as identical.
func fuzzyRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

// titleStripper removes diacritics: decompose to NFD, drop combining
// marks, recompose.
var titleStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeTitle lowercases, strips diacritics, and removes everything but
// letters and digits, so "Amélie!" and "amelie" compare equal.
func normalizeTitle(title string) string {
	lower := strings.ToLower(title)
	stripped, _, err := transform.String(titleStripper, lower)
	if err != nil {
		stripped = lower
	}
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
