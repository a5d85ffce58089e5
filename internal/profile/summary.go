// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package profile

import (
	"fmt"
	"strings"

	"github.com/cinetaste/cinetaste/internal/taste"
)

// topAttributes is how many genres/countries a cluster summary names.
const topAttributes = 2

// Summarize renders a profile's clusters as human-readable lines. The text
// feeds both the justifier prompt and the profile API, so it talks about
// "taste groups" rather than clusters or centroids.
func Summarize(p *taste.Profile) string {
	lines := make([]string, 0, len(p.Centroids))
	for i, c := range p.Centroids {
		lines = append(lines, fmt.Sprintf(
			"Taste group %d: %d movies, avg rating %.2f, main genres: %s, main countries: %s",
			i+1, c.Count, c.AverageRating,
			orFallback(c.TopGenres, "varied genres"),
			orFallback(c.TopCountries, "varied countries"),
		))
	}
	return strings.Join(lines, "\n")
}

func orFallback(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

// annotateCentroids fills each centroid's top genres and countries from its
// member items. Ties break toward the attribute seen first in the history,
// keeping the annotation deterministic.
func annotateCentroids(centroids []taste.Centroid, samples []taste.WeightedSample) {
	for i := range centroids {
		var genres, countries []string
		for _, idx := range centroids[i].Members {
			genres = append(genres, samples[idx].Item.Genres...)
			countries = append(countries, samples[idx].Item.Countries...)
		}
		centroids[i].TopGenres = topByFrequency(genres, topAttributes)
		centroids[i].TopCountries = topByFrequency(countries, topAttributes)
	}
}

func topByFrequency(values []string, n int) []string {
	counts := make(map[string]int, len(values))
	order := make([]string, 0, len(values))
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	// Selection over first-seen order keeps ties deterministic.
	top := make([]string, 0, n)
	picked := make(map[string]bool, n)
	for len(top) < n {
		best := ""
		for _, v := range order {
			if picked[v] {
				continue
			}
			if best == "" || counts[v] > counts[best] {
				best = v
			}
		}
		if best == "" {
			break
		}
		picked[best] = true
		top = append(top, best)
	}
	return top
}
