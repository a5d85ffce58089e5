// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package fielddetect converts heterogeneous watch-history records into the
// canonical rated-item shape. History exports from different services name
// the same field differently ("title", "originalTitle", "movie_name", ...),
// so each semantic field carries an ordered list of accepted keys and a
// typed parser; the first key present in the record wins. Detection is
// driven entirely by the declarative table in fieldSpecs, without
// reflection.
package fielddetect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cinetaste/cinetaste/internal/taste"
)

// Record is one raw history entry as decoded from an upload.
type Record map[string]any

// fieldSpec is one row of the detection table: the keys accepted for a
// semantic field, in priority order, and how to assign the parsed value.
type fieldSpec struct {
	name     string
	keys     []string
	required bool
	assign   func(item *taste.RatedItem, raw any) bool
}

var (
	yearPattern     = regexp.MustCompile(`(\d{4})`)
	langArtifact    = regexp.MustCompile(`(?i)\s*\([a-z]{2}\)\s*$`)
	errMissingField = "missing required field"
)

// fieldSpecs is the full detection table. Order within keys matters: the
// first present key is used even when a later one also exists.
var fieldSpecs = []fieldSpec{
	{
		name:     "title",
		keys:     []string{"originalTitle", "title", "original_title", "primaryTitle", "movie_name", "name", "film_title", "internationalTitle"},
		required: true,
		assign: func(item *taste.RatedItem, raw any) bool {
			s, ok := parseString(raw)
			if !ok {
				return false
			}
			item.Title = normalizeTitle(s)
			return true
		},
	},
	{
		name:     "rating",
		keys:     []string{"rating", "rating_score", "vote_average", "averageRating", "user_rating", "score", "rate"},
		required: true,
		assign: func(item *taste.RatedItem, raw any) bool {
			f, ok := parseFloat(raw)
			if !ok {
				return false
			}
			item.Rating = f
			return true
		},
	},
	{
		name:     "year",
		keys:     []string{"year", "release_year", "startYear", "production_year", "release_date", "releaseYear"},
		required: true,
		assign: func(item *taste.RatedItem, raw any) bool {
			y, ok := parseYear(raw)
			if !ok {
				return false
			}
			item.Year = y
			return true
		},
	},
	{
		name:     "duration",
		keys:     []string{"duration", "runtime", "runtimeMinutes", "film_length", "length"},
		required: true,
		assign: func(item *taste.RatedItem, raw any) bool {
			n, ok := parseInt(raw)
			if !ok {
				return false
			}
			item.Duration = n
			return true
		},
	},
	{
		name:     "genres",
		keys:     []string{"genres", "genre_list", "category_tags", "genre"},
		required: true,
		assign: func(item *taste.RatedItem, raw any) bool {
			l, ok := parseList(raw)
			if !ok {
				return false
			}
			item.Genres = l
			return true
		},
	},
	{
		name: "countries",
		keys: []string{"countries", "country_list", "production_countries", "origin_countries", "country"},
		assign: func(item *taste.RatedItem, raw any) bool {
			l, ok := parseList(raw)
			if !ok {
				return false
			}
			item.Countries = normalizeCountries(l)
			return true
		},
	},
	{
		name:     "description",
		keys:     []string{"description", "plot_summary", "overview", "synopsis", "plot", "summary"},
		required: true,
		assign: func(item *taste.RatedItem, raw any) bool {
			s, ok := parseString(raw)
			if !ok {
				return false
			}
			item.Description = s
			return true
		},
	},
	{
		name: "watched_at",
		keys: []string{"watched_at", "viewed_date", "watch_timestamp", "date", "watch_date", "viewDate"},
		assign: func(item *taste.RatedItem, raw any) bool {
			s, ok := parseString(raw)
			if !ok {
				return false
			}
			item.WatchedAt = s
			return true
		},
	},
}

// Convert maps a raw record onto a rated item. A missing or unparseable
// required field is an error naming the field; optional fields are left at
// their zero values (countries default to empty).
func Convert(rec Record) (taste.RatedItem, error) {
	var item taste.RatedItem
	for _, spec := range fieldSpecs {
		assigned := false
		for _, key := range spec.keys {
			raw, present := rec[key]
			if !present {
				continue
			}
			if spec.assign(&item, raw) {
				assigned = true
			}
			break
		}
		if spec.required && !assigned {
			return taste.RatedItem{}, fmt.Errorf("%s %q", errMissingField, spec.name)
		}
	}
	if item.Countries == nil {
		item.Countries = []string{}
	}
	return item, nil
}

func parseString(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func parseFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		// JSON numbers decode as float64; accept only whole values.
		if v == float64(int(v)) {
			return int(v), true
		}
		return 0, false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// parseYear accepts plain integers and date-like strings, extracting the
// first four-digit run ("2016-11-11" yields 2016).
func parseYear(raw any) (int, bool) {
	if n, ok := parseInt(raw); ok {
		return n, true
	}
	s, ok := raw.(string)
	if !ok {
		return 0, false
	}
	m := yearPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

// parseList accepts a JSON array or a comma-separated string.
func parseList(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// normalizeTitle strips trailing language artifacts like " (en)".
func normalizeTitle(title string) string {
	return strings.TrimSpace(langArtifact.ReplaceAllString(title, ""))
}

// normalizeCountries uppercases two-letter codes and leaves longer names
// untouched for the catalog provider to resolve.
func normalizeCountries(countries []string) []string {
	out := make([]string, 0, len(countries))
	for _, c := range countries {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if len(c) == 2 {
			c = strings.ToUpper(c)
		}
		out = append(out, c)
	}
	return out
}
