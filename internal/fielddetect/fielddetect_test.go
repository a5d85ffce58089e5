// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package fielddetect

import (
	"reflect"
	"strings"
	"testing"
)

func validRecord() Record {
	return Record{
		"title":       "Arrival",
		"rating":      8.5,
		"year":        2016,
		"duration":    116,
		"genres":      []any{"Sci-Fi", "Drama"},
		"countries":   []any{"us"},
		"description": "A linguist decodes an alien language.",
		"watched_at":  "2023-04-01",
	}
}

func TestConvert_ValidRecord(t *testing.T) {
	item, err := Convert(validRecord())
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	if item.Title != "Arrival" {
		t.Errorf("Title = %q, want %q", item.Title, "Arrival")
	}
	if item.Rating != 8.5 {
		t.Errorf("Rating = %f, want 8.5", item.Rating)
	}
	if item.Year != 2016 {
		t.Errorf("Year = %d, want 2016", item.Year)
	}
	if item.Duration != 116 {
		t.Errorf("Duration = %d, want 116", item.Duration)
	}
	if !reflect.DeepEqual(item.Genres, []string{"Sci-Fi", "Drama"}) {
		t.Errorf("Genres = %v", item.Genres)
	}
	if !reflect.DeepEqual(item.Countries, []string{"US"}) {
		t.Errorf("Countries = %v, want [US]", item.Countries)
	}
	if item.WatchedAt != "2023-04-01" {
		t.Errorf("WatchedAt = %q", item.WatchedAt)
	}
}

func TestConvert_AlternateKeys(t *testing.T) {
	rec := Record{
		"originalTitle":  "Der Himmel über Berlin",
		"vote_average":   "7.9",
		"release_date":   "1987-09-23",
		"runtimeMinutes": "128",
		"genre":          "Drama, Fantasy",
		"country":        "de",
		"overview":       "Angels watch over Berlin.",
		"viewDate":       "2022-12-24",
	}

	item, err := Convert(rec)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if item.Title != "Der Himmel über Berlin" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.Rating != 7.9 {
		t.Errorf("Rating = %f, want 7.9 (parsed from string)", item.Rating)
	}
	if item.Year != 1987 {
		t.Errorf("Year = %d, want 1987 (extracted from date)", item.Year)
	}
	if item.Duration != 128 {
		t.Errorf("Duration = %d, want 128", item.Duration)
	}
	if !reflect.DeepEqual(item.Genres, []string{"Drama", "Fantasy"}) {
		t.Errorf("Genres = %v, want comma-split list", item.Genres)
	}
	if !reflect.DeepEqual(item.Countries, []string{"DE"}) {
		t.Errorf("Countries = %v, want [DE]", item.Countries)
	}
	if item.WatchedAt != "2022-12-24" {
		t.Errorf("WatchedAt = %q", item.WatchedAt)
	}
}

func TestConvert_KeyPriority(t *testing.T) {
	rec := validRecord()
	rec["originalTitle"] = "La Llegada" // higher priority than "title"

	item, err := Convert(rec)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if item.Title != "La Llegada" {
		t.Errorf("Title = %q, want originalTitle to win", item.Title)
	}
}

func TestConvert_TitleLanguageArtifact(t *testing.T) {
	rec := validRecord()
	rec["title"] = "Oldboy (en)"

	item, err := Convert(rec)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if item.Title != "Oldboy" {
		t.Errorf("Title = %q, want language artifact stripped", item.Title)
	}
}

func TestConvert_MissingRequiredFields(t *testing.T) {
	for _, field := range []string{"title", "rating", "year", "duration", "genres", "description"} {
		t.Run(field, func(t *testing.T) {
			rec := validRecord()
			delete(rec, field)

			_, err := Convert(rec)
			if err == nil {
				t.Fatalf("Convert() = nil error, want missing-field error for %q", field)
			}
			if !strings.Contains(err.Error(), field) {
				t.Errorf("error %q does not name field %q", err, field)
			}
		})
	}
}

func TestConvert_OptionalFieldsDefault(t *testing.T) {
	rec := validRecord()
	delete(rec, "countries")
	delete(rec, "watched_at")

	item, err := Convert(rec)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if item.Countries == nil || len(item.Countries) != 0 {
		t.Errorf("Countries = %v, want empty non-nil slice", item.Countries)
	}
	if item.WatchedAt != "" {
		t.Errorf("WatchedAt = %q, want empty", item.WatchedAt)
	}
}

func TestConvert_UnparseableRequiredValue(t *testing.T) {
	rec := validRecord()
	rec["rating"] = "not a number"

	if _, err := Convert(rec); err == nil {
		t.Error("Convert() = nil error, want error for unparseable rating")
	}
}

func TestConvert_FractionalDurationRejected(t *testing.T) {
	rec := validRecord()
	rec["duration"] = 116.5

	if _, err := Convert(rec); err == nil {
		t.Error("Convert() = nil error, want error for fractional duration")
	}
}
