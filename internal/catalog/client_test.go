// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinetaste/cinetaste/internal/cache"
	"github.com/cinetaste/cinetaste/internal/taste"
)

// fakeCatalog serves a two-movie catalog with genre and detail endpoints.
func fakeCatalog(t *testing.T, discoverCalls *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"genres":[{"id":878,"name":"Science Fiction"},{"id":18,"name":"Drama"}]}`)
	})
	mux.HandleFunc("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		discoverCalls.Add(1)
		fmt.Fprint(w, `{"total_pages":1,"results":[
			{"id":1,"title":"Dune","release_date":"2021-10-22","genre_ids":[878],"overview":"Spice."},
			{"id":2,"title":"Gone Movie","release_date":"2020-01-01","genre_ids":[18],"overview":"Gone."},
			{"id":3,"title":"Nomadland","release_date":"2020-12-04","genre_ids":[18],"overview":"Road."}
		]}`)
	})
	mux.HandleFunc("/movie/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/movie/")
		switch id {
		case "1":
			fmt.Fprint(w, `{"runtime":155,"production_countries":[{"iso_3166_1":"US"}]}`)
		case "2":
			http.NotFound(w, r) // delisted between discover and details
		case "3":
			fmt.Fprint(w, `{"runtime":107,"production_countries":[{"iso_3166_1":"US"},{"iso_3166_1":"DE"}]}`)
		default:
			t.Errorf("unexpected movie id %q", id)
		}
	})

	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.TopMovies = 20
	cfg.RequestsPerSecond = 1000
	cfg.RetryMax = 0
	return NewClient(cfg, cache.New(time.Minute, time.Minute), zerolog.Nop())
}

func TestClient_FetchCandidates(t *testing.T) {
	var discoverCalls atomic.Int64
	server := fakeCatalog(t, &discoverCalls)
	defer server.Close()

	client := newTestClient(t, server.URL)

	items, err := client.FetchCandidates(context.Background(), taste.Criteria{})
	if err != nil {
		t.Fatalf("FetchCandidates() error: %v", err)
	}
	// The delisted movie is skipped, not an error.
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	dune := items[0]
	if dune.Title != "Dune" || dune.Year != 2021 || dune.Duration != 155 {
		t.Errorf("item = %+v", dune)
	}
	if len(dune.Genres) != 1 || dune.Genres[0] != "Science Fiction" {
		t.Errorf("Genres = %v, want mapped genre names", dune.Genres)
	}
	if len(dune.Countries) != 1 || dune.Countries[0] != "US" {
		t.Errorf("Countries = %v", dune.Countries)
	}
}

func TestClient_CachesTopList(t *testing.T) {
	var discoverCalls atomic.Int64
	server := fakeCatalog(t, &discoverCalls)
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	if _, err := client.FetchCandidates(ctx, taste.Criteria{}); err != nil {
		t.Fatalf("first FetchCandidates() error: %v", err)
	}
	if _, err := client.FetchCandidates(ctx, taste.Criteria{}); err != nil {
		t.Fatalf("second FetchCandidates() error: %v", err)
	}
	if discoverCalls.Load() != 1 {
		t.Errorf("discover calls = %d, want 1 (second fetch served from cache)", discoverCalls.Load())
	}
}

func TestClient_AppliesCriteria(t *testing.T) {
	var discoverCalls atomic.Int64
	server := fakeCatalog(t, &discoverCalls)
	defer server.Close()

	client := newTestClient(t, server.URL)

	items, err := client.FetchCandidates(context.Background(), taste.Criteria{
		Genres: []string{"Drama"},
	})
	if err != nil {
		t.Fatalf("FetchCandidates() error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Nomadland" {
		t.Errorf("items = %+v, want only Nomadland", items)
	}
}

func TestYearOf(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2021-10-22", 2021},
		{"1999", 1999},
		{"", 0},
		{"bad", 0},
	}
	for _, tt := range tests {
		if got := yearOf(tt.in); got != tt.want {
			t.Errorf("yearOf(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
