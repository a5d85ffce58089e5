// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinetaste/cinetaste/internal/cache"
)

// fakeProvider serves deterministic two-dimensional vectors: the first
// component encodes the text length.
func fakeProvider(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		var resp embedResponse
		for i, text := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float64 `json:"embedding"`
			}{Index: i, Embedding: []float64{float64(len(text)), 1}})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func newTestClient(t *testing.T, baseURL string, batchSize int) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.BatchSize = batchSize
	cfg.RetryMax = 0
	return NewClient(cfg, cache.New(time.Minute, time.Minute), zerolog.Nop())
}

func TestClient_Embed(t *testing.T) {
	var calls atomic.Int64
	server := fakeProvider(t, &calls)
	defer server.Close()

	client := newTestClient(t, server.URL, 100)

	vectors, err := client.Embed(context.Background(), []string{"ab", "cdef"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("len(vectors) = %d, want 2", len(vectors))
	}
	if vectors[0][0] != 2 || vectors[1][0] != 4 {
		t.Errorf("vectors = %v, want first components 2 and 4", vectors)
	}
}

func TestClient_DeduplicatesInput(t *testing.T) {
	var calls atomic.Int64
	server := fakeProvider(t, &calls)
	defer server.Close()

	client := newTestClient(t, server.URL, 100)

	vectors, err := client.Embed(context.Background(), []string{"same", "same", "same"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("len(vectors) = %d, want 3 (one per input)", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != 4 {
			t.Errorf("vectors[%d] = %v, want duplicate mapped to same vector", i, v)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1 for deduplicated input", calls.Load())
	}
}

func TestClient_CachesAcrossCalls(t *testing.T) {
	var calls atomic.Int64
	server := fakeProvider(t, &calls)
	defer server.Close()

	client := newTestClient(t, server.URL, 100)
	ctx := context.Background()

	if _, err := client.Embed(ctx, []string{"cached text"}); err != nil {
		t.Fatalf("first Embed() error: %v", err)
	}
	if _, err := client.Embed(ctx, []string{"cached text"}); err != nil {
		t.Fatalf("second Embed() error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1 (second call served from cache)", calls.Load())
	}
}

func TestClient_Batches(t *testing.T) {
	var calls atomic.Int64
	server := fakeProvider(t, &calls)
	defer server.Close()

	client := newTestClient(t, server.URL, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := client.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("len(vectors) = %d, want %d", len(vectors), len(texts))
	}
	for i, text := range texts {
		if vectors[i][0] != float64(len(text)) {
			t.Errorf("vectors[%d] = %v, want first component %d", i, vectors[i], len(text))
		}
	}
	if calls.Load() != 3 {
		t.Errorf("provider calls = %d, want 3 batches of size <= 2", calls.Load())
	}
}

func TestClient_EmptyInput(t *testing.T) {
	client := newTestClient(t, "http://unused", 100)

	vectors, err := client.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed(nil) error: %v", err)
	}
	if vectors != nil {
		t.Errorf("Embed(nil) = %v, want nil", vectors)
	}
}

func TestClient_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 100)

	if _, err := client.Embed(context.Background(), []string{"x"}); err == nil {
		t.Error("Embed() = nil error, want provider failure surfaced")
	}
}
