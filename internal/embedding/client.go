// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package embedding provides the HTTP client for the external embedding
// provider. The taste core never computes embeddings; every vector flowing
// through the pipeline comes from here. Per-text results are cached in an
// injected TTL cache keyed by text hash, inputs are deduplicated before the
// request, and large inputs are split into batches.
package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/cinetaste/cinetaste/internal/cache"
	"github.com/cinetaste/cinetaste/internal/taste"
)

// Provider is the embedding contract the orchestrator depends on. Results
// align one-to-one with the input texts.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([]taste.Vector, error)
}

// Config holds embedding client configuration.
type Config struct {
	// BaseURL is the provider endpoint, e.g. "https://api.openai.com/v1".
	BaseURL string `json:"base_url" koanf:"base_url"`

	// APIKey authenticates requests. Loaded from the environment, never
	// from config files.
	APIKey string `json:"-" koanf:"api_key"`

	// Model is the embedding model name.
	Model string `json:"model" koanf:"model"`

	// BatchSize caps the number of texts per request.
	BatchSize int `json:"batch_size" koanf:"batch_size"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// RetryMax is the number of HTTP retries per request.
	RetryMax int `json:"retry_max" koanf:"retry_max"`

	// CacheTTL is how long per-text vectors stay cached.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`
}

// DefaultConfig returns embedding client defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://api.openai.com/v1",
		Model:     "text-embedding-3-large",
		BatchSize: 100,
		Timeout:   30 * time.Second,
		RetryMax:  3,
		CacheTTL:  30 * 24 * time.Hour,
	}
}

// Client is the HTTP-backed Provider.
type Client struct {
	cfg    Config
	http   *retryablehttp.Client
	cache  *cache.Cache
	logger zerolog.Logger
}

var _ Provider = (*Client)(nil)

// NewClient creates an embedding client. The cache is an explicit
// collaborator so callers control its lifetime and TTL sweep cadence.
func NewClient(cfg Config, c *cache.Cache, logger zerolog.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.RetryMax
	httpClient.HTTPClient.Timeout = cfg.Timeout
	httpClient.Logger = nil

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		cache:  c,
		logger: logger.With().Str("component", "embedding").Logger(),
	}
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input text, in input order. Duplicate texts
// are requested once; cached texts are not requested at all.
func (c *Client) Embed(ctx context.Context, texts []string) ([]taste.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Deduplicate while preserving first-seen order.
	indicesByText := make(map[string][]int, len(texts))
	unique := make([]string, 0, len(texts))
	for i, text := range texts {
		if _, seen := indicesByText[text]; !seen {
			unique = append(unique, text)
		}
		indicesByText[text] = append(indicesByText[text], i)
	}

	uniqueVectors := make([]taste.Vector, len(unique))
	uncached := make([]int, 0, len(unique))
	for i, text := range unique {
		if v, ok := c.cache.Get(cacheKey(text)); ok {
			if vec, ok := v.(taste.Vector); ok {
				uniqueVectors[i] = vec
				continue
			}
		}
		uncached = append(uncached, i)
	}

	for start := 0; start < len(uncached); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(uncached) {
			end = len(uncached)
		}
		if err := c.embedBatch(ctx, unique, uncached[start:end], uniqueVectors); err != nil {
			return nil, err
		}
	}

	results := make([]taste.Vector, len(texts))
	for i, text := range unique {
		for _, idx := range indicesByText[text] {
			results[idx] = uniqueVectors[i]
		}
	}

	c.logger.Debug().Int("texts", len(texts)).Int("unique", len(unique)).
		Int("fetched", len(uncached)).Msg("embedded texts")
	return results, nil
}

// embedBatch requests vectors for unique[idx] for each idx in batch and
// fills them into out, caching each on success.
func (c *Client) embedBatch(ctx context.Context, unique []string, batch []int, out []taste.Vector) error {
	input := make([]string, len(batch))
	for i, idx := range batch {
		input[i] = unique[idx]
	}

	body, err := json.Marshal(embedRequest{Input: input, Model: c.cfg.Model})
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding provider returned status %d", resp.StatusCode)
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode embed response: %w", err)
	}
	if len(decoded.Data) != len(batch) {
		return fmt.Errorf("embedding provider returned %d vectors for %d texts",
			len(decoded.Data), len(batch))
	}

	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(batch) {
			return fmt.Errorf("embedding provider returned out-of-range index %d", d.Index)
		}
		idx := batch[d.Index]
		vec := taste.Vector(d.Embedding)
		out[idx] = vec
		c.cache.SetWithTTL(cacheKey(unique[idx]), vec, c.cfg.CacheTTL)
	}
	return nil
}

func cacheKey(text string) string {
	return fmt.Sprintf("embedding:%x", sha256.Sum256([]byte(text)))
}
