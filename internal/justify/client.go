// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package justify produces short natural-language justifications for
// ranked recommendations by calling a chat-completion API. The call sits
// behind a circuit breaker: a flapping language model must never stall or
// fail the recommendation pipeline, so callers treat errors here as
// degradation, not failure.
package justify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cinetaste/cinetaste/internal/taste"
)

// Justification is one annotated recommendation.
type Justification struct {
	Title         string   `json:"title"`
	Year          int      `json:"year"`
	Genres        []string `json:"genres"`
	Justification string   `json:"justification"`
}

// Justifier is the annotation contract the orchestrator depends on.
type Justifier interface {
	Justify(ctx context.Context, tasteSummary string, candidates []taste.ScoredCandidate) ([]Justification, error)
}

// Config holds justifier client configuration.
type Config struct {
	// BaseURL is the chat-completion endpoint root.
	BaseURL string `json:"base_url" koanf:"base_url"`

	// APIKey authenticates requests. Loaded from the environment.
	APIKey string `json:"-" koanf:"api_key"`

	// Model is the chat model name.
	Model string `json:"model" koanf:"model"`

	// Timeout bounds a single request.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// RetryMax is the number of HTTP retries per request.
	RetryMax int `json:"retry_max" koanf:"retry_max"`

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration `json:"breaker_timeout" koanf:"breaker_timeout"`
}

// DefaultConfig returns justifier defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o",
		Timeout:        60 * time.Second,
		RetryMax:       1,
		BreakerTimeout: 2 * time.Minute,
	}
}

// Client is the HTTP-backed Justifier.
type Client struct {
	cfg     Config
	http    *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker[[]Justification]
	logger  zerolog.Logger
}

var _ Justifier = (*Client)(nil)

// NewClient creates a justifier client. The breaker opens after a 60%
// failure rate over at least 5 requests and probes again after
// BreakerTimeout.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.RetryMax
	httpClient.HTTPClient.Timeout = cfg.Timeout
	httpClient.Logger = nil

	componentLogger := logger.With().Str("component", "justify").Logger()
	breaker := gobreaker.NewCircuitBreaker[[]Justification](gobreaker.Settings{
		Name:        "justifier-llm",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			componentLogger.Warn().Str("from", from.String()).Str("to", to.String()).
				Msg("justifier circuit breaker state change")
		},
	})

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		breaker: breaker,
		logger:  componentLogger,
	}
}

// Justify asks the model for 1-2 sentence justifications for each
// candidate, given the human-readable taste summary. Returns the breaker's
// error unchanged when the circuit is open.
func (c *Client) Justify(ctx context.Context, tasteSummary string, candidates []taste.ScoredCandidate) ([]Justification, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	return c.breaker.Execute(func() ([]Justification, error) {
		return c.call(ctx, tasteSummary, candidates)
	})
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) call(ctx context.Context, tasteSummary string, candidates []taste.ScoredCandidate) ([]Justification, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(tasteSummary, candidates)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat endpoint returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("chat endpoint returned no choices")
	}

	justifications, err := parseJustifications(decoded.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Int("candidates", len(candidates)).Int("justified", len(justifications)).
		Msg("justified recommendations")
	return justifications, nil
}

const systemPrompt = "You are an expert movie recommender. " +
	"When writing justifications, never mention taste groups, clusters, or internal group numbers; " +
	"explain your reasoning in terms of genres, countries, and the user's preferences. " +
	"Respond with a JSON array only, where each item has: title (string), year (integer), " +
	"genres (list of strings), justification (string, 1-2 sentences)."

func buildPrompt(tasteSummary string, candidates []taste.ScoredCandidate) string {
	var b strings.Builder
	b.WriteString("User taste profile:\n")
	b.WriteString(tasteSummary)
	b.WriteString("\n\nCandidate movies:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s (%d) - %s\n", i+1, c.Item.Title, c.Item.Year,
			strings.Join(c.Item.Genres, ", "))
	}
	b.WriteString("\nProvide a brief justification for each candidate.")
	return b.String()
}

// parseJustifications decodes the model's JSON array leniently: markdown
// code fences and prose around the array are tolerated.
func parseJustifications(content string) ([]Justification, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in model response")
	}

	var justifications []Justification
	if err := json.Unmarshal([]byte(content[start:end+1]), &justifications); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	return justifications, nil
}
