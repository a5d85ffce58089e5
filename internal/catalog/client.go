// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package catalog fetches candidate items from a TMDB-style movie catalog.
// The full popularity-ranked list is fetched once and cached; per-request
// filtering happens against the cached list. Outbound calls are rate
// limited so a cold cache cannot hammer the provider.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cinetaste/cinetaste/internal/cache"
	"github.com/cinetaste/cinetaste/internal/taste"
)

const (
	topListCacheKey  = "catalog:top"
	genreMapCacheKey = "catalog:genres"
	moviesPerPage    = 20
)

// Provider is the candidate-source contract the orchestrator depends on.
type Provider interface {
	FetchCandidates(ctx context.Context, crit taste.Criteria) ([]taste.CandidateItem, error)
}

// Config holds catalog client configuration.
type Config struct {
	// BaseURL is the catalog API root, e.g. "https://api.themoviedb.org/3".
	BaseURL string `json:"base_url" koanf:"base_url"`

	// APIKey authenticates requests. Loaded from the environment.
	APIKey string `json:"-" koanf:"api_key"`

	// Language selects localized metadata.
	Language string `json:"language" koanf:"language"`

	// TopMovies is how many popularity-ranked movies to cache.
	TopMovies int `json:"top_movies" koanf:"top_movies"`

	// RequestsPerSecond bounds outbound calls.
	RequestsPerSecond float64 `json:"requests_per_second" koanf:"requests_per_second"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// RetryMax is the number of HTTP retries per request.
	RetryMax int `json:"retry_max" koanf:"retry_max"`

	// CacheTTL is how long the cached top list stays fresh.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`
}

// DefaultConfig returns catalog client defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.themoviedb.org/3",
		Language:          "en-US",
		TopMovies:         1000,
		RequestsPerSecond: 20,
		Timeout:           15 * time.Second,
		RetryMax:          3,
		CacheTTL:          24 * time.Hour,
	}
}

// Client is the HTTP-backed Provider.
type Client struct {
	cfg     Config
	http    *retryablehttp.Client
	cache   *cache.Cache
	limiter *rate.Limiter
	logger  zerolog.Logger
}

var _ Provider = (*Client)(nil)

// NewClient creates a catalog client with an injected cache.
func NewClient(cfg Config, c *cache.Cache, logger zerolog.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.RetryMax
	httpClient.HTTPClient.Timeout = cfg.Timeout
	httpClient.Logger = nil

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		cache:   c,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

// FetchCandidates returns the cached top list filtered by the criteria,
// fetching and caching the list first when absent.
func (c *Client) FetchCandidates(ctx context.Context, crit taste.Criteria) ([]taste.CandidateItem, error) {
	all, err := c.topList(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]taste.CandidateItem, 0, len(all))
	for _, item := range all {
		if taste.MatchesCriteria(item, crit) {
			out = append(out, item)
		}
	}

	c.logger.Debug().Int("cached", len(all)).Int("matched", len(out)).Msg("fetched candidates")
	return out, nil
}

func (c *Client) topList(ctx context.Context) ([]taste.CandidateItem, error) {
	if v, ok := c.cache.Get(topListCacheKey); ok {
		if items, ok := v.([]taste.CandidateItem); ok {
			return items, nil
		}
	}

	items, err := c.fetchTopList(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetWithTTL(topListCacheKey, items, c.cfg.CacheTTL)
	return items, nil
}

type discoverPage struct {
	Results []struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		ReleaseDate string `json:"release_date"`
		GenreIDs    []int  `json:"genre_ids"`
		Overview    string `json:"overview"`
	} `json:"results"`
	TotalPages int `json:"total_pages"`
}

type movieDetails struct {
	Runtime             int `json:"runtime"`
	ProductionCountries []struct {
		ISO string `json:"iso_3166_1"`
	} `json:"production_countries"`
}

// fetchTopList walks the discover pages in popularity order and resolves
// per-movie details for runtime and production countries.
func (c *Client) fetchTopList(ctx context.Context) ([]taste.CandidateItem, error) {
	genres, err := c.genreMap(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := (c.cfg.TopMovies + moviesPerPage - 1) / moviesPerPage
	items := make([]taste.CandidateItem, 0, c.cfg.TopMovies)

	for page := 1; page <= totalPages; page++ {
		var decoded discoverPage
		params := url.Values{
			"language": {c.cfg.Language},
			"sort_by":  {"popularity.desc"},
			"page":     {strconv.Itoa(page)},
		}
		if err := c.getJSON(ctx, "/discover/movie", params, &decoded); err != nil {
			return nil, fmt.Errorf("discover page %d: %w", page, err)
		}

		for _, raw := range decoded.Results {
			if len(items) >= c.cfg.TopMovies {
				break
			}
			item, err := c.resolveDetails(ctx, raw.ID, raw.Title, raw.ReleaseDate, raw.GenreIDs, raw.Overview, genres)
			if err != nil {
				return nil, err
			}
			if item != nil {
				items = append(items, *item)
			}
		}

		if page >= decoded.TotalPages && decoded.TotalPages > 0 {
			break
		}
	}

	c.logger.Info().Int("movies", len(items)).Msg("refreshed catalog top list")
	return items, nil
}

func (c *Client) resolveDetails(ctx context.Context, id int, title, releaseDate string, genreIDs []int, overview string, genres map[int]string) (*taste.CandidateItem, error) {
	var details movieDetails
	err := c.getJSON(ctx, "/movie/"+strconv.Itoa(id), url.Values{"language": {c.cfg.Language}}, &details)
	if err != nil {
		if isNotFound(err) {
			return nil, nil // delisted between discover and details
		}
		return nil, fmt.Errorf("movie %d details: %w", id, err)
	}

	item := &taste.CandidateItem{
		ID:          strconv.Itoa(id),
		Title:       title,
		Year:        yearOf(releaseDate),
		Duration:    details.Runtime,
		Description: overview,
	}
	for _, gid := range genreIDs {
		if name, ok := genres[gid]; ok {
			item.Genres = append(item.Genres, name)
		}
	}
	for _, pc := range details.ProductionCountries {
		item.Countries = append(item.Countries, pc.ISO)
	}
	return item, nil
}

func (c *Client) genreMap(ctx context.Context) (map[int]string, error) {
	if v, ok := c.cache.Get(genreMapCacheKey); ok {
		if m, ok := v.(map[int]string); ok {
			return m, nil
		}
	}

	var decoded struct {
		Genres []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"genres"`
	}
	if err := c.getJSON(ctx, "/genre/movie/list", url.Values{"language": {c.cfg.Language}}, &decoded); err != nil {
		return nil, fmt.Errorf("genre list: %w", err)
	}

	m := make(map[int]string, len(decoded.Genres))
	for _, g := range decoded.Genres {
		m[g.ID] = g.Name
	}
	c.cache.SetWithTTL(genreMapCacheKey, m, c.cfg.CacheTTL)
	return m, nil
}

type notFoundError struct{ path string }

func (e *notFoundError) Error() string { return "not found: " + e.path }

func isNotFound(err error) bool {
	var nf *notFoundError
	return errors.As(err, &nf)
}

// getJSON performs a rate-limited GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("api_key", c.cfg.APIKey)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &notFoundError{path: path}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func yearOf(releaseDate string) int {
	parts := strings.SplitN(releaseDate, "-", 2)
	if len(parts) == 0 || len(parts[0]) != 4 {
		return 0
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	return year
}
