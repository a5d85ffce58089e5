// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package cache provides a thread-safe in-memory TTL cache. It is an
// explicit collaborator: components that need caching (embedding client,
// catalog client) receive a *Cache rather than keeping private state, so
// tests can inject a fresh one and operations can size TTLs per concern.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Entry is a cached value with its expiration time.
type Entry struct {
	Data      any
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory cache with per-entry TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	done    chan struct{}

	statsMu sync.Mutex
	stats   Stats
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// New creates a cache with the given default TTL and starts a background
// goroutine that sweeps expired entries every cleanupInterval. Call Close
// to stop the sweeper; callers create one cache per process concern, not
// per request.
func New(ttl, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.cleanupLoop(cleanupInterval)
	return c
}

// Close stops the background sweeper. The cache stays usable, but expired
// entries are then only evicted on access.
func (c *Cache) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// Get returns the value for key if present and unexpired. Expired entries
// are removed on access and counted as misses.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.count(func(s *Stats) { s.Misses++ })
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.count(func(s *Stats) { s.Misses++; s.Evictions++ })
		return nil, false
	}

	c.count(func(s *Stats) { s.Hits++ })
	return entry.Data, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL, overwriting any existing
// entry for the key.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry{Data: value, ExpiresAt: time.Now().Add(ttl)}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.count(func(s *Stats) { s.TotalKeys = total })
}

// Delete removes a single entry. Safe to call for absent keys.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.count(func(s *Stats) { s.Evictions++ })
}

// Clear drops every entry in one map swap.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.count(func(s *Stats) { s.Evictions += evicted; s.TotalKeys = 0 })
}

// GetStats returns a snapshot of the counters.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// HitRate returns the hit percentage, zero when the cache is untouched.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0
	}
	return float64(stats.Hits) / float64(total) * 100
}

func (c *Cache) count(update func(*Stats)) {
	c.statsMu.Lock()
	update(&c.stats)
	c.statsMu.Unlock()
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) cleanup() {
	now := time.Now()
	c.mu.Lock()
	evicted := int64(0)
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.count(func(s *Stats) { s.Evictions += evicted; s.TotalKeys = total })
}

// GenerateKey builds a compact deterministic key from a namespace and any
// JSON-serializable parameters.
func GenerateKey(namespace string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", namespace, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", namespace, hash[:16])
}
