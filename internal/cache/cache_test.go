// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.Set("key", "value")
	got, ok := c.Get("key")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if got != "value" {
		t.Errorf("Get() = %v, want %q", got, "value")
	}
}

func TestCache_MissingKey(t *testing.T) {
	c := New(time.Minute, time.Minute)

	if _, ok := c.Get("absent"); ok {
		t.Error("Get() hit for absent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.SetWithTTL("short", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("Get() hit for expired entry")
	}
	stats := c.GetStats()
	if stats.Evictions == 0 {
		t.Error("Evictions = 0, want expired entry counted")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get() hit after Delete")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("Get() hit after Clear")
	}
}

func TestCache_HitRate(t *testing.T) {
	c := New(time.Minute, time.Minute)

	if rate := c.HitRate(); rate != 0 {
		t.Errorf("HitRate() = %f on empty cache, want 0", rate)
	}

	c.Set("k", 1)
	c.Get("k")      // hit
	c.Get("absent") // miss

	if rate := c.HitRate(); rate != 50 {
		t.Errorf("HitRate() = %f, want 50", rate)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(time.Minute, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j)
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		UserID string
		K      int
	}

	a := GenerateKey("recs", params{UserID: "u1", K: 10})
	b := GenerateKey("recs", params{UserID: "u1", K: 10})
	if a != b {
		t.Errorf("GenerateKey not deterministic: %q vs %q", a, b)
	}

	other := GenerateKey("recs", params{UserID: "u2", K: 10})
	if a == other {
		t.Error("GenerateKey collides for different params")
	}

	ns := GenerateKey("catalog", params{UserID: "u1", K: 10})
	if a == ns {
		t.Error("GenerateKey collides across namespaces")
	}
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := New(time.Minute, time.Millisecond)
	c.Set("k", 1)

	c.Close()
	c.Close()

	// The cache remains usable after the sweeper stops.
	if _, ok := c.Get("k"); !ok {
		t.Error("entry lost after Close")
	}
}
