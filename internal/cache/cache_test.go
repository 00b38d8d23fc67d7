// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func TestCacheBasicOperations(t *testing.T) {
	c := New(time.Minute)

	c.Set("key1", "value1")
	value, ok := c.Get("key1")
	if !ok || value != "value1" {
		t.Errorf("Get(key1) = %v, %v", value, ok)
	}
	if _, ok := c.Get("key2"); ok {
		t.Error("expected key2 to be absent")
	}
}

func TestCacheExpiresWithInjectedClock(t *testing.T) {
	clock := newFakeClock()
	c := New(5*time.Minute, WithClock(clock.Now))

	c.Set("levels", 42)
	clock.Advance(4*time.Minute + 59*time.Second)
	if _, ok := c.Get("levels"); !ok {
		t.Fatal("entry should still be fresh")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("levels"); ok {
		t.Fatal("entry should expire exactly at ttl")
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Evictions != 1 || stats.TotalKeys != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheCleanup(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, WithClock(clock.Now))

	c.Set("a", 1)
	c.SetWithTTL("b", 2, time.Hour)
	clock.Advance(2 * time.Minute)

	if removed := c.Cleanup(); removed != 1 {
		t.Errorf("Cleanup() removed %d, want 1", removed)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("long-lived entry should survive cleanup")
	}
	if got := c.GetStats().LastCleanup; !got.Equal(clock.Now()) {
		t.Errorf("LastCleanup = %v", got)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	c.Clear()
	for _, k := range []string{"b", "c"} {
		if _, ok := c.Get(k); ok {
			t.Errorf("%s should be cleared", k)
		}
	}
	if got := c.GetStats().Evictions; got != 3 {
		t.Errorf("Evictions = %d, want 3", got)
	}
}

func TestCacheHitRate(t *testing.T) {
	c := New(time.Minute)
	if c.HitRate() != 0 {
		t.Error("empty cache hit rate should be 0")
	}
	c.Set("k", 1)
	c.Get("k")
	c.Get("k")
	c.Get("k")
	c.Get("missing")
	if got := c.HitRate(); got != 75 {
		t.Errorf("HitRate() = %v, want 75", got)
	}
}

func TestStartCleanupStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New(time.Millisecond)
	c.StartCleanup(ctx, 5*time.Millisecond)
	c.Set("x", 1)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.GetStats().TotalKeys == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if c.GetStats().TotalKeys != 0 {
		t.Error("background cleanup did not remove expired entry")
	}
}

func TestGenerateKeyIsStable(t *testing.T) {
	t.Parallel()

	a := GenerateKey("churn", map[string]int{"limit": 10})
	b := GenerateKey("churn", map[string]int{"limit": 10})
	c := GenerateKey("churn", map[string]int{"limit": 11})
	if a != b {
		t.Error("same params should give the same key")
	}
	if a == c {
		t.Error("different params should give different keys")
	}
}

func TestFingerprintIsOrderIndependent(t *testing.T) {
	t.Parallel()

	type rec struct {
		ID  string
		Val int
	}
	x := []rec{{"a", 1}, {"b", 2}, {"c", 3}}
	y := []rec{{"c", 3}, {"a", 1}, {"b", 2}}
	z := []rec{{"a", 1}, {"b", 2}, {"c", 4}}

	if Fingerprint(x) != Fingerprint(y) {
		t.Error("permutation changed fingerprint")
	}
	if Fingerprint(x) == Fingerprint(z) {
		t.Error("content change kept fingerprint")
	}
	if Fingerprint([]rec{}) == Fingerprint([]rec{{"a", 1}}) {
		t.Error("empty and non-empty collections collide")
	}
}
