package lru

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pario-ai/memogate/pkg/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, maxSize int, ttl time.Duration) (*Cache[string], *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	c, err := New[string](maxSize, ttl, WithClock(clk))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c, clk
}

func TestFingerprint(t *testing.T) {
	h1 := Fingerprint("What do you enjoy?", "Hiking")
	h2 := Fingerprint("What do you enjoy?", "Hiking")
	h3 := Fingerprint("What do you enjoy?", "Reading")

	if h1 != h2 {
		t.Error("same input should produce same hash")
	}
	if h1 == h3 {
		t.Error("different answer should produce different hash")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestFingerprintSeparatorCollision(t *testing.T) {
	// Plain "a||b" concatenation would make these equal.
	if Fingerprint("a||b", "c") == Fingerprint("a", "b||c") {
		t.Error("field boundary must be part of the hash input")
	}
	if Fingerprint("ab", "") == Fingerprint("a", "b") {
		t.Error("moving bytes between fields must change the hash")
	}
}

func TestFingerprintKnownValue(t *testing.T) {
	// Pinned so that keys stay stable across builds and processes.
	got := Fingerprint("", "")
	want := "374708fff7719dd5979ec875d56cd2286f6d3cf7ec317a3b25632aab28ec37bb"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNewInvalid(t *testing.T) {
	if _, err := New[string](0, time.Hour); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero size, got %v", err)
	}
	if _, err := New[string](10, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero ttl, got %v", err)
	}
}

func TestSetAndGet(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Hour)

	c.Set("q", "a", "result")

	got, ok := c.Get("q", "a")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "result" {
		t.Errorf("expected result, got %q", got)
	}

	if _, ok := c.Get("q", "other"); ok {
		t.Error("expected cache miss for different answer")
	}
}

func TestTTLExpiration(t *testing.T) {
	c, clk := newTestCache(t, 10, 100*time.Second)

	c.Set("q", "a", "x")

	clk.Advance(100 * time.Second)
	if _, ok := c.Get("q", "a"); !ok {
		t.Fatal("entry exactly ttl old should still be live")
	}

	clk.Advance(time.Nanosecond)
	if _, ok := c.Get("q", "a"); ok {
		t.Error("expected cache miss after TTL expiration")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be purged on access, len=%d", c.Len())
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
}

func TestLRUEviction(t *testing.T) {
	c, _ := newTestCache(t, 3, time.Hour)

	c.Set("q", "1", "one")
	c.Set("q", "2", "two")
	c.Set("q", "3", "three")

	// Touch 1 so that 2 becomes the least recently used.
	if _, ok := c.Get("q", "1"); !ok {
		t.Fatal("expected hit for 1")
	}
	c.Set("q", "4", "four")

	if _, ok := c.Get("q", "2"); ok {
		t.Error("expected 2 to be evicted")
	}
	for _, k := range []string{"1", "3", "4"} {
		if _, ok := c.Get("q", k); !ok {
			t.Errorf("expected %s to survive eviction", k)
		}
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("expected 1 eviction, got %d", ev)
	}
}

func TestScenarioTwoEntries(t *testing.T) {
	c, _ := newTestCache(t, 2, 100*time.Second)

	c.Set("A", "", "x")
	c.Set("B", "", "y")
	if v, ok := c.Get("A", ""); !ok || v != "x" {
		t.Fatalf("expected hit x for A, got %q %v", v, ok)
	}
	c.Set("C", "", "z")

	if _, ok := c.Get("B", ""); ok {
		t.Error("expected B to be evicted")
	}
	if v, ok := c.Get("A", ""); !ok || v != "x" {
		t.Errorf("expected hit x for A, got %q %v", v, ok)
	}
	if v, ok := c.Get("C", ""); !ok || v != "z" {
		t.Errorf("expected hit z for C, got %q %v", v, ok)
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c, clk := newTestCache(t, 2, 100*time.Second)

	c.Set("q", "1", "old")
	c.Set("q", "2", "two")
	clk.Advance(90 * time.Second)
	c.Set("q", "1", "new")

	stats := c.Stats()
	if stats.Evictions != 0 {
		t.Errorf("overwrite should not evict, got %d evictions", stats.Evictions)
	}
	if stats.Size != 2 {
		t.Errorf("expected size 2, got %d", stats.Size)
	}

	// Overwrite refreshed recency, so 2 is now the LRU entry.
	c.Set("q", "3", "three")
	if _, ok := c.Get("q", "2"); ok {
		t.Error("expected 2 to be evicted after 1 was overwritten")
	}

	// Overwrite also reset the insertion time.
	clk.Advance(20 * time.Second)
	if v, ok := c.Get("q", "1"); !ok || v != "new" {
		t.Errorf("expected overwritten value to be live, got %q %v", v, ok)
	}
}

func TestClearKeepsCounters(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Hour)

	c.Set("q", "1", "one")
	c.Get("q", "1")
	c.Get("q", "2")
	c.Clear()

	stats := c.Stats()
	if stats.Size != 0 {
		t.Errorf("expected 0 entries after clear, got %d", stats.Size)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected counters preserved, got hits=%d misses=%d", stats.Hits, stats.Misses)
	}
	if _, ok := c.Get("q", "1"); ok {
		t.Error("expected miss after clear")
	}
}

func TestStats(t *testing.T) {
	c, clk := newTestCache(t, 5, time.Minute)

	stats := c.Stats()
	if stats.HitRate != 0 {
		t.Errorf("expected hit rate 0 with no requests, got %f", stats.HitRate)
	}
	if stats.MaxSize != 5 || stats.TTLSeconds != 60 {
		t.Errorf("unexpected config in stats: %+v", stats)
	}

	c.Set("q", "1", "one")
	c.Get("q", "1") // hit
	c.Get("q", "1") // hit
	c.Get("q", "2") // miss

	clk.Advance(30 * time.Second)
	c.Set("q", "3", "three")
	clk.Advance(31 * time.Second)

	stats = c.Stats()
	if stats.Size != 1 {
		t.Errorf("stats should purge the expired entry, size=%d", stats.Size)
	}
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("expected 2 hits 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
	want := float64(stats.Hits) / float64(stats.Hits+stats.Misses)
	if stats.HitRate != want {
		t.Errorf("expected hit rate %f, got %f", want, stats.HitRate)
	}
}

func TestJanitorPurgesExpired(t *testing.T) {
	clk := clock.NewManual(epoch)
	c, err := New[string](10, time.Second, WithClock(clk), WithCleanupInterval(5*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Set("q", "a", "x")
	clk.Advance(2 * time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not purge expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(t, 50, time.Hour)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := strings.Repeat("k", (g*i)%70+1)
				c.Set("q", key, key)
				c.Get("q", key)
			}
		}()
	}
	wg.Wait()

	stats := c.Stats()
	if stats.Size > 50 {
		t.Errorf("size %d exceeds capacity", stats.Size)
	}
	if stats.Hits+stats.Misses != 8*200 {
		t.Errorf("expected %d lookups, got %d", 8*200, stats.Hits+stats.Misses)
	}
}
