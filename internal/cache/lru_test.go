package cache

import (
	"strconv"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache[T any](maxSize int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](maxSize, ttl)
	c.now = clock.now
	return c, clock
}

// TestLRUCachePerformance checks that hot-key access stays cheap
func TestLRUCachePerformance(t *testing.T) {
	cache := NewLRUCache[[]int64](3, time.Minute)

	start := time.Now()
	for i := 0; i < 1000; i++ {
		cache.Set("2024-01-01|2024-12-31|Car|Toyota", []int64{int64(i)})
		if _, found := cache.Get("2024-01-01|2024-12-31|Car|Toyota"); !found {
			t.Errorf("Cache miss on iteration %d", i)
		}
	}
	duration := time.Since(start)
	t.Logf("1000 cache operations took %v", duration)

	if duration > 100*time.Millisecond {
		t.Errorf("Cache operations too slow: %v", duration)
	}
}

// TestLRUCacheEviction tests size-based eviction
func TestLRUCacheEviction(t *testing.T) {
	cache, _ := newTestCache[string](3, time.Hour)

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")
	cache.Set("key3", "value3")
	cache.Get("key1")           // key1 is now most recent
	cache.Set("key4", "value4") // evicts key2

	if _, found := cache.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := cache.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if s := cache.Stats(); s.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", s.Evictions)
	}
}

func TestLRUCacheOverwrite(t *testing.T) {
	cache, _ := newTestCache[int](2, time.Hour)
	cache.Set("a", 1)
	cache.Set("a", 2)
	if v, _ := cache.Get("a"); v != 2 || cache.Size() != 1 {
		t.Fatalf("overwrite failed: v=%d size=%d", v, cache.Size())
	}
}

// TestLRUCacheTTLExpiration tests time-based expiration
func TestLRUCacheTTLExpiration(t *testing.T) {
	cache, clock := newTestCache[string](100, 50*time.Millisecond)

	cache.Set("key1", "value1")
	if _, found := cache.Get("key1"); !found {
		t.Error("key1 should exist immediately")
	}

	clock.advance(60 * time.Millisecond)

	if _, found := cache.Get("key1"); found {
		t.Error("key1 should have expired")
	}
	s := cache.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Expired != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

// TestLRUCacheCleanExpired tests the cleanup mechanism
func TestLRUCacheCleanExpired(t *testing.T) {
	cache, clock := newTestCache[string](100, 50*time.Millisecond)

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")
	clock.advance(30 * time.Millisecond)
	cache.Set("key3", "value3")
	clock.advance(30 * time.Millisecond)

	if removed := cache.CleanExpired(); removed != 2 {
		t.Errorf("Expected 2 items cleaned, got %d", removed)
	}
	if _, found := cache.Get("key3"); !found {
		t.Error("key3 should survive cleanup")
	}
}

func TestLRUCachePurge(t *testing.T) {
	cache := NewLRUCache[int](10, time.Hour)
	for i := 0; i < 5; i++ {
		cache.Set(strconv.Itoa(i), i)
	}
	cache.Purge()
	if cache.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Size())
	}
	cache.Set("x", 1)
	if _, ok := cache.Get("x"); !ok {
		t.Fatal("cache unusable after purge")
	}
}

func TestManager(t *testing.T) {
	a, clock := newTestCache[int](10, time.Second)
	b := NewLRUCache[int](10, time.Hour)
	a.Set("1", 1)
	a.Set("2", 2)
	b.Set("1", 1)
	clock.advance(2 * time.Second)

	m := NewManager()
	m.Register("a", a)
	m.Register("b", b)
	if n := m.CleanNow(); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if b.Size() != 1 {
		t.Fatal("unexpired cache must be untouched")
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running cleanup loop")
	}
}

// BenchmarkLRUCache benchmarks cache performance
func BenchmarkLRUCache(b *testing.B) {
	cache := NewLRUCache[[]int64](1000, time.Hour)
	value := []int64{1, 2, 3}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := "bench-key"
		if i%10 == 0 {
			cache.Set(key, value)
		} else {
			cache.Get(key)
		}
	}
}
