package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache tests require Redis running on localhost:6379 and skip otherwise.
const testRedisAddr = "localhost:6379"

// setupTestCache creates a cache with an isolated key prefix and a cleanup
// function that removes everything it wrote.
func setupTestCache(t *testing.T, prefix string) *Cache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	c := New(client, prefix, time.Minute)
	t.Cleanup(func() {
		c.DeletePattern(ctx, "*")
		client.Close()
	})
	return c
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCache_SetGet(t *testing.T) {
	c := setupTestCache(t, "test:setget:")
	ctx := context.Background()

	want := payload{Name: "widget", Count: 42}
	if err := c.Set(ctx, "key1", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got payload
	hit, err := c.Get(ctx, "key1", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !hit {
		t.Fatal("Get() reported a miss for an existing key")
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	t.Run("missing key is a miss, not an error", func(t *testing.T) {
		var dest payload
		hit, err := c.Get(ctx, "no-such-key", &dest)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if hit {
			t.Error("Get() reported a hit for a missing key")
		}
	})

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 set", stats)
	}
}

func TestCache_GetOrLoad(t *testing.T) {
	c := setupTestCache(t, "test:getorload:")
	ctx := context.Background()

	var loads atomic.Int32
	load := func(_ context.Context) (any, error) {
		loads.Add(1)
		return payload{Name: "loaded", Count: 7}, nil
	}

	// First call misses and loads.
	first, err := c.GetOrLoad(ctx, "key1", load)
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	// Second call is served from Redis.
	second, err := c.GetOrLoad(ctx, "key1", load)
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("payloads differ across calls: %s vs %s", first, second)
	}
	if n := loads.Load(); n != 1 {
		t.Errorf("loader ran %d times, want 1", n)
	}

	stats := c.GetStats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("stats = %+v, want 1 miss and 1 hit", stats)
	}
}

func TestCache_GetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	c := setupTestCache(t, "test:collapse:")
	ctx := context.Background()

	var loads atomic.Int32
	release := make(chan struct{})
	load := func(_ context.Context) (any, error) {
		loads.Add(1)
		<-release
		return payload{Name: "slow", Count: 1}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetOrLoad(ctx, "shared-key", load)
		}(i)
	}

	// Give the goroutines time to pile onto the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d error = %v", i, err)
		}
	}
	if n := loads.Load(); n != 1 {
		t.Errorf("loader ran %d times for concurrent callers, want 1", n)
	}
}

func TestCache_DeletePattern(t *testing.T) {
	c := setupTestCache(t, "test:delpattern:")
	ctx := context.Background()

	for _, key := range []string{"u:1:detail:a", "u:1:stats", "u:2:stats"} {
		if err := c.Set(ctx, key, payload{Name: key}); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := c.DeletePattern(ctx, "u:1:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	var dest payload
	for _, key := range []string{"u:1:detail:a", "u:1:stats"} {
		hit, err := c.Get(ctx, key, &dest)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", key, err)
		}
		if hit {
			t.Errorf("key %q survived DeletePattern", key)
		}
	}

	// The other user's key is untouched.
	hit, err := c.Get(ctx, "u:2:stats", &dest)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !hit {
		t.Error("unrelated key was deleted by DeletePattern")
	}
}
