package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/budgetmap/pkg/httputil"
)

var errTransient = errors.New("connection reset")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestBackends(t *testing.T) {
	ctx := context.Background()
	file, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	backends := []struct {
		name string
		c    Cache
	}{
		{"memory", NewMemoryCache()},
		{"file", file},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			c := b.c
			defer c.Close()

			if _, hit, _ := c.Get(ctx, "missing"); hit {
				t.Error("unexpected hit for missing key")
			}
			if err := c.Set(ctx, "k", []byte("svg"), time.Hour); err != nil {
				t.Fatalf("Set: %v", err)
			}
			data, hit, err := c.Get(ctx, "k")
			if err != nil || !hit || string(data) != "svg" {
				t.Errorf("Get = %q, %v, %v; want svg hit", data, hit, err)
			}

			if err := c.Set(ctx, "stale", []byte("x"), time.Nanosecond); err != nil {
				t.Fatal(err)
			}
			time.Sleep(2 * time.Millisecond)
			if _, hit, _ := c.Get(ctx, "stale"); hit {
				t.Error("expired entry returned")
			}

			if err := c.Delete(ctx, "k"); err != nil {
				t.Fatal(err)
			}
			if _, hit, _ := c.Get(ctx, "k"); hit {
				t.Error("deleted entry returned")
			}
			if err := c.Delete(ctx, "k"); err != nil {
				t.Errorf("deleting a missing key: %v", err)
			}
		})
	}
}

func TestFileCacheStatsAndClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	s, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if s.Entries != 3 || s.Expired != 0 || s.Bytes == 0 {
		t.Errorf("Stats = %+v", s)
	}

	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Fatalf("Clear = %d, %v; want 3", n, err)
	}
	if s, _ := c.Stats(); s.Entries != 0 {
		t.Errorf("entries after Clear = %d", s.Entries)
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}

	j1, err := HashJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if j2, _ := HashJSON(map[string]int{"a": 1}); j1 != j2 {
		t.Error("HashJSON should be deterministic")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.TreeKey("abc"); got != "tree:abc" {
		t.Errorf("TreeKey = %s", got)
	}

	lk1 := k.LayoutKey("h", LayoutKeyOpts{Focus: "root", Width: 800, Height: 600})
	lk2 := k.LayoutKey("h", LayoutKeyOpts{Focus: "A", Width: 800, Height: 600})
	if lk1 == lk2 {
		t.Error("different focus should produce different layout keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey = %s", lk1)
	}

	ak1 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "json"})
	if ak1 == ak2 {
		t.Error("different formats should produce different artifact keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prod:")
	if got := scoped.TreeKey("abc"); got != "prod:tree:abc" {
		t.Errorf("TreeKey = %s", got)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(got, "prod:artifact:") {
		t.Errorf("ArtifactKey = %s", got)
	}
}

func TestClassify(t *testing.T) {
	timeout := &net.OpError{Op: "read", Err: os.ErrDeadlineExceeded}
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"miss", redis.Nil, false},
		{"timeout", timeout, true},
		{"other", errTransient, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			var re *httputil.RetryableError
			if got := errors.As(err, &re); got != tt.retryable {
				t.Errorf("retryable = %v, want %v", got, tt.retryable)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("classify lost the cause: %v", err)
			}
		})
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !strings.Contains(err.Error(), "127.0.0.1:1") {
		t.Errorf("error should name the address: %v", err)
	}
}
