package observability

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type cacheCounter struct {
	NoopCacheHooks
	mu     sync.Mutex
	misses map[string]int
}

func (c *cacheCounter) OnCacheMiss(_ context.Context, keyType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses[keyType]++
}

func TestInstall(t *testing.T) {
	t.Cleanup(Reset)

	tests := []struct {
		name  string
		hooks Hooks
		check func(t *testing.T)
	}{
		{
			name:  "zero value is noop everywhere",
			hooks: Hooks{},
			check: func(t *testing.T) {
				if _, ok := Pipeline().(NoopPipelineHooks); !ok {
					t.Errorf("Pipeline() = %T", Pipeline())
				}
				if _, ok := Navigation().(NoopNavigationHooks); !ok {
					t.Errorf("Navigation() = %T", Navigation())
				}
				if _, ok := Cache().(NoopCacheHooks); !ok {
					t.Errorf("Cache() = %T", Cache())
				}
				if _, ok := HTTP().(NoopHTTPHooks); !ok {
					t.Errorf("HTTP() = %T", HTTP())
				}
			},
		},
		{
			name:  "partial set fills the rest",
			hooks: Hooks{Cache: &cacheCounter{misses: map[string]int{}}},
			check: func(t *testing.T) {
				if _, ok := Cache().(*cacheCounter); !ok {
					t.Errorf("Cache() = %T", Cache())
				}
				if _, ok := Pipeline().(NoopPipelineHooks); !ok {
					t.Errorf("Pipeline() = %T", Pipeline())
				}
				h := Installed()
				if h.Navigation == nil || h.HTTP == nil {
					t.Error("Installed() has nil categories")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Install(tt.hooks)
			tt.check(t)
		})
	}
}

func TestInstallReplacesWholeSet(t *testing.T) {
	t.Cleanup(Reset)

	NewLogHooks(log.New(&bytes.Buffer{})).Register()
	Install(Hooks{Cache: &cacheCounter{misses: map[string]int{}}})

	if _, ok := Pipeline().(*LogHooks); ok {
		t.Error("pipeline hooks from the previous install survived")
	}
}

func TestConcurrentEmit(t *testing.T) {
	t.Cleanup(Reset)

	counter := &cacheCounter{misses: map[string]int{}}
	Install(Hooks{Cache: counter})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				Cache().OnCacheMiss(context.Background(), "layout")
			}
		}()
	}
	wg.Wait()

	if got := counter.misses["layout"]; got != 800 {
		t.Errorf("misses = %d, want 800", got)
	}
}

func TestLogHooks(t *testing.T) {
	t.Cleanup(Reset)

	var buf bytes.Buffer
	NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})).Register()

	ctx := context.Background()
	Pipeline().OnLoadComplete(ctx, "budget.yaml", 12, 1, time.Millisecond, nil)
	Pipeline().OnRenderComplete(ctx, "png", 0, 0, context.Canceled)
	Pipeline().OnLayoutComplete(ctx, "A", 3, time.Millisecond)
	Navigation().OnZoom(ctx, "s1", "root", "A", 1)
	Cache().OnCacheMiss(ctx, "artifact")
	HTTP().OnResponse(ctx, "GET", "/api/tree", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"load complete", "nodes=12",
		"render failed", "format=png",
		"layout complete", "focus=A",
		"zoom", "to=A",
		"cache miss", "type=artifact",
		"response", "status=200",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAboveDebug(t *testing.T) {
	t.Cleanup(Reset)

	var buf bytes.Buffer
	NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})).Register()
	Cache().OnCacheHit(context.Background(), "tree")

	if buf.Len() != 0 {
		t.Errorf("unexpected output at info level: %q", buf.String())
	}
}
