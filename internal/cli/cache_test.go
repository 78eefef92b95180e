package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/budgetmap/pkg/cache"
	"github.com/matzehuels/budgetmap/pkg/config"
)

func newTestCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func TestCacheDir(t *testing.T) {
	tests := []struct {
		name string
		xdg  string
		dir  string
		want func(home string) string
	}{
		{"xdg", "/tmp/xdg-cache", "", func(string) string { return filepath.Join("/tmp/xdg-cache", appName) }},
		{"home default", "", "", func(home string) string { return filepath.Join(home, ".cache", appName) }},
		{"config wins", "/tmp/xdg-cache", "/srv/budgetmap-cache", func(string) string { return "/srv/budgetmap-cache" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			c := newTestCLI()
			c.Config.Cache.Dir = tt.dir

			got, err := c.fileCacheDir()
			if err != nil {
				t.Fatalf("fileCacheDir: %v", err)
			}
			home, _ := os.UserHomeDir()
			if want := tt.want(home); got != want {
				t.Errorf("fileCacheDir() = %q, want %q", got, want)
			}
		})
	}
}

func rowMap(rows [][]string) map[string]string {
	m := make(map[string]string, len(rows))
	for _, r := range rows {
		m[r[0]] = r[1]
	}
	return m
}

func TestCacheInfoRows(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		c := newTestCLI()
		c.Config.Cache.Backend = config.BackendNone
		rows, err := c.cacheInfoRows()
		if err != nil {
			t.Fatal(err)
		}
		m := rowMap(rows)
		if m["backend"] != "none" || m["directory"] != "" {
			t.Errorf("rows = %v", rows)
		}
	})

	t.Run("redis", func(t *testing.T) {
		c := newTestCLI()
		c.Config.Cache.Backend = config.BackendRedis
		c.Config.Cache.RedisAddr = "cache:6379"
		c.Config.Cache.RedisDB = 2
		c.Config.Cache.Namespace = "fy2025"
		rows, err := c.cacheInfoRows()
		if err != nil {
			t.Fatal(err)
		}
		m := rowMap(rows)
		if m["address"] != "cache:6379" || m["database"] != "2" || m["namespace"] != "fy2025" {
			t.Errorf("rows = %v", rows)
		}
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := fc.Set(t.Context(), "tree:abc", []byte("{}"), time.Hour); err != nil {
			t.Fatal(err)
		}

		c := newTestCLI()
		c.Config.Cache.Dir = dir
		rows, err := c.cacheInfoRows()
		if err != nil {
			t.Fatal(err)
		}
		m := rowMap(rows)
		if m["backend"] != config.BackendFile || m["directory"] != dir || m["entries"] != "1" {
			t.Errorf("rows = %v", rows)
		}
		if out := cacheTable(rows); !strings.Contains(out, "Setting") || !strings.Contains(out, dir) {
			t.Errorf("table missing header or directory:\n%s", out)
		}
	})
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "svg"},
		{"svg", "svg"},
		{"svg,json", "svg,json"},
		{" json , svg ,json", "json,svg"},
		{"terminal,,outline", "terminal,outline"},
	}
	for _, tt := range tests {
		if got := strings.Join(parseFormats(tt.in), ","); got != tt.want {
			t.Errorf("parseFormats(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitTerminal(t *testing.T) {
	groups := splitTerminal([]string{"terminal", "svg", "json"})
	if len(groups) != 2 || strings.Join(groups[0], ",") != "svg,json" || groups[1][0] != "terminal" {
		t.Errorf("groups = %v", groups)
	}
	if groups := splitTerminal([]string{"terminal"}); len(groups) != 1 {
		t.Errorf("terminal only: groups = %v", groups)
	}
}

func TestWriteArtifacts(t *testing.T) {
	artifacts := map[string][]byte{
		"svg":      []byte("<svg/>"),
		"json":     []byte("{}\n"),
		"terminal": []byte("grid"),
	}

	t.Run("stdout", func(t *testing.T) {
		var buf strings.Builder
		paths, err := writeArtifacts(&buf, []string{"svg", "json"}, artifacts, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 0 || buf.String() != "<svg/>\n{}\n" {
			t.Errorf("paths = %v, out = %q", paths, buf.String())
		}
	})

	t.Run("single file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "budget.svg")
		paths, err := writeArtifacts(io.Discard, []string{"svg"}, artifacts, out)
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 1 || paths[0] != out {
			t.Errorf("paths = %v", paths)
		}
	})

	t.Run("several files", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "out", "budget.svg")
		paths, err := writeArtifacts(io.Discard, []string{"svg", "json", "terminal"}, artifacts, base)
		if err != nil {
			t.Fatal(err)
		}
		stem := strings.TrimSuffix(base, ".svg")
		want := []string{stem + ".svg", stem + ".json", stem + ".txt"}
		if strings.Join(paths, ",") != strings.Join(want, ",") {
			t.Fatalf("paths = %v, want %v", paths, want)
		}
		data, err := os.ReadFile(want[2])
		if err != nil || string(data) != "grid" {
			t.Errorf("terminal file = %q, %v", data, err)
		}
	})
}
