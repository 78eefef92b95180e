package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/budgetmap/pkg/errors"
	"github.com/matzehuels/budgetmap/pkg/palette"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[layout]
algorithm = "slicedice"
padding_inner = 4
round = true

[labels]
min_height = 30
total = 6.75e12

[palette]
hover_delta = 0.2

[palette.colors]
"department of energy" = "#17becf"

[animation]
duration = "300ms"
policy = "snap"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "1h"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lo := cfg.LayoutOptions()
	if lo.Algorithm != layout.SliceDice || lo.PaddingInner != 4 || !lo.Round {
		t.Errorf("layout = %+v", lo)
	}
	if lo.HeaderHeight != Default().Layout.HeaderHeight {
		t.Errorf("unset header_height should keep default, got %v", lo.HeaderHeight)
	}
	so := cfg.SceneOptions()
	if so.MinLabelHeight != 30 || so.Total != 6.75e12 {
		t.Errorf("scene options = %+v", so)
	}
	if got := so.Palette.ColorFor("Department of Energy"); got != palette.Color("#17becf") {
		t.Errorf("override color = %s", got)
	}
	if cfg.Animation.Duration.Duration != 300*time.Millisecond {
		t.Errorf("duration = %v", cfg.Animation.Duration)
	}
	if cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
	if len(cfg.NavigatorOptions()) == 0 {
		t.Error("NavigatorOptions empty")
	}
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("implicit config should fall back to defaults: %v", err)
	}
	if cfg.Layout.Algorithm != "squarify" {
		t.Errorf("algorithm = %q", cfg.Layout.Algorithm)
	}

	_, err = Load(filepath.Join(dir, "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing config: err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"syntax", `[layout`, ""},
		{"unknown key", "[layout]\nwidth = 3\n", ""},
		{"algorithm", "[layout]\nalgorithm = \"spiral\"\n", "layout"},
		{"negative padding", "[layout]\npadding_inner = -1\n", "layout"},
		{"bad color", "[palette.colors]\ndefense = \"red\"\n", "palette.colors.defense"},
		{"policy", "[animation]\npolicy = \"queue\"\n", "animation.policy"},
		{"easing", "[animation]\neasing = \"bounce\"\n", "animation.easing"},
		{"duration", "[animation]\nduration = \"soon\"\n", ""},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n", "cache.redis_addr"},
		{"backend", "[cache]\nbackend = \"s3\"\n", "cache.backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %s, want INVALID_CONFIG", errors.GetCode(err))
			}
			if tt.field != "" && !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name field %q", err, tt.field)
			}
		})
	}
}

func TestValidateCollectsAllFields(t *testing.T) {
	cfg := Default()
	cfg.Labels.FontSize = 0
	cfg.Animation.FPS = -1
	cfg.Server.Width = 0
	err := cfg.Validate()
	for _, field := range []string{"labels.font_size", "animation.fps", "server.width"} {
		if err == nil || !strings.Contains(err.Error(), field) {
			t.Errorf("error %v missing %s", err, field)
		}
	}
}

func TestPaletteHash(t *testing.T) {
	a := Default()
	b := Default()
	b.Palette.Colors = map[string]string{"x": "#000000"}
	if a.PaletteHash() == b.PaletteHash() {
		t.Error("palette change should change the hash")
	}
	c := Default()
	c.Labels.MinHeight = 99
	if a.PaletteHash() != c.PaletteHash() {
		t.Error("label change should not affect the palette hash")
	}
}
