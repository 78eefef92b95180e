// Package config loads budgetmap settings from a TOML file.
//
// Defaults are applied first, then the file, then command-line flags (the
// CLI writes flag values into the loaded Config before calling Validate).
//
//	[layout]
//	algorithm = "squarify"
//	padding_inner = 2
//	header_height = 18
//
//	[labels]
//	min_height = 20
//
//	[palette.colors]
//	"department of energy" = "#17becf"
//
//	[animation]
//	duration = "750ms"
//	policy = "coalesce"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/budgetmap/pkg/cache"
	"github.com/matzehuels/budgetmap/pkg/errors"
	"github.com/matzehuels/budgetmap/pkg/palette"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/scene"
	"github.com/matzehuels/budgetmap/pkg/treemap/tween"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

// FileName is the config file looked up in the working directory.
const FileName = "budgetmap.toml"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Duration is a time.Duration that decodes from strings like "750ms".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full configuration.
type Config struct {
	Layout    Layout    `toml:"layout"`
	Labels    Labels    `toml:"labels"`
	Palette   Palette   `toml:"palette"`
	Animation Animation `toml:"animation"`
	Server    Server    `toml:"server"`
	Cache     Cache     `toml:"cache"`
}

type Layout struct {
	Algorithm    string  `toml:"algorithm"`
	PaddingOuter float64 `toml:"padding_outer"`
	PaddingInner float64 `toml:"padding_inner"`
	HeaderHeight float64 `toml:"header_height"`
	KeepOrder    bool    `toml:"keep_order"`
	Round        bool    `toml:"round"`
}

type Labels struct {
	MinHeight        float64 `toml:"min_height"`
	ValueMinHeight   float64 `toml:"value_min_height"`
	ValueMinWidth    float64 `toml:"value_min_width"`
	PercentMinHeight float64 `toml:"percent_min_height"`
	PercentMinWidth  float64 `toml:"percent_min_width"`
	FontSize         float64 `toml:"font_size"`
	CharWidth        float64 `toml:"char_width"`
	// Total overrides the denominator of percent labels.
	Total float64 `toml:"total"`
}

type Palette struct {
	Default     string            `toml:"default"`
	HoverDelta  float64           `toml:"hover_delta"`
	HeaderDelta float64           `toml:"header_delta"`
	Colors      map[string]string `toml:"colors"`
}

type Animation struct {
	Duration Duration `toml:"duration"`
	FPS      int      `toml:"fps"`
	Easing   string   `toml:"easing"`
	Policy   string   `toml:"policy"`
	Debounce Duration `toml:"debounce"`
}

type Server struct {
	Addr       string   `toml:"addr"`
	SessionTTL Duration `toml:"session_ttl"`
	Width      float64  `toml:"width"`
	Height     float64  `toml:"height"`
}

type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	Namespace     string   `toml:"namespace"`
	TTL           Duration `toml:"ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	lo := layout.DefaultOptions()
	so := scene.DefaultOptions()
	return Config{
		Layout: Layout{
			Algorithm:    string(lo.Algorithm),
			PaddingOuter: lo.PaddingOuter,
			PaddingInner: lo.PaddingInner,
			HeaderHeight: lo.HeaderHeight,
		},
		Labels: Labels{
			MinHeight:        so.MinLabelHeight,
			ValueMinHeight:   so.ValueMinHeight,
			ValueMinWidth:    so.ValueMinWidth,
			PercentMinHeight: so.PercentMinHeight,
			PercentMinWidth:  so.PercentMinWidth,
			FontSize:         so.FontSize,
			CharWidth:        float64(scene.DefaultCharWidth),
		},
		Palette: Palette{
			Default:     string(palette.DefaultColor),
			HoverDelta:  palette.DefaultHoverDelta,
			HeaderDelta: palette.DefaultHeaderDelta,
		},
		Animation: Animation{
			Duration: Duration{750 * time.Millisecond},
			FPS:      60,
			Easing:   "cubic-in-out",
			Policy:   "coalesce",
			Debounce: Duration{150 * time.Millisecond},
		},
		Server: Server{
			Addr:       "localhost:8080",
			SessionTTL: Duration{30 * time.Minute},
			Width:      1200,
			Height:     700,
		},
		Cache: Cache{
			Backend: BackendFile,
			TTL:     Duration{24 * time.Hour},
		},
	}
}

// Load reads path over the defaults. An empty path tries FileName in the
// working directory and silently falls back to defaults when it is absent.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return cfg, cfg.Validate()
}

// Decode parses TOML into cfg, rejecting unknown keys.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var v errors.ValidationError

	if err := c.LayoutOptions().Validate(); err != nil {
		v.Add("layout", "%v", err)
	}
	if c.Labels.MinHeight < 0 {
		v.Add("labels.min_height", "must be >= 0")
	}
	if c.Labels.FontSize <= 0 {
		v.Add("labels.font_size", "must be > 0")
	}
	if c.Labels.CharWidth <= 0 {
		v.Add("labels.char_width", "must be > 0")
	}
	if c.Labels.Total < 0 {
		v.Add("labels.total", "must be >= 0")
	}
	for name, col := range c.Palette.Colors {
		if !validHex(col) {
			v.Add("palette.colors."+name, "invalid color %q", col)
		}
	}
	if c.Palette.Default != "" && !validHex(c.Palette.Default) {
		v.Add("palette.default", "invalid color %q", c.Palette.Default)
	}
	if c.Animation.Duration.Duration < 0 {
		v.Add("animation.duration", "must be >= 0")
	}
	if c.Animation.FPS < 0 || c.Animation.FPS > 240 {
		v.Add("animation.fps", "must be between 0 and 240")
	}
	if _, err := tween.EasingByName(c.Animation.Easing); err != nil {
		v.Add("animation.easing", "%v", err)
	}
	if _, ok := view.ParsePolicy(c.Animation.Policy); !ok {
		v.Add("animation.policy", "must be coalesce or snap")
	}
	if c.Server.Width <= 0 || c.Server.Height <= 0 {
		v.Add("server.width", "viewport must be positive")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone, "":
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			v.Add("cache.redis_addr", "required for the redis backend")
		}
	default:
		v.Add("cache.backend", "must be file, redis or none")
	}
	return v.Err()
}

// LayoutOptions converts the [layout] section.
func (c Config) LayoutOptions() layout.Options {
	return layout.Options{
		Algorithm:    layout.Algorithm(c.Layout.Algorithm),
		PaddingOuter: c.Layout.PaddingOuter,
		PaddingInner: c.Layout.PaddingInner,
		HeaderHeight: c.Layout.HeaderHeight,
		KeepOrder:    c.Layout.KeepOrder,
		Round:        c.Layout.Round,
	}
}

// SceneOptions converts the [labels] and [palette] sections.
func (c Config) SceneOptions() scene.Options {
	o := scene.DefaultOptions()
	o.MinLabelHeight = c.Labels.MinHeight
	o.ValueMinHeight = c.Labels.ValueMinHeight
	o.ValueMinWidth = c.Labels.ValueMinWidth
	o.PercentMinHeight = c.Labels.PercentMinHeight
	o.PercentMinWidth = c.Labels.PercentMinWidth
	o.FontSize = c.Labels.FontSize
	o.Total = c.Labels.Total
	o.Measurer = scene.CharWidth(c.Labels.CharWidth)
	o.Palette = c.Resolver()
	return o
}

// Resolver builds the color resolver from the [palette] section.
func (c Config) Resolver() *palette.Resolver {
	opts := []palette.Option{
		palette.WithHoverDelta(c.Palette.HoverDelta),
		palette.WithHeaderDelta(c.Palette.HeaderDelta),
	}
	if c.Palette.Default != "" {
		opts = append(opts, palette.WithDefault(palette.Color(c.Palette.Default)))
	}
	if len(c.Palette.Colors) > 0 {
		opts = append(opts, palette.WithColors(c.Palette.Colors))
	}
	return palette.New(opts...)
}

// NavigatorOptions converts the [animation] and [layout] sections.
func (c Config) NavigatorOptions() []view.Option {
	ease, _ := tween.EasingByName(c.Animation.Easing)
	policy, _ := view.ParsePolicy(c.Animation.Policy)
	return []view.Option{
		view.WithLayout(c.LayoutOptions()),
		view.WithDuration(c.Animation.Duration.Duration),
		view.WithEasing(ease),
		view.WithPolicy(policy),
	}
}

// PaletteHash fingerprints the [palette] section for artifact cache keys.
func (c Config) PaletteHash() string {
	h, _ := cache.HashJSON(c.Palette)
	return h
}

func validHex(s string) bool {
	if len(s) != 7 && len(s) != 4 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}
