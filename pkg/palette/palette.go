// Package palette maps category names to stable display colors.
//
// Resolution order for a name:
//  1. exact, case-insensitive match against the table;
//  2. substring match in either direction against table keys (the longest
//     matching key wins, ties broken by table order);
//  3. the default color.
//
// Hover and header shades are derived from the resolved base color by a
// fixed lightness shift in CIE L*C*h space, so they always stay visually
// related to the resting color. Resolution is pure and deterministic.
package palette

import (
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a "#rrggbb" hex color.
type Color string

const (
	// DefaultColor is used for names with no table match.
	DefaultColor Color = "#8c8c8c"

	// DefaultHoverDelta is the lightness shift applied for hover shades.
	DefaultHoverDelta = 0.12

	// DefaultHeaderDelta is the lightness shift applied (darker) for header bands.
	DefaultHeaderDelta = 0.15
)

type entry struct {
	key   string // lower-cased
	color Color
}

// budgetColors is the built-in table for federal budget categories.
var budgetColors = []entry{
	{"social security", "#1f77b4"},
	{"health and human services", "#2ca02c"},
	{"medicare", "#98df8a"},
	{"defense", "#d62728"},
	{"treasury", "#9467bd"},
	{"veterans affairs", "#8c564b"},
	{"agriculture", "#bcbd22"},
	{"education", "#ff7f0e"},
	{"transportation", "#17becf"},
	{"homeland security", "#e377c2"},
	{"housing and urban development", "#ffbb78"},
	{"energy", "#aec7e8"},
	{"justice", "#c5b0d5"},
	{"state", "#c49c94"},
	{"interior", "#dbdb8d"},
	{"labor", "#f7b6d2"},
	{"commerce", "#9edae5"},
	{"nasa", "#393b79"},
	{"environmental protection", "#637939"},
	{"interest", "#7b4173"},
}

// Resolver resolves names against an ordered color table.
// The zero value resolves every name to DefaultColor.
type Resolver struct {
	entries     []entry
	def         Color
	hoverDelta  float64
	headerDelta float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefault sets the fallback color.
func WithDefault(c Color) Option { return func(r *Resolver) { r.def = c } }

// WithHoverDelta sets the hover lightness shift.
func WithHoverDelta(d float64) Option { return func(r *Resolver) { r.hoverDelta = d } }

// WithHeaderDelta sets the header lightness shift.
func WithHeaderDelta(d float64) Option { return func(r *Resolver) { r.headerDelta = d } }

// WithColors adds or replaces table entries. Keys are matched
// case-insensitively; new keys are appended in sorted order so the result
// does not depend on map iteration.
func WithColors(colors map[string]string) Option {
	return func(r *Resolver) {
		keys := make([]string, 0, len(colors))
		for k := range colors {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			r.set(strings.ToLower(strings.TrimSpace(k)), Color(colors[k]))
		}
	}
}

// New returns a Resolver seeded with the built-in budget table.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		entries:     slices.Clone(budgetColors),
		def:         DefaultColor,
		hoverDelta:  DefaultHoverDelta,
		headerDelta: DefaultHeaderDelta,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) set(key string, c Color) {
	if key == "" {
		return
	}
	for i := range r.entries {
		if r.entries[i].key == key {
			r.entries[i].color = c
			return
		}
	}
	r.entries = append(r.entries, entry{key: key, color: c})
}

// Default returns the fallback color.
func (r *Resolver) Default() Color {
	if r == nil || r.def == "" {
		return DefaultColor
	}
	return r.def
}

// ColorFor resolves the resting color for name.
func (r *Resolver) ColorFor(name string) Color {
	if r == nil {
		return DefaultColor
	}
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return r.Default()
	}
	for _, e := range r.entries {
		if e.key == q {
			return e.color
		}
	}
	best := -1
	for i, e := range r.entries {
		if strings.Contains(q, e.key) || strings.Contains(e.key, q) {
			if best < 0 || len(e.key) > len(r.entries[best].key) {
				best = i
			}
		}
	}
	if best >= 0 {
		return r.entries[best].color
	}
	return r.Default()
}

// HoverColorFor returns the hover shade of name's color.
func (r *Resolver) HoverColorFor(name string) Color {
	d := DefaultHoverDelta
	if r != nil {
		d = r.hoverDelta
	}
	return shift(r.ColorFor(name), d)
}

// HeaderColorFor returns the (darker) header band shade of name's color.
func (r *Resolver) HeaderColorFor(name string) Color {
	d := DefaultHeaderDelta
	if r != nil {
		d = r.headerDelta
	}
	return shift(r.ColorFor(name), -d)
}

// shift moves c's lightness by delta. When the shifted lightness would leave
// [0, 1] the shift is mirrored so the result always differs from c.
func shift(c Color, delta float64) Color {
	base, err := colorful.Hex(string(c))
	if err != nil {
		return c
	}
	h, chroma, l := base.Hcl()
	nl := l + delta
	if nl > 1 || nl < 0 {
		nl = l - delta
	}
	return Color(colorful.Hcl(h, chroma, nl).Clamped().Hex())
}

var std = New()

// Standard returns the shared resolver over the built-in table.
func Standard() *Resolver { return std }

// ColorFor resolves name against the built-in table.
func ColorFor(name string) Color { return std.ColorFor(name) }

// HoverColorFor returns the hover shade for name from the built-in table.
func HoverColorFor(name string) Color { return std.HoverColorFor(name) }

// HeaderColorFor returns the header shade for name from the built-in table.
func HeaderColorFor(name string) Color { return std.HeaderColorFor(name) }

// Lightness returns the CIE L* lightness of c in [0, 1], used to pick a
// readable text color. Invalid colors report 0.5.
func Lightness(c Color) float64 {
	col, err := colorful.Hex(string(c))
	if err != nil {
		return 0.5
	}
	l, _, _ := col.Lab()
	return l
}

// TextColorOn returns black or white, whichever reads better on background c.
func TextColorOn(c Color) Color {
	if Lightness(c) > 0.6 {
		return "#1a1a1a"
	}
	return "#ffffff"
}
