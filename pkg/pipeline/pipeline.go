// Package pipeline provides the load → layout → render pipeline for budgetmap.
//
// The CLI `render` command and the HTTP server both go through this package,
// so a given hierarchy, focus and option set always produces the same bytes
// and hits the same cache entries.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a JSON or YAML hierarchy and normalize it into a tree
//  2. Layout: Compute the treemap cells of the focused node
//  3. Render: Decorate the cells into a scene and write it to sinks (SVG,
//     JSON, terminal, outline)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "budget.json",
//	    Focus:   "defense",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/budgetmap/pkg/cache"
	"github.com/matzehuels/budgetmap/pkg/errors"
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/httputil"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 1200.0

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 700.0

	// DefaultTermWidth and DefaultTermHeight size terminal renders in cells.
	DefaultTermWidth  = 100
	DefaultTermHeight = 30
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatJSON     = "json"
	FormatTerminal = "terminal"
	FormatOutline  = "outline"
)

// ValidFormats is the list of supported output formats.
var ValidFormats = []string{FormatSVG, FormatJSON, FormatTerminal, FormatOutline}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
type Options struct {
	// Load options
	Source string    `json:"source,omitempty"` // file path or URL; "" or "-" reads Stdin
	Stdin  io.Reader `json:"-"`
	// Fetcher loads http(s) sources. Nil uses a default client.
	Fetcher *httputil.Client `json:"-"`
	// YAML forces the YAML decoder. Otherwise it is chosen by extension,
	// and stdin input is sniffed.
	YAML    bool `json:"yaml,omitempty"`
	Refresh bool `json:"refresh,omitempty"`

	// Layout options
	Focus  string         `json:"focus,omitempty"`
	Width  float64        `json:"width,omitempty"`
	Height float64        `json:"height,omitempty"`
	Layout layout.Options `json:"layout"`

	// Render options
	Formats      []string      `json:"formats,omitempty"`
	Scene        scene.Options `json:"-"`
	Interactive  bool          `json:"interactive,omitempty"`
	Breadcrumb   bool          `json:"breadcrumb,omitempty"`
	Title        string        `json:"title,omitempty"`
	OutlineDepth int           `json:"outline_depth,omitempty"`
	// PaletteHash identifies the palette in Scene for artifact cache keys.
	PaletteHash string `json:"palette_hash,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the normalized hierarchy.
	Tree *hierarchy.Tree

	// TreeHash is the content hash of the normalized tree.
	TreeHash string

	// Warnings lists input problems the tree builder recovered from.
	Warnings []string

	// Cells is the layout of the focused node.
	Cells []layout.Cell

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	CellCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TreeHit   bool // Whether the normalized tree came from cache
	LayoutHit bool // Whether the cells came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f, ValidFormats); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full pipeline.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLoadDefaults()
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLoadDefaults fills in the input reader and logger.
func (o *Options) SetLoadDefaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetLayoutDefaults sets default canvas size and layout options.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Layout == (layout.Options{}) {
		o.Layout = layout.DefaultOptions()
	}
	if o.Layout.Algorithm == "" {
		o.Layout.Algorithm = layout.Squarify
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must be positive, got %gx%g", o.Width, o.Height)
	}
	if err := o.Layout.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "layout options")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scene.FontSize == 0 {
		d := scene.DefaultOptions()
		d.Total = o.Scene.Total
		d.Palette = o.Scene.Palette
		if o.Scene.Format != nil {
			d.Format = o.Scene.Format
		}
		o.Scene = d
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// UseTerminalUnits switches the canvas to character cells: cols×rows,
// one-row headers, no gaps, and terminal label thresholds. Label totals,
// formatter and palette already set on Scene are kept.
func (o *Options) UseTerminalUnits(cols, rows int) {
	if cols <= 0 {
		cols = DefaultTermWidth
	}
	if rows <= 0 {
		rows = DefaultTermHeight
	}
	o.Width, o.Height = float64(cols), float64(rows)
	o.Layout.PaddingOuter = 0
	o.Layout.PaddingInner = 0
	o.Layout.HeaderHeight = 1
	o.Layout.Round = true

	term := scene.TerminalOptions()
	term.Total = o.Scene.Total
	term.Palette = o.Scene.Palette
	if o.Scene.Format != nil {
		term.Format = o.Scene.Format
	}
	o.Scene = term
}

// Bounds returns the canvas rectangle.
func (o *Options) Bounds() layout.Rect {
	return layout.NewRect(0, 0, o.Width, o.Height)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(focus string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Focus:        focus,
		Width:        o.Width,
		Height:       o.Height,
		Algorithm:    string(o.Layout.Algorithm),
		PaddingOuter: o.Layout.PaddingOuter,
		PaddingInner: o.Layout.PaddingInner,
		HeaderHeight: o.Layout.HeaderHeight,
		Ratio:        o.Layout.Ratio,
		KeepOrder:    o.Layout.KeepOrder,
		Round:        o.Layout.Round,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	labels, _ := cache.HashJSON(labelKey{
		MinLabelHeight:   o.Scene.MinLabelHeight,
		ValueMinHeight:   o.Scene.ValueMinHeight,
		ValueMinWidth:    o.Scene.ValueMinWidth,
		PercentMinHeight: o.Scene.PercentMinHeight,
		PercentMinWidth:  o.Scene.PercentMinWidth,
		FontSize:         o.Scene.FontSize,
		LabelPadding:     o.Scene.LabelPadding,
		Placeholder:      o.Scene.Placeholder,
		Measurer:         scene.MeasurerKey(o.Scene.Measurer),
		Title:            o.Title,
	})
	k := cache.ArtifactKeyOpts{
		Format:      format,
		Interactive: o.Interactive,
		Breadcrumb:  o.Breadcrumb,
		Total:       o.Scene.Total,
		Palette:     o.PaletteHash,
		Labels:      labels,
	}
	if format == FormatOutline {
		k.Depth = o.OutlineDepth
	}
	return k
}

// labelKey is the hashable part of scene options.
type labelKey struct {
	MinLabelHeight   float64
	ValueMinHeight   float64
	ValueMinWidth    float64
	PercentMinHeight float64
	PercentMinWidth  float64
	FontSize         float64
	LabelPadding     float64
	Placeholder      string
	Measurer         string
	Title            string
}

func (o *Options) String() string {
	return fmt.Sprintf("source=%q focus=%q size=%gx%g formats=%v", o.Source, o.Focus, o.Width, o.Height, o.Formats)
}
