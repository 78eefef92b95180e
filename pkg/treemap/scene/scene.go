// Package scene turns laid-out cells into drawable items.
//
// A Scene decides per cell which decorations fit (header band, name, value
// and percent labels), resolves colors and tooltip text, and answers hit
// tests. Sinks only draw what the scene contains.
package scene

import (
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/palette"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

// DefaultPlaceholder is shown when there is nothing to draw.
const DefaultPlaceholder = "No data to display"

// Options controls label visibility and formatting.
type Options struct {
	MinLabelHeight   float64 // name label needs a taller cell
	ValueMinHeight   float64
	ValueMinWidth    float64
	PercentMinHeight float64
	PercentMinWidth  float64
	FontSize         float64
	LabelPadding     float64

	// Total is the denominator for percent labels. Zero means the root weight.
	Total float64

	Format      Formatter
	Measurer    Measurer
	Palette     *palette.Resolver
	Placeholder string
}

// DefaultOptions returns the thresholds used by the SVG sink.
func DefaultOptions() Options {
	return Options{
		MinLabelHeight:   20,
		ValueMinHeight:   40,
		ValueMinWidth:    60,
		PercentMinHeight: 58,
		PercentMinWidth:  60,
		FontSize:         12,
		LabelPadding:     4,
		Format:           Currency,
		Measurer:         DefaultCharWidth,
		Placeholder:      DefaultPlaceholder,
	}
}

// TerminalOptions returns thresholds in character units for grid output.
func TerminalOptions() Options {
	return Options{
		MinLabelHeight:   2,
		ValueMinHeight:   3,
		ValueMinWidth:    8,
		PercentMinHeight: 4,
		PercentMinWidth:  8,
		FontSize:         1,
		LabelPadding:     1,
		Format:           Currency,
		Measurer:         Cells{},
		Placeholder:      DefaultPlaceholder,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	if o.Format == nil {
		o.Format = d.Format
	}
	if o.Measurer == nil {
		o.Measurer = d.Measurer
	}
	if o.Placeholder == "" {
		o.Placeholder = d.Placeholder
	}
	if o.Palette == nil {
		o.Palette = palette.Standard()
	}
	return o
}

// LineKind identifies a text line inside an item.
type LineKind string

const (
	LineName    LineKind = "name"
	LineValue   LineKind = "value"
	LinePercent LineKind = "percent"
)

// Line is a positioned text line. At is the left end of the baseline.
type Line struct {
	Kind     LineKind `json:"kind"`
	Text     string   `json:"text"`
	At       Point    `json:"at"`
	FontSize float64  `json:"fontSize"`
}

// Tooltip is the hover popup content for an item.
type Tooltip struct {
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Value    string `json:"value"`
	Percent  string `json:"percent"`
	Hint     string `json:"hint,omitempty"`
}

// Item is one drawable cell.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CategoryID  string  `json:"categoryId"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Weight      float64 `json:"weight"`
	Share       float64 `json:"share"`
	HasChildren bool    `json:"hasChildren"`
	Opacity     float64 `json:"opacity"`

	Rect   layout.Rect `json:"rect"`
	Header layout.Rect `json:"header"`
	Body   layout.Rect `json:"body"`

	Fill       palette.Color `json:"fill"`
	HoverFill  palette.Color `json:"hoverFill"`
	HeaderFill palette.Color `json:"headerFill,omitempty"`
	TextColor  palette.Color `json:"textColor"`

	Lines   []Line  `json:"lines,omitempty"`
	Tooltip Tooltip `json:"tooltip"`
}

// Label returns the text of the line of the given kind, or "".
func (it Item) Label(kind LineKind) string {
	for _, l := range it.Lines {
		if l.Kind == kind {
			return l.Text
		}
	}
	return ""
}

// Scene is everything a sink needs to draw one frame.
type Scene struct {
	Bounds      layout.Rect  `json:"bounds"`
	Items       []Item       `json:"items"`
	Exiting     []Item       `json:"exiting,omitempty"`
	Breadcrumb  []view.Crumb `json:"breadcrumb,omitempty"`
	Total       float64      `json:"total"`
	Placeholder string       `json:"placeholder,omitempty"`
}

// Empty reports whether the scene has no items.
func (s Scene) Empty() bool { return len(s.Items) == 0 }

// Build decorates static cells.
func Build(cells []layout.Cell, t *hierarchy.Tree, bounds layout.Rect, opts Options) Scene {
	frame := make([]view.FrameCell, len(cells))
	for i, c := range cells {
		frame[i] = view.FrameCell{Cell: c, Opacity: 1}
	}
	return build(frame, nil, t, bounds, opts)
}

// FromFrame decorates the navigator's frame at the given instant,
// including exiting cells and the breadcrumb.
func FromFrame(f view.Frame, t *hierarchy.Tree, bounds layout.Rect, opts Options) Scene {
	s := build(f.Cells, f.Exiting, t, bounds, opts)
	s.Breadcrumb = view.Breadcrumb(t, f.State)
	return s
}

func build(cells, exiting []view.FrameCell, t *hierarchy.Tree, bounds layout.Rect, opts Options) Scene {
	opts = opts.withDefaults()
	total := opts.Total
	if total <= 0 && t != nil {
		total = t.Total()
	}
	s := Scene{Bounds: bounds, Total: total}
	for _, c := range cells {
		s.Items = append(s.Items, decorate(c, total, opts))
	}
	for _, c := range exiting {
		s.Exiting = append(s.Exiting, decorate(c, total, opts))
	}
	if len(s.Items) == 0 {
		s.Placeholder = opts.Placeholder
	}
	return s
}

func decorate(fc view.FrameCell, total float64, opts Options) Item {
	c := fc.Cell
	it := Item{
		ID:          c.ID,
		Name:        c.Name,
		CategoryID:  c.CategoryID,
		Category:    c.Category,
		Amount:      c.Amount,
		Weight:      c.Weight,
		HasChildren: c.HasChildren,
		Opacity:     fc.Opacity,
		Rect:        c.Rect,
		Header:      c.Header,
		Body:        c.Body,
	}
	if it.Name == "" {
		it.Name = c.ID
	}
	if total > 0 {
		it.Share = c.Weight / total
	}

	key := c.Category
	if key == "" {
		key = c.CategoryID
	}
	it.Fill = opts.Palette.ColorFor(key)
	it.HoverFill = opts.Palette.HoverColorFor(key)
	if c.HasChildren {
		it.HeaderFill = opts.Palette.HeaderColorFor(key)
	}
	it.TextColor = palette.TextColorOn(it.Fill)

	it.Tooltip = Tooltip{
		Title:   it.Name,
		Value:   opts.Format(c.Weight),
		Percent: Percent(it.Share) + " of total",
	}
	if c.Category != "" && c.Category != it.Name {
		it.Tooltip.Category = c.Category
	}
	if c.HasChildren {
		it.Tooltip.Hint = "Click to zoom in"
	}

	it.Lines = lines(it, opts)
	return it
}

// lines places the labels that fit inside the item.
func lines(it Item, opts Options) []Line {
	r := it.Rect
	h, w := r.Height(), r.Width()
	if h <= opts.MinLabelHeight {
		return nil
	}
	pad := opts.LabelPadding
	avail := w - 2*pad
	fs := opts.FontSize

	var out []Line
	name := Truncate(opts.Measurer, it.Name, avail, fs)
	if name == "" {
		return nil
	}
	y := r.Y0 + pad + fs
	if it.HasChildren && !it.Header.Empty() {
		// Name sits centered vertically in the header band.
		y = it.Header.CenterY() + fs*0.35
	}
	out = append(out, Line{Kind: LineName, Text: name, At: Point{X: r.X0 + pad, Y: y}, FontSize: fs})

	if h > opts.ValueMinHeight && w > opts.ValueMinWidth {
		small := fs * 0.9
		if v := Truncate(opts.Measurer, it.Tooltip.Value, avail, small); v != "" {
			y += small + pad
			out = append(out, Line{Kind: LineValue, Text: v, At: Point{X: r.X0 + pad, Y: y}, FontSize: small})
		}
		if h > opts.PercentMinHeight && w > opts.PercentMinWidth {
			if p := Truncate(opts.Measurer, Percent(it.Share), avail, small); p != "" {
				y += small + pad
				out = append(out, Line{Kind: LinePercent, Text: p, At: Point{X: r.X0 + pad, Y: y}, FontSize: small})
			}
		}
	}
	return out
}
