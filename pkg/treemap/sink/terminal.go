package sink

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/budgetmap/pkg/palette"
	"github.com/matzehuels/budgetmap/pkg/treemap/scene"
)

var (
	borderColor   = lipgloss.Color("#1a1a1a")
	selectedColor = lipgloss.Color("#ffd60a")
)

// TerminalOption configures [RenderTerminal].
type TerminalOption func(*termRenderer)

type termRenderer struct {
	selected string
	hovered  string
	borders  bool
}

// WithSelected highlights the cell with the given id.
func WithSelected(id string) TerminalOption { return func(r *termRenderer) { r.selected = id } }

// WithHovered draws the cell with the given id in its hover color.
func WithHovered(id string) TerminalOption { return func(r *termRenderer) { r.hovered = id } }

// WithoutBorders disables box-drawing borders.
func WithoutBorders() TerminalOption { return func(r *termRenderer) { r.borders = false } }

type glyph struct {
	ch    string // "" marks the second column of a wide rune
	style int
}

type grid struct {
	w, h   int
	cells  [][]glyph
	styles []lipgloss.Style
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, styles: []lipgloss.Style{lipgloss.NewStyle()}}
	g.cells = make([][]glyph, h)
	for y := range g.cells {
		g.cells[y] = make([]glyph, w)
		for x := range g.cells[y] {
			g.cells[y][x] = glyph{ch: " "}
		}
	}
	return g
}

func (g *grid) style(s lipgloss.Style) int {
	g.styles = append(g.styles, s)
	return len(g.styles) - 1
}

func (g *grid) set(x, y int, ch string, style int) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[y][x] = glyph{ch: ch, style: style}
}

func (g *grid) restyle(x, y, style int) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[y][x].style = style
}

// text writes s starting at (x, y) without crossing maxX.
func (g *grid) text(x, y, maxX int, s string, style int) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > maxX {
			return
		}
		g.set(x, y, string(r), style)
		if w == 2 {
			g.set(x+1, y, "", style)
		}
		x += w
	}
}

func (g *grid) String() string {
	lines := make([]string, g.h)
	for y, row := range g.cells {
		var line, run strings.Builder
		cur := -1
		flush := func() {
			if run.Len() > 0 {
				line.WriteString(g.styles[cur].Render(run.String()))
				run.Reset()
			}
		}
		for _, c := range row {
			if c.style != cur {
				flush()
				cur = c.style
			}
			run.WriteString(c.ch)
		}
		flush()
		lines[y] = line.String()
	}
	return strings.Join(lines, "\n")
}

// RenderTerminal draws s on a character grid the size of its bounds. The
// scene is expected in character units (one unit per column and row).
func RenderTerminal(s scene.Scene, opts ...TerminalOption) string {
	r := termRenderer{borders: true}
	for _, opt := range opts {
		opt(&r)
	}

	w := int(math.Round(s.Bounds.Width()))
	h := int(math.Round(s.Bounds.Height()))
	if w <= 0 || h <= 0 {
		return ""
	}
	g := newGrid(w, h)
	ox, oy := s.Bounds.X0, s.Bounds.Y0

	if s.Empty() {
		msg := runewidth.Truncate(s.Placeholder, w, "…")
		g.text((w-runewidth.StringWidth(msg))/2, h/2, w, msg, 0)
		return g.String()
	}

	for _, it := range s.Items {
		r.drawItem(g, it, ox, oy)
	}
	return g.String()
}

func (r *termRenderer) drawItem(g *grid, it scene.Item, ox, oy float64) {
	x0 := int(math.Round(it.Rect.X0 - ox))
	y0 := int(math.Round(it.Rect.Y0 - oy))
	x1 := int(math.Round(it.Rect.X1 - ox))
	y1 := int(math.Round(it.Rect.Y1 - oy))
	if x1 <= x0 || y1 <= y0 {
		return
	}

	bg := it.Fill
	if it.ID == r.hovered {
		bg = it.HoverFill
	}
	fg := palette.TextColorOn(bg)
	body := lipgloss.NewStyle().Background(lipgloss.Color(bg)).Foreground(lipgloss.Color(fg))
	border := body.Foreground(borderColor)
	if it.ID == r.selected {
		body = body.Bold(true)
		border = border.Foreground(selectedColor).Bold(true)
	}
	bodyIdx, borderIdx := g.style(body), g.style(border)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.set(x, y, " ", bodyIdx)
		}
	}

	inner := 0
	if r.borders && x1-x0 >= 3 && y1-y0 >= 3 {
		inner = 1
		drawBox(g, x0, y0, x1-1, y1-1, borderIdx)
	}

	// Branches get a titled top row in the header color.
	row := y0 + inner
	if !it.Header.Empty() {
		hdr := lipgloss.NewStyle().
			Background(lipgloss.Color(it.HeaderFill)).
			Foreground(lipgloss.Color(palette.TextColorOn(it.HeaderFill))).
			Bold(true)
		if it.ID == r.selected {
			hdr = hdr.Foreground(selectedColor)
		}
		hdrIdx := g.style(hdr)
		for x := x0; x < x1; x++ {
			g.restyle(x, y0, hdrIdx)
		}
		if name := it.Label(scene.LineName); name != "" {
			g.text(x0+inner, y0, x1-inner, name, hdrIdx)
		}
		row = y0 + 1
	}

	for _, l := range it.Lines {
		if l.Kind == scene.LineName && !it.Header.Empty() {
			continue
		}
		if row >= y1-inner {
			break
		}
		g.text(x0+inner, row, x1-inner, l.Text, bodyIdx)
		row++
	}
}

func drawBox(g *grid, x0, y0, x1, y1, style int) {
	for x := x0 + 1; x < x1; x++ {
		g.set(x, y0, "─", style)
		g.set(x, y1, "─", style)
	}
	for y := y0 + 1; y < y1; y++ {
		g.set(x0, y, "│", style)
		g.set(x1, y, "│", style)
	}
	g.set(x0, y0, "┌", style)
	g.set(x1, y0, "┐", style)
	g.set(x0, y1, "└", style)
	g.set(x1, y1, "┘", style)
}
