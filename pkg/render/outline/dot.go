package outline

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/palette"
	"github.com/matzehuels/budgetmap/pkg/treemap/scene"
)

// Options configures outline generation.
type Options struct {
	// Focus is the subtree root; empty means the tree root.
	Focus string
	// MaxDepth limits how many levels below Focus are drawn; 0 draws all.
	MaxDepth int
	// Horizontal lays the diagram out left to right instead of top down.
	Horizontal bool
	// Format formats weights in labels; nil uses [scene.Currency].
	Format scene.Formatter
	// Palette colors nodes by category; nil uses the standard table.
	Palette *palette.Resolver
}

// ToDOT converts the subtree at opts.Focus to Graphviz DOT source.
// Unknown focus ids produce an empty graph.
func ToDOT(t *hierarchy.Tree, opts Options) string {
	if opts.Format == nil {
		opts.Format = scene.Currency
	}
	if opts.Palette == nil {
		opts.Palette = palette.Standard()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Horizontal {
		buf.WriteString("  rankdir=LR;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [color=\"#9ca3af\", arrowhead=none];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	focus := opts.Focus
	if focus == "" && t != nil {
		focus = t.RootID()
	}
	if t == nil || !t.Contains(focus) {
		buf.WriteString("}\n")
		return buf.String()
	}

	var edges []string
	var visit func(id string, level int)
	visit = func(id string, level int) {
		n, _ := t.Node(id)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(t, n, opts), ", "))
		if opts.MaxDepth > 0 && level >= opts.MaxDepth {
			return
		}
		for _, c := range t.Children(id) {
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", n.ID, c.ID))
			visit(c.ID, level+1)
		}
	}
	visit(focus, 0)

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(t *hierarchy.Tree, n *hierarchy.Node, opts Options) []string {
	label := n.Name + "\n" + opts.Format(t.Weight(n.ID))
	attrs := []string{fmt.Sprintf("label=%q", label)}

	var fill palette.Color
	switch {
	case n.Depth == 0:
		fill = "#f3f4f6"
	default:
		name := n.Name
		if cat, ok := t.Node(n.CategoryID); ok {
			name = cat.Name
		}
		fill = opts.Palette.ColorFor(name)
	}
	attrs = append(attrs,
		fmt.Sprintf("fillcolor=%q", string(fill)),
		fmt.Sprintf("fontcolor=%q", string(palette.TextColorOn(fill))),
		fmt.Sprintf("tooltip=%q", n.ID),
	)
	if t.Weight(n.ID) <= 0 {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// unitless one so the outline scales like the treemap SVG.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
