package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/budgetmap/pkg/errors"
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/observability"
	"github.com/matzehuels/budgetmap/pkg/render/outline"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/scene"
	"github.com/matzehuels/budgetmap/pkg/treemap/sink"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

// BuildScene decorates cells for the focused node, including the breadcrumb
// trail from the root.
func BuildScene(t *hierarchy.Tree, cells []layout.Cell, opts Options) scene.Scene {
	sc := scene.Build(cells, t, opts.Bounds(), opts.Scene)
	focus := opts.Focus
	if focus == "" {
		focus = t.RootID()
	}
	sc.Breadcrumb = view.Breadcrumb(t, focusState(t, focus))
	return sc
}

// focusState is the zoom state whose focus is id. Unlike [view.StateFor]
// it accepts leaves, which can be rendered but not navigated to.
func focusState(t *hierarchy.Tree, id string) view.State {
	if s, ok := view.StateFor(t, id); ok {
		return s
	}
	path := t.Path(id)
	if len(path) == 0 {
		return view.Initial(t)
	}
	return view.State{FocusID: id, Ancestry: path[:len(path)-1]}
}

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, t *hierarchy.Tree, cells []layout.Cell, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	sc := BuildScene(t, cells, opts)
	hooks := observability.Pipeline()

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		hooks.OnRenderStart(ctx, format)
		start := time.Now()

		data, err := renderFormat(ctx, t, sc, format, opts)

		hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, t *hierarchy.Tree, sc scene.Scene, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(sc, svgOptions(opts)...), nil
	case FormatJSON:
		focus := opts.Focus
		if focus == "" {
			focus = t.RootID()
		}
		return sink.RenderJSON(sc, sink.WithJSONFocus(focus))
	case FormatTerminal:
		return []byte(sink.RenderTerminal(sc)), nil
	case FormatOutline:
		dot := outline.ToDOT(t, outline.Options{
			Focus:    opts.Focus,
			MaxDepth: opts.OutlineDepth,
			Format:   opts.Scene.Format,
			Palette:  opts.Scene.Palette,
		})
		return outline.RenderSVG(ctx, dot)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
}

func svgOptions(opts Options) []sink.SVGOption {
	var out []sink.SVGOption
	if opts.Interactive {
		out = append(out, sink.WithInteraction())
	}
	if opts.Breadcrumb {
		out = append(out, sink.WithBreadcrumb())
	}
	if opts.Title != "" {
		out = append(out, sink.WithTitle(opts.Title))
	}
	return out
}
