// Package pkg provides the core libraries for budgetmap treemaps.
//
// # Overview
//
// Budgetmap lays out a weighted hierarchy (a government budget, a disk, a
// portfolio) as nested rectangles whose areas are proportional to their
// weights, and lets a viewer zoom into any branch and back out. The pkg
// directory is organized into four areas:
//
//  1. [hierarchy] and [palette] - Domain model (normalized trees, category colors)
//  2. [treemap] - Geometry and interaction (layout, zoom state, tweens, scenes, sinks)
//  3. [pipeline] - Orchestration (load → layout → render) shared by CLI and server
//  4. [cache], [session], [config], [errors], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow through budgetmap:
//
//	JSON/YAML file, URL or stdin
//	         ↓
//	    [hierarchy] package (normalize input, aggregate weights)
//	         ↓
//	    [treemap/layout] package (squarified cells for the focused node)
//	         ↓
//	    [treemap/scene] package (labels, colors, tooltips, hit testing)
//	         ↓
//	    [treemap/sink] package (SVG, JSON, terminal)
//
// Interactive surfaces put a [treemap/view] Navigator between layout and
// scene: it owns the zoom state and animates transitions with
// [treemap/tween], advanced by the host's clock.
//
// # Quick Start
//
//	t := hierarchy.Build(in)
//	cells := layout.Compute(t, t.RootID(), layout.NewRect(0, 0, 1200, 700), layout.DefaultOptions())
//	sc := scene.Build(cells, t, layout.NewRect(0, 0, 1200, 700), scene.DefaultOptions())
//	svg := sink.RenderSVG(sc, sink.WithInteraction())
//
// Or through the pipeline, with caching:
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Source: "budget.yaml", Focus: "defense"})
//
// # Main Packages
//
// [hierarchy] - Tree builder. Accepts nested or flat parent-reference input,
// repairs duplicates, cycles and dangling parents, and reports warnings
// instead of failing.
//
// [palette] - Category color resolver with deterministic fallbacks and
// lightness-shifted hover and header variants.
//
// [treemap/layout] - Squarified and slice-and-dice layouts with header
// strips, padding and optional rounding to character cells.
//
// [treemap/view] - Zoom state machine ([view.Reduce]) and the Navigator that
// drives transitions, breadcrumbs and request coalescing.
//
// [treemap/resize] - Debounced viewport resize controller.
//
// [render/outline] - Node-link outline of the hierarchy rendered by Graphviz.
//
// [httputil] - Remote source fetching with retry.
//
// [hierarchy]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/hierarchy
// [palette]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/palette
// [treemap]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/treemap
// [treemap/layout]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/treemap/layout
// [treemap/scene]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/treemap/scene
// [treemap/sink]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/treemap/sink
// [treemap/view]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/treemap/view
// [treemap/tween]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/treemap/tween
// [treemap/resize]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/treemap/resize
// [render/outline]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/render/outline
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/session
// [config]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/budgetmap/pkg/httputil
package pkg
