package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/budgetmap/pkg/errors"
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/observability"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
)

// =============================================================================
// Layout Generation
// =============================================================================

// ResolveFocus returns the node id to lay out: opts.Focus, or the root when
// unset. Unknown ids are a NOT_FOUND error.
func ResolveFocus(t *hierarchy.Tree, focus string) (string, error) {
	if focus == "" {
		return t.RootID(), nil
	}
	if !t.Contains(focus) {
		return "", errors.New(errors.ErrCodeNotFound, "no node with id %q", focus)
	}
	return focus, nil
}

// ComputeLayout lays out the children of the focused node on the canvas.
// A degenerate canvas or a focus without positive weight yields no cells.
func ComputeLayout(ctx context.Context, t *hierarchy.Tree, opts Options) ([]layout.Cell, error) {
	opts.SetLayoutDefaults()
	focus, err := ResolveFocus(t, opts.Focus)
	if err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, focus, len(t.Children(focus)))
	start := time.Now()

	cells := layout.Compute(t, focus, opts.Bounds(), opts.Layout)

	hooks.OnLayoutComplete(ctx, focus, len(cells), time.Since(start))
	opts.Logger.Debug("computed layout", "focus", focus, "cells", len(cells))
	return cells, nil
}
