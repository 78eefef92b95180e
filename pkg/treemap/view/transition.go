package view

import (
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/tween"
)

// FrameCell is a cell sampled mid-transition.
type FrameCell struct {
	layout.Cell
	Opacity float64 `json:"opacity"`
}

// Frame is what a host draws at one instant.
type Frame struct {
	State    State       `json:"state"`
	Cells    []FrameCell `json:"cells"`
	Exiting  []FrameCell `json:"exiting,omitempty"`
	Progress float64     `json:"progress"`
}

type transition struct {
	tw      *tween.Tween
	from    []layout.Cell // start geometry of the entering cells
	to      []layout.Cell
	exitOut []layout.Cell // end geometry of the exiting cells
	exitIn  []layout.Cell
}

// zoomInTransition starts the new cells inside the clicked cell's body and
// blows the old cells up around it.
func zoomInTransition(tw *tween.Tween, canvas layout.Rect, old, next []layout.Cell, target layout.Cell) *transition {
	anchor := anchorRect(target)
	tr := &transition{tw: tw, to: next, exitIn: old}
	tr.from = mapCells(next, canvas, anchor)
	tr.exitOut = mapCells(old, anchor, canvas)
	return tr
}

// zoomOutTransition starts the new cells blown up so that the cell holding
// the previous focus fills the canvas, and shrinks the old cells into it.
func zoomOutTransition(tw *tween.Tween, canvas layout.Rect, old, next []layout.Cell, anchorCell layout.Cell) *transition {
	anchor := anchorRect(anchorCell)
	tr := &transition{tw: tw, to: next, exitIn: old}
	tr.from = mapCells(next, anchor, canvas)
	tr.exitOut = mapCells(old, canvas, anchor)
	return tr
}

// fadeTransition crossfades when no anchor cell is visible.
func fadeTransition(tw *tween.Tween, old, next []layout.Cell) *transition {
	return &transition{tw: tw, from: next, to: next, exitIn: old, exitOut: old}
}

func anchorRect(c layout.Cell) layout.Rect {
	if !c.Body.Empty() {
		return c.Body
	}
	return c.Rect
}

func mapCells(cells []layout.Cell, from, to layout.Rect) []layout.Cell {
	out := make([]layout.Cell, len(cells))
	for i, c := range cells {
		c.Slot = c.Slot.Map(from, to)
		c.Rect = c.Rect.Map(from, to)
		c.Header = c.Header.Map(from, to)
		c.Body = c.Body.Map(from, to)
		out[i] = c
	}
	return out
}

func lerpCells(from, to []layout.Cell, t, opacity float64) []FrameCell {
	out := make([]FrameCell, len(to))
	for i, c := range to {
		f := from[i]
		c.Slot = f.Slot.Lerp(c.Slot, t)
		c.Rect = f.Rect.Lerp(c.Rect, t)
		c.Header = f.Header.Lerp(c.Header, t)
		c.Body = f.Body.Lerp(c.Body, t)
		out[i] = FrameCell{Cell: c, Opacity: opacity}
	}
	return out
}

func (tr *transition) sample(t float64) ([]FrameCell, []FrameCell) {
	return lerpCells(tr.from, tr.to, t, t), lerpCells(tr.exitIn, tr.exitOut, t, 1-t)
}

func staticCells(cells []layout.Cell) []FrameCell {
	out := make([]FrameCell, len(cells))
	for i, c := range cells {
		out[i] = FrameCell{Cell: c, Opacity: 1}
	}
	return out
}
