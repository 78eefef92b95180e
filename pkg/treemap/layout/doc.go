// Package layout computes the rectangles of a treemap view.
//
// # Lazy Layout
//
// Only the immediate children of the focused node are laid out. Deeper levels
// are computed when the user zooms into them, so the cost of [Compute] is
// proportional to one level's fan-out, not to the size of the tree.
//
// # Slots and Rects
//
// Every [Cell] has a Slot and a Rect. Slots exactly tile the content area
// (the target rectangle shrunk by Options.PaddingOuter): no gaps, no overlaps,
// and each slot's area is proportional to the child's aggregated leaf sum.
// Rect is the slot shrunk by half of Options.PaddingInner on each side, which
// is what gets drawn. Branch cells additionally split Rect into a Header strip
// (the clickable zoom target) and a Body.
//
// # Algorithms
//
// [Squarify] follows the squarified treemap of Bruls, Huizing and van Wijk
// with the golden-ratio target used by d3. [SliceDice] alternates vertical
// and horizontal strips by depth.
//
// Degenerate input (zero-area rectangles, unknown focus, no positive weights)
// yields an empty result rather than an error.
package layout
