package layout

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/budgetmap/pkg/hierarchy"
)

// Algorithm selects the subdivision strategy.
type Algorithm string

const (
	// Squarify keeps cells close to the target aspect ratio.
	Squarify Algorithm = "squarify"
	// SliceDice alternates vertical and horizontal strips by depth.
	SliceDice Algorithm = "slicedice"
)

// Phi is the golden ratio, the default squarify target aspect ratio.
var Phi = (1 + math.Sqrt(5)) / 2

// Options configures [Compute].
type Options struct {
	Algorithm    Algorithm
	PaddingOuter float64 // inset of the whole view
	PaddingInner float64 // gap between sibling cells
	HeaderHeight float64 // header strip reserved on branch cells
	Ratio        float64 // squarify target aspect ratio; <= 1 means Phi
	KeepOrder    bool    // lay out in input order instead of by descending weight
	Round        bool    // snap slot edges to whole pixels
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Algorithm:    Squarify,
		PaddingOuter: 0,
		PaddingInner: 2,
		HeaderHeight: 18,
		Ratio:        Phi,
	}
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	switch o.Algorithm {
	case "", Squarify, SliceDice:
	default:
		return fmt.Errorf("unknown layout algorithm %q", o.Algorithm)
	}
	if o.PaddingOuter < 0 || o.PaddingInner < 0 || o.HeaderHeight < 0 {
		return fmt.Errorf("paddings and header height must be >= 0")
	}
	return nil
}

// Cell is a laid-out child of the focused node, valid for one render pass.
type Cell struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CategoryID  string  `json:"categoryId"`
	Category    string  `json:"category"` // display name of the category node
	Weight      float64 `json:"weight"`
	Amount      float64 `json:"amount"`
	HasChildren bool    `json:"hasChildren"`
	Index       int     `json:"index"`
	Slot        Rect    `json:"slot"`
	Rect        Rect    `json:"rect"`
	Header      Rect    `json:"header"`
	Body        Rect    `json:"body"`
}

// Content returns the area available to the children of a view laid out into r.
func Content(r Rect, opts Options) Rect {
	return r.Inset(opts.PaddingOuter)
}

// Compute lays out the children of focusID into r. If the focus has no
// children, the focus itself fills the content area. Children with
// non-positive weight are skipped.
func Compute(t *hierarchy.Tree, focusID string, r Rect, opts Options) []Cell {
	if t == nil {
		return nil
	}
	focus, ok := t.Node(focusID)
	if !ok {
		return nil
	}
	content := Content(r, opts)
	if opts.Round {
		content = content.Round()
	}
	if content.Empty() {
		return nil
	}

	var items []item
	if focus.IsLeaf() {
		if w := t.Weight(focus.ID); w > 0 {
			items = append(items, item{node: focus, weight: w})
		}
	} else {
		for _, c := range t.Children(focus.ID) {
			if w := t.Weight(c.ID); w > 0 {
				items = append(items, item{node: c, weight: w})
			}
		}
	}
	if len(items) == 0 {
		return nil
	}
	if !opts.KeepOrder {
		slices.SortStableFunc(items, func(a, b item) int { return cmp.Compare(b.weight, a.weight) })
	}
	normalize(items)

	slots := make([]Rect, len(items))
	switch opts.Algorithm {
	case SliceDice:
		sliceDice(items, slots, content, focus.Depth%2 == 1)
	default:
		ratio := opts.Ratio
		if ratio <= 1 {
			ratio = Phi
		}
		squarify(items, slots, content, ratio)
	}

	cells := make([]Cell, 0, len(items))
	for i, it := range items {
		slot := slots[i]
		if opts.Round {
			slot = slot.Round()
		}
		if slot.Empty() {
			continue
		}
		cells = append(cells, newCell(t, it, len(cells), slot, opts))
	}
	return cells
}

type item struct {
	node   *hierarchy.Node
	weight float64
	share  float64 // what the tiling divides up
}

// normalize sets each item's share. Shares equal weights unless their sum
// overflows, in which case they are scaled by the largest weight.
func normalize(items []item) {
	var sum, top float64
	for _, it := range items {
		sum += it.weight
		top = max(top, it.weight)
	}
	div := 1.0
	if math.IsInf(sum, 1) {
		div = top
	}
	for i := range items {
		items[i].share = items[i].weight / div
	}
}

func newCell(t *hierarchy.Tree, it item, index int, slot Rect, opts Options) Cell {
	n := it.node
	c := Cell{
		ID:          n.ID,
		Name:        n.Name,
		CategoryID:  n.CategoryID,
		Weight:      it.weight,
		Amount:      n.Amount,
		HasChildren: !n.IsLeaf(),
		Index:       index,
		Slot:        slot,
		Rect:        slot.Inset(opts.PaddingInner / 2),
	}
	if cat, ok := t.Node(n.CategoryID); ok {
		c.Category = cat.Name
	}
	c.Body = c.Rect
	if c.HasChildren && opts.HeaderHeight > 0 {
		h := math.Min(opts.HeaderHeight, c.Rect.Height())
		c.Header = Rect{X0: c.Rect.X0, Y0: c.Rect.Y0, X1: c.Rect.X1, Y1: c.Rect.Y0 + h}
		c.Body = Rect{X0: c.Rect.X0, Y0: c.Header.Y1, X1: c.Rect.X1, Y1: c.Rect.Y1}
	}
	return c
}

// Find returns the cell with the given id.
func Find(cells []Cell, id string) (Cell, bool) {
	for _, c := range cells {
		if c.ID == id {
			return c, true
		}
	}
	return Cell{}, false
}

// squarify fills slots row by row, growing each row while its worst aspect
// ratio keeps improving.
func squarify(items []item, slots []Rect, r Rect, ratio float64) {
	var value float64
	for _, it := range items {
		value += it.share
	}

	x0, y0, x1, y1 := r.X0, r.Y0, r.X1, r.Y1
	n := len(items)
	for i0 := 0; i0 < n; {
		dx, dy := x1-x0, y1-y0
		i1 := i0
		sum := items[i1].share
		i1++
		minV, maxV := sum, sum
		alpha := math.Max(dy/dx, dx/dy) / (value * ratio)
		beta := sum * sum * alpha
		minRatio := math.Max(maxV/beta, beta/minV)

		for ; i1 < n; i1++ {
			v := items[i1].share
			s := sum + v
			lo, hi := math.Min(minV, v), math.Max(maxV, v)
			beta = s * s * alpha
			newRatio := math.Max(hi/beta, beta/lo)
			if newRatio > minRatio {
				break
			}
			sum, minV, maxV, minRatio = s, lo, hi, newRatio
		}

		last := i1 == n
		if dx < dy {
			// Horizontal row across the top of the remaining area.
			ry1 := y1
			if !last {
				ry1 = y0 + dy*sum/value
			}
			dice(items[i0:i1], slots[i0:i1], Rect{X0: x0, Y0: y0, X1: x1, Y1: ry1}, sum)
			y0 = ry1
		} else {
			// Vertical column along the left of the remaining area.
			rx1 := x1
			if !last {
				rx1 = x0 + dx*sum/value
			}
			slice(items[i0:i1], slots[i0:i1], Rect{X0: x0, Y0: y0, X1: rx1, Y1: y1}, sum)
			x0 = rx1
		}
		value -= sum
		i0 = i1
	}
}

// dice places items left to right across r.
func dice(items []item, slots []Rect, r Rect, total float64) {
	x := r.X0
	k := r.Width() / total
	for i, it := range items {
		next := x + it.share*k
		if i == len(items)-1 {
			next = r.X1
		}
		slots[i] = Rect{X0: x, Y0: r.Y0, X1: next, Y1: r.Y1}
		x = next
	}
}

// slice places items top to bottom down r.
func slice(items []item, slots []Rect, r Rect, total float64) {
	y := r.Y0
	k := r.Height() / total
	for i, it := range items {
		next := y + it.share*k
		if i == len(items)-1 {
			next = r.Y1
		}
		slots[i] = Rect{X0: r.X0, Y0: y, X1: r.X1, Y1: next}
		y = next
	}
}

func sliceDice(items []item, slots []Rect, r Rect, horizontal bool) {
	var total float64
	for _, it := range items {
		total += it.share
	}
	if horizontal {
		slice(items, slots, r, total)
		return
	}
	dice(items, slots, r, total)
}
