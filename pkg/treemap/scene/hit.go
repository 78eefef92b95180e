package scene

import "github.com/matzehuels/budgetmap/pkg/treemap/layout"

// Point is a position in view coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width and height.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Region is the part of an item a point falls in.
type Region int

const (
	RegionBody Region = iota
	RegionHeader
)

// Hit is the result of a hit test.
type Hit struct {
	Item   *Item
	Region Region
}

// At returns the topmost item under p. Headers win over bodies, and exiting
// items are never hit.
func (s *Scene) At(p Point) (Hit, bool) {
	for i := len(s.Items) - 1; i >= 0; i-- {
		it := &s.Items[i]
		if !it.Rect.Contains(p.X, p.Y) {
			continue
		}
		if !it.Header.Empty() && it.Header.Contains(p.X, p.Y) {
			return Hit{Item: it, Region: RegionHeader}, true
		}
		return Hit{Item: it, Region: RegionBody}, true
	}
	return Hit{}, false
}

// Find returns the item with the given id.
func (s *Scene) Find(id string) (*Item, bool) {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// TooltipOffset is the gap between the pointer and the tooltip in the SVG
// view box. The terminal explorer uses a gap of one cell instead.
const TooltipOffset = 12.0

// PlaceTooltip positions a tooltip of the given size near the pointer. It
// prefers below-right, flips to the left or above when that would overflow
// the container, and finally clamps so the tooltip stays inside.
func PlaceTooltip(pointer Point, size Size, container layout.Rect, offset float64) Point {
	return Point{
		X: place(pointer.X, size.W, container.X0, container.X1, offset),
		Y: place(pointer.Y, size.H, container.Y0, container.Y1, offset),
	}
}

func place(p, extent, lo, hi, offset float64) float64 {
	v := p + offset
	if v+extent > hi {
		v = p - offset - extent
	}
	if v+extent > hi {
		v = hi - extent
	}
	if v < lo {
		v = lo
	}
	return v
}
