package layout

import "math"

// Rect is an axis-aligned rectangle in pixel space, (X0,Y0) top-left and
// (X1,Y1) bottom-right.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewRect returns the rectangle at (x, y) with the given size.
func NewRect(x, y, w, h float64) Rect { return Rect{X0: x, Y0: y, X1: x + w, Y1: y + h} }

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area returns Width*Height, or 0 for empty rectangles.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Width() * r.Height()
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return !(r.X1 > r.X0 && r.Y1 > r.Y0) }

// CenterX returns the horizontal center point.
func (r Rect) CenterX() float64 { return (r.X0 + r.X1) / 2 }

// CenterY returns the vertical center point.
func (r Rect) CenterY() float64 { return (r.Y0 + r.Y1) / 2 }

// Contains reports whether (x, y) lies inside r. The top-left edges are
// inclusive and the bottom-right edges exclusive, so adjacent rectangles
// never both contain a point.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1
}

// Inset shrinks r by d on every side. Insets larger than the rectangle
// collapse it to a zero-size rectangle at its center.
func (r Rect) Inset(d float64) Rect {
	return r.InsetSides(d, d, d, d)
}

// InsetSides shrinks r by the given amounts on each side.
func (r Rect) InsetSides(top, right, bottom, left float64) Rect {
	out := Rect{X0: r.X0 + left, Y0: r.Y0 + top, X1: r.X1 - right, Y1: r.Y1 - bottom}
	if out.X1 < out.X0 {
		cx := r.CenterX()
		out.X0, out.X1 = cx, cx
	}
	if out.Y1 < out.Y0 {
		cy := r.CenterY()
		out.Y0, out.Y1 = cy, cy
	}
	return out
}

// Intersect returns the overlap of r and o (empty if they do not overlap).
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		X0: math.Max(r.X0, o.X0), Y0: math.Max(r.Y0, o.Y0),
		X1: math.Min(r.X1, o.X1), Y1: math.Min(r.Y1, o.Y1),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Map transforms r from the coordinate frame `from` into the frame `to`:
// a rectangle equal to `from` maps to exactly `to`. Zoom transitions use it
// to place a view inside (or blow it up from) a single cell.
func (r Rect) Map(from, to Rect) Rect {
	fw, fh := from.Width(), from.Height()
	if fw == 0 || fh == 0 {
		return to
	}
	sx, sy := to.Width()/fw, to.Height()/fh
	return Rect{
		X0: to.X0 + (r.X0-from.X0)*sx,
		Y0: to.Y0 + (r.Y0-from.Y0)*sy,
		X1: to.X0 + (r.X1-from.X0)*sx,
		Y1: to.Y0 + (r.Y1-from.Y0)*sy,
	}
}

// Lerp interpolates between r and o; t=0 yields r and t=1 yields o.
func (r Rect) Lerp(o Rect, t float64) Rect {
	return Rect{
		X0: r.X0 + (o.X0-r.X0)*t,
		Y0: r.Y0 + (o.Y0-r.Y0)*t,
		X1: r.X1 + (o.X1-r.X1)*t,
		Y1: r.Y1 + (o.Y1-r.Y1)*t,
	}
}

// Round snaps every edge to the nearest integer.
func (r Rect) Round() Rect {
	return Rect{X0: math.Round(r.X0), Y0: math.Round(r.Y0), X1: math.Round(r.X1), Y1: math.Round(r.Y1)}
}
