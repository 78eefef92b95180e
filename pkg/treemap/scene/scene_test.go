package scene

import (
	"testing"
	"time"

	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/palette"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

func exampleTree() *hierarchy.Tree {
	return hierarchy.Build(hierarchy.Nested(hierarchy.Entry{
		ID: "root", Name: "Total", Amount: 100,
		Children: []hierarchy.Entry{
			{ID: "A", Name: "Department of Defense", Amount: 60, Children: []hierarchy.Entry{
				{ID: "A1", Name: "Army", Amount: 40},
				{ID: "A2", Name: "Navy", Amount: 20},
			}},
			{ID: "B", Name: "Department of Education", Amount: 40},
		},
	}))
}

func cell(id, name string, r layout.Rect, branch bool) layout.Cell {
	c := layout.Cell{ID: id, Name: name, Category: name, CategoryID: id, Weight: 25, Rect: r, Body: r, HasChildren: branch}
	if branch {
		c.Header = layout.Rect{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y0 + 18}
		c.Body.Y0 = c.Header.Y1
	}
	return c
}

func TestLabelThresholds(t *testing.T) {
	opts := DefaultOptions()
	opts.Total = 100

	tests := []struct {
		name string
		rect layout.Rect
		want []LineKind
	}{
		{"too short", layout.NewRect(0, 0, 200, 15), nil},
		{"at min height", layout.NewRect(0, 0, 200, 20), nil},
		{"name only", layout.NewRect(0, 0, 200, 30), []LineKind{LineName}},
		{"name and value", layout.NewRect(0, 0, 200, 50), []LineKind{LineName, LineValue}},
		{"narrow keeps name", layout.NewRect(0, 0, 50, 100), []LineKind{LineName}},
		{"everything", layout.NewRect(0, 0, 200, 100), []LineKind{LineName, LineValue, LinePercent}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Build([]layout.Cell{cell("x", "Agriculture", tt.rect, false)}, nil, tt.rect, opts)
			var got []LineKind
			for _, l := range s.Items[0].Lines {
				got = append(got, l.Kind)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("lines = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("lines = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestLabelTruncation(t *testing.T) {
	r := layout.NewRect(0, 0, 80, 30)
	s := Build([]layout.Cell{cell("x", "Department of Homeland Security", r, false)}, nil, r, DefaultOptions())
	name := s.Items[0].Label(LineName)
	if name == "" || name == "Department of Homeland Security" {
		t.Fatalf("name label = %q, want truncated", name)
	}
	if w := DefaultCharWidth.Measure(name, 12); w > 80-8 {
		t.Errorf("truncated label %q is %vpx wide", name, w)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		m     Measurer
		in    string
		width float64
		want  string
	}{
		{"fits", Cells{}, "Navy", 4, "Navy"},
		{"cut", Cells{}, "Department", 5, "Depa…"},
		{"trailing space trimmed", Cells{}, "Army Corps", 6, "Army…"},
		{"only ellipsis", Cells{}, "Navy", 1, "…"},
		{"nothing fits", Cells{}, "Navy", 0, ""},
		{"wide runes", Cells{}, "国防部预算", 5, "国防…"},
		{"char width", CharWidth(1), "abcdef", 4, "abc…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.m, tt.in, tt.width, 1); got != tt.want {
				t.Errorf("Truncate(%q, %v) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Currency(1.23e12), "$1.2T"},
		{Currency(845e9), "$845B"},
		{Currency(2.5e6), "$2.5M"},
		{Currency(999), "$999"},
		{Currency(-3e3), "-$3K"},
		{Percent(0.5), "50%"},
		{Percent(0.0123), "1.2%"},
		{Percent(0.00001), "<0.1%"},
		{Percent(0), "0%"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestBuildFromTree(t *testing.T) {
	tree := exampleTree()
	bounds := layout.NewRect(0, 0, 1000, 500)
	cells := layout.Compute(tree, "root", bounds, layout.DefaultOptions())
	s := Build(cells, tree, bounds, DefaultOptions())

	if s.Empty() || s.Placeholder != "" {
		t.Fatalf("scene empty = %v placeholder = %q", s.Empty(), s.Placeholder)
	}
	a, ok := s.Find("A")
	if !ok {
		t.Fatal("no item A")
	}
	if a.Fill != palette.ColorFor("Department of Defense") {
		t.Errorf("A fill = %s, want defense color", a.Fill)
	}
	if a.HeaderFill == "" || a.Tooltip.Hint == "" {
		t.Error("branch item should have a header fill and zoom hint")
	}
	if a.Tooltip.Percent != "60% of total" {
		t.Errorf("A percent = %q", a.Tooltip.Percent)
	}
	b, _ := s.Find("B")
	if b.HeaderFill != "" || b.Tooltip.Hint != "" {
		t.Error("leaf item should have no header fill or hint")
	}
}

func TestExternalTotal(t *testing.T) {
	tree := exampleTree()
	bounds := layout.NewRect(0, 0, 1000, 500)
	opts := DefaultOptions()
	opts.Total = 400
	s := Build(layout.Compute(tree, "root", bounds, layout.DefaultOptions()), tree, bounds, opts)
	a, _ := s.Find("A")
	if a.Share != 0.15 {
		t.Errorf("share = %v, want 0.15", a.Share)
	}
}

func TestPlaceholder(t *testing.T) {
	tree := hierarchy.Build(hierarchy.Input{})
	bounds := layout.NewRect(0, 0, 300, 200)
	s := Build(layout.Compute(tree, tree.RootID(), bounds, layout.DefaultOptions()), tree, bounds, Options{})
	if !s.Empty() || s.Placeholder != DefaultPlaceholder {
		t.Errorf("empty scene placeholder = %q", s.Placeholder)
	}
}

func TestFromFrame(t *testing.T) {
	tree := exampleTree()
	bounds := layout.NewRect(0, 0, 1000, 500)
	clk := time.Unix(0, 0)
	nav := view.NewNavigator(tree, bounds, view.WithDuration(time.Second), view.WithClock(func() time.Time { return clk }))
	nav.Click("A")

	s := FromFrame(nav.Frame(clk.Add(500*time.Millisecond)), tree, bounds, DefaultOptions())
	if len(s.Items) != 2 || len(s.Exiting) != 2 {
		t.Fatalf("items = %d exiting = %d, want 2 and 2", len(s.Items), len(s.Exiting))
	}
	for _, it := range s.Items {
		if it.Opacity <= 0 || it.Opacity >= 1 {
			t.Errorf("%s opacity = %v mid-transition", it.ID, it.Opacity)
		}
	}
	if n := len(s.Breadcrumb); n != 2 || s.Breadcrumb[1].ID != "A" {
		t.Errorf("breadcrumb = %+v", s.Breadcrumb)
	}
}

func TestAt(t *testing.T) {
	left := cell("L", "Left", layout.NewRect(0, 0, 100, 100), true)
	right := cell("R", "Right", layout.NewRect(100, 0, 100, 100), false)
	s := Build([]layout.Cell{left, right}, nil, layout.NewRect(0, 0, 200, 100), DefaultOptions())

	tests := []struct {
		name   string
		p      Point
		id     string
		region Region
		ok     bool
	}{
		{"header", Point{10, 5}, "L", RegionHeader, true},
		{"body", Point{10, 50}, "L", RegionBody, true},
		{"shared edge", Point{100, 50}, "R", RegionBody, true},
		{"outside", Point{250, 50}, "", RegionBody, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := s.At(tt.p)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if hit.Item.ID != tt.id || hit.Region != tt.region {
				t.Errorf("hit = %s/%v, want %s/%v", hit.Item.ID, hit.Region, tt.id, tt.region)
			}
		})
	}
}

func TestPlaceTooltip(t *testing.T) {
	container := layout.NewRect(0, 0, 400, 300)
	size := Size{W: 120, H: 60}

	tests := []struct {
		name    string
		pointer Point
		want    Point
	}{
		{"below right", Point{10, 10}, Point{22, 22}},
		{"flip left", Point{390, 10}, Point{258, 22}},
		{"flip up", Point{10, 290}, Point{22, 218}},
		{"interior", Point{100, 50}, Point{112, 62}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlaceTooltip(tt.pointer, size, container, 12)
			if got != tt.want {
				t.Errorf("PlaceTooltip = %v, want %v", got, tt.want)
			}
		})
	}

	// Containment over a grid of pointers.
	for x := 0.0; x <= 400; x += 25 {
		for y := 0.0; y <= 300; y += 25 {
			p := PlaceTooltip(Point{x, y}, size, container, 12)
			if p.X < 0 || p.Y < 0 || p.X+size.W > 400 || p.Y+size.H > 300 {
				t.Fatalf("tooltip at %v for pointer (%v,%v) leaves container", p, x, y)
			}
		}
	}
}

type fixedMeasurer struct{}

func (fixedMeasurer) Measure(string, float64) float64 { return 1 }

func TestMeasurerKey(t *testing.T) {
	tests := []struct {
		name string
		m    Measurer
		want string
	}{
		{"nil is default", nil, "charwidth:0.55"},
		{"char width", CharWidth(0.6), "charwidth:0.6"},
		{"cells", Cells{}, "cells"},
		{"custom", fixedMeasurer{}, "scene.fixedMeasurer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MeasurerKey(tt.m); got != tt.want {
				t.Errorf("MeasurerKey = %q, want %q", got, tt.want)
			}
		})
	}
	if MeasurerKey(CharWidth(0.55)) == MeasurerKey(CharWidth(2)) {
		t.Error("different char widths share a key")
	}
}
