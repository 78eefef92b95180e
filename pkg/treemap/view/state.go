// Package view holds the zoom state of a treemap and the navigator that
// animates between states.
//
// [Reduce] is the pure transition function. [Navigator] wraps it with
// click/hover callbacks, layout, and timed transitions.
package view

import (
	"slices"

	"github.com/matzehuels/budgetmap/pkg/hierarchy"
)

// State is the current focus plus the stack of previous focuses.
type State struct {
	FocusID  string   `json:"focusId"`
	Ancestry []string `json:"ancestry"`
}

// Initial returns the state focused on the root of t.
func Initial(t *hierarchy.Tree) State {
	if t == nil {
		return State{}
	}
	return State{FocusID: t.RootID()}
}

// StateFor returns the state reached by zooming from the root down to id.
// It reports false when id is unknown or a leaf.
func StateFor(t *hierarchy.Tree, id string) (State, bool) {
	if t == nil || (id != t.RootID() && !t.HasChildren(id)) {
		return Initial(t), false
	}
	path := t.Path(id)
	if len(path) == 0 {
		return Initial(t), false
	}
	return State{FocusID: id, Ancestry: path[:len(path)-1]}, true
}

// Depth is the number of zoom-ins since the root.
func (s State) Depth() int { return len(s.Ancestry) }

// Trail returns the breadcrumb ids from the outermost focus to the current one.
func (s State) Trail() []string {
	return append(slices.Clone(s.Ancestry), s.FocusID)
}

// Equal reports whether two states are identical.
func (s State) Equal(o State) bool {
	return s.FocusID == o.FocusID && slices.Equal(s.Ancestry, o.Ancestry)
}

// Action is a navigation request.
type Action interface{ action() }

// ZoomIn focuses a branch node.
type ZoomIn struct{ ID string }

// ZoomOut returns to the previous focus.
type ZoomOut struct{}

// ZoomTo jumps to the breadcrumb entry at Index.
type ZoomTo struct{ Index int }

// Reset returns to the root.
type Reset struct{}

func (ZoomIn) action()  {}
func (ZoomOut) action() {}
func (ZoomTo) action()  {}
func (Reset) action()   {}

// Reduce applies a to s. It returns the unchanged state and false when the
// action does not apply: zooming into a leaf, an unknown node or a node that
// is not a child of the focus, zooming out at
// the top, or jumping to the current or an out-of-range breadcrumb.
func Reduce(t *hierarchy.Tree, s State, a Action) (State, bool) {
	if t == nil {
		return s, false
	}
	switch a := a.(type) {
	case ZoomIn:
		node, ok := t.Node(a.ID)
		if !ok || node.ParentID != s.FocusID || node.IsLeaf() {
			return s, false
		}
		return State{FocusID: a.ID, Ancestry: append(slices.Clone(s.Ancestry), s.FocusID)}, true
	case ZoomOut:
		n := len(s.Ancestry)
		if n == 0 {
			return s, false
		}
		return State{FocusID: s.Ancestry[n-1], Ancestry: slices.Clone(s.Ancestry[:n-1])}, true
	case ZoomTo:
		if a.Index < 0 || a.Index >= len(s.Ancestry) {
			return s, false
		}
		return State{FocusID: s.Ancestry[a.Index], Ancestry: slices.Clone(s.Ancestry[:a.Index])}, true
	case Reset:
		root := Initial(t)
		if s.Equal(root) {
			return s, false
		}
		return root, true
	}
	return s, false
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Name  string `json:"name"`
}

// Breadcrumb returns the named trail for s. The last entry is the current focus.
func Breadcrumb(t *hierarchy.Tree, s State) []Crumb {
	trail := s.Trail()
	out := make([]Crumb, 0, len(trail))
	for i, id := range trail {
		c := Crumb{Index: i, ID: id, Name: id}
		if t != nil {
			if n, ok := t.Node(id); ok && n.Name != "" {
				c.Name = n.Name
			}
		}
		out = append(out, c)
	}
	return out
}
