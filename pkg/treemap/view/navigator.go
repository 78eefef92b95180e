package view

import (
	"time"

	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/tween"
)

// Phase is the navigator's animation phase.
type Phase int

const (
	Viewing Phase = iota
	Transitioning
)

func (p Phase) String() string {
	if p == Transitioning {
		return "transitioning"
	}
	return "viewing"
}

// Policy decides what happens to requests that arrive mid-transition.
type Policy int

const (
	// PolicyCoalesce keeps only the latest request and applies it once the
	// running transition completes.
	PolicyCoalesce Policy = iota
	// PolicySnap ends the running transition at its target and applies the
	// request immediately.
	PolicySnap
)

// ParsePolicy maps a configuration name to a Policy.
func ParsePolicy(name string) (Policy, bool) {
	switch name {
	case "", "coalesce":
		return PolicyCoalesce, true
	case "snap":
		return PolicySnap, true
	}
	return PolicyCoalesce, false
}

// Callbacks are invoked synchronously from Navigator methods.
type Callbacks struct {
	OnNodeClick func(id string, node *hierarchy.Node)
	// OnNodeHover receives "" when the pointer leaves all cells.
	OnNodeHover func(id string)
	// OnStateChange fires when a navigation request is applied.
	OnStateChange func(from, to State)
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLayout sets the layout options.
func WithLayout(opts layout.Options) Option { return func(n *Navigator) { n.opts = opts } }

// WithDuration sets the transition duration. Zero disables animation.
func WithDuration(d time.Duration) Option { return func(n *Navigator) { n.duration = d } }

// WithEasing sets the transition easing.
func WithEasing(e tween.Easing) Option { return func(n *Navigator) { n.ease = e } }

// WithPolicy sets how mid-transition requests are handled.
func WithPolicy(p Policy) Option { return func(n *Navigator) { n.policy = p } }

// WithClock replaces time.Now as the transition start clock.
func WithClock(now func() time.Time) Option { return func(n *Navigator) { n.now = now } }

// WithCallbacks registers event callbacks.
func WithCallbacks(cb Callbacks) Option { return func(n *Navigator) { n.cb = cb } }

// Navigator owns the zoom state of one treemap view. It is not safe for
// concurrent use; frames are advanced by the host calling Advance.
type Navigator struct {
	tree   *hierarchy.Tree
	bounds layout.Rect
	opts   layout.Options

	duration time.Duration
	ease     tween.Easing
	policy   Policy
	now      func() time.Time
	cb       Callbacks

	state   State
	cells   []layout.Cell
	phase   Phase
	tr      *transition
	pending Action
	hovered string
	closed  bool
}

// NewNavigator creates a navigator focused on the root of t.
func NewNavigator(t *hierarchy.Tree, bounds layout.Rect, opts ...Option) *Navigator {
	n := &Navigator{
		tree:     t,
		bounds:   bounds,
		opts:     layout.DefaultOptions(),
		duration: 750 * time.Millisecond,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.state = Initial(t)
	n.relayout()
	return n
}

func (n *Navigator) relayout() {
	n.cells = layout.Compute(n.tree, n.state.FocusID, n.bounds, n.opts)
}

// State returns the current (or, mid-transition, the target) state.
func (n *Navigator) State() State { return n.state }

// Phase returns the animation phase.
func (n *Navigator) Phase() Phase { return n.phase }

// Tree returns the tree being viewed.
func (n *Navigator) Tree() *hierarchy.Tree { return n.tree }

// Bounds returns the layout rectangle.
func (n *Navigator) Bounds() layout.Rect { return n.bounds }

// Cells returns the target layout of the current focus.
func (n *Navigator) Cells() []layout.Cell { return n.cells }

// Hovered returns the id under the pointer, or "".
func (n *Navigator) Hovered() string { return n.hovered }

// Breadcrumb returns the named trail of the current state.
func (n *Navigator) Breadcrumb() []Crumb { return Breadcrumb(n.tree, n.state) }

// Closed reports whether Close was called.
func (n *Navigator) Closed() bool { return n.closed }

// Visible reports whether id is one of the cells currently laid out.
func (n *Navigator) Visible(id string) bool {
	_, ok := layout.Find(n.cells, id)
	return ok
}

// Click handles a click on a rendered cell. The click callback fires for
// every visible cell; only branch nodes are zoomed into. Ids that are not
// on screen are ignored.
func (n *Navigator) Click(id string) {
	if n.closed || n.tree == nil || !n.Visible(id) {
		return
	}
	node, ok := n.tree.Node(id)
	if !ok {
		return
	}
	if n.cb.OnNodeClick != nil {
		n.cb.OnNodeClick(id, node)
	}
	if node.IsLeaf() {
		return
	}
	n.request(ZoomIn{ID: id})
}

// ClickBackground zooms out one level.
func (n *Navigator) ClickBackground() { n.Back() }

// Back zooms out one level.
func (n *Navigator) Back() {
	if n.closed {
		return
	}
	n.request(ZoomOut{})
}

// JumpTo jumps to the ancestor at index i of the breadcrumb trail.
func (n *Navigator) JumpTo(i int) {
	if n.closed {
		return
	}
	n.request(ZoomTo{Index: i})
}

// Reset returns to the root.
func (n *Navigator) Reset() {
	if n.closed {
		return
	}
	n.request(Reset{})
}

// Hover records the node under the pointer and fires OnNodeHover on change.
func (n *Navigator) Hover(id string) {
	if n.closed || id == n.hovered {
		return
	}
	n.hovered = id
	if n.cb.OnNodeHover != nil {
		n.cb.OnNodeHover(id)
	}
}

// Resize relayouts the current focus into bounds. The zoom state is kept; a
// running transition snaps to its end.
func (n *Navigator) Resize(bounds layout.Rect) {
	if n.closed || bounds == n.bounds {
		return
	}
	n.bounds = bounds
	n.finish()
	n.relayout()
	n.flush()
}

// SetTree replaces the tree and resets the view to its root.
func (n *Navigator) SetTree(t *hierarchy.Tree) {
	if n.closed {
		return
	}
	prev := n.state
	n.tree = t
	n.finish()
	n.pending = nil
	n.hovered = ""
	n.state = Initial(t)
	n.relayout()
	n.notify(prev, n.state)
}

// Close destroys the navigator. Later requests and frames are no-ops and no
// callbacks fire.
func (n *Navigator) Close() {
	if n.closed {
		return
	}
	if n.tr != nil {
		n.tr.tw.Cancel()
	}
	n.closed = true
	n.tr = nil
	n.pending = nil
	n.phase = Viewing
	n.cb = Callbacks{}
}

// Advance moves the running transition to now. It returns true while a
// transition is still in flight.
func (n *Navigator) Advance(now time.Time) bool {
	if n.closed || n.phase != Transitioning {
		return false
	}
	if !n.tr.tw.Done(now) {
		return true
	}
	n.finish()
	n.flush()
	return n.phase == Transitioning
}

// Frame samples the view at now without advancing it.
func (n *Navigator) Frame(now time.Time) Frame {
	if n.closed {
		return Frame{State: n.state, Progress: 1}
	}
	if n.phase != Transitioning {
		return Frame{State: n.state, Cells: staticCells(n.cells), Progress: 1}
	}
	t := n.tr.tw.At(now)
	cells, exiting := n.tr.sample(t)
	return Frame{State: n.state, Cells: cells, Exiting: exiting, Progress: t}
}

func (n *Navigator) request(a Action) {
	if n.tree == nil {
		return
	}
	if n.phase == Transitioning {
		if n.policy == PolicyCoalesce {
			n.pending = a
			return
		}
		n.finish()
	}
	n.apply(a)
}

// finish ends the running transition at its target.
func (n *Navigator) finish() {
	if n.tr != nil {
		n.tr.tw.Cancel()
	}
	n.tr = nil
	n.phase = Viewing
}

// flush applies a coalesced request.
func (n *Navigator) flush() {
	if a := n.pending; a != nil {
		n.pending = nil
		n.apply(a)
	}
}

func (n *Navigator) apply(a Action) {
	next, ok := Reduce(n.tree, n.state, a)
	if !ok {
		return
	}
	prev, old := n.state, n.cells
	n.state = next
	n.relayout()
	n.notify(prev, next)

	if n.duration <= 0 {
		return
	}
	tw := tween.New(n.now(), n.duration, n.ease)
	canvas := layout.Content(n.bounds, n.opts)
	switch {
	case n.tree.IsAncestor(prev.FocusID, next.FocusID):
		// Zooming in: anchor on the visible cell that leads to the new focus.
		if c, ok := n.cellOnPath(old, next.FocusID); ok {
			n.tr = zoomInTransition(tw, canvas, old, n.cells, c)
		}
	case n.tree.IsAncestor(next.FocusID, prev.FocusID):
		if c, ok := n.cellOnPath(n.cells, prev.FocusID); ok {
			n.tr = zoomOutTransition(tw, canvas, old, n.cells, c)
		}
	}
	if n.tr == nil {
		n.tr = fadeTransition(tw, old, n.cells)
	}
	n.phase = Transitioning
}

// cellOnPath finds the cell that is id or one of its ancestors.
func (n *Navigator) cellOnPath(cells []layout.Cell, id string) (layout.Cell, bool) {
	for _, c := range cells {
		if c.ID == id || n.tree.IsAncestor(c.ID, id) {
			return c, true
		}
	}
	return layout.Cell{}, false
}

func (n *Navigator) notify(from, to State) {
	if n.cb.OnStateChange != nil {
		n.cb.OnStateChange(from, to)
	}
}
