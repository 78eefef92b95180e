package hierarchy

// SyntheticRootID is the id given to roots the builder has to invent.
const SyntheticRootID = "root"

// SyntheticRootName is the display name of an invented root.
const SyntheticRootName = "Total"

// Node is one entry of the normalized hierarchy.
type Node struct {
	ID         string
	Name       string
	Amount     float64  // declared value; informational for branches
	ParentID   string   // empty for the root
	Children   []string // child ids in input order
	CategoryID string   // id of the first-level branch this node descends from
	Depth      int      // 0 for the root
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Tree is an immutable, arena-style hierarchy keyed by node id.
// It is safe for concurrent reads.
type Tree struct {
	rootID   string
	nodes    map[string]*Node
	order    []string // pre-order
	weights  map[string]float64
	warnings []string
}

// RootID returns the id of the root node.
func (t *Tree) RootID() string { return t.rootID }

// Root returns the root node.
func (t *Tree) Root() *Node { return t.nodes[t.rootID] }

// Node looks up a node by id.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Contains reports whether id names a node in the tree.
func (t *Tree) Contains(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// Children returns the children of id in input order.
func (t *Tree) Children(id string) []*Node {
	n, ok := t.nodes[id]
	if !ok || len(n.Children) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, t.nodes[c])
	}
	return out
}

// HasChildren reports whether id names a branch node.
func (t *Tree) HasChildren(id string) bool {
	n, ok := t.nodes[id]
	return ok && len(n.Children) > 0
}

// Weight returns the aggregated leaf sum of id (0 for unknown ids).
func (t *Tree) Weight(id string) float64 { return t.weights[id] }

// Total returns the weight of the root.
func (t *Tree) Total() float64 { return t.weights[t.rootID] }

// Path returns the ids from the root down to id, inclusive.
// It returns nil for unknown ids.
func (t *Tree) Path(id string) []string {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}
	var rev []string
	for cur := id; cur != ""; cur = t.nodes[cur].ParentID {
		rev = append(rev, cur)
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// IsAncestor reports whether anc is id itself or one of its ancestors.
func (t *Tree) IsAncestor(anc, id string) bool {
	n, ok := t.nodes[id]
	for ok {
		if n.ID == anc {
			return true
		}
		n, ok = t.nodes[n.ParentID]
	}
	return false
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Walk visits nodes in pre-order until fn returns false.
func (t *Tree) Walk(fn func(n *Node) bool) {
	for _, id := range t.order {
		if !fn(t.nodes[id]) {
			return
		}
	}
}

// Warnings lists the problems the builder recovered from.
func (t *Tree) Warnings() []string { return t.warnings }

// Export converts the tree back into a nested [Entry], the form served to
// clients and hashed for cache keys.
func (t *Tree) Export() Entry {
	return t.export(t.rootID)
}

func (t *Tree) export(id string) Entry {
	n := t.nodes[id]
	e := Entry{ID: n.ID, Name: n.Name, Amount: n.Amount}
	for _, c := range n.Children {
		e.Children = append(e.Children, t.export(c))
	}
	return e
}
