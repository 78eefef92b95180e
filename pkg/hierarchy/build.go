package hierarchy

import (
	"fmt"
	"math"
	"strconv"
)

// Build normalizes in into a [Tree]. It never fails: malformed input yields a
// synthetic root with no children.
func Build(in Input) *Tree {
	b := newBuilder()

	switch in.Shape {
	case ShapeNested:
		b.addRoot(in.Root, in.Root.Children)
	case ShapeRootBranches:
		b.addRoot(in.Root, append(append([]Entry(nil), in.Root.Children...), in.Branches...))
	case ShapeBranchList:
		b.addRoot(Entry{ID: SyntheticRootID, Name: SyntheticRootName}, in.Branches)
	case ShapeFlat:
		b.addFlat(in.Records)
	}

	if b.tree.rootID == "" {
		b.tree.nodes = map[string]*Node{}
		b.tree.order = nil
		b.add(Entry{ID: SyntheticRootID, Name: SyntheticRootName}, "", "", 0)
	}
	b.computeWeights()
	return b.tree
}

type builder struct {
	tree *Tree
}

func newBuilder() *builder {
	return &builder{tree: &Tree{
		nodes:   make(map[string]*Node),
		weights: make(map[string]float64),
	}}
}

func (b *builder) warnf(format string, args ...any) {
	b.tree.warnings = append(b.tree.warnings, fmt.Sprintf(format, args...))
}

// uniqueID returns id, or id with a "~N" suffix when id is already taken.
func (b *builder) uniqueID(id string) string {
	if _, taken := b.tree.nodes[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		cand := id + "~" + strconv.Itoa(n)
		if _, taken := b.tree.nodes[cand]; !taken {
			b.warnf("duplicate id %q renamed to %q", id, cand)
			return cand
		}
	}
}

// add inserts a single node and links it to its parent.
func (b *builder) add(e Entry, parentID, categoryID string, depth int) *Node {
	id := b.uniqueID(e.ID)
	name := e.Name
	if name == "" {
		name = e.ID
	}
	if depth == 1 {
		categoryID = id
	}
	n := &Node{
		ID:         id,
		Name:       name,
		Amount:     e.amount(),
		ParentID:   parentID,
		CategoryID: categoryID,
		Depth:      depth,
	}
	if depth == 0 {
		n.CategoryID = id
		b.tree.rootID = id
	}
	b.tree.nodes[id] = n
	b.tree.order = append(b.tree.order, id)
	if p, ok := b.tree.nodes[parentID]; ok {
		p.Children = append(p.Children, id)
	}
	return n
}

func (b *builder) addRoot(root Entry, children []Entry) {
	if root.ID == "" {
		root.ID = SyntheticRootID
	}
	if root.Name == "" && root.ID == SyntheticRootID {
		root.Name = SyntheticRootName
	}
	r := b.add(root, "", "", 0)
	b.addChildren(r, children)
}

func (b *builder) addChildren(parent *Node, children []Entry) {
	for i, c := range children {
		if c.ID == "" {
			c.ID = parent.ID + "." + strconv.Itoa(i)
		}
		n := b.add(c, parent.ID, parent.CategoryID, parent.Depth+1)
		b.addChildren(n, c.Children)
	}
}

// addFlat links parent-referencing records. Records whose parent is missing
// or whose ancestry loops are dropped.
func (b *builder) addFlat(records []Entry) {
	byID := make(map[string]Entry, len(records))
	var ids []string
	var roots []string
	for i, r := range records {
		if r.ID == "" {
			r.ID = "record." + strconv.Itoa(i)
		}
		if _, dup := byID[r.ID]; dup {
			b.warnf("duplicate record %q dropped", r.ID)
			continue
		}
		byID[r.ID] = r
		ids = append(ids, r.ID)
		if r.ParentID == "" {
			roots = append(roots, r.ID)
		}
	}

	kids := make(map[string][]string, len(ids))
	for _, id := range ids {
		if p := byID[id].ParentID; p != "" {
			if _, ok := byID[p]; !ok {
				b.warnf("record %q references unknown parent %q", id, p)
				continue
			}
			kids[p] = append(kids[p], id)
		}
	}

	var added int
	switch len(roots) {
	case 0:
		b.warnf("no root record found (cyclic parent references?)")
		return
	case 1:
		added = b.addFlatNode(byID, kids, roots[0], "", "", 0)
	default:
		b.warnf("%d root records found; grouped under a synthetic root", len(roots))
		r := b.add(Entry{ID: SyntheticRootID, Name: SyntheticRootName}, "", "", 0)
		for _, id := range roots {
			added += b.addFlatNode(byID, kids, id, r.ID, r.CategoryID, 1)
		}
	}

	if dropped := len(ids) - added; dropped > 0 {
		b.warnf("%d record(s) unreachable from the root dropped", dropped)
	}
}

// addFlatNode adds id and its descendants, returning how many records it added.
func (b *builder) addFlatNode(byID map[string]Entry, kids map[string][]string, id, parentID, categoryID string, depth int) int {
	e := byID[id]
	n := b.add(Entry{ID: e.ID, Name: e.Name, Amount: e.amount()}, parentID, categoryID, depth)
	added := 1
	for _, k := range kids[id] {
		added += b.addFlatNode(byID, kids, k, n.ID, n.CategoryID, depth+1)
	}
	return added
}

// computeWeights fills the aggregated leaf sums bottom-up. Weights stay
// finite: non-finite amounts count as zero and sums saturate at MaxFloat64.
func (b *builder) computeWeights() {
	t := b.tree
	for i := len(t.order) - 1; i >= 0; i-- {
		n := t.nodes[t.order[i]]
		if n.IsLeaf() {
			if math.IsNaN(n.Amount) || math.IsInf(n.Amount, 0) {
				b.warnf("node %q has non-finite amount %v; counted as 0", n.ID, n.Amount)
				t.weights[n.ID] = 0
				continue
			}
			t.weights[n.ID] = max(n.Amount, 0)
			continue
		}
		var sum float64
		for _, c := range n.Children {
			sum += t.weights[c]
		}
		if math.IsInf(sum, 1) {
			b.warnf("weight of %q overflows; clamped", n.ID)
			sum = math.MaxFloat64
		}
		t.weights[n.ID] = sum
	}
}
