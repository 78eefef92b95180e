// Package hierarchy turns an externally supplied weighted hierarchy into the
// uniform tree the treemap works on.
//
// # Input Shapes
//
// Budget data arrives in several shapes. [Decode] sniffs the shape once and
// returns a tagged [Input]; nothing downstream branches on shape again:
//
//   - [ShapeNested]: a single root object with nested "children".
//   - [ShapeRootBranches]: {"root": {...}, "branches": [...]}.
//   - [ShapeBranchList]: a bare array of top-level branches.
//   - [ShapeFlat]: {"nodes": [...]} records linked by "parentId".
//
// # Building
//
// [Build] never fails. Inputs without a recognizable root, or whose parent
// references form a cycle, produce a synthetic root with no children so the
// layout can render an empty state. Problems are reported through
// [Tree.Warnings] instead.
//
// The [Tree] is arena-style storage keyed by node id: nodes reference their
// parent and children by id, never by pointer. Every descendant inherits the
// CategoryID of its first-level branch, which drives coloring.
//
// # Weights
//
// The layout weight of a branch is the sum of its descendant leaves' amounts;
// a branch's own declared amount is informational. Negative leaf amounts
// contribute nothing, so a branch's weight always equals the sum of its
// children's weights.
package hierarchy
