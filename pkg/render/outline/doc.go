// Package outline renders a hierarchy as a node-link diagram using Graphviz.
//
// The treemap shows proportions; the outline shows structure. Each node is a
// box colored by its category, labeled with its name and formatted weight,
// and linked to its parent:
//
//	dot := outline.ToDOT(tree, outline.Options{Focus: "defense", MaxDepth: 2})
//	svg, err := outline.RenderSVG(ctx, dot)
//
// [ToDOT] output is plain Graphviz source and can also be saved and fed to
// external Graphviz tools. [RenderSVG] renders in-process through
// [github.com/goccy/go-graphviz] (a WebAssembly build of Graphviz), so no
// system binaries are needed.
package outline
