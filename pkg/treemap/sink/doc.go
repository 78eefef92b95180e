// Package sink draws a [scene.Scene] in different output formats.
//
// # SVG
//
// [RenderSVG] produces a standalone SVG document. With [WithInteraction] it
// embeds a small script that highlights the hovered cell and shows a tooltip
// placed with the same flip-and-clamp rule as [scene.PlaceTooltip]. With
// [WithBreadcrumb] a trail of the zoom path is drawn above the cells, and
// [WithLinks] turns cells and breadcrumb entries into links (used by the
// HTTP server for click-to-zoom without client-side state).
//
// # Terminal
//
// [RenderTerminal] rasterizes the scene onto a character grid using lipgloss
// background colors and box-drawing borders. Scenes for the terminal should
// be laid out in character units with [scene.Cells] as the measurer.
//
// # JSON
//
// [RenderJSON] emits cell geometry, labels, colors, and the breadcrumb for
// external renderers.
package sink
