package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/budgetmap/pkg/treemap/scene"
)

const (
	breadcrumbHeight = 28.0
	strokeColor      = "#ffffff"
	fontFamily       = "Helvetica, Arial, sans-serif"
)

const interactionCSS = `
    .cell { cursor: default; }
    .cell.branch { cursor: zoom-in; }
    .cell-body { transition: fill 0.15s ease; }
    .cell text { pointer-events: none; }
    .crumb { cursor: pointer; }
    .crumb:hover { text-decoration: underline; }
    #tooltip { pointer-events: none; }`

// The placement mirrors scene.PlaceTooltip with scene.TooltipOffset:
// below-right of the pointer, flipped when it would overflow, then clamped
// to the view box.
const interactionJS = `
    const svg = document.querySelector('svg');
    const vb = svg.viewBox.baseVal;
    const tip = document.getElementById('tooltip');
    const tipBox = tip.querySelector('rect');
    const lines = tip.querySelectorAll('tspan');
    const OFFSET = %g;
    function place(p, extent, lo, hi) {
      let v = p + OFFSET;
      if (v + extent > hi) v = p - OFFSET - extent;
      if (v + extent > hi) v = hi - extent;
      if (v < lo) v = lo;
      return v;
    }
    function pointer(evt) {
      const pt = svg.createSVGPoint();
      pt.x = evt.clientX; pt.y = evt.clientY;
      return pt.matrixTransform(svg.getScreenCTM().inverse());
    }
    document.querySelectorAll('.cell').forEach(cell => {
      const body = cell.querySelector('.cell-body');
      const d = cell.dataset;
      cell.addEventListener('mouseenter', () => {
        body.setAttribute('fill', d.hover);
        const text = [d.title, d.category || '', d.value + ' · ' + d.percent, d.hint || ''];
        lines.forEach((l, i) => { l.textContent = text[i]; });
        const bb = tip.querySelector('text').getBBox();
        tipBox.setAttribute('width', (bb.width + 16).toFixed(1));
        tipBox.setAttribute('height', (bb.height + 12).toFixed(1));
        tip.setAttribute('visibility', 'visible');
      });
      cell.addEventListener('mousemove', evt => {
        const p = pointer(evt);
        const w = parseFloat(tipBox.getAttribute('width'));
        const h = parseFloat(tipBox.getAttribute('height'));
        const x = place(p.x, w, vb.x, vb.x + vb.width);
        const y = place(p.y, h, vb.y, vb.y + vb.height);
        tip.setAttribute('transform', 'translate(' + x.toFixed(1) + ',' + y.toFixed(1) + ')');
      });
      cell.addEventListener('mouseleave', () => {
        body.setAttribute('fill', d.fill);
        tip.setAttribute('visibility', 'hidden');
      });
    });`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	interactive bool
	breadcrumb  bool
	title       string
	cellHref    func(id string) string
	crumbHref   func(index int) string
}

// WithInteraction embeds hover highlighting and tooltips.
func WithInteraction() SVGOption { return func(r *svgRenderer) { r.interactive = true } }

// WithBreadcrumb draws the zoom trail above the cells.
func WithBreadcrumb() SVGOption { return func(r *svgRenderer) { r.breadcrumb = true } }

// WithTitle sets the document title.
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// WithLinks wraps branch cells and breadcrumb entries in links. Either
// function may be nil; an empty href leaves the element unlinked.
func WithLinks(cell func(id string) string, crumb func(index int) string) SVGOption {
	return func(r *svgRenderer) { r.cellHref, r.crumbHref = cell, crumb }
}

// RenderSVG draws s as a standalone SVG document.
func RenderSVG(s scene.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	top := 0.0
	if r.breadcrumb {
		top = breadcrumbHeight
	}
	b := s.Bounds
	width, height := b.Width(), b.Height()+top

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f" font-family="%s">`+"\n",
		b.X0, b.Y0-top, width, height, width, height, fontFamily)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}
	fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#f7f7f7"/>`+"\n",
		b.X0, b.Y0-top, width, height)

	if r.breadcrumb {
		r.renderBreadcrumb(&buf, s)
	}

	for _, it := range s.Exiting {
		r.renderItem(&buf, it, false)
	}
	for _, it := range s.Items {
		r.renderItem(&buf, it, true)
	}

	if s.Empty() {
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" font-size="16" fill="#666666">%s</text>`+"\n",
			b.CenterX(), b.CenterY(), escapeXML(s.Placeholder))
	}

	if r.interactive && !s.Empty() {
		renderTooltip(&buf)
		renderInteraction(&buf)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderBreadcrumb(buf *bytes.Buffer, s scene.Scene) {
	y := s.Bounds.Y0 - breadcrumbHeight/2 + 5
	fmt.Fprintf(buf, `  <text class="breadcrumb" x="%.1f" y="%.1f" font-size="14" fill="#333333">`, s.Bounds.X0+8, y)
	for i, c := range s.Breadcrumb {
		if i > 0 {
			buf.WriteString(`<tspan fill="#999999"> / </tspan>`)
		}
		last := i == len(s.Breadcrumb)-1
		href := ""
		if r.crumbHref != nil && !last {
			href = r.crumbHref(c.Index)
		}
		weight := "normal"
		if last {
			weight = "bold"
		}
		span := fmt.Sprintf(`<tspan class="crumb" data-index="%d" font-weight="%s">%s</tspan>`, c.Index, weight, escapeXML(c.Name))
		wrapLink(buf, href, span)
	}
	buf.WriteString("</text>\n")
}

func (r *svgRenderer) renderItem(buf *bytes.Buffer, it scene.Item, live bool) {
	rect := it.Rect
	if rect.Empty() {
		return
	}
	class := "cell"
	if it.HasChildren {
		class += " branch"
	}
	if !live {
		class = "cell-exiting"
	}

	href := ""
	if live && it.HasChildren && r.cellHref != nil {
		href = r.cellHref(it.ID)
	}

	var g bytes.Buffer
	fmt.Fprintf(&g, `  <g class="%s" id="cell-%s" opacity="%.3f" data-fill="%s" data-hover="%s" data-title="%s" data-category="%s" data-value="%s" data-percent="%s" data-hint="%s">`+"\n",
		class, escapeXML(it.ID), it.Opacity, it.Fill, it.HoverFill,
		escapeXML(it.Tooltip.Title), escapeXML(it.Tooltip.Category),
		escapeXML(it.Tooltip.Value), escapeXML(it.Tooltip.Percent), escapeXML(it.Tooltip.Hint))
	fmt.Fprintf(&g, `    <rect class="cell-body" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
		rect.X0, rect.Y0, rect.Width(), rect.Height(), it.Fill, strokeColor)
	if h := it.Header; !h.Empty() {
		fmt.Fprintf(&g, `    <rect class="cell-header" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			h.X0, h.Y0, h.Width(), h.Height(), it.HeaderFill)
	}
	for _, l := range it.Lines {
		weight := "normal"
		if l.Kind == scene.LineName {
			weight = "bold"
		}
		fmt.Fprintf(&g, `    <text class="label-%s" x="%.2f" y="%.2f" font-size="%.1f" font-weight="%s" fill="%s">%s</text>`+"\n",
			l.Kind, l.At.X, l.At.Y, l.FontSize, weight, it.TextColor, escapeXML(l.Text))
	}
	g.WriteString("  </g>\n")
	wrapLink(buf, href, g.String())
}

func renderTooltip(buf *bytes.Buffer) {
	buf.WriteString(`  <g id="tooltip" visibility="hidden">` + "\n")
	buf.WriteString(`    <rect width="0" height="0" rx="4" fill="#222222" fill-opacity="0.92"/>` + "\n")
	buf.WriteString(`    <text x="8" y="18" font-size="12" fill="#ffffff">`)
	for i := 0; i < 4; i++ {
		if i == 0 {
			buf.WriteString(`<tspan x="8" font-weight="bold"></tspan>`)
			continue
		}
		buf.WriteString(`<tspan x="8" dy="16"></tspan>`)
	}
	buf.WriteString("</text>\n  </g>\n")
}

func renderInteraction(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", interactionCSS)
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", fmt.Sprintf(interactionJS, scene.TooltipOffset))
}

func wrapLink(buf *bytes.Buffer, href, content string) {
	if href == "" {
		buf.WriteString(content)
		return
	}
	fmt.Fprintf(buf, `<a href="%s">`, escapeXML(href))
	buf.WriteString(content)
	buf.WriteString("</a>")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
