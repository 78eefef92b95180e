package cli

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetmap/pkg/config"
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/pipeline"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/resize"
	"github.com/matzehuels/budgetmap/pkg/treemap/scene"
	"github.com/matzehuels/budgetmap/pkg/treemap/sink"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

const (
	defaultFPS = 30

	// tooltipGap is the distance in cells between the pointer and its tooltip.
	tooltipGap = 1.0
)

// exploreCommand creates the interactive terminal explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		yaml    bool
		noCache bool
		total   float64
	)

	cmd := &cobra.Command{
		Use:   "explore [file|url]",
		Short: "Zoom through a hierarchy in the terminal",
		Long: `Open an interactive treemap in the terminal.

Click a cell or press enter to zoom in; right-click, click the background or
press esc to zoom out. Number keys jump to a breadcrumb entry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			t, warnings, _, err := runner.LoadWithCacheInfo(ctx, pipeline.Options{
				Source: source,
				Stdin:  cmd.InOrStdin(),
				YAML:   yaml,
				Logger: c.Logger,
			})
			if err != nil {
				return err
			}
			for _, w := range warnings {
				c.Logger.Warn("hierarchy", "problem", w)
			}

			m := newExploreModel(t, c.Config, total, nil)
			popts := []tea.ProgramOption{
				tea.WithAltScreen(),
				tea.WithMouseAllMotion(),
				tea.WithContext(ctx),
			}
			if source == "-" {
				popts = append(popts, tea.WithInputTTY())
			}
			_, err = tea.NewProgram(m, popts...).Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&yaml, "yaml", false, "force YAML input")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&total, "total", 0, "denominator for percent labels (default: root weight)")

	return cmd
}

// =============================================================================
// Key Bindings
// =============================================================================

type exploreKeys struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Zoom  key.Binding
	Back  key.Binding
	Reset key.Binding
	Jump  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

var defaultExploreKeys = exploreKeys{
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Zoom:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "zoom in")),
	Back:  key.NewBinding(key.WithKeys("esc", "backspace", "u"), key.WithHelp("esc", "zoom out")),
	Reset: key.NewBinding(key.WithKeys("r", "home"), key.WithHelp("r", "reset")),
	Jump:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "breadcrumb")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k exploreKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Zoom, k.Back, k.Jump, k.Help, k.Quit}
}

func (k exploreKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Zoom, k.Back, k.Reset, k.Jump},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// Model
// =============================================================================

type (
	tickMsg    time.Time
	resizedMsg resize.Size
)

// exploreModel drives a Navigator from terminal events. Transitions advance
// on frame ticks; terminal resizes pass through a debouncing resize
// controller whose callback feeds the resized channel.
type exploreModel struct {
	nav     *view.Navigator
	scene   scene.Options
	resizer *resize.Controller
	resized chan resize.Size
	keys    exploreKeys
	help    help.Model
	frame   time.Duration
	now     func() time.Time

	width    int
	height   int
	pointer  scene.Point // last pointer cell on the canvas
	pointing bool        // pointer is over a cell
	selected string
	status   string
	ticking  bool
	quitting bool
}

// newExploreModel lays t out in character cells. A nil now uses time.Now.
func newExploreModel(t *hierarchy.Tree, cfg config.Config, total float64, now func() time.Time) *exploreModel {
	if now == nil {
		now = time.Now
	}

	so := scene.TerminalOptions()
	so.Palette = cfg.Resolver()
	so.Total = cfg.Labels.Total
	if total > 0 {
		so.Total = total
	}

	lo := cfg.LayoutOptions()
	lo.PaddingOuter, lo.PaddingInner = 0, 0
	lo.HeaderHeight = 1
	lo.Round = true

	fps := cfg.Animation.FPS
	if fps <= 0 {
		fps = defaultFPS
	}

	m := &exploreModel{
		scene:   so,
		resized: make(chan resize.Size, 1),
		keys:    defaultExploreKeys,
		help:    help.New(),
		frame:   time.Second / time.Duration(fps),
		now:     now,
	}
	opts := append(cfg.NavigatorOptions(),
		view.WithLayout(lo),
		view.WithClock(now),
		view.WithCallbacks(view.Callbacks{OnNodeClick: m.onNodeClick}),
	)
	m.nav = view.NewNavigator(t, layout.Rect{}, opts...)
	m.resizer = resize.New(m.deliverResize, resize.WithDebounce(cfg.Animation.Debounce.Duration))
	return m
}

// deliverResize keeps only the newest size in the channel. It may run on
// the debouncer's timer goroutine or synchronously inside Update.
func (m *exploreModel) deliverResize(s resize.Size) {
	for {
		select {
		case m.resized <- s:
			return
		default:
		}
		select {
		case <-m.resized:
		default:
		}
	}
}

func waitForResize(ch <-chan resize.Size) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return resizedMsg(s)
	}
}

func (m *exploreModel) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *exploreModel) onNodeClick(id string, node *hierarchy.Node) {
	if node.IsLeaf() {
		m.status = fmt.Sprintf("%s has no breakdown", node.Name)
	}
}

// Init implements tea.Model.
func (m *exploreModel) Init() tea.Cmd {
	return waitForResize(m.resized)
}

// Update implements tea.Model.
func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resizer.Observe(m.canvasSize())
		return m, nil

	case resizedMsg:
		m.nav.Resize(layout.NewRect(0, 0, msg.W, msg.H))
		m.ensureSelection()
		return m, waitForResize(m.resized)

	case tickMsg:
		if m.nav.Advance(time.Time(msg)) {
			return m, m.tick()
		}
		m.ticking = false
		m.ensureSelection()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m *exploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := m.nav.State()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quit()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resizer.Observe(m.canvasSize())
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.move(0, -1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.move(0, 1)
		return m, nil
	case key.Matches(msg, m.keys.Left):
		m.move(-1, 0)
		return m, nil
	case key.Matches(msg, m.keys.Right):
		m.move(1, 0)
		return m, nil
	case key.Matches(msg, m.keys.Zoom):
		m.status = ""
		if m.selected != "" {
			m.nav.Click(m.selected)
		}
	case key.Matches(msg, m.keys.Back):
		m.status = ""
		m.nav.Back()
	case key.Matches(msg, m.keys.Reset):
		m.status = ""
		m.nav.Reset()
	case key.Matches(msg, m.keys.Jump):
		m.status = ""
		m.nav.JumpTo(int(msg.String()[0] - '1'))
	default:
		return m, nil
	}
	return m, m.afterNavigation(prev)
}

func (m *exploreModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	prev := m.nav.State()
	p, inCanvas := m.canvasPoint(msg.X, msg.Y)
	var hit scene.Hit
	var onItem bool
	if inCanvas {
		sc := m.currentScene()
		hit, onItem = sc.At(p)
	}

	switch {
	case msg.Action == tea.MouseActionMotion:
		id := ""
		if onItem {
			id = hit.Item.ID
		}
		m.pointer = scene.Point{X: float64(msg.X), Y: float64(msg.Y - 1)}
		m.pointing = onItem
		m.nav.Hover(id)
		return m, nil

	case msg.Action != tea.MouseActionPress:
		return m, nil

	case msg.Button == tea.MouseButtonLeft && msg.Y == 0:
		i, ok := m.crumbAt(msg.X)
		if !ok {
			return m, nil
		}
		m.status = ""
		m.nav.JumpTo(i)

	case msg.Button == tea.MouseButtonLeft && inCanvas:
		m.status = ""
		if onItem {
			m.selected = hit.Item.ID
			m.nav.Click(hit.Item.ID)
		} else {
			m.nav.ClickBackground()
		}

	case msg.Button == tea.MouseButtonRight:
		m.status = ""
		m.nav.Back()

	default:
		return m, nil
	}
	return m, m.afterNavigation(prev)
}

// afterNavigation starts the frame ticker for a new transition and keeps
// the selection on a visible cell. Zooming out selects the node that was
// just left.
func (m *exploreModel) afterNavigation(prev view.State) tea.Cmd {
	if next := m.nav.State(); !next.Equal(prev) {
		m.selected = ""
		if sc := m.currentScene(); next.Depth() < prev.Depth() {
			for _, id := range prev.Trail() {
				if _, ok := sc.Find(id); ok {
					m.selected = id
				}
			}
		}
	}
	m.ensureSelection()
	if m.nav.Phase() == view.Transitioning && !m.ticking {
		m.ticking = true
		return m.tick()
	}
	return nil
}

func (m *exploreModel) ensureSelection() {
	sc := m.currentScene()
	if _, ok := sc.Find(m.selected); ok {
		return
	}
	m.selected = ""
	if len(sc.Items) > 0 {
		m.selected = sc.Items[0].ID
	}
}

// move selects the nearest cell whose center lies in direction (dx, dy)
// from the selected cell's center, by Manhattan distance.
func (m *exploreModel) move(dx, dy float64) {
	sc := m.currentScene()
	cur, ok := sc.Find(m.selected)
	if !ok {
		m.ensureSelection()
		return
	}
	cx, cy := cur.Rect.CenterX(), cur.Rect.CenterY()

	best, bestDist := "", -1.0
	for _, it := range sc.Items {
		if it.ID == cur.ID {
			continue
		}
		bx, by := it.Rect.CenterX(), it.Rect.CenterY()
		if dx > 0 && bx <= cx || dx < 0 && bx >= cx || dy > 0 && by <= cy || dy < 0 && by >= cy {
			continue
		}
		d := math.Abs(bx-cx) + math.Abs(by-cy)
		if bestDist < 0 || d < bestDist {
			best, bestDist = it.ID, d
		}
	}
	if best != "" {
		m.selected = best
	}
}

func (m *exploreModel) quit() {
	m.quitting = true
	m.resizer.Close()
	m.nav.Close()
}

// =============================================================================
// Geometry
// =============================================================================

// chromeHeight is the number of rows taken by the breadcrumb, status and help lines.
func (m *exploreModel) chromeHeight() int {
	return 2 + lipgloss.Height(m.help.View(m.keys))
}

func (m *exploreModel) canvasSize() resize.Size {
	return resize.Size{W: float64(m.width), H: float64(max(m.height-m.chromeHeight(), 0))}
}

// canvasPoint maps a terminal cell to the center of the matching canvas
// cell. The canvas starts below the breadcrumb row.
func (m *exploreModel) canvasPoint(x, y int) (scene.Point, bool) {
	b := m.nav.Bounds()
	p := scene.Point{X: float64(x) + 0.5, Y: float64(y-1) + 0.5}
	return p, b.Contains(p.X, p.Y)
}

func (m *exploreModel) currentScene() scene.Scene {
	return scene.FromFrame(m.nav.Frame(m.now()), m.nav.Tree(), m.nav.Bounds(), m.scene)
}

const crumbSep = " " + iconCrumb + " "

func crumbLabel(c view.Crumb) string {
	return fmt.Sprintf("%d %s", c.Index+1, c.Name)
}

// crumbAt returns the breadcrumb index under column x of the breadcrumb row.
func (m *exploreModel) crumbAt(x int) (int, bool) {
	col := 0
	for i, c := range m.nav.Breadcrumb() {
		if i > 0 {
			col += lipgloss.Width(crumbSep)
		}
		w := lipgloss.Width(crumbLabel(c))
		if x >= col && x < col+w {
			return c.Index, true
		}
		col += w
	}
	return 0, false
}

// =============================================================================
// View
// =============================================================================

// View implements tea.Model.
func (m *exploreModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	sc := m.currentScene()
	line := lipgloss.NewStyle().MaxWidth(m.width)

	var b strings.Builder
	b.WriteString(line.Render(m.breadcrumbLine(sc.Breadcrumb)))
	b.WriteString("\n")
	canvas := sink.RenderTerminal(sc, sink.WithSelected(m.selected), sink.WithHovered(m.nav.Hovered()))
	if box, at, ok := m.tooltip(sc); ok {
		canvas = overlay(canvas, box, int(at.X), int(at.Y))
	}
	b.WriteString(canvas)
	b.WriteString("\n")
	b.WriteString(line.Render(m.statusLine(sc)))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *exploreModel) breadcrumbLine(crumbs []view.Crumb) string {
	parts := make([]string, len(crumbs))
	for i, c := range crumbs {
		style := StyleDim
		if i == len(crumbs)-1 {
			style = StyleTitle
		}
		parts[i] = style.Render(crumbLabel(c))
	}
	return strings.Join(parts, StyleDim.Render(crumbSep))
}

func (m *exploreModel) statusLine(sc scene.Scene) string {
	if m.status != "" {
		return StyleWarning.Render(m.status)
	}
	id := m.nav.Hovered()
	if id == "" {
		id = m.selected
	}
	it, ok := sc.Find(id)
	if !ok {
		return StyleDim.Render(sc.Placeholder)
	}

	tt := it.Tooltip
	parts := []string{StyleValue.Bold(true).Render(tt.Title)}
	if tt.Category != "" && tt.Category != tt.Title {
		parts = append(parts, StyleDim.Render(tt.Category))
	}
	parts = append(parts, StyleNumber.Render(tt.Value), StyleDim.Render(tt.Percent))
	if tt.Hint != "" {
		parts = append(parts, StyleDim.Render(tt.Hint))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

// tooltip renders the popup for the hovered cell and returns its top-left
// canvas cell. It is only shown while the mouse rests on a cell.
func (m *exploreModel) tooltip(sc scene.Scene) (string, scene.Point, bool) {
	if !m.pointing {
		return "", scene.Point{}, false
	}
	it, ok := sc.Find(m.nav.Hovered())
	if !ok {
		return "", scene.Point{}, false
	}

	tt := it.Tooltip
	lines := []string{StyleValue.Bold(true).Render(tt.Title)}
	if tt.Category != "" && tt.Category != tt.Title {
		lines = append(lines, StyleDim.Render(tt.Category))
	}
	lines = append(lines, StyleNumber.Render(tt.Value)+" "+StyleDim.Render(tt.Percent))
	if tt.Hint != "" {
		lines = append(lines, StyleDim.Render(tt.Hint))
	}
	box := StyleTooltip.Render(strings.Join(lines, "\n"))

	size := scene.Size{W: float64(lipgloss.Width(box)), H: float64(lipgloss.Height(box))}
	at := scene.PlaceTooltip(m.pointer, size, m.nav.Bounds(), tooltipGap)
	return box, at, true
}

// overlay draws fg over bg with its top-left corner at column x, row y.
// Lines of fg that fall below bg are dropped.
func overlay(bg, fg string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")
	fgW := lipgloss.Width(fg)
	for i, fgLine := range fgLines {
		row := y + i
		if row < 0 || row >= len(bgLines) {
			continue
		}
		bgLine := bgLines[row]
		w := ansi.StringWidth(bgLine)
		if n := ansi.StringWidth(fgLine); n < fgW {
			fgLine += strings.Repeat(" ", fgW-n)
		}
		bgLines[row] = ansi.Cut(bgLine, 0, x) + fgLine + ansi.Cut(bgLine, x+fgW, w)
	}
	return strings.Join(bgLines, "\n")
}
