package sink

import (
	"encoding/json"

	"github.com/matzehuels/budgetmap/pkg/treemap/scene"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	focus   string
	exiting bool
}

// WithJSONFocus records the focused node id.
func WithJSONFocus(id string) JSONOption { return func(r *jsonRenderer) { r.focus = id } }

// WithJSONExiting includes cells that are fading out mid-transition.
func WithJSONExiting() JSONOption { return func(r *jsonRenderer) { r.exiting = true } }

type jsonOutput struct {
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Focus       string       `json:"focus,omitempty"`
	Total       float64      `json:"total"`
	Breadcrumb  []view.Crumb `json:"breadcrumb,omitempty"`
	Cells       []jsonCell   `json:"cells"`
	Exiting     []jsonCell   `json:"exiting,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
}

type jsonCell struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	HeaderH     float64 `json:"header_height,omitempty"`
	Amount      float64 `json:"amount"`
	Weight      float64 `json:"weight"`
	Share       float64 `json:"share"`
	HasChildren bool    `json:"has_children,omitempty"`
	Opacity     float64 `json:"opacity"`
	Fill        string  `json:"fill"`
	HoverFill   string  `json:"hover_fill"`
	HeaderFill  string  `json:"header_fill,omitempty"`
	Label       string  `json:"label,omitempty"`
	ValueLabel  string  `json:"value_label,omitempty"`
	Percent     string  `json:"percent_label,omitempty"`
}

// RenderJSON exports the scene as a pretty-printed JSON document.
func RenderJSON(s scene.Scene, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Width:       s.Bounds.Width(),
		Height:      s.Bounds.Height(),
		Focus:       r.focus,
		Total:       s.Total,
		Breadcrumb:  s.Breadcrumb,
		Cells:       jsonCells(s.Items),
		Placeholder: s.Placeholder,
	}
	if r.exiting {
		out.Exiting = jsonCells(s.Exiting)
	}
	return json.MarshalIndent(out, "", "  ")
}

func jsonCells(items []scene.Item) []jsonCell {
	cells := make([]jsonCell, 0, len(items))
	for _, it := range items {
		cells = append(cells, jsonCell{
			ID:          it.ID,
			Name:        it.Name,
			Category:    it.Category,
			X:           it.Rect.X0,
			Y:           it.Rect.Y0,
			Width:       it.Rect.Width(),
			Height:      it.Rect.Height(),
			HeaderH:     it.Header.Height(),
			Amount:      it.Amount,
			Weight:      it.Weight,
			Share:       it.Share,
			HasChildren: it.HasChildren,
			Opacity:     it.Opacity,
			Fill:        string(it.Fill),
			HoverFill:   string(it.HoverFill),
			HeaderFill:  string(it.HeaderFill),
			Label:       it.Label(scene.LineName),
			ValueLabel:  it.Label(scene.LineValue),
			Percent:     it.Label(scene.LinePercent),
		})
	}
	return cells
}
