package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/budgetmap/pkg/cache"
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/pipeline"
	"github.com/matzehuels/budgetmap/pkg/session"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func testTree() *hierarchy.Tree {
	return hierarchy.Build(hierarchy.Nested(hierarchy.Entry{
		ID: "root", Name: "Total", Amount: 100,
		Children: []hierarchy.Entry{
			{ID: "A", Name: "Defense", Amount: 60, Children: []hierarchy.Entry{
				{ID: "A1", Name: "Army", Amount: 40, Children: []hierarchy.Entry{
					{ID: "A1x", Name: "Tanks", Amount: 30},
					{ID: "A1y", Name: "Boots", Amount: 10},
				}},
				{ID: "A2", Name: "Navy", Amount: 20},
			}},
			{ID: "B", Name: "Education", Amount: 40},
		},
	}))
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestServer(t *testing.T) (*Server, *clock) {
	t.Helper()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	store := session.NewStore(time.Minute,
		session.WithClock(clk.now),
		session.WithNavigatorOptions(view.WithDuration(0)),
	)
	t.Cleanup(store.Close)

	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(Config{
		Tree:     testTree(),
		Warnings: []string{"dropped negative amount"},
		Runner:   pipeline.NewRunner(cache.NewMemoryCache(), nil, logger),
		Sessions: store,
		Render:   pipeline.Options{Width: 400, Height: 300},
		Logger:   logger,
	})
	return s, clk
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	return decodeRaw[T](t, rec.Body.Bytes())
}

func decodeRaw[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

type viewBody struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Focus  string  `json:"focus"`
	Cells  []struct {
		ID string `json:"id"`
	} `json:"cells"`
}

func cellIDs(v viewBody) []string {
	ids := make([]string, len(v.Cells))
	for i, c := range v.Cells {
		ids[i] = c.ID
	}
	return ids
}

func createSession(t *testing.T, s *Server) sessionResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", rec.Code, rec.Body.String())
	}
	return decode[sessionResponse](t, rec)
}

// =============================================================================
// Stateless Endpoints
// =============================================================================

func TestTreeEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/tree", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[treeResponse](t, rec)
	if got.Total != 100 || got.Nodes != 7 {
		t.Errorf("total = %v nodes = %d", got.Total, got.Nodes)
	}
	if got.Root.ID != "root" || len(got.Root.Children) != 2 {
		t.Errorf("root = %+v", got.Root)
	}
	if got.Hash != pipeline.TreeHash(testTree()) {
		t.Errorf("hash = %q", got.Hash)
	}
	if len(got.Warnings) != 1 {
		t.Errorf("warnings = %v", got.Warnings)
	}
}

func TestLayoutEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantType   string
		wantBody   []string
	}{
		{"default json", "", http.StatusOK, "application/json", []string{`"id": "A"`, `"id": "B"`}},
		{"focus", "?focus=A", http.StatusOK, "application/json", []string{`"focus": "A"`, `"id": "A1"`}},
		{"svg", "?format=svg&width=800&height=600", http.StatusOK, "image/svg+xml", []string{"<svg", "Defense"}},
		{"unknown focus", "?focus=nope", http.StatusNotFound, "application/json", []string{"NOT_FOUND"}},
		{"bad format", "?format=png", http.StatusBadRequest, "application/json", []string{"INVALID_FORMAT"}},
		{"bad width", "?width=wide", http.StatusBadRequest, "application/json", []string{"INVALID_INPUT"}},
		{"negative height", "?height=-1", http.StatusBadRequest, "application/json", []string{"INVALID_INPUT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			rec := do(t, s, http.MethodGet, "/api/layout"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

func TestLayoutCaching(t *testing.T) {
	s, _ := newTestServer(t)

	first := do(t, s, http.MethodGet, "/api/layout?focus=A", "")
	second := do(t, s, http.MethodGet, "/api/layout?focus=A", "")
	if got := first.Header().Get("X-Cache"); got != "miss" {
		t.Errorf("first X-Cache = %q, want miss", got)
	}
	if got := second.Header().Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache = %q, want hit", got)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached layout differs from computed layout")
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/nothing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.Code != "NOT_FOUND" {
		t.Errorf("code = %q", got.Code)
	}
}

// =============================================================================
// Sessions
// =============================================================================

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantW      float64
		wantH      float64
	}{
		{"defaults", "", http.StatusCreated, 400, 300},
		{"explicit size", `{"width": 800, "height": 500}`, http.StatusCreated, 800, 500},
		{"width only", `{"width": 640}`, http.StatusCreated, 640, 300},
		{"negative", `{"width": -1}`, http.StatusBadRequest, 0, 0},
		{"malformed", `{"width":`, http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			rec := do(t, s, http.MethodPost, "/api/sessions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				if got := decode[errorResponse](t, rec); got.Code != "INVALID_INPUT" {
					t.Errorf("code = %q", got.Code)
				}
				return
			}
			sess := decode[sessionResponse](t, rec)
			if sess.ID == "" || sess.Focus != "root" || sess.Depth != 0 || sess.Phase != "viewing" {
				t.Errorf("session = %+v", sess)
			}
			v := decodeRaw[viewBody](t, sess.View)
			if v.Width != tt.wantW || v.Height != tt.wantH {
				t.Errorf("view size = %vx%v, want %vx%v", v.Width, v.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestSessionNavigation(t *testing.T) {
	tests := []struct {
		name      string
		steps     [][2]string // path suffix, body
		wantFocus string
		wantDepth int
		wantCells []string
	}{
		{"click branch", [][2]string{{"/click", `{"id":"A"}`}}, "A", 1, []string{"A1", "A2"}},
		{"click leaf", [][2]string{{"/click", `{"id":"B"}`}}, "root", 0, []string{"A", "B"}},
		{"click twice", [][2]string{{"/click", `{"id":"A"}`}, {"/click", `{"id":"A1"}`}}, "A1", 2, []string{"A1x", "A1y"}},
		{"background click", [][2]string{{"/click", `{"id":"A"}`}, {"/click", ""}}, "root", 0, []string{"A", "B"}},
		{"back", [][2]string{{"/click", `{"id":"A"}`}, {"/click", `{"id":"A1"}`}, {"/back", ""}}, "A", 1, []string{"A1", "A2"}},
		{"back at root", [][2]string{{"/back", ""}}, "root", 0, []string{"A", "B"}},
		{"jump", [][2]string{{"/click", `{"id":"A"}`}, {"/click", `{"id":"A1"}`}, {"/jump", `{"index":1}`}}, "A", 1, []string{"A1", "A2"}},
		{"jump out of range", [][2]string{{"/click", `{"id":"A"}`}, {"/jump", `{"index":5}`}}, "A", 1, []string{"A1", "A2"}},
		{"reset", [][2]string{{"/click", `{"id":"A"}`}, {"/click", `{"id":"A1"}`}, {"/reset", ""}}, "root", 0, []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			sess := createSession(t, s)

			var rec *httptest.ResponseRecorder
			for _, step := range tt.steps {
				rec = do(t, s, http.MethodPost, "/api/sessions/"+sess.ID+step[0], step[1])
				if rec.Code != http.StatusOK {
					t.Fatalf("%s: status %d: %s", step[0], rec.Code, rec.Body.String())
				}
			}
			got := decode[sessionResponse](t, rec)
			if got.Focus != tt.wantFocus || got.Depth != tt.wantDepth {
				t.Errorf("focus = %q depth = %d, want %q %d", got.Focus, got.Depth, tt.wantFocus, tt.wantDepth)
			}
			if len(got.Breadcrumb) != tt.wantDepth+1 {
				t.Errorf("breadcrumb = %+v", got.Breadcrumb)
			}
			v := decodeRaw[viewBody](t, got.View)
			if ids := cellIDs(v); strings.Join(ids, ",") != strings.Join(tt.wantCells, ",") {
				t.Errorf("cells = %v, want %v", ids, tt.wantCells)
			}
		})
	}
}

func TestSessionHoverAndResize(t *testing.T) {
	s, _ := newTestServer(t)
	sess := createSession(t, s)
	base := "/api/sessions/" + sess.ID

	rec := do(t, s, http.MethodPost, base+"/hover", `{"id":"B"}`)
	if got := decode[sessionResponse](t, rec); got.Hovered != "B" {
		t.Errorf("hovered = %q", got.Hovered)
	}

	do(t, s, http.MethodPost, base+"/click", `{"id":"A"}`)
	rec = do(t, s, http.MethodPost, base+"/resize", `{"width": 200, "height": 100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("resize: status %d", rec.Code)
	}
	got := decode[sessionResponse](t, rec)
	if got.Focus != "A" {
		t.Errorf("resize changed focus to %q", got.Focus)
	}
	v := decodeRaw[viewBody](t, got.View)
	if v.Width != 200 || v.Height != 100 {
		t.Errorf("view size = %vx%v", v.Width, v.Height)
	}

	if rec := do(t, s, http.MethodPost, base+"/resize", `{"width": 0, "height": 100}`); rec.Code != http.StatusBadRequest {
		t.Errorf("zero width: status %d", rec.Code)
	}
}

func TestSessionErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"get unknown", http.MethodGet, "/api/sessions/nope", "", http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"delete unknown", http.MethodDelete, "/api/sessions/nope", "", http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"click unknown session", http.MethodPost, "/api/sessions/nope/click", `{"id":"A"}`, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"click unknown node", http.MethodPost, "/api/sessions/{id}/click", `{"id":"Z"}`, http.StatusNotFound, "NOT_FOUND"},
		{"click hidden node", http.MethodPost, "/api/sessions/{id}/click", `{"id":"A1"}`, http.StatusNotFound, "NOT_FOUND"},
		{"malformed body", http.MethodPost, "/api/sessions/{id}/jump", `{"index":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad svg jump", http.MethodGet, "/api/sessions/{id}/svg?jump=x", "", http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			sess := createSession(t, s)
			path := strings.Replace(tt.path, "{id}", sess.ID, 1)

			rec := do(t, s, tt.method, path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decode[errorResponse](t, rec); string(got.Code) != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	s, clk := newTestServer(t)
	sess := createSession(t, s)
	path := "/api/sessions/" + sess.ID

	if rec := do(t, s, http.MethodGet, path, ""); rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}

	// Each access slides the deadline forward.
	clk.t = clk.t.Add(50 * time.Second)
	if rec := do(t, s, http.MethodGet, path, ""); rec.Code != http.StatusOK {
		t.Fatalf("get before expiry: status %d", rec.Code)
	}
	clk.t = clk.t.Add(50 * time.Second)
	if rec := do(t, s, http.MethodGet, path, ""); rec.Code != http.StatusOK {
		t.Fatalf("get after sliding: status %d", rec.Code)
	}

	clk.t = clk.t.Add(2 * time.Minute)
	if rec := do(t, s, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expired session: status %d", rec.Code)
	}

	other := createSession(t, s)
	if rec := do(t, s, http.MethodDelete, "/api/sessions/"+other.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/sessions/"+other.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: status %d", rec.Code)
	}
}

func TestSessionSVG(t *testing.T) {
	s, _ := newTestServer(t)
	sess := createSession(t, s)
	base := "/api/sessions/" + sess.ID + "/svg"

	rec := do(t, s, http.MethodGet, base, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/svg+xml" {
		t.Errorf("Content-Type = %q", got)
	}
	if body := rec.Body.String(); !strings.Contains(body, base+"?click=A") {
		t.Error("branch cells should link to their click URL")
	}

	rec = do(t, s, http.MethodGet, base+"?click=A", "")
	if body := rec.Body.String(); !strings.Contains(body, "Army") || !strings.Contains(body, base+"?jump=0") {
		t.Error("click link should zoom into A and link the breadcrumb")
	}

	rec = do(t, s, http.MethodGet, "/api/sessions/"+sess.ID, "")
	if got := decode[sessionResponse](t, rec); got.Focus != "A" {
		t.Errorf("focus after svg click = %q, want A", got.Focus)
	}

	do(t, s, http.MethodGet, base+"?jump=0", "")
	rec = do(t, s, http.MethodGet, "/api/sessions/"+sess.ID, "")
	if got := decode[sessionResponse](t, rec); got.Focus != "root" {
		t.Errorf("focus after svg jump = %q, want root", got.Focus)
	}

	// A1 is only drawn inside A, so a link to it from the root view is stale.
	do(t, s, http.MethodGet, base+"?click=A1", "")
	rec = do(t, s, http.MethodGet, "/api/sessions/"+sess.ID, "")
	if got := decode[sessionResponse](t, rec); got.Focus != "root" {
		t.Errorf("focus after hidden svg click = %q, want root", got.Focus)
	}
}
