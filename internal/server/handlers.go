package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/budgetmap/pkg/errors"
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/pipeline"
	"github.com/matzehuels/budgetmap/pkg/session"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
	"github.com/matzehuels/budgetmap/pkg/treemap/scene"
	"github.com/matzehuels/budgetmap/pkg/treemap/sink"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

// layoutFormats are the formats GET /api/layout can produce.
var layoutFormats = []string{pipeline.FormatJSON, pipeline.FormatSVG, pipeline.FormatOutline}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

type treeResponse struct {
	Hash     string          `json:"hash"`
	Total    float64         `json:"total"`
	Nodes    int             `json:"nodes"`
	Warnings []string        `json:"warnings,omitempty"`
	Root     hierarchy.Entry `json:"root"`
}

type sessionResponse struct {
	ID         string          `json:"id"`
	TreeHash   string          `json:"tree_hash"`
	CreatedAt  time.Time       `json:"created_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Focus      string          `json:"focus"`
	Depth      int             `json:"depth"`
	Phase      string          `json:"phase"`
	Hovered    string          `json:"hovered,omitempty"`
	Breadcrumb []view.Crumb    `json:"breadcrumb"`
	View       json.RawMessage `json:"view"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: errors.UserMessage(err)})
}

func writeBytes(w http.ResponseWriter, contentType string, cached bool, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(data)
}

// decodeBody reads an optional JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || err == io.EOF {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
}

func queryFloat(q url.Values, key string) (float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative number, got %q", key, raw)
	}
	return v, nil
}

// =============================================================================
// Stateless endpoints
// =============================================================================

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, treeResponse{
		Hash:     s.treeHash,
		Total:    s.tree.Total(),
		Nodes:    s.tree.Len(),
		Warnings: s.warnings,
		Root:     s.tree.Export(),
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := s.render
	opts.Focus = q.Get("focus")

	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := errors.ValidateFormat(format, layoutFormats); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	width, err := queryFloat(q, "width")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	height, err := queryFloat(q, "height")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if width > 0 {
		opts.Width = width
	}
	if height > 0 {
		opts.Height = height
	}
	opts.Breadcrumb = true

	cells, layoutHit, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), s.tree, s.treeHash, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, renderHit, err := s.runner.RenderWithCacheInfo(r.Context(), s.tree, cells, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := "application/json"
	if format != pipeline.FormatJSON {
		contentType = "image/svg+xml"
	}
	writeBytes(w, contentType, layoutHit && renderHit, artifacts[format])
}

// =============================================================================
// Sessions
// =============================================================================

type sizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) bounds(req sizeRequest) (layout.Rect, error) {
	if req.Width < 0 || req.Height < 0 {
		return layout.Rect{}, errors.New(errors.ErrCodeInvalidInput, "size must be positive, got %gx%g", req.Width, req.Height)
	}
	w, h := s.render.Width, s.render.Height
	if req.Width > 0 {
		w = req.Width
	}
	if req.Height > 0 {
		h = req.Height
	}
	return layout.NewRect(0, 0, w, h), nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	bounds, err := s.bounds(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := s.sessions.Create(s.tree, s.treeHash, bounds)
	s.logger.Debug("created session", "id", sess.ID, "width", bounds.Width(), "height", bounds.Height())
	s.respondSession(w, r, http.StatusCreated, sess)
}

// session resolves the {id} URL parameter, writing a 404 when it is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		s.respondSession(w, r, http.StatusOK, sess)
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// navigate decodes the request body into req, applies act to the session's
// navigator and responds with the resulting view.
func navigate[T any](s *Server, w http.ResponseWriter, r *http.Request, act func(nav *view.Navigator, req T) error) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req T
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var err error
	sess.Do(func(nav *view.Navigator) { err = act(nav, req) })
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sess)
}

type nodeRequest struct {
	ID string `json:"id"`
}

type jumpRequest struct {
	Index int `json:"index"`
}

type emptyRequest struct{}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	navigate(s, w, r, func(nav *view.Navigator, req nodeRequest) error {
		if req.ID == "" {
			nav.ClickBackground()
			return nil
		}
		if !nav.Visible(req.ID) {
			return errors.New(errors.ErrCodeNotFound, "no visible node with id %q", req.ID)
		}
		nav.Click(req.ID)
		return nil
	})
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	navigate(s, w, r, func(nav *view.Navigator, req nodeRequest) error {
		nav.Hover(req.ID)
		return nil
	})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	navigate(s, w, r, func(nav *view.Navigator, _ emptyRequest) error {
		nav.Back()
		return nil
	})
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	navigate(s, w, r, func(nav *view.Navigator, req jumpRequest) error {
		nav.JumpTo(req.Index)
		return nil
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	navigate(s, w, r, func(nav *view.Navigator, _ emptyRequest) error {
		nav.Reset()
		return nil
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	navigate(s, w, r, func(nav *view.Navigator, req sizeRequest) error {
		if req.Width <= 0 || req.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "resize needs a positive width and height, got %gx%g", req.Width, req.Height)
		}
		nav.Resize(layout.NewRect(0, 0, req.Width, req.Height))
		return nil
	})
}

// handleSessionSVG renders the session's current view as an SVG whose cells
// and breadcrumb link back to this endpoint. The click and jump query
// parameters are applied before rendering, so a plain browser can navigate
// by following links.
func (s *Server) handleSessionSVG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	jump := -1
	if raw := q.Get("jump"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil || i < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "jump must be a breadcrumb index, got %q", raw))
			return
		}
		jump = i
	}

	base := "/api/sessions/" + url.PathEscape(sess.ID) + "/svg"
	links := sink.WithLinks(
		func(id string) string { return base + "?click=" + url.QueryEscape(id) },
		func(i int) string { return base + "?jump=" + strconv.Itoa(i) },
	)

	var data []byte
	sess.Do(func(nav *view.Navigator) {
		if id := q.Get("click"); id != "" && nav.Visible(id) {
			nav.Click(id)
		}
		if jump >= 0 {
			nav.JumpTo(jump)
		}
		sc := s.scene(nav)
		data = sink.RenderSVG(sc, sink.WithBreadcrumb(), sink.WithInteraction(), links)
	})
	w.Header().Set("Cache-Control", "no-store")
	writeBytes(w, "image/svg+xml", false, data)
}

func (s *Server) scene(nav *view.Navigator) scene.Scene {
	return scene.FromFrame(nav.Frame(time.Now()), nav.Tree(), nav.Bounds(), s.render.Scene)
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, sess *session.Session) {
	resp := sessionResponse{
		ID:        sess.ID,
		TreeHash:  sess.TreeHash,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt(),
	}
	var err error
	sess.Do(func(nav *view.Navigator) {
		state := nav.State()
		resp.Focus = state.FocusID
		resp.Depth = state.Depth()
		resp.Phase = nav.Phase().String()
		resp.Hovered = nav.Hovered()
		resp.Breadcrumb = nav.Breadcrumb()
		resp.View, err = sink.RenderJSON(s.scene(nav), sink.WithJSONFocus(state.FocusID))
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("render session view: %w", err))
		return
	}
	writeJSON(w, status, resp)
}
