package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements all
// hook interfaces, so one value can be registered everywhere.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger (log.Default() when nil).
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

// Register installs h for every hook category.
func (h *LogHooks) Register() {
	Install(Hooks{Pipeline: h, Navigation: h, Cache: h, HTTP: h})
}

func (h *LogHooks) OnLoadStart(_ context.Context, source string) {
	h.logger.Debug("load start", "source", source)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, source string, nodes, warnings int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "source", source, "error", err)
		return
	}
	h.logger.Debug("load complete", "source", source, "nodes", nodes, "warnings", warnings, "duration", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, focus string, children int) {
	h.logger.Debug("layout start", "focus", focus, "children", children)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, focus string, cells int, d time.Duration) {
	h.logger.Debug("layout complete", "focus", focus, "cells", cells, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render start", "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "format", format, "error", err)
		return
	}
	h.logger.Debug("render complete", "format", format, "bytes", size, "duration", d)
}

func (h *LogHooks) OnNodeClick(_ context.Context, session, id string) {
	h.logger.Debug("node click", "session", session, "id", id)
}

func (h *LogHooks) OnZoom(_ context.Context, session, from, to string, depth int) {
	h.logger.Debug("zoom", "session", session, "from", from, "to", to, "depth", depth)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

var (
	_ PipelineHooks   = (*LogHooks)(nil)
	_ NavigationHooks = (*LogHooks)(nil)
	_ CacheHooks      = (*LogHooks)(nil)
	_ HTTPHooks       = (*LogHooks)(nil)
)
