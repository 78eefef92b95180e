// Package observability lets hosts observe budgetmap without the libraries
// depending on a logging or metrics stack.
//
// Libraries report through the installed [Hooks]; until a host installs
// something, every category is a no-op:
//
//	observability.Install(observability.Hooks{Cache: myCounter})
//	observability.NewLogHooks(logger).Register() // every category at once
//
// Emitting looks like:
//
//	start := time.Now()
//	observability.Pipeline().OnLayoutStart(ctx, focus, children)
//	cells := layout.Compute(...)
//	observability.Pipeline().OnLayoutComplete(ctx, focus, len(cells), time.Since(start))
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks observes the load, layout and render stages.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, nodes, warnings int, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, focus string, children int)
	OnLayoutComplete(ctx context.Context, focus string, cells int, duration time.Duration)

	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// NavigationHooks observes zoom sessions. session is empty for viewers
// that are not tracked in a session store.
type NavigationHooks interface {
	OnNodeClick(ctx context.Context, session, id string)
	OnZoom(ctx context.Context, session, from, to string, depth int)
}

// CacheHooks observes pipeline cache lookups by key type
// (tree, layout, artifact).
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks observes requests served by the API server.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, status int, duration time.Duration)
}

// Hooks is the set of observers the libraries report to. Nil fields are
// no-ops.
type Hooks struct {
	Pipeline   PipelineHooks
	Navigation NavigationHooks
	Cache      CacheHooks
	HTTP       HTTPHooks
}

func (h Hooks) withDefaults() *Hooks {
	if h.Pipeline == nil {
		h.Pipeline = NoopPipelineHooks{}
	}
	if h.Navigation == nil {
		h.Navigation = NoopNavigationHooks{}
	}
	if h.Cache == nil {
		h.Cache = NoopCacheHooks{}
	}
	if h.HTTP == nil {
		h.HTTP = NoopHTTPHooks{}
	}
	return &h
}

var installed atomic.Pointer[Hooks]

func init() { Reset() }

// Install replaces the whole hook set. Categories left nil become no-ops.
func Install(h Hooks) {
	installed.Store(h.withDefaults())
}

// Reset installs no-op hooks for every category.
func Reset() {
	Install(Hooks{})
}

// Installed returns the current hook set with every field non-nil.
func Installed() Hooks {
	return *installed.Load()
}

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return installed.Load().Pipeline }

// Navigation returns the installed navigation hooks.
func Navigation() NavigationHooks { return installed.Load().Navigation }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return installed.Load().Cache }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return installed.Load().HTTP }

type (
	NoopPipelineHooks   struct{}
	NoopNavigationHooks struct{}
	NoopCacheHooks      struct{}
	NoopHTTPHooks       struct{}
)

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                                    {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                             {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, int, time.Duration)           {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string)                                  {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error)    {}

func (NoopNavigationHooks) OnNodeClick(context.Context, string, string)         {}
func (NoopNavigationHooks) OnZoom(context.Context, string, string, string, int) {}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
