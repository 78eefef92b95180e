package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/budgetmap/pkg/cache"
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/observability"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
)

// DefaultTTL is how long cached trees, layouts and artifacts live.
const DefaultTTL = 24 * time.Hour

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	t, warnings, treeHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Tree = t
	result.Warnings = warnings
	result.TreeHash = TreeHash(t)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = t.Len()
	result.CacheInfo.TreeHit = treeHit

	for _, w := range warnings {
		r.Logger.Warn("hierarchy", "problem", w)
	}
	r.Logger.Info("loaded hierarchy",
		"nodes", t.Len(),
		"total", t.Total(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	cells, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, t, result.TreeHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Cells = cells
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.CellCount = len(cells)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"cells", len(cells),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, t, cells, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo reads and normalizes the hierarchy, reusing a cached
// normalized tree when the source bytes are unchanged.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*hierarchy.Tree, []string, bool, error) {
	opts.SetLoadDefaults()
	r.applyLogger(&opts)

	data, err := ReadSource(ctx, opts)
	if err != nil {
		return nil, nil, false, err
	}
	yaml := IsYAML(opts.Source, data, opts.YAML)
	cacheKey := r.Keyer.TreeKey(cache.Hash(data))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cached, ok := r.get(ctx, cacheKey, cache.KeyTypeTree); ok {
			if t, warnings, err := UnmarshalTree(cached); err == nil {
				return t, warnings, true, nil
			}
		}
	}

	hooks := observability.Pipeline()
	source := sourceName(opts)
	hooks.OnLoadStart(ctx, source)
	start := time.Now()
	t, err := Decode(data, yaml)
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, 0, time.Since(start), err)
		return nil, nil, false, err
	}
	hooks.OnLoadComplete(ctx, source, t.Len(), len(t.Warnings()), time.Since(start), nil)

	if stored, err := MarshalTree(t); err == nil {
		r.set(ctx, cacheKey, cache.KeyTypeTree, stored)
	}
	return t, t.Warnings(), false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*hierarchy.Tree, error) {
	t, _, _, err := r.LoadWithCacheInfo(ctx, opts)
	return t, err
}

// ComputeLayoutWithCacheInfo lays out the focused node with caching and returns cache hit info.
// treeHash may be empty, in which case it is computed from t.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, t *hierarchy.Tree, treeHash string, opts Options) ([]layout.Cell, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	focus, err := ResolveFocus(t, opts.Focus)
	if err != nil {
		return nil, false, err
	}
	if treeHash == "" {
		treeHash = TreeHash(t)
	}
	cacheKey := r.Keyer.LayoutKey(treeHash, opts.LayoutKeyOpts(focus))

	// Try cache first
	if data, ok := r.get(ctx, cacheKey, cache.KeyTypeLayout); ok {
		var cells []layout.Cell
		if err := json.Unmarshal(data, &cells); err == nil {
			return cells, true, nil
		}
		// If deserialization fails, fall through to recompute
	}

	cells, err := ComputeLayout(ctx, t, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(cells); err == nil {
		r.set(ctx, cacheKey, cache.KeyTypeLayout, data)
	}
	return cells, false, nil
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, t *hierarchy.Tree, opts Options) ([]layout.Cell, error) {
	cells, _, err := r.ComputeLayoutWithCacheInfo(ctx, t, "", opts)
	return cells, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, t *hierarchy.Tree, cells []layout.Cell, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// The artifact depends on the tree (names, categories, totals) and the cells.
	cellData, err := json.Marshal(cells)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	cacheKeyHash := cache.Hash(append([]byte(TreeHash(t)), cellData...))

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(format))
		data, ok := r.get(ctx, cacheKey, cache.KeyTypeArtifact)
		if !ok {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, t, cells, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(format))
		r.set(ctx, cacheKey, cache.KeyTypeArtifact, data)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, t *hierarchy.Tree, cells []layout.Cell, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, t, cells, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// TreeHash is the content hash of a normalized tree.
func TreeHash(t *hierarchy.Tree) string {
	data, err := json.Marshal(t.Export())
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// get reads a cache entry, reporting hits and misses. Backend errors are
// logged and treated as misses.
func (r *Runner) get(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, key, keyType string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
