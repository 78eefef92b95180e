// Package cache stores rendered artifacts and layouts keyed by content hashes.
//
// Keys are derived from the hash of the normalized tree plus the options that
// influence the output, so any change to the data or the configuration
// produces a new key and stale entries simply expire.
//
// Backends:
//   - [FileCache] for the CLI (one JSON file per entry under a cache dir)
//   - [RedisCache] for a shared tier in front of several `serve` instances
//   - [MemoryCache] for a single server process and tests
//   - [NullCache] when caching is disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key types reported to observability hooks.
const (
	KeyTypeTree     = "tree"
	KeyTypeLayout   = "layout"
	KeyTypeArtifact = "artifact"
)

// LayoutKeyOpts are the inputs that change a computed layout.
type LayoutKeyOpts struct {
	Focus        string  `json:"focus"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Algorithm    string  `json:"algorithm"`
	PaddingOuter float64 `json:"padding_outer"`
	PaddingInner float64 `json:"padding_inner"`
	HeaderHeight float64 `json:"header_height"`
	Ratio        float64 `json:"ratio"`
	KeepOrder    bool    `json:"keep_order"`
	Round        bool    `json:"round"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Interactive bool    `json:"interactive"`
	Breadcrumb  bool    `json:"breadcrumb"`
	Total       float64 `json:"total"`
	Palette     string  `json:"palette"` // hash of palette overrides
	Labels      string  `json:"labels"`  // hash of label thresholds
	Depth       int     `json:"depth,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// TreeKey addresses a normalized tree by the hash of its source bytes.
	TreeKey(sourceHash string) string
	LayoutKey(treeHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped keys of the form "kind:hash".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) TreeKey(sourceHash string) string {
	return "tree:" + sourceHash
}

func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
