package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/budgetmap/pkg/errors"
	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/httputil"
	"github.com/matzehuels/budgetmap/pkg/observability"
)

// ReadSource returns the raw hierarchy bytes named by opts.Source: stdin,
// an http(s) URL fetched with opts.Fetcher, or a file path.
func ReadSource(ctx context.Context, opts Options) ([]byte, error) {
	if httputil.IsRemote(opts.Source) {
		fetcher := opts.Fetcher
		if fetcher == nil {
			fetcher = httputil.NewClient()
		}
		return fetcher.Get(ctx, opts.Source)
	}
	if opts.Source == "" || opts.Source == "-" {
		r := opts.Stdin
		if r == nil {
			r = os.Stdin
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(opts.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "hierarchy %s", opts.Source)
		}
		return nil, fmt.Errorf("read %s: %w", opts.Source, err)
	}
	return data, nil
}

// IsYAML reports whether source should be decoded as YAML: forced, by
// file or URL path extension, or when the first byte cannot start JSON.
func IsYAML(source string, data []byte, forced bool) bool {
	if forced {
		return true
	}
	if httputil.IsRemote(source) {
		if u, err := url.Parse(source); err == nil {
			source = u.Path
		}
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '['
}

// Decode normalizes raw hierarchy bytes into a tree. Malformed structure is
// repaired by the builder and reported as warnings; only undecodable input
// is an error.
func Decode(data []byte, yaml bool) (*hierarchy.Tree, error) {
	var in hierarchy.Input
	var err error
	if yaml {
		in, err = hierarchy.DecodeYAML(bytes.NewReader(data))
	} else {
		in, err = hierarchy.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidHierarchy, err, "decode hierarchy")
	}
	return hierarchy.Build(in), nil
}

// Load reads and normalizes the hierarchy named by opts.
func Load(ctx context.Context, opts Options) (*hierarchy.Tree, error) {
	hooks := observability.Pipeline()
	source := sourceName(opts)
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	data, err := ReadSource(ctx, opts)
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, 0, time.Since(start), err)
		return nil, err
	}
	t, err := Decode(data, IsYAML(opts.Source, data, opts.YAML))
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnLoadComplete(ctx, source, t.Len(), len(t.Warnings()), time.Since(start), nil)
	return t, nil
}

func sourceName(opts Options) string {
	if opts.Source == "" {
		return "-"
	}
	return opts.Source
}

// =============================================================================
// Tree Serialization
// =============================================================================

// storedTree is the cached form of a normalized tree.
type storedTree struct {
	Root     hierarchy.Entry `json:"root"`
	Warnings []string        `json:"warnings,omitempty"`
}

// MarshalTree serializes a normalized tree and its warnings.
func MarshalTree(t *hierarchy.Tree) ([]byte, error) {
	return json.Marshal(storedTree{Root: t.Export(), Warnings: t.Warnings()})
}

// UnmarshalTree restores a tree written by [MarshalTree]. Ids in an exported
// tree are already unique, so rebuilding preserves them.
func UnmarshalTree(data []byte) (*hierarchy.Tree, []string, error) {
	var st storedTree
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	return hierarchy.Build(hierarchy.Nested(st.Root)), st.Warnings, nil
}
