package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetmap/pkg/httputil"
	"github.com/matzehuels/budgetmap/pkg/pipeline"
	"github.com/matzehuels/budgetmap/pkg/treemap/layout"
)

// renderFlags holds the flags of the render command.
type renderFlags struct {
	formats      string
	output       string
	focus        string
	title        string
	algorithm    string
	width        float64
	height       float64
	cols         int
	rows         int
	total        float64
	outlineDepth int
	interactive  bool
	breadcrumb   bool
	yaml         bool
	noCache      bool
	refresh      bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render [file|url]",
		Short: "Render a hierarchy as a treemap",
		Long: `Render a hierarchy file or http(s) URL (JSON or YAML) as a treemap.

Reads stdin when no source is given. A single format is written to stdout
unless --output is set; several formats are written next to --output with
one extension per format.

Formats:
  svg       static or interactive SVG document
  json      laid-out cells with labels and colors
  terminal  colored character grid (--cols x --rows)
  outline   node-link outline of the hierarchy rendered by Graphviz`,
		Example: `  budgetmap render budget.json -o budget.svg
  budgetmap render budget.yaml --focus defense --format svg,json -o out/budget
  budgetmap render https://example.org/budget.yaml -f terminal
  cat budget.json | budgetmap render --format terminal`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			return c.runRender(cmd, source, f)
		},
	}

	cmd.Flags().StringVarP(&f.formats, "format", "f", pipeline.FormatSVG, "output formats: "+strings.Join(pipeline.ValidFormats, ", "))
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (stdout when empty)")
	cmd.Flags().StringVar(&f.focus, "focus", "", "node id to zoom into")
	cmd.Flags().StringVar(&f.title, "title", "", "SVG document title")
	cmd.Flags().StringVar(&f.algorithm, "algorithm", "", "layout algorithm (squarify, slicedice)")
	cmd.Flags().Float64Var(&f.width, "width", pipeline.DefaultWidth, "canvas width")
	cmd.Flags().Float64Var(&f.height, "height", pipeline.DefaultHeight, "canvas height")
	cmd.Flags().IntVar(&f.cols, "cols", pipeline.DefaultTermWidth, "terminal output columns")
	cmd.Flags().IntVar(&f.rows, "rows", pipeline.DefaultTermHeight, "terminal output rows")
	cmd.Flags().Float64Var(&f.total, "total", 0, "denominator for percent labels (default: root weight)")
	cmd.Flags().IntVar(&f.outlineDepth, "outline-depth", 0, "maximum outline depth (0 = unlimited)")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "embed hover tooltips in SVG output")
	cmd.Flags().BoolVar(&f.breadcrumb, "breadcrumb", false, "draw the breadcrumb trail in SVG output")
	cmd.Flags().BoolVar(&f.yaml, "yaml", false, "force YAML input")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached hierarchies")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, source string, f renderFlags) error {
	ctx := cmd.Context()
	formats := parseFormats(f.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	// Stdin and URLs are read once and replayed for the terminal pass.
	var input []byte
	from := source
	switch {
	case source == "-":
		if input, err = io.ReadAll(cmd.InOrStdin()); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	case httputil.IsRemote(source):
		if input, err = httputil.NewClient().Get(ctx, source); err != nil {
			return err
		}
		f.yaml = pipeline.IsYAML(source, input, f.yaml)
		from = "-"
	}

	prog := newProgress(loggerFromContext(ctx))
	artifacts := make(map[string][]byte, len(formats))
	var last *pipeline.Result
	for _, group := range splitTerminal(formats) {
		opts := c.renderOptions(from, f, group)
		if input != nil {
			opts.Stdin = bytes.NewReader(input)
		}
		res, err := c.execute(ctx, runner, opts, f.output != "")
		if err != nil {
			return err
		}
		for k, v := range res.Artifacts {
			artifacts[k] = v
		}
		last = res
	}
	prog.done("Rendered", "formats", len(formats))

	paths, err := writeArtifacts(cmd.OutOrStdout(), formats, artifacts, f.output)
	if err != nil {
		return err
	}
	if len(paths) > 0 {
		out := cmd.OutOrStdout()
		printSuccess(out, "Rendered %s", source)
		for _, p := range paths {
			printFile(out, p)
		}
		printStats(out, last.Stats.NodeCount, last.Stats.CellCount, last.CacheInfo.RenderHit)
	}
	return nil
}

// execute runs the pipeline, showing a spinner when output goes to files.
func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, spin bool) (*pipeline.Result, error) {
	if !spin || c.verbose {
		return runner.Execute(ctx, opts)
	}
	return spin(ctx, os.Stderr, "Rendering "+strings.Join(opts.Formats, ", ")+"...", func() (*pipeline.Result, error) {
		return runner.Execute(ctx, opts)
	})
}

// renderOptions builds pipeline options from config and flags. Flags win.
func (c *CLI) renderOptions(source string, f renderFlags, formats []string) pipeline.Options {
	cfg := c.Config
	so := cfg.SceneOptions()
	if f.total > 0 {
		so.Total = f.total
	}

	opts := pipeline.Options{
		Source:       source,
		YAML:         f.yaml,
		Refresh:      f.refresh,
		Focus:        f.focus,
		Width:        f.width,
		Height:       f.height,
		Layout:       cfg.LayoutOptions(),
		Formats:      formats,
		Scene:        so,
		Interactive:  f.interactive,
		Breadcrumb:   f.breadcrumb,
		Title:        f.title,
		OutlineDepth: f.outlineDepth,
		PaletteHash:  cfg.PaletteHash(),
		Logger:       c.Logger,
	}
	if f.algorithm != "" {
		opts.Layout.Algorithm = layout.Algorithm(f.algorithm)
	}
	if len(formats) == 1 && formats[0] == pipeline.FormatTerminal {
		opts.UseTerminalUnits(f.cols, f.rows)
	}
	return opts
}

// splitTerminal separates the terminal format, which lays out in character
// units, from the formats sharing the pixel canvas.
func splitTerminal(formats []string) [][]string {
	var pixel, term []string
	for _, f := range formats {
		if f == pipeline.FormatTerminal {
			term = append(term, f)
		} else {
			pixel = append(pixel, f)
		}
	}
	var groups [][]string
	if len(pixel) > 0 {
		groups = append(groups, pixel)
	}
	if len(term) > 0 {
		groups = append(groups, term)
	}
	return groups
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// writeArtifacts writes to w when output is empty, to output for a single
// format, or to output's base name plus a per-format extension otherwise.
// It returns the paths written.
func writeArtifacts(w io.Writer, formats []string, artifacts map[string][]byte, output string) ([]string, error) {
	if output == "" {
		for _, f := range formats {
			data := artifacts[f]
			if _, err := w.Write(data); err != nil {
				return nil, err
			}
			if len(data) > 0 && data[len(data)-1] != '\n' {
				fmt.Fprintln(w)
			}
		}
		return nil, nil
	}

	paths := make([]string, 0, len(formats))
	if len(formats) == 1 {
		paths = append(paths, output)
	} else {
		base := strings.TrimSuffix(output, filepath.Ext(output))
		for _, f := range formats {
			paths = append(paths, base+extension(f))
		}
	}
	for i, f := range formats {
		if dir := filepath.Dir(paths[i]); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(paths[i], artifacts[f], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", paths[i], err)
		}
	}
	return paths, nil
}

func extension(format string) string {
	switch format {
	case pipeline.FormatTerminal:
		return ".txt"
	case pipeline.FormatOutline:
		return ".outline.svg"
	}
	return "." + format
}
