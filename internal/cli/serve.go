package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetmap/internal/server"
	"github.com/matzehuels/budgetmap/pkg/pipeline"
	"github.com/matzehuels/budgetmap/pkg/session"
	"github.com/matzehuels/budgetmap/pkg/treemap/view"
)

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		yaml    bool
		noCache bool
		width   float64
		height  float64
	)

	cmd := &cobra.Command{
		Use:   "serve [file|url]",
		Short: "Serve a hierarchy over HTTP",
		Long: `Serve layouts of a hierarchy and server-side navigation sessions.

GET /api/layout renders any focus statelessly. POST /api/sessions starts a
session whose zoom state is kept on the server; GET /api/sessions/{id}/svg
renders it as a linked SVG that can be navigated in a plain browser.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			ctx := cmd.Context()
			cfg := c.Config

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			t, warnings, cached, err := runner.LoadWithCacheInfo(ctx, pipeline.Options{
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
			c.Logger.Debug("loaded hierarchy", "nodes", t.Len(), "cached", cached)

			if addr == "" {
				addr = cfg.Server.Addr
			}
			if width <= 0 {
				width = cfg.Server.Width
			}
			if height <= 0 {
				height = cfg.Server.Height
			}

			// Sessions answer each request with the settled view.
			navOpts := append(cfg.NavigatorOptions(), view.WithDuration(0))
			sessions := session.NewStore(cfg.Server.SessionTTL.Duration,
				session.WithNavigatorOptions(navOpts...))

			srv := server.New(server.Config{
				Addr:     addr,
				Tree:     t,
				Warnings: warnings,
				Runner:   runner,
				Sessions: sessions,
				Render: pipeline.Options{
					Width:       width,
					Height:      height,
					Layout:      cfg.LayoutOptions(),
					Scene:       cfg.SceneOptions(),
					PaletteHash: cfg.PaletteHash(),
				},
				Logger: c.Logger,
			})

			printInfo(cmd.OutOrStdout(), "Serving %s on %s", StyleValue.Render(source), StyleTitle.Render("http://"+addr))
			printDetail(cmd.OutOrStdout(), "Press Ctrl+C to stop")
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8080)")
	cmd.Flags().BoolVar(&yaml, "yaml", false, "force YAML input")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&width, "width", 0, "default session width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "default session height in pixels")

	return cmd
}
