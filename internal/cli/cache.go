package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetmap/pkg/cache"
	"github.com/matzehuels/budgetmap/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and render cache",
	}

	cmd.AddCommand(c.cacheInfoCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache backend and usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := c.cacheInfoRows()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cacheTable(rows))
			return nil
		},
	}
}

// cacheInfoRows describes the configured backend as key/value rows.
func (c *CLI) cacheInfoRows() ([][]string, error) {
	cfg := c.Config.Cache
	backend := cfg.Backend
	if backend == "" {
		backend = config.BackendFile
	}
	rows := [][]string{{"backend", backend}}
	if ttl := cfg.TTL.Duration; ttl > 0 {
		rows = append(rows, []string{"ttl", ttl.String()})
	}
	if cfg.Namespace != "" {
		rows = append(rows, []string{"namespace", cfg.Namespace})
	}

	switch backend {
	case config.BackendNone:
		return rows, nil
	case config.BackendRedis:
		return append(rows,
			[]string{"address", cfg.RedisAddr},
			[]string{"database", strconv.Itoa(cfg.RedisDB)},
		), nil
	}

	dir, err := c.fileCacheDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	rows = append(rows, []string{"directory", dir})
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	stats, err := fc.Stats()
	if err != nil {
		return nil, fmt.Errorf("scan cache: %w", err)
	}
	return append(rows,
		[]string{"entries", humanize.Comma(int64(stats.Entries))},
		[]string{"expired", humanize.Comma(int64(stats.Expired))},
		[]string{"size", humanize.Bytes(uint64(stats.Bytes))},
	), nil
}

func cacheTable(rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("Setting", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			if col == 1 {
				return styleTableCell.Foreground(colorWhite)
			}
			return styleTableCell.Foreground(colorGray)
		}).
		String()
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries from the file cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if b := c.Config.Cache.Backend; b == config.BackendRedis || b == config.BackendNone {
				printWarning(cmd.OutOrStdout(), "Cache backend %q is not cleared by this command", b)
				return nil
			}

			dir, err := c.fileCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo(cmd.OutOrStdout(), "Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess(cmd.OutOrStdout(), "Cleared %d cached entries", count)
			printDetail(cmd.OutOrStdout(), "Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.fileCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
