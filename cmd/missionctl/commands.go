package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evanschultz/missionctl/internal/adapters/feedwatch"
	serveradapter "github.com/evanschultz/missionctl/internal/adapters/server"
	servercommon "github.com/evanschultz/missionctl/internal/adapters/server/common"
	"github.com/evanschultz/missionctl/internal/app"
	"github.com/evanschultz/missionctl/internal/board"
	"github.com/evanschultz/missionctl/internal/config"
	"github.com/evanschultz/missionctl/internal/domain"
	"github.com/evanschultz/missionctl/internal/render"
	"github.com/evanschultz/missionctl/internal/tui"
)

// newPathsCommand prints resolved config and data paths without opening storage.
func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show resolved config, data, database, and feed paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			rp, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", rp.configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", rp.paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", rp.dbPath)
			_, _ = fmt.Fprintf(stdout, "feed: %s\n", rp.paths.FeedPath)
			return nil
		},
	}
}

// newImportCommand replaces the stored dataset with one feed snapshot.
func newImportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a feed snapshot JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			return withRuntime(cmd.Context(), opts, "import", stderr, func(rt *runtimeEnv) error {
				var (
					dataset app.Dataset
					err     error
				)
				if inPath == "-" {
					var feed app.Feed
					if feed, err = app.DecodeFeed(cmd.InOrStdin()); err == nil {
						dataset, err = rt.svc.ImportFeed(cmd.Context(), feed)
					}
				} else {
					dataset, err = importFeedFile(cmd.Context(), rt.svc, inPath)
				}
				if err != nil {
					return fmt.Errorf("import feed: %w", err)
				}
				_, _ = fmt.Fprintf(stdout, "imported %d items, %d contributors, %d events\n",
					len(dataset.Items), len(dataset.Contributors), len(dataset.Events))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input feed JSON file ('-' for stdin)")
	return cmd
}

// newExportCommand writes the stored dataset as a feed snapshot.
func newExportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored dataset as a feed snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "export", stderr, func(rt *runtimeEnv) error {
				return runExport(cmd.Context(), rt.svc, outPath, stdout)
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// runExport encodes the exported feed to outPath or stdout.
func runExport(ctx context.Context, svc *app.Service, outPath string, stdout io.Writer) error {
	feed, err := svc.ExportFeed(ctx)
	if err != nil {
		return fmt.Errorf("export feed: %w", err)
	}
	encoded, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" || strings.TrimSpace(outPath) == "" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write feed to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// newServeCommand serves the HTTP API and MCP endpoint until interrupted.
func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withRuntime(ctx, opts, "serve", stderr, func(rt *runtimeEnv) error {
				serverCfg := serveradapter.Config{
					HTTPBind:      firstNonEmpty(httpBind, rt.cfg.Server.HTTPBind),
					APIEndpoint:   firstNonEmpty(apiEndpoint, rt.cfg.Server.APIEndpoint),
					MCPEndpoint:   firstNonEmpty(mcpEndpoint, rt.cfg.Server.MCPEndpoint),
					ServerName:    rt.appName,
					ServerVersion: version,
				}
				return serveCommandRunner(ctx, serverCfg, serveradapter.Dependencies{
					Mission: servercommon.NewAppServiceAdapter(rt.svc, rt.cfg.Filters.Domains),
					Ready:   rt.ready,
					Logger:  rt.logger,
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from [server] http_bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint")
	return cmd
}

// gridOptions holds the grid command filters.
type gridOptions struct {
	query      string
	priorities []string
	statuses   []string
	domains    []string
	plain      bool
	columns    bool
}

// newGridCommand prints the filtered data grid, column counts, and stats.
func newGridCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var g gridOptions
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the filtered data grid as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "grid", stderr, func(rt *runtimeEnv) error {
				return runGrid(cmd.Context(), rt, g, stdout)
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&g.query, "query", "q", "", "case-insensitive title search")
	flags.StringSliceVar(&g.priorities, "priority", nil, "priority filter (repeatable: High, Normal, Low)")
	flags.StringSliceVar(&g.statuses, "status", nil, "status filter (repeatable)")
	flags.StringArrayVar(&g.domains, "domain", nil, "domain filter (repeatable, taken verbatim)")
	flags.BoolVar(&g.plain, "plain", false, "disable colors")
	flags.BoolVar(&g.columns, "columns", false, "also print per-column counts")
	return cmd
}

func runGrid(ctx context.Context, rt *runtimeEnv, g gridOptions, stdout io.Writer) error {
	state := servercommon.BoardRequest{
		Query:      g.query,
		Priorities: g.priorities,
		Statuses:   g.statuses,
		Domains:    g.domains,
	}.FilterState()
	b, err := rt.svc.Board(ctx, state)
	if err != nil {
		return fmt.Errorf("build board: %w", err)
	}
	all, err := rt.svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}

	sections := []string{render.Grid(b.Items, render.GridOptions{
		LabelsShown:  rt.cfg.Board.LabelsShown,
		HidePriority: !rt.cfg.Filters.PrioritiesVisible,
		Plain:        g.plain,
	})}
	if g.columns {
		sections = append(sections, render.Columns(b, columnLabels(rt.cfg), g.plain))
	}
	sections = append(sections, render.Stats(all, board.Stats(b.Items), g.plain))
	_, err = fmt.Fprintln(stdout, strings.Join(sections, "\n\n"))
	return err
}

// runTUI imports and watches the feed when one is configured, then runs the board.
func runTUI(ctx context.Context, rt *runtimeEnv, feedFlag string) error {
	opts := []tui.Option{
		tui.WithBoardConfig(toTUIBoardConfig(rt.cfg)),
		tui.WithKeyConfig(tui.KeyConfig{
			Search:     rt.cfg.Keys.Search,
			Reset:      rt.cfg.Keys.Reset,
			ToggleView: rt.cfg.Keys.ToggleView,
		}),
		tui.WithLogger(rt.logger),
	}
	if rt.cfg.Pulse.Enabled {
		opts = append(opts, tui.WithPulse(rt.cfg.PulseInterval()))
	}

	feedPath := firstNonEmpty(feedFlag, rt.cfg.Feed.Path)
	if feedPath != "" {
		if fileExists(feedPath) {
			dataset, err := importFeedFile(ctx, rt.svc, feedPath)
			if err != nil {
				return fmt.Errorf("import feed %q: %w", feedPath, err)
			}
			rt.logger.Info("feed imported at startup", "path", feedPath, "items", len(dataset.Items))
		}
		if rt.cfg.Feed.Watch {
			watcher, err := feedwatch.New(feedPath,
				feedwatch.WithDebounceDuration(rt.cfg.FeedDebounce()),
				feedwatch.WithPolling(rt.cfg.FeedPollInterval()),
				feedwatch.WithOnError(func(err error) {
					rt.logger.Warn("feed watch error", "path", feedPath, "err", err)
				}),
			)
			if err != nil {
				return fmt.Errorf("create feed watcher: %w", err)
			}
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("start feed watcher: %w", err)
			}
			defer watcher.Stop()
			rt.logger.Info("watching feed", "path", watcher.Path(), "polling", watcher.IsPolling())
			opts = append(opts, tui.WithFeedUpdates(watcher.Changed(), func(ctx context.Context) error {
				_, err := importFeedFile(ctx, rt.svc, feedPath)
				return err
			}))
		}
	}

	m := tui.NewModel(rt.svc, opts...)
	rt.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}

// toTUIBoardConfig maps persisted board settings into model options.
func toTUIBoardConfig(cfg config.Config) tui.BoardConfig {
	return tui.BoardConfig{
		View:             tui.View(strings.ToLower(strings.TrimSpace(string(cfg.Board.View)))),
		HideEmptyColumns: cfg.Board.HideEmptyColumns,
		HidePriority:     !cfg.Filters.PrioritiesVisible,
		LabelsShown:      cfg.Board.LabelsShown,
		ColumnLabels:     columnLabels(cfg),
		Domains:          append([]string(nil), cfg.Filters.Domains...),
	}
}

// columnLabels converts configured heading overrides to status keys.
func columnLabels(cfg config.Config) map[domain.Status]string {
	out := make(map[domain.Status]string, len(cfg.Board.ColumnLabels))
	for status, label := range cfg.Board.ColumnLabels {
		out[domain.Status(status)] = label
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
