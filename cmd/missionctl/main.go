package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	serveradapter "github.com/evanschultz/missionctl/internal/adapters/server"
	"github.com/evanschultz/missionctl/internal/adapters/storage/rediscache"
	"github.com/evanschultz/missionctl/internal/adapters/storage/sqlite"
	"github.com/evanschultz/missionctl/internal/app"
	"github.com/evanschultz/missionctl/internal/config"
	"github.com/evanschultz/missionctl/internal/platform"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// redisPingTimeout bounds the startup probe of the optional cache.
const redisPingTimeout = 2 * time.Second

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// globalOptions holds flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// run builds the command tree and executes args against it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetIn(os.Stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// newRootCommand wires the TUI root and its subcommands.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{appName: "missionctl"}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("MISSIONCTL_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("MISSIONCTL_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	var feedPath string
	root := &cobra.Command{
		Use:   "missionctl",
		Short: "Mission control board for repository issues and pull requests",
		Long: "missionctl groups issues and pull requests into a five-column mission board " +
			"with search, multi-select filters, reviewer insights, and a live activity pulse.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "tui", stderr, func(rt *runtimeEnv) error {
				return runTUI(cmd.Context(), rt, feedPath)
			})
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	root.Flags().StringVar(&feedPath, "feed", "", "feed snapshot JSON to import and watch for changes")

	root.AddCommand(
		newPathsCommand(opts, stdout),
		newImportCommand(opts, stdout, stderr),
		newExportCommand(opts, stdout, stderr),
		newServeCommand(opts, stderr),
		newGridCommand(opts, stdout, stderr),
	)
	return root
}

// resolvedPaths resolves platform paths plus config and db overrides.
type resolvedPaths struct {
	paths        platform.Paths
	configPath   string
	dbPath       string
	dbOverridden bool
}

func resolvePaths(opts *globalOptions) (resolvedPaths, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return resolvedPaths{}, err
	}
	out := resolvedPaths{
		paths:        paths,
		configPath:   strings.TrimSpace(opts.configPath),
		dbPath:       strings.TrimSpace(opts.dbPath),
		dbOverridden: strings.TrimSpace(opts.dbPath) != "",
	}
	if out.configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("MISSIONCTL_CONFIG")); envPath != "" {
			out.configPath = envPath
		} else {
			out.configPath = paths.ConfigPath
		}
	}
	if !out.dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("MISSIONCTL_DB_PATH")); envPath != "" {
			out.dbPath = envPath
			out.dbOverridden = true
		} else {
			out.dbPath = paths.DBPath
		}
	}
	return out, nil
}

// runtimeEnv is the opened storage, service, and logger for one command.
type runtimeEnv struct {
	appName string
	paths   resolvedPaths
	cfg     config.Config
	logger  *runtimeLogger
	repo    *sqlite.Repository
	store   app.Repository
	redis   *redis.Client
	svc     *app.Service
}

// withRuntime opens the runtime for command, runs fn, and closes everything after.
func withRuntime(ctx context.Context, opts *globalOptions, command string, stderr io.Writer, fn func(*runtimeEnv) error) (err error) {
	rp, err := resolvePaths(opts)
	if err != nil {
		return err
	}
	cfg, err := config.Load(rp.configPath, config.Default(rp.dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", rp.configPath, err)
	}
	if rp.dbOverridden {
		cfg.Database.Path = rp.dbPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.ConsoleEnabled() {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", rp.configPath, "data_dir", rp.paths.DataDir, "db_path", rp.dbPath)
	logger.Info("configuration loaded", "config_path", rp.configPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	}()

	rt := &runtimeEnv{
		appName: opts.appName,
		paths:   rp,
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		store:   repo,
	}
	if command == "serve" {
		rt.redis = openRedisCache(ctx, cfg, logger)
		if rt.redis != nil {
			defer func() {
				if closeErr := rt.redis.Close(); closeErr != nil {
					logger.Warn("redis close failed", "err", closeErr)
				}
			}()
			rt.store = rediscache.NewCache(repo, rt.redis, cfg.CacheTTL())
		}
	}
	rt.svc = app.NewService(rt.store, uuid.NewString, nil, app.ServiceConfig{Logger: logger})

	logger.Info("command flow start", "command", command)
	if err := fn(rt); err != nil {
		logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	logger.Info("command flow complete", "command", command)
	return nil
}

// openRedisCache connects the configured cache; failures fall back to sqlite reads.
func openRedisCache(ctx context.Context, cfg config.Config, logger *runtimeLogger) *redis.Client {
	addr := strings.TrimSpace(cfg.Cache.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis cache unavailable, serving from sqlite", "addr", addr, "err", err)
		_ = client.Close()
		return nil
	}
	logger.Info("redis cache ready", "addr", addr, "ttl", cfg.CacheTTL())
	return client
}

// ready reports repository and optional cache health for /readyz.
func (rt *runtimeEnv) ready(ctx context.Context) error {
	if _, err := rt.repo.Revision(ctx); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if rt.redis != nil {
		if err := rt.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// importFeedFile loads one feed snapshot file into the service.
func importFeedFile(ctx context.Context, svc *app.Service, path string) (app.Dataset, error) {
	feed, err := app.LoadFeedFile(path)
	if err != nil {
		return app.Dataset{}, err
	}
	return svc.ImportFeed(ctx, feed)
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
