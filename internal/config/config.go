package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

// BoardView selects the initial TUI layout.
type BoardView string

const (
	BoardViewBoard BoardView = "board"
	BoardViewGrid  BoardView = "grid"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Board    BoardConfig    `toml:"board"`
	Filters  FiltersConfig  `toml:"filters"`
	Pulse    PulseConfig    `toml:"pulse"`
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
	Feed     FeedConfig     `toml:"feed"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string               `toml:"level"`
	DevFile LoggingDevFileConfig `toml:"dev_file"`
}

type LoggingDevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type BoardConfig struct {
	View             BoardView `toml:"view"`
	HideEmptyColumns bool      `toml:"hide_empty_columns"`
	LabelsShown      int       `toml:"labels_shown"`
	// ColumnLabels overrides column headings keyed by canonical status.
	ColumnLabels map[string]string `toml:"column_labels"`
}

type FiltersConfig struct {
	Domains           []string `toml:"domains"`
	PrioritiesVisible bool     `toml:"priorities_visible"`
}

type PulseConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type CacheConfig struct {
	RedisAddr string `toml:"redis_addr"`
	TTL       string `toml:"ttl"`
}

type FeedConfig struct {
	Path         string `toml:"path"`
	Watch        bool   `toml:"watch"`
	Debounce     string `toml:"debounce"`
	PollInterval string `toml:"poll_interval"`
}

type KeyConfig struct {
	Search     string `toml:"search"`
	Reset      string `toml:"reset"`
	ToggleView string `toml:"toggle_view"`
}

var canonicalStatuses = []string{"Backlog", "Ready", "In Progress", "In Review", "Done"}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: LoggingDevFileConfig{
				Enabled: true,
				Dir:     ".missionctl/log",
			},
		},
		Board: BoardConfig{
			View:        BoardViewBoard,
			LabelsShown: 3,
		},
		Filters: FiltersConfig{
			Domains:           []string{"Frontend", "Backend", "DevOps", "Docs", "General"},
			PrioritiesVisible: true,
		},
		Pulse: PulseConfig{
			Enabled:  true,
			Interval: "5s",
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Cache: CacheConfig{
			TTL: "30s",
		},
		Feed: FeedConfig{
			Watch:    true,
			Debounce: "200ms",
		},
		Keys: KeyConfig{
			Search:     "/",
			Reset:      "ctrl+r",
			ToggleView: "v",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	switch BoardView(strings.TrimSpace(strings.ToLower(string(c.Board.View)))) {
	case "", BoardViewBoard, BoardViewGrid:
	default:
		return fmt.Errorf("invalid board.view: %q", c.Board.View)
	}
	if c.Board.LabelsShown < 0 {
		return errors.New("board.labels_shown must be >= 0")
	}
	for status := range c.Board.ColumnLabels {
		if !slices.Contains(canonicalStatuses, status) {
			return fmt.Errorf("board.column_labels references unknown status %q", status)
		}
	}

	seenDomain := map[string]struct{}{}
	for idx, raw := range c.Filters.Domains {
		d := strings.TrimSpace(raw)
		if d == "" {
			return fmt.Errorf("filters.domains[%d] is empty", idx)
		}
		key := strings.ToLower(d)
		if _, ok := seenDomain[key]; ok {
			return fmt.Errorf("filters.domains[%d] is duplicated: %s", idx, d)
		}
		seenDomain[key] = struct{}{}
	}

	if _, err := positiveDuration("pulse.interval", c.Pulse.Interval); err != nil {
		return err
	}
	if _, err := nonNegativeDuration("cache.ttl", c.Cache.TTL); err != nil {
		return err
	}
	if _, err := nonNegativeDuration("feed.debounce", c.Feed.Debounce); err != nil {
		return err
	}
	if _, err := nonNegativeDuration("feed.poll_interval", c.Feed.PollInterval); err != nil {
		return err
	}

	api := "/" + strings.Trim(strings.TrimSpace(c.Server.APIEndpoint), "/")
	mcp := "/" + strings.Trim(strings.TrimSpace(c.Server.MCPEndpoint), "/")
	if api != "/" && api == mcp {
		return errors.New("server.api_endpoint and server.mcp_endpoint must differ")
	}

	return nil
}

// PulseInterval returns the pulse rotation interval, falling back to 5s.
func (c Config) PulseInterval() time.Duration {
	d, err := positiveDuration("pulse.interval", c.Pulse.Interval)
	if err != nil || d == 0 {
		return 5 * time.Second
	}
	return d
}

// CacheTTL returns the redis entry lifetime. Zero disables writes.
func (c Config) CacheTTL() time.Duration {
	d, err := nonNegativeDuration("cache.ttl", c.Cache.TTL)
	if err != nil {
		return 0
	}
	return d
}

// FeedDebounce returns the feed watcher debounce window.
func (c Config) FeedDebounce() time.Duration {
	d, err := nonNegativeDuration("feed.debounce", c.Feed.Debounce)
	if err != nil || d == 0 {
		return 200 * time.Millisecond
	}
	return d
}

// FeedPollInterval returns the forced stat-polling interval. Zero means fsnotify.
func (c Config) FeedPollInterval() time.Duration {
	d, err := nonNegativeDuration("feed.poll_interval", c.Feed.PollInterval)
	if err != nil {
		return 0
	}
	return d
}

func positiveDuration(field, raw string) (time.Duration, error) {
	d, err := nonNegativeDuration(field, raw)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(raw) != "" && d == 0 {
		return 0, fmt.Errorf("%s must be > 0", field)
	}
	return d, nil
}

func nonNegativeDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", field, raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be >= 0", field)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
