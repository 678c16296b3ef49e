package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/missionctl.db")
	if cfg.Database.Path != "/tmp/missionctl.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Board.View != BoardViewBoard || cfg.Board.LabelsShown != 3 {
		t.Fatalf("unexpected board defaults %#v", cfg.Board)
	}
	if len(cfg.Filters.Domains) != 5 || cfg.Filters.Domains[0] != "Frontend" {
		t.Fatalf("unexpected domain defaults %#v", cfg.Filters.Domains)
	}
	if cfg.PulseInterval() != 5*time.Second || cfg.FeedDebounce() != 200*time.Millisecond {
		t.Fatalf("unexpected durations pulse=%s debounce=%s", cfg.PulseInterval(), cfg.FeedDebounce())
	}
	if cfg.FeedPollInterval() != 0 || !cfg.Filters.PrioritiesVisible {
		t.Fatalf("unexpected feed/filter defaults %#v %#v", cfg.Feed, cfg.Filters)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/missionctl.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""), Default("/tmp/missionctl.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTPBind != "127.0.0.1:8080" {
		t.Fatalf("unexpected bind %q", cfg.Server.HTTPBind)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "/custom/missionctl.db"

[logging]
level = "debug"

[board]
view = "grid"
hide_empty_columns = true
labels_shown = 2

[board.column_labels]
Ready = "Up Next"

[filters]
domains = ["Mobile", "Infra"]
priorities_visible = false

[pulse]
interval = "10s"

[cache]
redis_addr = "localhost:6379"
ttl = "1m"

[feed]
path = "feed.json"
debounce = "50ms"
poll_interval = "3s"

[keys]
toggle_view = "g"
`)

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/missionctl.db" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected overrides %#v", cfg)
	}
	if cfg.Board.View != BoardViewGrid || !cfg.Board.HideEmptyColumns || cfg.Board.LabelsShown != 2 {
		t.Fatalf("unexpected board config %#v", cfg.Board)
	}
	if cfg.Board.ColumnLabels["Ready"] != "Up Next" {
		t.Fatalf("unexpected column labels %#v", cfg.Board.ColumnLabels)
	}
	if len(cfg.Filters.Domains) != 2 || cfg.Filters.Domains[1] != "Infra" {
		t.Fatalf("unexpected domains %#v", cfg.Filters.Domains)
	}
	if cfg.PulseInterval() != 10*time.Second || cfg.CacheTTL() != time.Minute || cfg.FeedDebounce() != 50*time.Millisecond {
		t.Fatalf("unexpected durations")
	}
	if cfg.FeedPollInterval() != 3*time.Second || cfg.Filters.PrioritiesVisible {
		t.Fatalf("unexpected feed/filter overrides %#v %#v", cfg.Feed, cfg.Filters)
	}
	if cfg.Keys.ToggleView != "g" || cfg.Keys.Search != "/" {
		t.Fatalf("unexpected keys %#v", cfg.Keys)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "view", content: "[board]\nview = \"kanban\"\n", want: "board.view"},
		{name: "level", content: "[logging]\nlevel = \"loud\"\n", want: "logging.level"},
		{name: "column label", content: "[board.column_labels]\nBlocked = \"x\"\n", want: "unknown status"},
		{name: "duplicate domain", content: "[filters]\ndomains = [\"Docs\", \"docs\"]\n", want: "duplicated"},
		{name: "pulse interval", content: "[pulse]\ninterval = \"0s\"\n", want: "pulse.interval"},
		{name: "cache ttl", content: "[cache]\nttl = \"soon\"\n", want: "cache.ttl"},
		{name: "poll interval", content: "[feed]\npoll_interval = \"-1s\"\n", want: "feed.poll_interval"},
		{name: "endpoints", content: "[server]\napi_endpoint = \"/x\"\nmcp_endpoint = \"x/\"\n", want: "must differ"},
		{name: "toml", content: "[board\n", want: "decode toml"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), Default("/tmp/default.db"))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
