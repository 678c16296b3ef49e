package platform

import (
	"path/filepath"
	"testing"
)

// TestPathsFor verifies per-OS base directory selection.
func TestPathsFor(t *testing.T) {
	cases := []struct {
		name       string
		goos       string
		env        map[string]string
		configDir  string
		dataDir    string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux xdg",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			configDir:  "/fallback/config",
			dataDir:    "/fallback/data",
			wantConfig: "/xdg/config",
			wantData:   "/xdg/data",
		},
		{
			name:       "linux without xdg",
			goos:       "linux",
			env:        map[string]string{},
			configDir:  "/home/me/.config",
			dataDir:    "/home/me/.local/share",
			wantConfig: "/home/me/.config",
			wantData:   "/home/me/.local/share",
		},
		{
			name:       "windows appdata",
			goos:       "windows",
			env:        map[string]string{"APPDATA": `C:\Roaming`, "LOCALAPPDATA": `C:\Local`},
			configDir:  `C:\fallback\config`,
			dataDir:    `C:\fallback\data`,
			wantConfig: `C:\Roaming`,
			wantData:   `C:\Local`,
		},
		{
			name:       "darwin ignores xdg",
			goos:       "darwin",
			env:        map[string]string{"XDG_CONFIG_HOME": "/ignored", "XDG_DATA_HOME": "/ignored"},
			configDir:  "/Users/me/Library/Application Support",
			dataDir:    "/Users/me/Library/Application Support",
			wantConfig: "/Users/me/Library/Application Support",
			wantData:   "/Users/me/Library/Application Support",
		},
		{
			name:       "unknown os",
			goos:       "freebsd",
			configDir:  "/cfg",
			dataDir:    "/data",
			wantConfig: "/cfg",
			wantData:   "/data",
		},
		{
			name:       "blank xdg values fall back",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "  ", "XDG_DATA_HOME": ""},
			configDir:  "/home/me/.config",
			dataDir:    "/home/me/.local/share",
			wantConfig: "/home/me/.config",
			wantData:   "/home/me/.local/share",
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PathsFor(tt.goos, tt.env, tt.configDir, tt.dataDir, "missionctl")
			if err != nil {
				t.Fatalf("PathsFor() error = %v", err)
			}
			if want := filepath.Join(tt.wantConfig, "missionctl", "config.toml"); p.ConfigPath != want {
				t.Fatalf("config path = %q, want %q", p.ConfigPath, want)
			}
			if want := filepath.Join(tt.wantData, "missionctl"); p.DataDir != want {
				t.Fatalf("data dir = %q, want %q", p.DataDir, want)
			}
			if want := filepath.Join(tt.wantData, "missionctl", "missionctl.db"); p.DBPath != want {
				t.Fatalf("db path = %q, want %q", p.DBPath, want)
			}
			if want := filepath.Join(tt.wantData, "missionctl", "feed.json"); p.FeedPath != want {
				t.Fatalf("feed path = %q, want %q", p.FeedPath, want)
			}
		})
	}
}

// TestPathsForRejectsEmptyInputs verifies validation of base dirs and app name.
func TestPathsForRejectsEmptyInputs(t *testing.T) {
	if _, err := PathsFor("darwin", nil, "", "/tmp/data", "missionctl"); err == nil {
		t.Fatal("expected error for empty dirs")
	}
	if _, err := PathsFor("linux", nil, "/cfg", "/data", "  "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

// TestDefaultPathsSmoke verifies the host paths resolve.
func TestDefaultPathsSmoke(t *testing.T) {
	p, err := DefaultPaths()
	if err != nil {
		t.Fatalf("DefaultPaths() error = %v", err)
	}
	if p.ConfigPath == "" || p.DBPath == "" || p.DataDir == "" || p.FeedPath == "" {
		t.Fatalf("expected non-empty paths, got %#v", p)
	}
}

// TestDefaultPathsWithOptionsDevMode verifies the dev suffix.
func TestDefaultPathsWithOptionsDevMode(t *testing.T) {
	p, err := DefaultPathsWithOptions(Options{DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if filepath.Base(filepath.Dir(p.ConfigPath)) != "missionctl-dev" {
		t.Fatalf("expected dev config dir suffix, got %q", p.ConfigPath)
	}
	if filepath.Base(p.DBPath) != "missionctl-dev.db" {
		t.Fatalf("expected dev db name, got %q", p.DBPath)
	}
}
