package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/alicebob/miniredis/v2"

	serveradapter "github.com/evanschultz/missionctl/internal/adapters/server"
	"github.com/evanschultz/missionctl/internal/app"
	"github.com/evanschultz/missionctl/internal/config"
	"github.com/evanschultz/missionctl/internal/domain"
	"github.com/evanschultz/missionctl/internal/tui"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("MISSIONCTL_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram represents fake program data used by this package.
type fakeProgram struct {
	runErr error
}

// Run runs the requested command flow.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

const sampleFeed = `{
  "version": "missionctl.feed.v1",
  "items": [
    {"id": "1", "number": 12, "type": "pr", "title": "Fix Navbar", "status": "Done", "priority": "High", "domain": "Frontend", "assignee": {"login": "octo"}, "labels": ["ui"]},
    {"id": "2", "title": "Write guide", "status": "Backlog", "priority": "Low", "domain": "Docs"},
    {"id": "3", "title": "Mystery", "status": "Blocked", "priority": "Normal", "domain": "General"}
  ],
  "reviewers": {"top_reviewers": [{"name": "alice", "count": 4}], "community_happiness": 72, "analyzed_comments": 10},
  "contributors": [{"login": "alice", "pr_count": 2}],
  "events": [{"user": "octo", "action": "opened PR #12", "time": "2026-10-14T10:00:00Z", "type": "pr"}]
}`

// testEnv holds per-test config and database paths.
type testEnv struct {
	dir     string
	dbPath  string
	cfgPath string
}

func newTestEnv(t *testing.T, configBody string) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:     dir,
		dbPath:  filepath.Join(dir, "missionctl.db"),
		cfgPath: filepath.Join(dir, "config.toml"),
	}
	if err := os.WriteFile(env.cfgPath, []byte(configBody), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return env
}

func (e testEnv) args(extra ...string) []string {
	return append([]string{"--db", e.dbPath, "--config", e.cfgPath}, extra...)
}

func (e testEnv) writeFeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(e.dir, "feed.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func (e testEnv) export(t *testing.T) app.Feed {
	t.Helper()
	var out bytes.Buffer
	if err := run(context.Background(), e.args("export"), &out, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	var feed app.Feed
	if err := json.Unmarshal(out.Bytes(), &feed); err != nil {
		t.Fatalf("json.Unmarshal() error = %v\n%s", err, out.String())
	}
	return feed
}

func stubProgram(t *testing.T) {
	t.Helper()
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(_ tea.Model) program { return fakeProgram{} }
}

// TestRunVersion verifies behavior for the covered scenario.
func TestRunVersion(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

// TestRunStartsProgram verifies behavior for the covered scenario.
func TestRunStartsProgram(t *testing.T) {
	stubProgram(t)
	env := newTestEnv(t, "")
	if err := run(context.Background(), env.args(), io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(env.dbPath); err != nil {
		t.Fatalf("expected sqlite database to be created: %v", err)
	}
}

// TestRunProgramErrorIsWrapped verifies behavior for the covered scenario.
func TestRunProgramErrorIsWrapped(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	boom := errors.New("boom")
	programFactory = func(_ tea.Model) program { return fakeProgram{runErr: boom} }

	env := newTestEnv(t, "")
	err := run(context.Background(), env.args(), io.Discard, io.Discard)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped program error, got %v", err)
	}
}

// TestRunTUIImportsFeedFlag verifies behavior for the covered scenario.
func TestRunTUIImportsFeedFlag(t *testing.T) {
	var captured tea.Model
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(m tea.Model) program {
		captured = m
		return fakeProgram{}
	}

	env := newTestEnv(t, "[feed]\nwatch = true\ndebounce = \"10ms\"\n")
	feedPath := env.writeFeed(t, sampleFeed)
	if err := run(context.Background(), env.args("--feed", feedPath), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(--feed) error = %v", err)
	}
	if _, ok := captured.(tui.Model); !ok {
		t.Fatalf("expected tui.Model passed to program, got %T", captured)
	}

	feed := env.export(t)
	if len(feed.Items) != 3 || len(feed.Events) != 1 {
		t.Fatalf("expected feed imported at startup, got items=%d events=%d", len(feed.Items), len(feed.Events))
	}
}

// TestRunTUIWithMissingFeedStillStarts verifies behavior for the covered scenario.
func TestRunTUIWithMissingFeedStillStarts(t *testing.T) {
	stubProgram(t)
	env := newTestEnv(t, "")
	if err := run(context.Background(), env.args("--feed", filepath.Join(env.dir, "later.json")), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(--feed missing) error = %v", err)
	}
}

// TestRunTUIRejectsInvalidFeed verifies behavior for the covered scenario.
func TestRunTUIRejectsInvalidFeed(t *testing.T) {
	stubProgram(t)
	env := newTestEnv(t, "")
	feedPath := env.writeFeed(t, `{"items":[{"id":"","title":"x"}]}`)
	err := run(context.Background(), env.args("--feed", feedPath), io.Discard, io.Discard)
	if !errors.Is(err, app.ErrInvalidFeed) {
		t.Fatalf("expected ErrInvalidFeed, got %v", err)
	}
}

// TestRunImportExportRoundTrip verifies behavior for the covered scenario.
func TestRunImportExportRoundTrip(t *testing.T) {
	env := newTestEnv(t, "")
	feedPath := env.writeFeed(t, sampleFeed)

	var out strings.Builder
	if err := run(context.Background(), env.args("import", "--in", feedPath), &out, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}
	if !strings.Contains(out.String(), "imported 3 items, 1 contributors, 1 events") {
		t.Fatalf("unexpected import summary %q", out.String())
	}

	outPath := filepath.Join(env.dir, "nested", "export.json")
	if err := run(context.Background(), env.args("export", "--out", outPath), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export --out) error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var feed app.Feed
	if err := json.Unmarshal(content, &feed); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if feed.Version != app.FeedVersion || len(feed.Items) != 3 {
		t.Fatalf("unexpected exported feed %#v", feed)
	}
	if feed.Stats == nil || feed.Stats.Total != 3 || feed.Stats.Done != 1 || feed.Stats.Backlog != 1 {
		t.Fatalf("unexpected exported stats %#v", feed.Stats)
	}
	if feed.Reviewers == nil || feed.Reviewers.CommunityHappiness != 72 {
		t.Fatalf("unexpected exported reviewers %#v", feed.Reviewers)
	}
	if feed.Items[2].Status != "Blocked" {
		t.Fatalf("expected unknown status kept verbatim, got %q", feed.Items[2].Status)
	}
}

// TestRunImportErrors verifies behavior for the covered scenario.
func TestRunImportErrors(t *testing.T) {
	env := newTestEnv(t, "")
	if err := run(context.Background(), env.args("import"), io.Discard, io.Discard); err == nil {
		t.Fatal("expected missing --in error")
	}
	if err := run(context.Background(), env.args("import", "--in", filepath.Join(env.dir, "missing.json")), io.Discard, io.Discard); err == nil {
		t.Fatal("expected missing file error")
	}
	bad := env.writeFeed(t, `{"version":"v0","items":[]}`)
	err := run(context.Background(), env.args("import", "--in", bad), io.Discard, io.Discard)
	if !errors.Is(err, app.ErrInvalidFeed) {
		t.Fatalf("expected ErrInvalidFeed for unsupported version, got %v", err)
	}
}

// TestRunGridCommand verifies behavior for the covered scenario.
func TestRunGridCommand(t *testing.T) {
	env := newTestEnv(t, "[board]\n[board.column_labels]\n\"Ready\" = \"Queued\"\n")
	feedPath := env.writeFeed(t, sampleFeed)
	if err := run(context.Background(), env.args("import", "--in", feedPath), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	var out strings.Builder
	if err := run(context.Background(), env.args("grid", "--plain", "--columns", "-q", "NAV"), &out, io.Discard); err != nil {
		t.Fatalf("run(grid) error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"Fix Navbar", "#12", "octo", "Queued", "filtered"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in grid output:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Write guide") {
		t.Fatalf("expected search to filter rows:\n%s", got)
	}

	out.Reset()
	if err := run(context.Background(), env.args("grid", "--plain", "--priority", "Low", "--priority", "High", "--domain", "Docs"), &out, io.Discard); err != nil {
		t.Fatalf("run(grid filters) error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "Write guide") || strings.Contains(got, "Fix Navbar") {
		t.Fatalf("expected priority OR within and domain AND across:\n%s", got)
	}

	out.Reset()
	if err := run(context.Background(), env.args("grid", "--plain", "--status", "Done", "--domain", "Docs"), &out, io.Discard); err != nil {
		t.Fatalf("run(grid empty) error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "No items match") {
		t.Fatalf("expected empty grid message:\n%s", got)
	}
}

// TestRunGridHidesPriorityAndKeepsCommaDomains verifies behavior for the covered scenario.
func TestRunGridHidesPriorityAndKeepsCommaDomains(t *testing.T) {
	env := newTestEnv(t, "[filters]\npriorities_visible = false\n")
	feedPath := env.writeFeed(t, `{
  "version": "missionctl.feed.v1",
  "items": [
    {"id": "1", "title": "Tune cache", "status": "Ready", "priority": "High", "domain": "Backend, Infra"},
    {"id": "2", "title": "Write guide", "status": "Backlog", "priority": "Low", "domain": "Infra"}
  ]
}`)
	if err := run(context.Background(), env.args("import", "--in", feedPath), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	var out strings.Builder
	if err := run(context.Background(), env.args("grid", "--plain", "--domain", "Backend, Infra"), &out, io.Discard); err != nil {
		t.Fatalf("run(grid) error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Tune cache") || strings.Contains(got, "Write guide") {
		t.Fatalf("expected comma domain matched verbatim:\n%s", got)
	}
	grid, _, _ := strings.Cut(got, "\n\n")
	for _, gone := range []string{"Priority", "High"} {
		if strings.Contains(grid, gone) {
			t.Fatalf("expected %q hidden from grid:\n%s", gone, grid)
		}
	}
}

// TestRunServeUsesConfigAndCache verifies behavior for the covered scenario.
func TestRunServeUsesConfigAndCache(t *testing.T) {
	mr := miniredis.RunT(t)
	env := newTestEnv(t, fmt.Sprintf("[server]\nhttp_bind = \"127.0.0.1:9911\"\n\n[cache]\nredis_addr = %q\nttl = \"1m\"\n", mr.Addr()))
	feedPath := env.writeFeed(t, sampleFeed)
	if err := run(context.Background(), env.args("import", "--in", feedPath), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	origRunner := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = origRunner })
	var (
		gotCfg  serveradapter.Config
		gotDeps serveradapter.Dependencies
	)
	serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
		gotCfg, gotDeps = cfg, deps
		if deps.Ready == nil {
			return errors.New("missing readiness probe")
		}
		if err := deps.Ready(ctx); err != nil {
			return err
		}
		stats, err := deps.Mission.Stats(ctx)
		if err != nil {
			return err
		}
		if stats.Total != 3 {
			return fmt.Errorf("unexpected stats %#v", stats)
		}
		return nil
	}

	if err := run(context.Background(), env.args("serve", "--mcp-endpoint", "/agents"), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(serve) error = %v", err)
	}
	if gotCfg.HTTPBind != "127.0.0.1:9911" || gotCfg.APIEndpoint != "/api/v1" || gotCfg.MCPEndpoint != "/agents" {
		t.Fatalf("unexpected serve config %#v", gotCfg)
	}
	if gotCfg.ServerName != "missionctl" || gotCfg.ServerVersion != version {
		t.Fatalf("unexpected server identity %#v", gotCfg)
	}
	if gotDeps.Mission == nil || gotDeps.Logger == nil {
		t.Fatalf("expected mission and logger dependencies, got %#v", gotDeps)
	}
	if len(mr.Keys()) == 0 {
		t.Fatal("expected cached reads in redis")
	}
}

// TestRunServeFallsBackWithoutRedis verifies behavior for the covered scenario.
func TestRunServeFallsBackWithoutRedis(t *testing.T) {
	env := newTestEnv(t, "[cache]\nredis_addr = \"127.0.0.1:1\"\n")
	origRunner := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = origRunner })
	serveCommandRunner = func(ctx context.Context, _ serveradapter.Config, deps serveradapter.Dependencies) error {
		return deps.Ready(ctx)
	}
	var stderr bytes.Buffer
	if err := run(context.Background(), env.args("serve"), io.Discard, &stderr); err != nil {
		t.Fatalf("run(serve) error = %v", err)
	}
	if !strings.Contains(stderr.String(), "redis cache unavailable") {
		t.Fatalf("expected fallback warning, got %q", stderr.String())
	}
}

// TestRunUnknownCommand verifies behavior for the covered scenario.
func TestRunUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"wat"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown command error")
	}
	if err := run(context.Background(), []string{"--bogus-flag"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid flag error")
	}
}

// TestRunPathsCommand verifies behavior for the covered scenario.
func TestRunPathsCommand(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--app", "mctl-test", "paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"app: mctl-test", "dev_mode: false", "config:", "data_dir:", "db:", "feed:"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in paths output:\n%s", want, got)
		}
	}
}

// TestRunConfigAndDBEnvOverrides verifies behavior for the covered scenario.
func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "env.db")
	cfgPath := filepath.Join(dir, "env.toml")
	t.Setenv("MISSIONCTL_DB_PATH", dbPath)
	t.Setenv("MISSIONCTL_CONFIG", cfgPath)

	var out strings.Builder
	if err := run(context.Background(), []string{"paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	if !strings.Contains(out.String(), "db: "+dbPath) || !strings.Contains(out.String(), "config: "+cfgPath) {
		t.Fatalf("expected env overrides in paths output:\n%s", out.String())
	}
}

// TestRunRejectsInvalidLoggingLevelFromConfig verifies behavior for the covered scenario.
func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	stubProgram(t)
	env := newTestEnv(t, "[logging]\nlevel = \"shout\"\n")
	err := run(context.Background(), env.args(), io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("expected invalid logging level error, got %v", err)
	}
}

// TestRunDevModeCreatesWorkspaceLogFile verifies behavior for the covered scenario.
func TestRunDevModeCreatesWorkspaceLogFile(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	env := newTestEnv(t, fmt.Sprintf("[logging]\nlevel = \"debug\"\n\n[logging.dev_file]\nenabled = true\ndir = %q\n", logDir))
	if err := run(context.Background(), append(env.args("--dev"), "export", "--out", filepath.Join(env.dir, "out.json")), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(--dev export) error = %v", err)
	}
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "missionctl-") {
		t.Fatalf("expected one dev log file, got %#v", entries)
	}
	content, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "command flow complete") {
		t.Fatalf("expected logfmt runtime events, got %q", string(content))
	}
}

// TestRunTUIModeWritesRuntimeLogsToFileOnly verifies behavior for the covered scenario.
func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	stubProgram(t)
	logDir := filepath.Join(t.TempDir(), "logs")
	env := newTestEnv(t, fmt.Sprintf("[logging.dev_file]\nenabled = true\ndir = %q\n", logDir))
	var stderr bytes.Buffer
	if err := run(context.Background(), env.args("--dev"), io.Discard, &stderr); err != nil {
		t.Fatalf("run(--dev) error = %v", err)
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected quiet console while tui runs, got %q", stderr.String())
	}
	entries, err := os.ReadDir(logDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected dev log file, entries=%v err=%v", entries, err)
	}
}

// TestParseBoolEnv verifies behavior for the covered scenario.
func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		raw    string
		want   bool
		wantOK bool
	}{
		{raw: "", want: false, wantOK: false},
		{raw: "true", want: true, wantOK: true},
		{raw: " 0 ", want: false, wantOK: true},
		{raw: "maybe", want: false, wantOK: false},
	}
	for _, tc := range cases {
		t.Setenv("MISSIONCTL_TEST_BOOL", tc.raw)
		got, ok := parseBoolEnv("MISSIONCTL_TEST_BOOL")
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("parseBoolEnv(%q) = %v, %v", tc.raw, got, ok)
		}
	}
}

// TestToTUIBoardConfig verifies behavior for the covered scenario.
func TestToTUIBoardConfig(t *testing.T) {
	cfg := config.Default("/tmp/x.db")
	cfg.Board.View = "GRID "
	cfg.Board.HideEmptyColumns = true
	cfg.Board.ColumnLabels = map[string]string{"In Review": "Review"}
	cfg.Filters.Domains = []string{"Mobile"}

	got := toTUIBoardConfig(cfg)
	if got.View != tui.ViewGrid || !got.HideEmptyColumns || got.LabelsShown != 3 {
		t.Fatalf("unexpected board config %#v", got)
	}
	if got.ColumnLabels[domain.StatusInReview] != "Review" || len(got.Domains) != 1 {
		t.Fatalf("unexpected labels/domains %#v", got)
	}
	cfg.Filters.Domains[0] = "Changed"
	if got.Domains[0] != "Mobile" {
		t.Fatal("expected domains to be copied")
	}
	if got.HidePriority {
		t.Fatal("expected priorities visible by default")
	}
	cfg.Filters.PrioritiesVisible = false
	if !toTUIBoardConfig(cfg).HidePriority {
		t.Fatal("expected priorities_visible = false to hide priority")
	}
}

// TestWorkspaceRootFromUsesNearestMarker verifies behavior for the covered scenario.
func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("workspaceRootFrom() = %q, want %q", got, root)
	}
}

// TestDevLogFilePath verifies behavior for the covered scenario.
func TestDevLogFilePath(t *testing.T) {
	dir := t.TempDir()
	got, err := devLogFilePath(dir, "mission ctl", time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	if want := filepath.Join(dir, "mission-ctl-20261014.log"); got != want {
		t.Fatalf("devLogFilePath() = %q, want %q", got, want)
	}
	if sanitizeLogFileStem(" / ") != "missionctl" {
		t.Fatalf("expected fallback stem, got %q", sanitizeLogFileStem(" / "))
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies behavior for the covered scenario.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newRuntimeLogger(&buf, "missionctl", false, config.LoggingConfig{Level: "info"}, nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.SetConsoleEnabled(false)
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected muted console, got %q", buf.String())
	}
	logger.SetConsoleEnabled(true)
	logger.Warn("visible", "k", "v")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
	if _, err := newRuntimeLogger(&buf, "missionctl", false, config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Fatal("expected invalid level error")
	}
}
