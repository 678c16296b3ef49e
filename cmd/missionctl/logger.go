package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/evanschultz/missionctl/internal/config"
)

// defaultLogDir is the workspace-relative dev log directory.
const defaultLogDir = ".missionctl/log"

// logSink is one charm logger plus whether it writes to the terminal.
type logSink struct {
	*charmLog.Logger
	console bool
}

// runtimeLogger writes every event to the console sink and, in dev mode, a logfmt file.
// The console sink can be muted while the TUI owns the terminal.
type runtimeLogger struct {
	sinks     []logSink
	muted     bool
	file      *os.File
	devLogDst string
}

func newSink(w io.Writer, appName string, level charmLog.Level, formatter charmLog.Formatter, console bool) logSink {
	return logSink{
		Logger: charmLog.NewWithOptions(w, charmLog.Options{
			Level:           level,
			Prefix:          appName,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Formatter:       formatter,
		}),
		console: console,
	}
}

// newRuntimeLogger builds the sinks for one command run.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if now == nil {
		now = time.Now
	}

	l := &runtimeLogger{
		sinks: []logSink{newSink(stderr, appName, level, charmLog.TextFormatter, true)},
	}
	if !devMode || !cfg.DevFile.Enabled {
		return l, nil
	}

	path, err := devLogFilePath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	l.sinks = append(l.sinks, newSink(f, appName, level, charmLog.LogfmtFormatter, false))
	l.file = f
	l.devLogDst = path
	return l, nil
}

// DevLogPath returns the dev log file, or "" when file logging is off.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLogDst
}

// Close closes the dev log file when one is open.
func (l *runtimeLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// SetConsoleEnabled mutes or unmutes the terminal sink.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l != nil {
		l.muted = !enabled
	}
}

// ConsoleEnabled reports whether the terminal sink is unmuted.
func (l *runtimeLogger) ConsoleEnabled() bool {
	return l != nil && !l.muted
}

func (l *runtimeLogger) emit(level charmLog.Level, msg any, keyvals []any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if sink.console && l.muted {
			continue
		}
		sink.Log(level, msg, keyvals...)
	}
}

// Debug logs at debug level.
func (l *runtimeLogger) Debug(msg any, keyvals ...any) { l.emit(charmLog.DebugLevel, msg, keyvals) }

// Info logs at info level.
func (l *runtimeLogger) Info(msg any, keyvals ...any) { l.emit(charmLog.InfoLevel, msg, keyvals) }

// Warn logs at warn level.
func (l *runtimeLogger) Warn(msg any, keyvals ...any) { l.emit(charmLog.WarnLevel, msg, keyvals) }

// Error logs at error level.
func (l *runtimeLogger) Error(msg any, keyvals ...any) { l.emit(charmLog.ErrorLevel, msg, keyvals) }

// devLogFilePath returns <dir>/<app>-YYYYMMDD.log. Relative dirs resolve against the workspace root.
func devLogFilePath(dir, appName string, day time.Time) (string, error) {
	base := strings.TrimSpace(dir)
	if base == "" {
		base = defaultLogDir
	}
	if !filepath.IsAbs(base) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		base = filepath.Join(workspaceRootFrom(cwd), base)
	}
	name := sanitizeLogFileStem(appName) + "-" + day.Format("20060102") + ".log"
	return filepath.Join(filepath.Clean(base), name), nil
}

// workspaceRootFrom walks up from start to the first dir holding go.mod or .git.
// It returns start when no marker is found.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	for dir := start; ; dir = filepath.Dir(dir) {
		for _, marker := range []string{"go.mod", ".git"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		if filepath.Dir(dir) == dir {
			return start
		}
	}
}

// sanitizeLogFileStem maps separators and spaces to dashes.
func sanitizeLogFileStem(appName string) string {
	stem := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, strings.TrimSpace(appName))
	if stem = strings.Trim(stem, "-"); stem == "" {
		return "missionctl"
	}
	return stem
}
