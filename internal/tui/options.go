package tui

import (
	"context"
	"strings"
	"time"

	"github.com/evanschultz/missionctl/internal/domain"
)

// View names the main content layout.
type View string

// View values.
const (
	ViewBoard View = "board"
	ViewGrid  View = "grid"
)

// BoardConfig holds board presentation settings.
type BoardConfig struct {
	View             View
	HideEmptyColumns bool
	HidePriority     bool
	LabelsShown      int
	ColumnLabels     map[domain.Status]string
	Domains          []string
}

// Logger is the subset of charm log the model reports through.
type Logger interface {
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
}

// ReloadFeedFunc re-imports the watched feed file before the board reloads.
type ReloadFeedFunc func(context.Context) error

type Option func(*Model)

// DefaultBoardConfig returns the board settings used when no option overrides them.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		View:        ViewBoard,
		LabelsShown: 3,
		Domains:     domain.DefaultDomains(),
	}
}

// WithBoardConfig applies view, column, and domain settings.
func WithBoardConfig(cfg BoardConfig) Option {
	return func(m *Model) {
		switch cfg.View {
		case ViewBoard, ViewGrid:
			m.view = cfg.View
		}
		m.hideEmptyColumns = cfg.HideEmptyColumns
		m.hidePriority = cfg.HidePriority
		if cfg.LabelsShown > 0 {
			m.labelsShown = cfg.LabelsShown
		}
		labels := make(map[domain.Status]string, len(cfg.ColumnLabels))
		for status, label := range cfg.ColumnLabels {
			if label = strings.TrimSpace(label); label != "" {
				labels[status] = label
			}
		}
		m.columnLabels = labels
		if len(cfg.Domains) > 0 {
			m.domains = append([]string(nil), cfg.Domains...)
		}
	}
}

// WithKeyConfig applies key overrides.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithPulse enables activity pulse rotation at the given interval. Non-positive disables it.
func WithPulse(interval time.Duration) Option {
	return func(m *Model) {
		m.pulseInterval = max(interval, 0)
	}
}

// WithFeedUpdates reloads the board each time changes fires, calling reload first when set.
func WithFeedUpdates(changes <-chan struct{}, reload ReloadFeedFunc) Option {
	return func(m *Model) {
		m.feedChanges = changes
		m.reloadFeed = reload
	}
}

// WithLogger routes model diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source for relative pulse labels.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}
