package tui

import (
	"image/color"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/missionctl/internal/domain"
)

// pulseLogRows caps events listed in the expanded pulse log.
const pulseLogRows = 8

// pulseTickCmd schedules the next rotation for the current generation.
func (m Model) pulseTickCmd() tea.Cmd {
	if m.pulseInterval <= 0 {
		return nil
	}
	generation := m.pulseGeneration
	return tea.Tick(m.pulseInterval, func(time.Time) tea.Msg {
		return pulseTickMsg{generation: generation}
	})
}

// setPulseFocus pauses rotation and expands the log while focused.
// Each change starts a new generation so ticks already in flight are dropped.
func (m *Model) setPulseFocus(focused bool) tea.Cmd {
	if len(m.events) == 0 && focused {
		m.status = "no pulse activity"
		return nil
	}
	m.pulseFocused = focused
	m.pulseGeneration++
	if focused {
		m.mode = modePulse
		m.status = "pulse paused"
		return nil
	}
	m.mode = modeNone
	m.status = "ready"
	return m.pulseTickCmd()
}

// currentEvent returns the event shown in the header.
func (m Model) currentEvent() (domain.PulseEvent, bool) {
	if len(m.events) == 0 {
		return domain.PulseEvent{}, false
	}
	return m.events[clamp(m.pulseIndex, 0, len(m.events)-1)], true
}

// renderPulse renders the one-line rotating header ticker.
func (m Model) renderPulse(accent, muted color.Color) string {
	event, ok := m.currentEvent()
	if !ok {
		return ""
	}
	now := m.now()
	live := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
	if event.Type == domain.EventSystem {
		live = lipgloss.NewStyle().Bold(true).Foreground(muted)
	}
	userStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	actionStyle := lipgloss.NewStyle().Foreground(muted)
	line := live.Render("● "+event.LiveLabel(now)) + "  " +
		domain.EventGlyph(event.Type) + " " +
		userStyle.Render(event.User) + " " +
		actionStyle.Render(event.Action)
	if m.pulseFocused {
		line += actionStyle.Render("  ▴")
	} else {
		line += actionStyle.Render("  ▾")
	}
	return line
}

// renderPulseLog renders the expanded history shown while the pulse is focused.
func (m Model) renderPulseLog(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 40, 80)
	now := m.now()
	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Activity pulse")
	timeStyle := lipgloss.NewStyle().Foreground(muted).Width(5).Align(lipgloss.Right)
	currentStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))

	lines := []string{title, ""}
	for idx, event := range m.events {
		if idx >= pulseLogRows {
			break
		}
		text := truncate(domain.EventGlyph(event.Type)+" "+event.User+" "+event.Action, width-12)
		if idx == m.pulseIndex {
			text = currentStyle.Render(text)
		}
		lines = append(lines, timeStyle.Render(domain.TimeAgo(event.Time, now))+"  "+text)
	}
	if hidden := len(m.events) - pulseLogRows; hidden > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render(strings.Repeat(" ", 7)+"+"+strconv.Itoa(hidden)+" more"))
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(muted).Render("rotation paused • p or esc to resume"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}
