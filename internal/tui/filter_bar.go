package tui

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/missionctl/internal/board"
	"github.com/evanschultz/missionctl/internal/domain"
)

// filterBarRow is the screen row of the filter bar while the header is shown.
const filterBarRow = 1

// filterBarGap separates filter bar buttons.
const filterBarGap = "  "

var pickerTitles = map[board.Category]string{
	board.CategoryPriorities: "Priority",
	board.CategoryStatuses:   "Status",
	board.CategoryDomains:    "Domain",
}

// filterSegment is one clickable button span in the filter bar.
type filterSegment struct {
	category board.Category
	x        int
	width    int
}

// openPicker opens category's dropdown; opening the open one closes it.
func (m *Model) openPicker(category board.Category) {
	if m.mode == modePicker && m.picker == category {
		m.closePicker()
		return
	}
	m.mode = modePicker
	m.picker = category
	m.pickerCursor = 0
	m.status = strings.ToLower(pickerTitles[category]) + " filter"
}

// closePicker closes the open dropdown.
func (m *Model) closePicker() {
	m.mode = modeNone
	m.status = "ready"
}

// pickerOptions lists the selectable values for category in display order.
func (m Model) pickerOptions(category board.Category) []string {
	switch category {
	case board.CategoryPriorities:
		priorities := domain.Priorities()
		out := make([]string, 0, len(priorities))
		for _, p := range priorities {
			out = append(out, string(p))
		}
		return out
	case board.CategoryStatuses:
		statuses := domain.CanonicalStatuses()
		out := make([]string, 0, len(statuses))
		for _, s := range statuses {
			out = append(out, string(s))
		}
		return out
	case board.CategoryDomains:
		return append([]string(nil), m.domains...)
	default:
		return nil
	}
}

// optionLabel returns the display text for one picker value.
func (m Model) optionLabel(category board.Category, value string) string {
	if category == board.CategoryStatuses {
		return m.statusLabel(domain.Status(value))
	}
	return value
}

// toggleCurrentOption flips the highlighted picker value and regroups.
func (m *Model) toggleCurrentOption() {
	options := m.pickerOptions(m.picker)
	if len(options) == 0 {
		return
	}
	value := options[clamp(m.pickerCursor, 0, len(options)-1)]
	m.filter.Toggle(m.picker, value)
	m.rebuildBoard()
	if m.filter.Has(m.picker, value) {
		m.status = "filter + " + value
	} else {
		m.status = "filter - " + value
	}
}

// handlePickerKey handles keys while a dropdown is open.
func (m Model) handlePickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	options := m.pickerOptions(m.picker)
	switch {
	case msg.String() == "esc":
		m.closePicker()
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.priorityPicker):
		m.openPicker(board.CategoryPriorities)
	case key.Matches(msg, m.keys.statusPicker):
		m.openPicker(board.CategoryStatuses)
	case key.Matches(msg, m.keys.domainPicker):
		m.openPicker(board.CategoryDomains)
	case key.Matches(msg, m.keys.moveUp):
		m.pickerCursor = clamp(m.pickerCursor-1, 0, len(options)-1)
	case key.Matches(msg, m.keys.moveDown):
		m.pickerCursor = clamp(m.pickerCursor+1, 0, len(options)-1)
	case key.Matches(msg, m.keys.toggleOption):
		m.toggleCurrentOption()
	case key.Matches(msg, m.keys.reset):
		m.resetFilters()
	}
	return m, nil
}

// pickerButtonText returns the plain button text for category, with its count badge.
func (m Model) pickerButtonText(category board.Category) string {
	binding := m.keys.priorityPicker
	switch category {
	case board.CategoryStatuses:
		binding = m.keys.statusPicker
	case board.CategoryDomains:
		binding = m.keys.domainPicker
	}
	text := binding.Help().Key + " " + pickerTitles[category]
	if n := m.filter.CountFor(category); n > 0 {
		text += fmt.Sprintf(" (%d)", n)
	}
	return text + " ▾"
}

// filterSegments lays out picker buttons left to right.
func (m Model) filterSegments() []filterSegment {
	out := make([]filterSegment, 0, 3)
	x := 0
	for _, category := range board.Categories() {
		w := lipgloss.Width(m.pickerButtonText(category)) + 2
		out = append(out, filterSegment{category: category, x: x, width: w})
		x += w + lipgloss.Width(filterBarGap)
	}
	return out
}

// filterBarShown reports whether the header rows, and so the filter bar, are drawn.
func (m Model) filterBarShown() bool {
	return m.view == ViewBoard || (m.navbar.visible && !m.navbar.compact)
}

// pickerAt returns the picker button under a screen cell.
func (m Model) pickerAt(x, y int) (board.Category, bool) {
	if y != filterBarRow || !m.filterBarShown() {
		return "", false
	}
	for _, seg := range m.filterSegments() {
		if x >= seg.x && x < seg.x+seg.width {
			return seg.category, true
		}
	}
	return "", false
}

// pickerOrigin returns the top-left cell of the open dropdown.
func (m Model) pickerOrigin() (int, int) {
	for _, seg := range m.filterSegments() {
		if seg.category == m.picker {
			return seg.x, filterBarRow + 1
		}
	}
	return 0, filterBarRow + 1
}

// renderFilterBar renders picker buttons plus the reset control.
func (m Model) renderFilterBar(accent, muted, dim color.Color) string {
	button := lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("252"))
	active := button.Foreground(accent).Bold(true)
	open := button.Foreground(lipgloss.Color("230")).Background(accent).Bold(true)

	parts := make([]string, 0, 4)
	for _, category := range board.Categories() {
		text := m.pickerButtonText(category)
		switch {
		case m.mode == modePicker && m.picker == category:
			parts = append(parts, open.Render(text))
		case m.filter.CountFor(category) > 0:
			parts = append(parts, active.Render(text))
		default:
			parts = append(parts, button.Render(text))
		}
	}
	resetText := "⟲ " + m.keys.reset.Help().Key + " reset"
	if m.filter.ActiveCount() == 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(dim).Render(resetText))
	} else {
		parts = append(parts, lipgloss.NewStyle().Foreground(muted).Render(resetText))
	}
	return strings.Join(parts, filterBarGap)
}

// renderPicker renders the open dropdown list.
func (m Model) renderPicker(accent, muted, dim color.Color) string {
	options := m.pickerOptions(m.picker)
	lines := make([]string, 0, len(options))
	cursorStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)
	for idx, value := range options {
		mark := "[ ]"
		if m.filter.Has(m.picker, value) {
			mark = "[x]"
		}
		line := mark + " " + m.optionLabel(m.picker, value)
		if idx == m.pickerCursor {
			lines = append(lines, cursorStyle.Render("› "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	if len(lines) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("(no options)"))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
