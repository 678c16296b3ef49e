package tui

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/missionctl/internal/domain"
	"github.com/evanschultz/missionctl/internal/render"
)

// EmptyColumnMessage fills a board column with no items.
const EmptyColumnMessage = "All Clear"

// columnOverhead is the per-column border (2), horizontal padding (2), and margin-right (1).
const columnOverhead = 5

// minBodyHeight keeps the board usable on short terminals.
const minBodyHeight = 8

var priorityColors = map[domain.Priority]color.Color{
	domain.PriorityHigh:   lipgloss.Color("203"),
	domain.PriorityNormal: lipgloss.Color("75"),
	domain.PriorityLow:    lipgloss.Color("245"),
}

func priorityColor(p domain.Priority) color.Color {
	if c, ok := priorityColors[p]; ok {
		return c
	}
	return lipgloss.Color("245")
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	top := make([]string, 0, 4)
	if m.headerShown() {
		top = append(top, m.renderHeader(accent, muted, dim))
		if m.filterBarShown() {
			top = append(top, m.renderFilterBar(accent, muted, dim), m.renderStatCards(muted, dim))
		}
		top = append(top, "")
	}

	bottom := make([]string, 0, 2)
	if n := len(m.board.Excluded); n > 0 {
		bottom = append(bottom, lipgloss.NewStyle().Foreground(lipgloss.Color("221")).Render("⚠ "+render.HiddenNotice(n)))
	}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		bottom = append(bottom, statusStyle.Render(m.status))
	}

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	topContent := strings.Join(top, "\n")
	used := lipgloss.Height(helpLine) + len(bottom)
	if len(top) > 0 {
		used += lipgloss.Height(topContent)
	}
	bodyHeight := max(minBodyHeight, m.height-used)

	var body string
	if m.view == ViewGrid {
		body = m.renderGrid(muted, bodyHeight)
	} else {
		body = m.renderBoard(accent, muted, dim, bodyHeight)
	}

	sections := make([]string, 0, 3)
	if len(top) > 0 {
		sections = append(sections, topContent)
	}
	sections = append(sections, body)
	sections = append(sections, bottom...)
	content := strings.Join(sections, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	height := lipgloss.Height(fullContent)
	if m.height > 0 {
		height = m.height
	}
	width := max(1, m.width)
	switch {
	case m.help.ShowAll:
		fullContent = overlayOnContent(fullContent, m.renderHelpOverlay(accent, muted, dim, m.width-8), width, height)
	case m.mode == modePicker:
		x, y := m.pickerOrigin()
		fullContent = overlayAt(fullContent, m.renderPicker(accent, muted, dim), x, y, width, height)
	case m.mode == modeReviewers:
		fullContent = overlayOnContent(fullContent, m.renderReviewers(accent, muted, dim, m.width-8), width, height)
	case m.mode == modeContributor:
		fullContent = overlayOnContent(fullContent, m.renderContributor(accent, muted, dim, m.width-8), width, height)
	case m.mode == modePulse:
		log := m.renderPulseLog(accent, muted, dim, m.width/2)
		fullContent = overlayAt(fullContent, log, max(0, m.width-lipgloss.Width(log)), 1, width, height)
	}

	view := tea.NewView(fullContent)
	view.MouseMode = tea.MouseModeCellMotion
	view.AltScreen = true
	return view
}

// headerShown reports whether the header row is drawn; the grid hides it while scrolling down.
func (m Model) headerShown() bool {
	return m.view == ViewBoard || m.navbar.visible
}

// renderHeader renders the title row with search state and the pulse ticker.
func (m Model) renderHeader(accent, muted, dim color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	left := titleStyle.Render("missionctl") + statusStyle.Render("  ["+string(m.view)+"]")
	switch {
	case m.mode == modeSearch:
		left += "  " + m.searchInput.View()
	case m.filter.SearchQuery() != "":
		left += statusStyle.Render("  search: " + truncate(m.filter.SearchQuery(), 32))
	}
	if n := m.filter.ActiveCount(); n > 0 {
		left += statusStyle.Render(fmt.Sprintf("  filters: %d", n))
	}
	left += statusStyle.Render(fmt.Sprintf("  %d/%d items", len(m.board.Items), len(m.items)))

	pulse := m.renderPulse(accent, muted)
	if pulse == "" || m.width <= 0 {
		return left
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(pulse)
	if gap < 2 {
		return left
	}
	return left + strings.Repeat(" ", gap) + pulse
}

// statusLabel returns the configured or default heading for status.
func (m Model) statusLabel(status domain.Status) string {
	if label, ok := m.columnLabels[status]; ok {
		return label
	}
	return domain.StatusLabel(status)
}

// renderBoard renders the status columns side by side.
func (m Model) renderBoard(accent, muted, dim color.Color, height int) string {
	cols := m.visibleColumns()
	colWidth := m.columnWidthFor(m.width, len(cols))
	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginRight(1).
		Width(colWidth)
	selColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(muted).Italic(true)

	innerHeight := max(1, height-2)
	columnViews := make([]string, 0, len(cols))
	for colIdx, column := range cols {
		headerLines := []string{colTitle.Render(fmt.Sprintf("%s (%d)", m.statusLabel(column.Status), len(column.Items))), ""}
		itemLines := make([]string, 0, len(column.Items)*4)
		selectedStart, selectedEnd := -1, -1
		if column.Empty() {
			itemLines = append(itemLines, emptyStyle.Render("✓ "+EmptyColumnMessage))
		}
		for itemIdx, item := range column.Items {
			selected := colIdx == m.selectedColumn && itemIdx == m.selectedItem
			start := len(itemLines)
			itemLines = append(itemLines, m.renderCard(item, colWidth, selected, muted)...)
			if selected {
				selectedStart, selectedEnd = start, len(itemLines)-1
			}
			if itemIdx < len(column.Items)-1 {
				itemLines = append(itemLines, "")
			}
		}

		window := max(1, innerHeight-len(headerLines))
		scrollTop := 0
		if selectedStart >= 0 {
			if selectedEnd >= scrollTop+window {
				scrollTop = selectedEnd - window + 1
			}
			if selectedStart < scrollTop {
				scrollTop = selectedStart
			}
		}
		scrollTop = clamp(scrollTop, 0, max(0, len(itemLines)-window))
		if len(itemLines) > window {
			itemLines = itemLines[scrollTop : scrollTop+window]
		}

		lines := append(append([]string{}, headerLines...), itemLines...)
		content := fitLines(strings.Join(lines, "\n"), innerHeight)
		if colIdx == m.selectedColumn {
			columnViews = append(columnViews, selColStyle.Render(content))
		} else {
			columnViews = append(columnViews, baseColStyle.Render(content))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderCard renders one mission card as three lines.
func (m Model) renderCard(item domain.WorkItem, width int, selected bool, muted color.Color) []string {
	prefix := "  "
	if selected {
		prefix = "│ "
	}
	inner := max(4, width-2)
	badge := ""
	if !m.hidePriority {
		badge = lipgloss.NewStyle().Bold(true).Foreground(priorityColor(item.Priority)).Render(strings.ToUpper(string(item.Priority)))
	}
	number := lipgloss.NewStyle().Foreground(muted).Render(item.DisplayNumber())
	head := badge + strings.Repeat(" ", max(1, inner-lipgloss.Width(badge)-lipgloss.Width(number))) + number

	title := truncate(item.Title, inner)
	if selected {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Render(title)
	} else {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Render(title)
	}

	marker := "(?)"
	if item.Assignee != nil && item.Assignee.Login != "" {
		marker = "(" + strings.ToUpper(string([]rune(item.Assignee.Login)[:1])) + ")"
	}
	foot := truncate(marker+" "+domain.KindGlyph(item.Kind)+" "+item.AssigneeLogin(), inner)
	if item.URL != "" {
		foot = truncate(foot+" ↗", inner)
	}
	return []string{
		prefix + head,
		prefix + title,
		prefix + lipgloss.NewStyle().Foreground(muted).Render(foot),
	}
}

// gridWidths holds fixed grid column widths; the title column takes the rest.
var gridWidths = struct {
	number, labels, status, priority, assignee, domain int
}{number: 8, labels: 22, status: 14, priority: 8, assignee: 12, domain: 10}

// renderGrid renders the filtered items as a scrollable data grid.
func (m Model) renderGrid(muted color.Color, height int) string {
	w := gridWidths
	if m.hidePriority {
		w.priority = 0
	}
	fixed := w.number + w.labels + w.status + w.priority + w.assignee + w.domain
	titleWidth := max(10, m.width-fixed-8)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(muted)
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)

	row := func(cells ...string) string {
		kept := cells[:0]
		for _, c := range cells {
			if c != "" {
				kept = append(kept, c)
			}
		}
		return strings.Join(kept, " ")
	}
	priorityHeader := ""
	if !m.hidePriority {
		priorityHeader = padCell("Priority", w.priority)
	}
	header := headerStyle.Render(row(
		padCell("#", w.number), padCell("Title", titleWidth), padCell("Labels", w.labels),
		padCell("Status", w.status), priorityHeader, padCell("Assignee", w.assignee), padCell("Domain", w.domain),
	))
	lines := []string{" " + header}
	if len(m.board.Items) == 0 {
		lines = append(lines, " "+lipgloss.NewStyle().Foreground(muted).Italic(true).Render(render.EmptyGridMessage))
		return fitLines(strings.Join(lines, "\n"), height)
	}

	rows := max(1, height-1)
	offset := m.gridOffset
	if m.gridSelected >= offset+rows {
		offset = m.gridSelected - rows + 1
	}
	if m.gridSelected < offset {
		offset = m.gridSelected
	}
	offset = clamp(offset, 0, max(0, len(m.board.Items)-rows))
	for idx := offset; idx < len(m.board.Items) && idx < offset+rows; idx++ {
		item := m.board.Items[idx]
		labels, hidden := item.VisibleLabels(m.labelsShown)
		labelCell := strings.Join(labels, ", ")
		if hidden > 0 {
			labelCell += fmt.Sprintf(" +%d", hidden)
		}
		assignee := "Unassigned"
		if item.Assignee != nil && item.Assignee.Login != "" {
			assignee = item.Assignee.Login
		}
		priority := ""
		if !m.hidePriority {
			priority = lipgloss.NewStyle().Foreground(priorityColor(item.Priority)).Render(padCell(string(item.Priority), w.priority))
		}
		text := row(
			padCell(item.DisplayNumber(), w.number), padCell(item.Title, titleWidth), padCell(labelCell, w.labels),
			padCell(domain.ItemGlyph(item)+" "+string(item.Status), w.status), priority,
			padCell(assignee, w.assignee), padCell(item.Domain, w.domain),
		)
		if idx == m.gridSelected {
			lines = append(lines, selectedStyle.Render("›")+text)
			continue
		}
		lines = append(lines, " "+text)
	}
	return fitLines(strings.Join(lines, "\n"), height)
}

// renderHelpOverlay renders the full key reference.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("missionctl help")
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Workflows"),
		"1. " + m.keys.search.Help().Key + " search titles; typing refilters live • ctrl+u clears • enter/esc leaves",
		"2. 1/2/3 open priority/status/domain; space toggles; esc closes",
		"3. " + m.keys.reset.Help().Key + " resets search and filters once any picker value is selected",
		"4. " + m.keys.toggleView.Help().Key + " switches board and grid; the grid header hides while scrolling down",
		"5. c reviewers • enter contributor details • p pauses the pulse and shows history",
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// columnWidthFor returns column width for n columns across boardWidth.
func (m Model) columnWidthFor(boardWidth, n int) int {
	if n <= 0 {
		return 24
	}
	w := 28
	if boardWidth > 0 {
		usable := boardWidth - n*columnOverhead
		if candidate := usable / n; candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, 16, 42)
}

// padCell truncates or pads s to exactly width cells.
func padCell(s string, width int) string {
	s = truncate(s, width)
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay over base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	return composeLayers(base, centered, 0, 0, width, height)
}

// overlayAt draws overlay with its top-left corner at x, y over base.
func overlayAt(base, overlay string, x, y, width, height int) string {
	if width <= 0 || height <= 0 {
		return overlay + "\n" + base
	}
	return composeLayers(base, overlay, x, y, width, height)
}

func composeLayers(base, overlay string, x, y, width, height int) string {
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(overlay).X(x).Y(y).Z(10))
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
