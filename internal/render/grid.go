// Package render prints mission data as terminal tables for non-interactive commands.
package render

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/evanschultz/missionctl/internal/board"
	"github.com/evanschultz/missionctl/internal/domain"
)

// EmptyGridMessage fills the grid when no item matches the filters.
const EmptyGridMessage = "No items match"

// DefaultLabelsShown caps labels listed per grid row.
const DefaultLabelsShown = 3

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))

	priorityStyles = map[domain.Priority]lipgloss.Style{
		domain.PriorityHigh:   lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("203")),
		domain.PriorityNormal: lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("221")),
		domain.PriorityLow:    lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("114")),
	}
)

var gridHeaders = []string{"#", "Title", "Labels", "Status", "Priority", "Assignee", "Domain"}

// priorityColumn is the grid column index styled by priority tone.
const priorityColumn = 4

// GridOptions tunes grid output.
type GridOptions struct {
	LabelsShown int
	// HidePriority drops the Priority column.
	HidePriority bool
	// Plain disables colors for piped output and tests.
	Plain bool
}

// Grid renders items as the data grid table in the given order.
func Grid(items []domain.WorkItem, opts GridOptions) string {
	labelsShown := opts.LabelsShown
	if labelsShown <= 0 {
		labelsShown = DefaultLabelsShown
	}
	keep := func(cells []string) []string {
		if !opts.HidePriority {
			return cells
		}
		return slices.Delete(cells, priorityColumn, priorityColumn+1)
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, keep([]string{
			item.DisplayNumber(),
			item.Title,
			labelsCell(item, labelsShown),
			domain.ItemGlyph(item) + " " + string(item.Status),
			string(item.Priority),
			assigneeCell(item),
			item.Domain,
		}))
	}

	headers := keep(slices.Clone(gridHeaders))
	t := newTable(headers, opts.Plain)
	if len(rows) == 0 {
		if !opts.Plain {
			t.StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle.Padding(0, 1)
				}
				return mutedStyle
			})
		}
		empty := make([]string, len(headers))
		empty[1] = EmptyGridMessage
		t.Row(empty...)
		return t.String()
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if opts.Plain {
			return cellStyle
		}
		if row == table.HeaderRow {
			return headerStyle.Padding(0, 1)
		}
		if !opts.HidePriority && col == priorityColumn && row >= 0 && row < len(items) {
			if style, ok := priorityStyles[items[row].Priority]; ok {
				return style
			}
		}
		return cellStyle
	})
	t.Rows(rows...)
	return t.String()
}

// Columns renders per-column counts in board order, plus a hidden line for excluded items.
func Columns(b board.Board, labels map[domain.Status]string, plain bool) string {
	t := newTable([]string{"Column", "Items"}, plain)
	for _, col := range b.Columns {
		label := labels[col.Status]
		if strings.TrimSpace(label) == "" {
			label = domain.StatusLabel(col.Status)
		}
		t.Row(label, strconv.Itoa(len(col.Items)))
	}
	out := t.String()
	if len(b.Excluded) > 0 {
		out += "\n" + HiddenNotice(len(b.Excluded))
	}
	return out
}

// Stats renders whole-dataset and filtered mission stats side by side.
func Stats(all, filtered domain.MissionStats, plain bool) string {
	t := newTable([]string{"", "Total", "Backlog", "In Progress", "Done"}, plain)
	t.Row("all", strconv.Itoa(all.Total), strconv.Itoa(all.Backlog), strconv.Itoa(all.InProgress), strconv.Itoa(all.Done))
	t.Row("filtered", strconv.Itoa(filtered.Total), strconv.Itoa(filtered.Backlog), strconv.Itoa(filtered.InProgress), strconv.Itoa(filtered.Done))
	return t.String()
}

// HiddenNotice describes items excluded for carrying an unknown status.
func HiddenNotice(n int) string {
	if n == 1 {
		return "1 item with unknown status hidden"
	}
	return fmt.Sprintf("%d items with unknown status hidden", n)
}

func newTable(headers []string, plain bool) *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...)
	if plain {
		return t.StyleFunc(func(_, _ int) lipgloss.Style { return cellStyle })
	}
	return t.
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
}

func labelsCell(item domain.WorkItem, n int) string {
	labels, hidden := item.VisibleLabels(n)
	cell := strings.Join(labels, ", ")
	if hidden > 0 {
		cell += fmt.Sprintf(" +%d", hidden)
	}
	return cell
}

func assigneeCell(item domain.WorkItem) string {
	if item.Assignee == nil || strings.TrimSpace(item.Assignee.Login) == "" {
		return "Unassigned"
	}
	return item.Assignee.Login
}
