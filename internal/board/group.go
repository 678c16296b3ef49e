package board

import (
	"strings"

	"github.com/evanschultz/missionctl/internal/domain"
)

// Column is one status lane of the board.
type Column struct {
	Status domain.Status     `json:"status"`
	Items  []domain.WorkItem `json:"items"`
}

// Empty reports whether the column holds no items.
func (c Column) Empty() bool {
	return len(c.Items) == 0
}

// Board is the derived view for one item list and filter.
type Board struct {
	// Items is the filtered list in input order.
	Items []domain.WorkItem `json:"items"`
	// Columns always has one entry per canonical status.
	Columns []Column `json:"columns"`
	// Excluded holds filtered items whose status matches no column.
	Excluded []domain.WorkItem `json:"excluded"`
}

// Matches reports whether one item passes every active criterion of state.
func Matches(item domain.WorkItem, state FilterState) bool {
	if q := state.SearchQuery(); q != "" {
		if !strings.Contains(strings.ToLower(item.Title), strings.ToLower(q)) {
			return false
		}
	}
	if state.CountFor(CategoryPriorities) > 0 && !state.Has(CategoryPriorities, string(item.Priority)) {
		return false
	}
	if state.CountFor(CategoryStatuses) > 0 && !state.Has(CategoryStatuses, string(item.Status)) {
		return false
	}
	if state.CountFor(CategoryDomains) > 0 && !state.Has(CategoryDomains, item.Domain) {
		return false
	}
	return true
}

// Filter returns the items passing state, preserving input order. items is not modified.
func Filter(items []domain.WorkItem, state FilterState) []domain.WorkItem {
	out := make([]domain.WorkItem, 0, len(items))
	for _, item := range items {
		if Matches(item, state) {
			out = append(out, item)
		}
	}
	return out
}

// Group buckets filtered items into the five canonical columns.
// Non-empty columns come first, then empty ones; each group keeps canonical order.
// Items with an unrecognized status are left out of every column.
func Group(filtered []domain.WorkItem) []Column {
	columns, _ := group(filtered)
	return columns
}

// Build filters and groups in one pass and reports unplaced items.
func Build(items []domain.WorkItem, state FilterState) Board {
	filtered := Filter(items, state)
	columns, excluded := group(filtered)
	return Board{
		Items:    filtered,
		Columns:  columns,
		Excluded: excluded,
	}
}

func group(filtered []domain.WorkItem) ([]Column, []domain.WorkItem) {
	statuses := domain.CanonicalStatuses()
	buckets := make([][]domain.WorkItem, len(statuses))
	excluded := []domain.WorkItem{}
	for _, item := range filtered {
		idx := item.Status.Index()
		if idx < 0 {
			excluded = append(excluded, item)
			continue
		}
		buckets[idx] = append(buckets[idx], item)
	}

	nonEmpty := make([]Column, 0, len(statuses))
	empty := make([]Column, 0, len(statuses))
	for idx, status := range statuses {
		col := Column{Status: status, Items: buckets[idx]}
		if col.Items == nil {
			col.Items = []domain.WorkItem{}
		}
		if col.Empty() {
			empty = append(empty, col)
			continue
		}
		nonEmpty = append(nonEmpty, col)
	}
	return append(nonEmpty, empty...), excluded
}

// Stats counts headline statuses across items.
func Stats(items []domain.WorkItem) domain.MissionStats {
	stats := domain.MissionStats{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case domain.StatusBacklog:
			stats.Backlog++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusDone:
			stats.Done++
		}
	}
	return stats
}
