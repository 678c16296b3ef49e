// Package board holds the pure filter, search, and grouping rules behind the mission board.
package board

import (
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Category names one multi-select filter dimension.
type Category string

// Filter categories.
const (
	CategoryPriorities Category = "priorities"
	CategoryStatuses   Category = "statuses"
	CategoryDomains    Category = "domains"
)

var categories = []Category{CategoryPriorities, CategoryStatuses, CategoryDomains}

// Categories returns the filter categories in picker order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return slices.Contains(categories, c)
}

// FilterState is the user's current search text plus selected values per category.
// An empty set means that dimension is unfiltered. The zero value is an empty filter.
//
// Mutations swap in a fresh set instead of editing the old one, so copies of a
// FilterState never observe each other's changes.
type FilterState struct {
	search     string
	priorities map[string]struct{}
	statuses   map[string]struct{}
	domains    map[string]struct{}
}

// NewFilterState returns an empty filter.
func NewFilterState() FilterState {
	return FilterState{}
}

// SearchQuery returns the stored search text verbatim.
func (s FilterState) SearchQuery() string {
	return s.search
}

// SetSearch stores text verbatim; no trimming or case folding happens here.
func (s *FilterState) SetSearch(text string) {
	s.search = text
}

// Toggle adds value to the category's set when absent and removes it when present.
// Other categories are untouched. Unknown categories are ignored.
func (s *FilterState) Toggle(category Category, value string) {
	current := s.set(category)
	if current == nil && !category.Valid() {
		return
	}
	next := make(map[string]struct{}, len(current)+1)
	for v := range current {
		next[v] = struct{}{}
	}
	if _, ok := next[value]; ok {
		delete(next, value)
	} else {
		next[value] = struct{}{}
	}
	s.assign(category, next)
}

// Reset clears every selected value and the search text in one step.
func (s *FilterState) Reset() {
	*s = FilterState{}
}

// Has reports whether value is selected in category.
func (s FilterState) Has(category Category, value string) bool {
	_, ok := s.set(category)[value]
	return ok
}

// Selected returns the category's selected values, sorted.
func (s FilterState) Selected(category Category) []string {
	set := s.set(category)
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// CountFor returns how many values are selected in category.
func (s FilterState) CountFor(category Category) int {
	return len(s.set(category))
}

// ActiveCount returns the number of selected values across all categories.
// Search text is not counted.
func (s FilterState) ActiveCount() int {
	return len(s.priorities) + len(s.statuses) + len(s.domains)
}

// IsZero reports whether the state equals a freshly created filter.
func (s FilterState) IsZero() bool {
	return s.search == "" && s.ActiveCount() == 0
}

// Equal compares two states by content.
func (s FilterState) Equal(other FilterState) bool {
	if s.search != other.search {
		return false
	}
	for _, category := range categories {
		if !maps.Equal(s.set(category), other.set(category)) {
			return false
		}
	}
	return true
}

// Key returns a canonical encoding of the state, stable across set iteration order.
// Every part is length-prefixed, so distinct states never share a key whatever bytes
// the search text or values hold.
func (s FilterState) Key() string {
	var b strings.Builder
	writePart(&b, s.search)
	for _, category := range categories {
		values := s.Selected(category)
		b.WriteString("|")
		b.WriteString(string(category))
		b.WriteString(strconv.Itoa(len(values)))
		for _, v := range values {
			writePart(&b, v)
		}
	}
	return b.String()
}

func writePart(b *strings.Builder, v string) {
	b.WriteString(strconv.Itoa(len(v)))
	b.WriteString(":")
	b.WriteString(v)
}

func (s FilterState) set(category Category) map[string]struct{} {
	switch category {
	case CategoryPriorities:
		return s.priorities
	case CategoryStatuses:
		return s.statuses
	case CategoryDomains:
		return s.domains
	default:
		return nil
	}
}

func (s *FilterState) assign(category Category, set map[string]struct{}) {
	if len(set) == 0 {
		set = nil
	}
	switch category {
	case CategoryPriorities:
		s.priorities = set
	case CategoryStatuses:
		s.statuses = set
	case CategoryDomains:
		s.domains = set
	}
}
