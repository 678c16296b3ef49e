package board

import (
	"sync"

	"github.com/evanschultz/missionctl/internal/domain"
)

// Grouper memoizes the last Build result keyed on an item revision and filter key.
// Callers bump the revision whenever the item list changes.
type Grouper struct {
	mu       sync.Mutex
	valid    bool
	revision uint64
	key      string
	board    Board
	hits     int
	misses   int
}

// NewGrouper returns an empty memoizing grouper.
func NewGrouper() *Grouper {
	return &Grouper{}
}

// Build returns the cached board when revision and state match the last call.
func (g *Grouper) Build(revision uint64, items []domain.WorkItem, state FilterState) Board {
	if g == nil {
		return Build(items, state)
	}
	key := state.Key()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.valid && g.revision == revision && g.key == key {
		g.hits++
		return g.board
	}
	g.misses++
	g.board = Build(items, state)
	g.revision = revision
	g.key = key
	g.valid = true
	return g.board
}

// Invalidate drops the cached board.
func (g *Grouper) Invalidate() {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.valid = false
	g.board = Board{}
}

// Stats returns cache hit and miss counts.
func (g *Grouper) Stats() (hits, misses int) {
	if g == nil {
		return 0, 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hits, g.misses
}
