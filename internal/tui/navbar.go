package tui

// Grid scroll offsets, in rows, at which the header compacts and may hide.
const (
	navbarCompactAfter = 1
	navbarHideAfter    = 5
)

// navbarState tracks header visibility from grid scroll direction.
type navbarState struct {
	visible    bool
	compact    bool
	lastOffset int
}

// newNavbarState returns the state at the top of the grid.
func newNavbarState() navbarState {
	return navbarState{visible: true}
}

// observe returns the state after the grid scrolled to offset.
// Scrolling down past navbarHideAfter hides the header; any upward or
// shallow scroll shows it again.
func (s navbarState) observe(offset int) navbarState {
	return navbarState{
		visible:    !(offset > s.lastOffset && offset > navbarHideAfter),
		compact:    offset > navbarCompactAfter,
		lastOffset: offset,
	}
}
