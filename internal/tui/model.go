package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/missionctl/internal/app"
	"github.com/evanschultz/missionctl/internal/board"
	"github.com/evanschultz/missionctl/internal/domain"
)

// Service represents service data used by this package.
type Service interface {
	ListItems(context.Context) ([]domain.WorkItem, error)
	Revision(context.Context) (uint64, error)
	ReviewerMetrics(context.Context) (domain.ReviewerMetrics, error)
	PulseEvents(context.Context, int) ([]domain.PulseEvent, error)
	Contributor(context.Context, string) (domain.Contributor, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeSearch
	modePicker
	modeReviewers
	modeContributor
	modePulse
)

// pulseHistoryLimit caps events loaded for the pulse feed.
const pulseHistoryLimit = 20

type nopLogger struct{}

func (nopLogger) Info(any, ...any) {}
func (nopLogger) Warn(any, ...any) {}

// Model is the mission control bubbletea model.
type Model struct {
	svc    Service
	logger Logger
	now    func() time.Time

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	view             View
	hideEmptyColumns bool
	hidePriority     bool
	labelsShown      int
	columnLabels     map[domain.Status]string
	domains          []string

	loaded    bool
	items     []domain.WorkItem
	revision  uint64
	grouper   *board.Grouper
	filter    board.FilterState
	board     board.Board
	stats     domain.MissionStats
	prevStats domain.MissionStats
	excluded  int

	selectedColumn int
	selectedItem   int
	gridSelected   int
	gridOffset     int
	navbar         navbarState

	mode         inputMode
	searchInput  textinput.Model
	picker       board.Category
	pickerCursor int

	reviewers     domain.ReviewerMetrics
	reviewerIndex int
	contributor   domain.Contributor
	markdown      *markdownRenderer

	events          []domain.PulseEvent
	pulseIndex      int
	pulseInterval   time.Duration
	pulseGeneration int
	pulseFocused    bool

	feedChanges <-chan struct{}
	reloadFeed  ReloadFeedFunc
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	items     []domain.WorkItem
	revision  uint64
	reviewers domain.ReviewerMetrics
	events    []domain.PulseEvent
	err       error
}

// contributorLoadedMsg carries the contributor opened from the reviewers panel.
type contributorLoadedMsg struct {
	login       string
	contributor domain.Contributor
	err         error
}

// pulseTickMsg advances the pulse when its generation is still current.
type pulseTickMsg struct {
	generation int
}

// feedChangedMsg reports one watched feed change after it was re-imported.
type feedChangedMsg struct {
	err error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := textinput.New()
	searchInput.Prompt = "search: "
	searchInput.Placeholder = "title contains..."
	searchInput.CharLimit = 120
	defaults := DefaultBoardConfig()
	m := Model{
		svc:         svc,
		logger:      nopLogger{},
		now:         time.Now,
		status:      "loading...",
		help:        h,
		keys:        newKeyMap(),
		view:        defaults.View,
		labelsShown: defaults.LabelsShown,
		domains:     defaults.Domains,
		grouper:     board.NewGrouper(),
		filter:      board.NewFilterState(),
		navbar:      newNavbarState(),
		searchInput: searchInput,
		reviewers:   domain.DefaultReviewerMetrics(),
		markdown:    &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.rebuildBoard()
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadData}
	if cmd := m.pulseTickCmd(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := m.waitForFeedChange(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.clampSelections()
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.prevStats = m.stats
		if !m.loaded {
			m.prevStats = board.Stats(msg.items)
		}
		m.loaded = true
		m.items = msg.items
		m.revision = msg.revision
		m.reviewers = msg.reviewers
		m.events = msg.events
		m.pulseIndex = clamp(m.pulseIndex, 0, len(m.events)-1)
		m.reviewerIndex = clamp(m.reviewerIndex, 0, len(m.reviewers.TopReviewers)-1)
		m.stats = board.Stats(m.items)
		m.rebuildBoard()
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case contributorLoadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrNotFound) {
				m.status = "no details for " + msg.login
			} else {
				m.status = "contributor unavailable: " + msg.err.Error()
			}
			return m, nil
		}
		m.contributor = msg.contributor
		m.mode = modeContributor
		m.status = "contributor " + msg.contributor.Login
		return m, nil

	case pulseTickMsg:
		if msg.generation != m.pulseGeneration || m.pulseFocused || m.pulseInterval <= 0 {
			return m, nil
		}
		if len(m.events) > 0 {
			m.pulseIndex = (m.pulseIndex + 1) % len(m.events)
		}
		return m, m.pulseTickCmd()

	case feedChangedMsg:
		next := m.waitForFeedChange()
		if msg.err != nil {
			m.status = "feed reload failed: " + msg.err.Error()
			m.logger.Warn("feed reload failed", "err", msg.err)
			return m, next
		}
		m.status = "feed reloaded"
		m.logger.Info("feed reloaded")
		if next == nil {
			return m, m.loadData
		}
		return m, tea.Batch(m.loadData, next)

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.PasteMsg:
		if m.mode != modeSearch {
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.applySearch()
		return m, cmd

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	default:
		return m, nil
	}
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	revision, err := m.svc.Revision(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	items, err := m.svc.ListItems(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	reviewers, err := m.svc.ReviewerMetrics(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	events, err := m.svc.PulseEvents(ctx, pulseHistoryLimit)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{
		items:     items,
		revision:  revision,
		reviewers: reviewers,
		events:    events,
	}
}

// loadContributor loads the contributor details for login.
func (m Model) loadContributor(login string) tea.Cmd {
	return func() tea.Msg {
		c, err := m.svc.Contributor(context.Background(), login)
		return contributorLoadedMsg{login: login, contributor: c, err: err}
	}
}

// waitForFeedChange blocks until the watched feed changes, then re-imports it.
func (m Model) waitForFeedChange() tea.Cmd {
	if m.feedChanges == nil {
		return nil
	}
	changes, reload := m.feedChanges, m.reloadFeed
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		if reload == nil {
			return feedChangedMsg{}
		}
		return feedChangedMsg{err: reload(context.Background())}
	}
}

// rebuildBoard regroups the loaded items under the current filter.
func (m *Model) rebuildBoard() {
	m.board = m.grouper.Build(m.revision, m.items, m.filter)
	if n := len(m.board.Excluded); n != m.excluded {
		if n > 0 {
			m.logger.Warn("items with unrecognized status hidden", "count", n)
		}
		m.excluded = n
	}
	m.clampSelections()
}

// handleNormalModeKey handles normal mode key.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case msg.String() == "esc" || key.Matches(msg, m.keys.toggleHelp):
			m.help.ShowAll = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case m.err != nil:
		return m, nil
	case key.Matches(msg, m.keys.search):
		return m, m.startSearchMode()
	case key.Matches(msg, m.keys.reset):
		m.resetFilters()
		return m, nil
	case key.Matches(msg, m.keys.toggleView):
		m.toggleView()
		return m, nil
	case key.Matches(msg, m.keys.priorityPicker):
		m.openPicker(board.CategoryPriorities)
		return m, nil
	case key.Matches(msg, m.keys.statusPicker):
		m.openPicker(board.CategoryStatuses)
		return m, nil
	case key.Matches(msg, m.keys.domainPicker):
		m.openPicker(board.CategoryDomains)
		return m, nil
	case key.Matches(msg, m.keys.reviewers):
		m.mode = modeReviewers
		m.status = "reviewers"
		return m, nil
	case key.Matches(msg, m.keys.pulse):
		return m, m.setPulseFocus(true)
	case key.Matches(msg, m.keys.moveLeft):
		if m.view == ViewBoard && m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedItem = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.view == ViewBoard && m.selectedColumn < len(m.visibleColumns())-1 {
			m.selectedColumn++
			m.selectedItem = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.moveSelection(-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.moveSelection(1)
		return m, nil
	default:
		return m, nil
	}
}

// handleInputModeKey handles keys while a mode owns input.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modePicker:
		return m.handlePickerKey(msg)
	case modeReviewers:
		return m.handleReviewersKey(msg)
	case modeContributor:
		if msg.String() == "esc" || msg.String() == "q" {
			m.mode = modeReviewers
			m.contributor = domain.Contributor{}
			m.status = "reviewers"
		}
		return m, nil
	case modePulse:
		if msg.String() == "esc" || key.Matches(msg, m.keys.pulse) {
			return m, m.setPulseFocus(false)
		}
		return m, nil
	default:
		m.mode = modeNone
		return m, nil
	}
}

// startSearchMode starts search mode.
func (m *Model) startSearchMode() tea.Cmd {
	m.mode = modeSearch
	m.searchInput.SetValue(m.filter.SearchQuery())
	m.searchInput.CursorEnd()
	m.status = "search"
	return m.searchInput.Focus()
}

// handleSearchKey edits the search text; every keystroke refilters.
func (m Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.mode = modeNone
		m.searchInput.Blur()
		if q := m.filter.SearchQuery(); q != "" {
			m.status = fmt.Sprintf("search %q: %d matches", q, len(m.board.Items))
		} else {
			m.status = "ready"
		}
		return m, nil
	case "ctrl+u":
		m.searchInput.SetValue("")
		m.applySearch()
		m.status = "query cleared"
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applySearch()
	return m, cmd
}

// applySearch stores the input text verbatim and regroups.
func (m *Model) applySearch() {
	m.filter.SetSearch(m.searchInput.Value())
	m.rebuildBoard()
}

// resetFilters clears search and selections; it is a no-op while no picker value is selected.
func (m *Model) resetFilters() {
	if m.filter.ActiveCount() == 0 {
		m.status = "no filters to reset"
		return
	}
	m.filter.Reset()
	m.searchInput.SetValue("")
	m.rebuildBoard()
	m.status = "filters reset"
}

// toggleView switches between the column board and the data grid.
func (m *Model) toggleView() {
	if m.view == ViewGrid {
		m.view = ViewBoard
	} else {
		m.view = ViewGrid
		m.gridOffset = 0
		m.navbar = newNavbarState()
	}
	m.clampSelections()
	m.status = string(m.view) + " view"
}

// moveSelection moves the focused item by delta within the current view.
func (m *Model) moveSelection(delta int) {
	if m.view == ViewGrid {
		m.gridSelected = clamp(m.gridSelected+delta, 0, len(m.board.Items)-1)
		page := m.gridPageSize()
		offset := m.gridOffset
		if m.gridSelected < offset {
			offset = m.gridSelected
		}
		if m.gridSelected >= offset+page {
			offset = m.gridSelected - page + 1
		}
		m.scrollGridTo(offset)
		return
	}
	m.selectedItem = clamp(m.selectedItem+delta, 0, len(m.currentColumnItems())-1)
}

// scrollGridTo moves the first visible grid row and updates header visibility.
func (m *Model) scrollGridTo(offset int) {
	maxOffset := max(0, len(m.board.Items)-m.gridPageSize())
	m.gridOffset = clamp(offset, 0, maxOffset)
	m.navbar = m.navbar.observe(m.gridOffset)
}

// visibleColumns returns the columns drawn on the board, honoring hide-empty.
func (m Model) visibleColumns() []board.Column {
	if !m.hideEmptyColumns {
		return m.board.Columns
	}
	out := make([]board.Column, 0, len(m.board.Columns))
	for _, col := range m.board.Columns {
		if !col.Empty() {
			out = append(out, col)
		}
	}
	if len(out) == 0 {
		return m.board.Columns
	}
	return out
}

// currentColumnItems returns items in the focused board column.
func (m Model) currentColumnItems() []domain.WorkItem {
	cols := m.visibleColumns()
	if len(cols) == 0 {
		return nil
	}
	return cols[clamp(m.selectedColumn, 0, len(cols)-1)].Items
}

// clampSelections clamps selections.
func (m *Model) clampSelections() {
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.visibleColumns())-1)
	m.selectedItem = clamp(m.selectedItem, 0, len(m.currentColumnItems())-1)
	m.gridSelected = clamp(m.gridSelected, 0, len(m.board.Items)-1)
	m.gridOffset = clamp(m.gridOffset, 0, max(0, len(m.board.Items)-m.gridPageSize()))
	m.pickerCursor = clamp(m.pickerCursor, 0, len(m.pickerOptions(m.picker))-1)
}

// selectedReviewer returns the highlighted reviewer in the reviewers panel.
func (m Model) selectedReviewer() (domain.Reviewer, bool) {
	if len(m.reviewers.TopReviewers) == 0 {
		return domain.Reviewer{}, false
	}
	return m.reviewers.TopReviewers[clamp(m.reviewerIndex, 0, len(m.reviewers.TopReviewers)-1)], true
}

// handleReviewersKey navigates the reviewers panel and opens contributor details.
func (m Model) handleReviewersKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc" || key.Matches(msg, m.keys.reviewers):
		m.mode = modeNone
		m.status = "ready"
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.reviewerIndex = clamp(m.reviewerIndex-1, 0, len(m.reviewers.TopReviewers)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.reviewerIndex = clamp(m.reviewerIndex+1, 0, len(m.reviewers.TopReviewers)-1)
		return m, nil
	case key.Matches(msg, m.keys.openDetails):
		reviewer, ok := m.selectedReviewer()
		if !ok {
			return m, nil
		}
		m.status = "loading " + reviewer.Name + "..."
		return m, m.loadContributor(strings.TrimSpace(reviewer.Name))
	default:
		return m, nil
	}
}

// handleMouseWheel handles mouse wheel.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll {
		return m, nil
	}
	if m.mode == modePicker {
		switch msg.Button {
		case tea.MouseWheelUp:
			m.pickerCursor = clamp(m.pickerCursor-1, 0, len(m.pickerOptions(m.picker))-1)
		case tea.MouseWheelDown:
			m.pickerCursor = clamp(m.pickerCursor+1, 0, len(m.pickerOptions(m.picker))-1)
		}
		return m, nil
	}
	if m.mode != modeNone {
		return m, nil
	}
	if m.view == ViewGrid {
		switch msg.Button {
		case tea.MouseWheelUp:
			m.scrollGridTo(m.gridOffset - 1)
		case tea.MouseWheelDown:
			m.scrollGridTo(m.gridOffset + 1)
		}
		m.gridSelected = clamp(m.gridSelected, m.gridOffset, min(len(m.board.Items)-1, m.gridOffset+m.gridPageSize()-1))
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.moveSelection(-1)
	case tea.MouseWheelDown:
		m.moveSelection(1)
	}
	return m, nil
}

// handleMouseClick handles mouse click.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll {
		return m, nil
	}
	switch m.mode {
	case modePicker:
		if category, ok := m.pickerAt(msg.X, msg.Y); ok {
			m.openPicker(category)
			return m, nil
		}
		x, y := m.pickerOrigin()
		row := msg.Y - y - 1
		options := m.pickerOptions(m.picker)
		if msg.X < x || row < 0 || row >= len(options) {
			m.closePicker()
			return m, nil
		}
		m.pickerCursor = row
		m.toggleCurrentOption()
		return m, nil
	case modeContributor:
		m.mode = modeReviewers
		m.contributor = domain.Contributor{}
		return m, nil
	case modeNone:
	default:
		return m, nil
	}

	if msg.Y == 0 && m.headerShown() && len(m.events) > 0 {
		return m, m.setPulseFocus(true)
	}
	if category, ok := m.pickerAt(msg.X, msg.Y); ok {
		m.openPicker(category)
		return m, nil
	}
	if m.view != ViewBoard {
		return m, nil
	}
	cols := m.visibleColumns()
	colWidth := m.columnWidthFor(m.width, len(cols)) + columnOverhead
	if colWidth > 0 && msg.X >= 0 {
		if idx := msg.X / colWidth; idx < len(cols) && idx != m.selectedColumn {
			m.selectedColumn = idx
			m.selectedItem = 0
		}
	}
	m.clampSelections()
	return m, nil
}

// gridPageSize estimates visible grid rows from the terminal height.
func (m Model) gridPageSize() int {
	return max(3, m.height-12)
}
