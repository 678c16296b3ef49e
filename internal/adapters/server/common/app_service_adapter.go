package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/missionctl/internal/app"
	"github.com/evanschultz/missionctl/internal/board"
	"github.com/evanschultz/missionctl/internal/domain"
)

// maxVisibleLabels matches the label budget of the data grid.
const maxVisibleLabels = 3

// AppServiceAdapter maps transport contracts onto app.Service reads.
type AppServiceAdapter struct {
	service *app.Service
	domains []string
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
// domains overrides the suggested domain vocabulary when non-empty.
func NewAppServiceAdapter(service *app.Service, domains []string) *AppServiceAdapter {
	cleaned := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			cleaned = append(cleaned, d)
		}
	}
	if len(cleaned) == 0 {
		cleaned = domain.DefaultDomains()
	}
	return &AppServiceAdapter{service: service, domains: cleaned}
}

// Board returns the filtered board with five ordered columns.
func (a *AppServiceAdapter) Board(ctx context.Context, in BoardRequest) (BoardView, error) {
	if err := a.ready(); err != nil {
		return BoardView{}, err
	}
	state := in.FilterState()
	b, err := a.service.Board(ctx, state)
	if err != nil {
		return BoardView{}, mapAppError("board", err)
	}
	stats, err := a.service.Stats(ctx)
	if err != nil {
		return BoardView{}, mapAppError("board stats", err)
	}

	out := BoardView{
		Filters:       SummarizeFilter(state),
		Columns:       make([]ColumnView, 0, len(b.Columns)),
		Excluded:      ItemViews(b.Excluded),
		Matched:       len(b.Items),
		Stats:         stats,
		FilteredStats: board.Stats(b.Items),
	}
	for _, col := range b.Columns {
		out.Columns = append(out.Columns, ColumnView{
			Status: string(col.Status),
			Label:  domain.StatusLabel(col.Status),
			Count:  len(col.Items),
			Items:  ItemViews(col.Items),
		})
	}
	return out, nil
}

// Items returns the flat filtered list.
func (a *AppServiceAdapter) Items(ctx context.Context, in BoardRequest) ([]ItemView, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	items, err := a.service.FilterItems(ctx, in.FilterState())
	if err != nil {
		return nil, mapAppError("items", err)
	}
	return ItemViews(items), nil
}

// Stats counts headline statuses across every item.
func (a *AppServiceAdapter) Stats(ctx context.Context) (domain.MissionStats, error) {
	if err := a.ready(); err != nil {
		return domain.MissionStats{}, err
	}
	stats, err := a.service.Stats(ctx)
	if err != nil {
		return domain.MissionStats{}, mapAppError("stats", err)
	}
	return stats, nil
}

// Reviewers returns reviewer metrics with the sentiment label resolved.
func (a *AppServiceAdapter) Reviewers(ctx context.Context) (ReviewersView, error) {
	if err := a.ready(); err != nil {
		return ReviewersView{}, err
	}
	metrics, err := a.service.ReviewerMetrics(ctx)
	if err != nil {
		return ReviewersView{}, mapAppError("reviewers", err)
	}
	reviewers := metrics.TopReviewers
	if reviewers == nil {
		reviewers = []domain.Reviewer{}
	}
	return ReviewersView{
		TopReviewers:       reviewers,
		CommunityHappiness: metrics.CommunityHappiness,
		AnalyzedComments:   metrics.AnalyzedComments,
		Sentiment:          string(domain.SentimentFor(metrics.CommunityHappiness)),
	}, nil
}

// Contributor returns one contributor by login.
func (a *AppServiceAdapter) Contributor(ctx context.Context, login string) (domain.Contributor, error) {
	if err := a.ready(); err != nil {
		return domain.Contributor{}, err
	}
	login = strings.TrimSpace(login)
	if login == "" {
		return domain.Contributor{}, fmt.Errorf("login is required: %w", ErrInvalidRequest)
	}
	contributor, err := a.service.Contributor(ctx, login)
	if err != nil {
		return domain.Contributor{}, mapAppError("contributor", err)
	}
	return contributor, nil
}

// Pulse returns recent activity with relative labels computed at call time.
func (a *AppServiceAdapter) Pulse(ctx context.Context, limit int) ([]PulseEventView, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0: %w", ErrInvalidRequest)
	}
	if limit == 0 {
		limit = DefaultPulseLimit
	}
	events, err := a.service.PulseEvents(ctx, limit)
	if err != nil {
		return nil, mapAppError("pulse", err)
	}
	now := a.service.Now()
	out := make([]PulseEventView, 0, len(events))
	for _, event := range events {
		out = append(out, PulseEventView{
			PulseEvent: event,
			Ago:        domain.TimeAgo(event.Time, now),
			Badge:      event.LiveLabel(now),
		})
	}
	return out, nil
}

// Vocabulary lists picker values in display order.
func (a *AppServiceAdapter) Vocabulary(context.Context) (Vocabulary, error) {
	out := Vocabulary{
		Priorities: make([]string, 0, 3),
		Statuses:   make([]string, 0, 5),
		Domains:    append([]string(nil), a.domains...),
	}
	for _, p := range domain.Priorities() {
		out.Priorities = append(out.Priorities, string(p))
	}
	for _, s := range domain.CanonicalStatuses() {
		out.Statuses = append(out.Statuses, string(s))
	}
	return out, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	return nil
}

// FilterState converts the request into a board filter. Values are trimmed; blanks are dropped.
func (r BoardRequest) FilterState() board.FilterState {
	state := board.NewFilterState()
	state.SetSearch(r.Query)
	add := func(category board.Category, values []string) {
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" || state.Has(category, v) {
				continue
			}
			state.Toggle(category, v)
		}
	}
	add(board.CategoryPriorities, r.Priorities)
	add(board.CategoryStatuses, r.Statuses)
	add(board.CategoryDomains, r.Domains)
	return state
}

// SummarizeFilter echoes state with sorted selections.
func SummarizeFilter(state board.FilterState) FilterSummary {
	return FilterSummary{
		Query:       state.SearchQuery(),
		Priorities:  state.Selected(board.CategoryPriorities),
		Statuses:    state.Selected(board.CategoryStatuses),
		Domains:     state.Selected(board.CategoryDomains),
		ActiveCount: state.ActiveCount(),
	}
}

// ItemViews maps domain items into transport rows.
func ItemViews(items []domain.WorkItem) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, item := range items {
		labels, hidden := item.VisibleLabels(maxVisibleLabels)
		out = append(out, ItemView{
			ID:          item.ID,
			Number:      item.DisplayNumber(),
			Kind:        string(item.Kind),
			Glyph:       domain.ItemGlyph(item),
			Title:       item.Title,
			Status:      string(item.Status),
			Priority:    string(item.Priority),
			Domain:      item.Domain,
			Assignee:    item.AssigneeLogin(),
			Labels:      labels,
			HiddenLabel: hidden,
			URL:         item.URL,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	return out
}

// mapAppError maps app-layer failures into transport-visible sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrInvalidLogin),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, app.ErrInvalidFeed):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
