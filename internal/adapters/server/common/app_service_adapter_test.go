package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evanschultz/missionctl/internal/app"
	"github.com/evanschultz/missionctl/internal/domain"
)

// memoryRepo is a fixed in-memory app.Repository.
type memoryRepo struct {
	items        []domain.WorkItem
	contributors []domain.Contributor
	metrics      *domain.ReviewerMetrics
	events       []domain.PulseEvent
}

func (m *memoryRepo) ListItems(context.Context) ([]domain.WorkItem, error) {
	return append([]domain.WorkItem(nil), m.items...), nil
}

func (m *memoryRepo) ListContributors(context.Context) ([]domain.Contributor, error) {
	return append([]domain.Contributor(nil), m.contributors...), nil
}

func (m *memoryRepo) GetContributor(_ context.Context, login string) (domain.Contributor, error) {
	for _, c := range m.contributors {
		if c.Login == login {
			return c, nil
		}
	}
	return domain.Contributor{}, app.ErrNotFound
}

func (m *memoryRepo) GetReviewerMetrics(context.Context) (domain.ReviewerMetrics, error) {
	if m.metrics == nil {
		return domain.ReviewerMetrics{}, app.ErrNotFound
	}
	return *m.metrics, nil
}

func (m *memoryRepo) ListPulseEvents(_ context.Context, limit int) ([]domain.PulseEvent, error) {
	if limit <= 0 || limit > len(m.events) {
		limit = len(m.events)
	}
	return append([]domain.PulseEvent(nil), m.events[:limit]...), nil
}

func (m *memoryRepo) Revision(context.Context) (uint64, error) {
	return 1, nil
}

func (m *memoryRepo) ReplaceDataset(context.Context, app.Dataset) error {
	return nil
}

func newTestAdapter(repo *memoryRepo, now time.Time) *AppServiceAdapter {
	svc := app.NewService(repo, nil, func() time.Time { return now }, app.ServiceConfig{})
	return NewAppServiceAdapter(svc, nil)
}

func fixtureRepo() *memoryRepo {
	return &memoryRepo{
		items: []domain.WorkItem{
			{ID: "1", Number: 12, Kind: domain.KindPullRequest, Title: "Fix nav", Status: domain.StatusDone, Priority: domain.PriorityHigh, Domain: "Frontend", Labels: []string{"a", "b", "c", "d"}},
			{ID: "2", Title: "Write guide", Status: domain.StatusBacklog, Priority: domain.PriorityLow, Domain: "Docs"},
			{ID: "3", Title: "Mystery", Status: "Blocked", Priority: domain.PriorityHigh, Domain: "Docs"},
		},
		contributors: []domain.Contributor{{Login: "octo", PRCount: 5}},
		events: []domain.PulseEvent{
			{ID: "e1", User: "octo", Action: "pushed", Time: "2026-03-01T11:57:00Z", Type: domain.EventPush},
			{ID: "e2", User: "bot", Action: "idle", Type: domain.EventSystem},
		},
	}
}

func TestAppServiceAdapterBoard(t *testing.T) {
	adapter := newTestAdapter(fixtureRepo(), time.Now())

	got, err := adapter.Board(context.Background(), BoardRequest{Priorities: []string{" High ", "High", ""}})
	if err != nil {
		t.Fatalf("Board() error = %v", err)
	}
	if len(got.Columns) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(got.Columns))
	}
	if got.Columns[0].Status != "Done" || got.Columns[0].Count != 1 {
		t.Fatalf("unexpected first column %#v", got.Columns[0])
	}
	if got.Columns[0].Items[0].Number != "#12" || got.Columns[0].Items[0].HiddenLabel != 1 {
		t.Fatalf("unexpected item view %#v", got.Columns[0].Items[0])
	}
	for _, col := range got.Columns {
		if col.Status == "Ready" && col.Label != "Ready / Todo" {
			t.Fatalf("unexpected Ready label %q", col.Label)
		}
	}
	if got.Filters.ActiveCount != 1 || len(got.Filters.Priorities) != 1 {
		t.Fatalf("unexpected filter summary %#v", got.Filters)
	}
	if len(got.Excluded) != 1 || got.Excluded[0].ID != "3" {
		t.Fatalf("unexpected excluded %#v", got.Excluded)
	}
	if got.Matched != 2 || got.Stats.Total != 3 || got.FilteredStats.Total != 2 {
		t.Fatalf("unexpected counts matched=%d stats=%#v filtered=%#v", got.Matched, got.Stats, got.FilteredStats)
	}
}

func TestAppServiceAdapterItemsSearch(t *testing.T) {
	adapter := newTestAdapter(fixtureRepo(), time.Now())
	items, err := adapter.Items(context.Background(), BoardRequest{Query: "NAV"})
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "1" || items[0].Glyph != "✔" {
		t.Fatalf("unexpected items %#v", items)
	}
	if items[0].Assignee != "unassigned" {
		t.Fatalf("unexpected assignee %q", items[0].Assignee)
	}
}

func TestAppServiceAdapterReviewersDefaults(t *testing.T) {
	adapter := newTestAdapter(fixtureRepo(), time.Now())
	got, err := adapter.Reviewers(context.Background())
	if err != nil {
		t.Fatalf("Reviewers() error = %v", err)
	}
	if got.CommunityHappiness != 50 || got.Sentiment != "Neutral" || got.TopReviewers == nil {
		t.Fatalf("unexpected default reviewers %#v", got)
	}
}

func TestAppServiceAdapterContributorErrors(t *testing.T) {
	adapter := newTestAdapter(fixtureRepo(), time.Now())
	if _, err := adapter.Contributor(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := adapter.Contributor(context.Background(), " "); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	got, err := adapter.Contributor(context.Background(), "octo")
	if err != nil || got.PRCount != 5 {
		t.Fatalf("Contributor() = %#v, %v", got, err)
	}
}

func TestAppServiceAdapterPulseLabels(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	adapter := newTestAdapter(fixtureRepo(), now)
	events, err := adapter.Pulse(context.Background(), 0)
	if err != nil {
		t.Fatalf("Pulse() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Ago != "3m" || events[0].Badge != "LIVE_3m" {
		t.Fatalf("unexpected first event labels %#v", events[0])
	}
	if events[1].Badge != "STANDBY" {
		t.Fatalf("expected STANDBY badge, got %q", events[1].Badge)
	}
	if _, err := adapter.Pulse(context.Background(), -1); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestAppServiceAdapterVocabulary(t *testing.T) {
	svc := app.NewService(fixtureRepo(), nil, nil, app.ServiceConfig{})
	adapter := NewAppServiceAdapter(svc, []string{" Mobile ", ""})
	vocab, err := adapter.Vocabulary(context.Background())
	if err != nil {
		t.Fatalf("Vocabulary() error = %v", err)
	}
	if len(vocab.Priorities) != 3 || len(vocab.Statuses) != 5 {
		t.Fatalf("unexpected vocabulary %#v", vocab)
	}
	if len(vocab.Domains) != 1 || vocab.Domains[0] != "Mobile" {
		t.Fatalf("unexpected domains %#v", vocab.Domains)
	}
}

func TestAppServiceAdapterUnconfigured(t *testing.T) {
	var adapter *AppServiceAdapter
	if _, err := adapter.Board(context.Background(), BoardRequest{}); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}
